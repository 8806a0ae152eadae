package models

import "time"

// MagicLink is a single-use login token. A token transitions unused -> used
// exactly once and is rejected after expiry or reuse.
type MagicLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Token     string    `gorm:"size:64;not null;unique" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *MagicLink) Expired(now time.Time) bool {
	return m.ExpiresAt.Before(now)
}
