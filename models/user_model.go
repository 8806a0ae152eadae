package models

import "time"

const (
	RoleGraduate = "graduate"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;unique" json:"email"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Password  *string   `gorm:"size:255" json:"-"`
	Role      string    `gorm:"size:20;not null;default:'graduate'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserUpdate carries an optional subset of user fields; nil means unchanged.
type UserUpdate struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

type UserStats struct {
	TotalUsers        int64 `json:"totalUsers"`
	ActiveUsers       int64 `json:"activeUsers"`
	TotalCertificates int64 `json:"totalCertificates"`
}
