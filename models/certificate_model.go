package models

import "time"

// Certificate is the core entity. CertificateID is the short public code
// printed on the document; Hash binds name, course title, completion date and
// CertificateID (SHA-256 over "name|title|date|id"). VerifyID is the
// secondary-store document ID, assigned at most once on first download.
type Certificate struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CertificateID  string    `gorm:"size:20;not null;unique" json:"certificate_id"`
	UserID         uint      `gorm:"not null" json:"user_id"`
	CourseID       uint      `gorm:"not null" json:"course_id"`
	IssuedAt       time.Time `gorm:"autoCreateTime" json:"issued_at"`
	CompletionDate time.Time `gorm:"not null" json:"completion_date"`
	City           *string   `gorm:"size:255" json:"city"`
	Hash           *string   `gorm:"size:64" json:"hash"`
	VerifyID       *string   `gorm:"size:64" json:"verify_id"`
	PDFPath        *string   `gorm:"type:text" json:"pdf_path"`

	User   User   `gorm:"foreignKey:UserID" json:"user,omitzero"`
	Course Course `gorm:"foreignKey:CourseID" json:"course,omitzero"`
}

type CertificateUpdate struct {
	CompletionDate *time.Time `json:"completion_date"`
	City           *string    `json:"city"`
	Hash           *string    `json:"hash"`
	VerifyID       *string    `json:"verify_id"`
	PDFPath        *string    `json:"pdf_path"`
}
