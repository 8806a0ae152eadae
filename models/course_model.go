package models

import "time"

type Course struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Title                 string    `gorm:"size:255;not null" json:"title"`
	Description           string    `gorm:"type:text;not null" json:"description"`
	Duration              int       `gorm:"not null" json:"duration"` // hours
	Icon                  string    `gorm:"size:100;not null;default:'fas fa-book'" json:"icon"`
	Thumbnail             *string   `gorm:"type:text" json:"thumbnail"`
	CertificateBackground *string   `gorm:"type:text" json:"certificate_background"`
	CreatedAt             time.Time `json:"created_at"`
}

type CourseUpdate struct {
	Title                 *string `json:"title"`
	Description           *string `json:"description"`
	Duration              *int    `json:"duration"`
	Icon                  *string `json:"icon"`
	Thumbnail             *string `json:"thumbnail"`
	CertificateBackground *string `json:"certificate_background"`
}

type CourseStats struct {
	TotalCourses     int64 `json:"totalCourses"`
	TotalEnrollments int64 `json:"totalEnrollments"`
}
