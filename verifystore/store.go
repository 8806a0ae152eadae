// Package verifystore holds the secondary verification index: a document
// store of issued certificates populated lazily on first PDF download. It is
// not the system of record; verification falls back to primary storage when a
// certificate was never downloaded or the index is unreachable.
package verifystore

import "context"

// Record is a denormalized snapshot of a certificate plus the resolved holder
// name and course title, keyed by a store-local ID. Records are written once
// and never updated.
type Record struct {
	ID             string `json:"id"`
	CertificateID  string `json:"certificate_id"`
	Name           string `json:"name"`
	Course         string `json:"course"`
	CompletionDate string `json:"completion_date"` // YYYY-MM-DD
	Hash           string `json:"hash"`
	UserID         uint   `json:"user_id,omitempty"`
	CourseID       uint   `json:"course_id,omitempty"`
}

// Store is the secondary index contract. Finders return (nil, nil) on no
// match; an error means the store itself was unreachable, which callers treat
// as best-effort and fall back to primary storage.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	FindByCertificateID(ctx context.Context, token string) (*Record, error)
	FindByID(ctx context.Context, token string) (*Record, error)
	FindByHash(ctx context.Context, token string) (*Record, error)
}
