package verifystore

import (
	"context"
	"sync"
)

// MemoryStore backs the verification index when no Firestore project is
// configured. Lookups are linear scans; the index never holds more than one
// record per downloaded certificate.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	return nil
}

func (s *MemoryStore) FindByCertificateID(_ context.Context, token string) (*Record, error) {
	return s.find(func(r *Record) bool { return r.CertificateID == token })
}

func (s *MemoryStore) FindByID(_ context.Context, token string) (*Record, error) {
	return s.find(func(r *Record) bool { return r.ID == token })
}

func (s *MemoryStore) FindByHash(_ context.Context, token string) (*Record, error) {
	return s.find(func(r *Record) bool { return r.Hash == token })
}

func (s *MemoryStore) find(match func(*Record) bool) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if match(&s.records[i]) {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}
