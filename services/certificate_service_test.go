package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wespark/certifier/models"
	"github.com/wespark/certifier/storage"
	"github.com/wespark/certifier/verifystore"
)

var certificateIDPattern = regexp.MustCompile(`^WS-\d{4}-[0-9A-F]{6}$`)

// countingStore wraps the in-memory verification index and counts writes.
type countingStore struct {
	*verifystore.MemoryStore
	saves int
}

func (s *countingStore) Save(ctx context.Context, rec *verifystore.Record) error {
	s.saves++
	return s.MemoryStore.Save(ctx, rec)
}

func newTestService() (*CertificateService, *storage.MemoryStorage, *countingStore) {
	store := storage.NewMemoryStorage()
	index := &countingStore{MemoryStore: verifystore.NewMemoryStore()}
	return NewCertificateService(store, index), store, index
}

func TestGenerateCertificateID_Shape(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := GenerateCertificateID()
		assert.Regexp(t, certificateIDPattern, id)
	}
}

func TestGenerateCertificateID_NotConstant(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[GenerateCertificateID()] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestComputeCertificateHash_Deterministic(t *testing.T) {
	a := ComputeCertificateHash("Jane Doe", "UX Design Principles", "2025-01-15", "WS-2025-ABCDEF")
	b := ComputeCertificateHash("Jane Doe", "UX Design Principles", "2025-01-15", "WS-2025-ABCDEF")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.Regexp(t, `^[0-9a-f]{64}$`, a)
}

func TestComputeCertificateHash_Avalanche(t *testing.T) {
	base := ComputeCertificateHash("Jane Doe", "UX Design Principles", "2025-01-15", "WS-2025-ABCDEF")
	variants := []string{
		ComputeCertificateHash("Jane Dof", "UX Design Principles", "2025-01-15", "WS-2025-ABCDEF"),
		ComputeCertificateHash("Jane Doe", "UX Design Principle", "2025-01-15", "WS-2025-ABCDEF"),
		ComputeCertificateHash("Jane Doe", "UX Design Principles", "2025-01-16", "WS-2025-ABCDEF"),
		ComputeCertificateHash("Jane Doe", "UX Design Principles", "2025-01-15", "WS-2025-ABCDEE"),
	}
	for _, v := range variants {
		assert.NotEqual(t, base, v)
	}
}

func TestIssue_EndToEnd(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	jane := &models.User{Email: "jane@example.com", Name: "Jane Doe"}
	require.NoError(t, store.CreateUser(ctx, jane))
	course, err := store.GetCourseByTitle(ctx, "UX Design Principles")
	require.NoError(t, err)

	completion := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	cert, err := svc.Issue(ctx, jane.ID, course.ID, completion, nil)
	require.NoError(t, err)

	assert.Regexp(t, certificateIDPattern, cert.CertificateID)
	assert.NotZero(t, cert.ID)
	assert.False(t, cert.IssuedAt.IsZero())

	require.NotNil(t, cert.Hash)
	expected := ComputeCertificateHash("Jane Doe", "UX Design Principles", "2025-01-15", cert.CertificateID)
	assert.Equal(t, expected, *cert.Hash)

	stored, err := store.GetCertificateByCertificateID(ctx, cert.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, expected, *stored.Hash)
}

func TestIssue_RetriesOnIDCollision(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	// The memory store seeds certificate WS-2025-8A31F0; force the first two
	// attempts to collide with it.
	attempts := 0
	svc.newID = func() string {
		attempts++
		if attempts <= 2 {
			return "WS-2025-8A31F0"
		}
		return "WS-2025-FFFFFF"
	}

	cert, err := svc.Issue(ctx, 1, 1, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Equal(t, "WS-2025-FFFFFF", cert.CertificateID)
	assert.Equal(t, 3, attempts)
}

func TestIssue_GivesUpAfterExhaustedAttempts(t *testing.T) {
	svc, _, _ := newTestService()
	svc.newID = func() string { return "WS-2025-8A31F0" } // always the seeded ID

	_, err := svc.Issue(context.Background(), 1, 1, time.Now(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestIssue_UnknownReferences(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Issue(context.Background(), 999, 1, time.Now(), nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Issue(context.Background(), 1, 999, time.Now(), nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEnsureVerifiable_BackfillsHashAndIndexOnce(t *testing.T) {
	svc, store, index := newTestService()
	ctx := context.Background()

	// The seeded certificate has no hash and no verify id.
	cert, err := store.GetCertificate(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, cert.Hash)
	require.Nil(t, cert.VerifyID)
	user, err := store.GetUser(ctx, cert.UserID)
	require.NoError(t, err)
	course, err := store.GetCourse(ctx, cert.CourseID)
	require.NoError(t, err)

	cert = svc.EnsureVerifiable(ctx, cert, user, course)

	require.NotNil(t, cert.Hash)
	expected := ComputeCertificateHash(user.Name, course.Title, "2025-01-15", cert.CertificateID)
	assert.Equal(t, expected, *cert.Hash)
	require.NotNil(t, cert.VerifyID)
	assert.Equal(t, 1, index.saves)

	rec, err := index.FindByID(ctx, *cert.VerifyID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, cert.CertificateID, rec.CertificateID)
	assert.Equal(t, user.Name, rec.Name)
	assert.Equal(t, course.Title, rec.Course)
	assert.Equal(t, "2025-01-15", rec.CompletionDate)

	// Persisted on the primary row too.
	stored, err := store.GetCertificate(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, stored.VerifyID)
	assert.Equal(t, *cert.VerifyID, *stored.VerifyID)

	// Second download is a no-op.
	again := svc.EnsureVerifiable(ctx, stored, user, course)
	assert.Equal(t, 1, index.saves)
	assert.Equal(t, *cert.VerifyID, *again.VerifyID)
}

func TestEnsureVerifiable_ReplacesPlaceholderHash(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	placeholder := "temp_hash_123"
	_, err := store.UpdateCertificate(ctx, 1, models.CertificateUpdate{Hash: &placeholder})
	require.NoError(t, err)

	cert, _ := store.GetCertificate(ctx, 1)
	user, _ := store.GetUser(ctx, cert.UserID)
	course, _ := store.GetCourse(ctx, cert.CourseID)

	cert = svc.EnsureVerifiable(ctx, cert, user, course)
	require.NotNil(t, cert.Hash)
	assert.NotEqual(t, placeholder, *cert.Hash)
	assert.Regexp(t, `^[0-9a-f]{64}$`, *cert.Hash)
}

// failingIndex simulates an unreachable secondary store.
type failingIndex struct{}

func (failingIndex) Save(context.Context, *verifystore.Record) error {
	return context.DeadlineExceeded
}
func (failingIndex) FindByCertificateID(context.Context, string) (*verifystore.Record, error) {
	return nil, context.DeadlineExceeded
}
func (failingIndex) FindByID(context.Context, string) (*verifystore.Record, error) {
	return nil, context.DeadlineExceeded
}
func (failingIndex) FindByHash(context.Context, string) (*verifystore.Record, error) {
	return nil, context.DeadlineExceeded
}

func TestEnsureVerifiable_SecondaryFailureDoesNotAssignVerifyID(t *testing.T) {
	store := storage.NewMemoryStorage()
	svc := NewCertificateService(store, failingIndex{})
	ctx := context.Background()

	cert, _ := store.GetCertificate(ctx, 1)
	user, _ := store.GetUser(ctx, cert.UserID)
	course, _ := store.GetCourse(ctx, cert.CourseID)

	cert = svc.EnsureVerifiable(ctx, cert, user, course)

	// Hash backfill still happened; the index write failed, so no verify id
	// may be recorded and a later download can retry.
	require.NotNil(t, cert.Hash)
	assert.Nil(t, cert.VerifyID)
	stored, _ := store.GetCertificate(ctx, 1)
	assert.Nil(t, stored.VerifyID)
}
