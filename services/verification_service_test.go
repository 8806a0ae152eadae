package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wespark/certifier/models"
	"github.com/wespark/certifier/storage"
	"github.com/wespark/certifier/verifystore"
)

func seedPrimaryCertificate(t *testing.T, store *storage.MemoryStorage, certificateID, hash string, verifyID *string) *models.Certificate {
	t.Helper()
	ctx := context.Background()
	cert := &models.Certificate{
		CertificateID:  certificateID,
		UserID:         1,
		CourseID:       2,
		CompletionDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Hash:           &hash,
		VerifyID:       verifyID,
	}
	require.NoError(t, store.CreateCertificate(ctx, cert))
	return cert
}

func TestResolve_SecondaryPrecedence(t *testing.T) {
	store := storage.NewMemoryStorage()
	index := verifystore.NewMemoryStore()
	svc := NewVerificationService(store, index)
	ctx := context.Background()

	// Same certificate ID in both stores with diverged content; the
	// secondary record must win.
	seedPrimaryCertificate(t, store, "WS-2025-AA0001", "primaryhash", nil)
	require.NoError(t, index.Save(ctx, &verifystore.Record{
		ID:             "VF-1-abc",
		CertificateID:  "WS-2025-AA0001",
		Name:           "Secondary Name",
		Course:         "Secondary Course",
		CompletionDate: "2025-03-10",
		Hash:           "secondaryhash",
	}))

	result, err := svc.Resolve(ctx, "WS-2025-AA0001")
	require.NoError(t, err)
	require.True(t, result.Valid)
	assert.Equal(t, SourceSecondary, result.Source)
	assert.Equal(t, "Secondary Name", result.Certificate.Name)
	assert.Equal(t, "secondaryhash", result.Certificate.Hash)
}

func TestResolve_SecondaryKeyOrder(t *testing.T) {
	store := storage.NewMemoryStorage()
	index := verifystore.NewMemoryStore()
	svc := NewVerificationService(store, index)
	ctx := context.Background()

	require.NoError(t, index.Save(ctx, &verifystore.Record{
		ID:            "VF-2-xyz",
		CertificateID: "WS-2025-BB0002",
		Name:          "Holder",
		Course:        "Course",
		Hash:          "feedbead",
	}))

	for _, token := range []string{"WS-2025-BB0002", "VF-2-xyz", "feedbead"} {
		result, err := svc.Resolve(ctx, token)
		require.NoError(t, err, token)
		assert.True(t, result.Valid, token)
		assert.Equal(t, SourceSecondary, result.Source, token)
	}
}

func TestResolve_PrimaryFallback(t *testing.T) {
	store := storage.NewMemoryStorage()
	svc := NewVerificationService(store, verifystore.NewMemoryStore())
	ctx := context.Background()

	verifyID := "VF-3-primary"
	seedPrimaryCertificate(t, store, "WS-2025-CC0003", "cafef00d", &verifyID)

	for _, token := range []string{"WS-2025-CC0003", "cafef00d", "VF-3-primary"} {
		result, err := svc.Resolve(ctx, token)
		require.NoError(t, err, token)
		require.True(t, result.Valid, token)
		assert.Equal(t, SourcePrimary, result.Source, token)
		assert.Equal(t, "WS-2025-CC0003", result.Certificate.CertificateID, token)
		// Normalized record always carries holder name and course title.
		assert.Equal(t, "Admin User", result.Certificate.Name, token)
		assert.Equal(t, "2025-03-10", result.Certificate.CompletionDate, token)
	}
}

func TestResolve_Miss(t *testing.T) {
	store := storage.NewMemoryStorage()
	svc := NewVerificationService(store, verifystore.NewMemoryStore())

	result, err := svc.Resolve(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Empty(t, result.Source)
	assert.Nil(t, result.Certificate)
}

func TestResolve_SecondaryUnreachableFallsBack(t *testing.T) {
	store := storage.NewMemoryStorage()
	svc := NewVerificationService(store, failingIndex{})
	ctx := context.Background()

	seedPrimaryCertificate(t, store, "WS-2025-DD0004", "deadbeef", nil)

	result, err := svc.Resolve(ctx, "WS-2025-DD0004")
	require.NoError(t, err)
	require.True(t, result.Valid)
	assert.Equal(t, SourcePrimary, result.Source)
}

func TestResolve_NeverDownloadedCertificate(t *testing.T) {
	// A certificate issued but never downloaded exists only in the primary
	// store and must still verify by its ID or hash.
	store := storage.NewMemoryStorage()
	index := verifystore.NewMemoryStore()
	issuer := NewCertificateService(store, index)
	svc := NewVerificationService(store, index)
	ctx := context.Background()

	cert, err := issuer.Issue(ctx, 1, 3, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)

	result, err := svc.Resolve(ctx, *cert.Hash)
	require.NoError(t, err)
	require.True(t, result.Valid)
	assert.Equal(t, SourcePrimary, result.Source)
	assert.Equal(t, cert.CertificateID, result.Certificate.CertificateID)
}
