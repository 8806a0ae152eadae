package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wespark/certifier/models"
	"github.com/wespark/certifier/storage"
	"github.com/wespark/certifier/verifystore"
)

// issueAttempts bounds the regenerate-and-retry loop on identifier collision.
const issueAttempts = 5

const dateLayout = "2006-01-02"

// placeholderHashPrefix marks hashes imported from legacy data that must be
// recomputed before the certificate is verifiable.
const placeholderHashPrefix = "temp_hash_"

// GenerateCertificateID mints a public certificate code of the form
// WS-<year>-<6 uppercase hex>. Collisions are astronomically unlikely but not
// impossible; uniqueness is enforced by the storage layer, and issuance
// retries with a fresh code on a duplicate.
func GenerateCertificateID() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(fmt.Sprintf("certificate id generation: %v", err))
	}
	return fmt.Sprintf("WS-%d-%s", time.Now().Year(), strings.ToUpper(hex.EncodeToString(buf)))
}

// ComputeCertificateHash is the tamper-evidence anchor: SHA-256 over the
// canonical string "name|courseTitle|completionDate|certificateID", rendered
// as lowercase hex. Anyone holding the printed certificate can recompute it.
func ComputeCertificateHash(name, courseTitle, completionDate, certificateID string) string {
	canonical := fmt.Sprintf("%s|%s|%s|%s", name, courseTitle, completionDate, certificateID)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// NewVerifyRecordID mints a store-local ID for a secondary verification
// record.
func NewVerifyRecordID() string {
	return fmt.Sprintf("VF-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// CertificateService orchestrates identifier minting, hashing, primary-store
// writes and the lazy secondary-store backfill.
type CertificateService struct {
	store storage.Storage
	index verifystore.Store

	// newID is swappable in tests to force identifier collisions.
	newID func() string
}

func NewCertificateService(store storage.Storage, index verifystore.Store) *CertificateService {
	return &CertificateService{
		store: store,
		index: index,
		newID: GenerateCertificateID,
	}
}

// Issue creates a certificate for an existing user and course. The content
// hash is computed over the stored holder name and course title, so the
// references must resolve before anything is written. A duplicate certificate
// identifier triggers a retry with a fresh one.
func (s *CertificateService) Issue(ctx context.Context, userID, courseID uint, completionDate time.Time, city *string) (*models.Certificate, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("issue certificate: resolve user %d: %w", userID, err)
	}
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("issue certificate: resolve course %d: %w", courseID, err)
	}

	var lastErr error
	for attempt := 0; attempt < issueAttempts; attempt++ {
		certificateID := s.newID()
		hash := ComputeCertificateHash(user.Name, course.Title, completionDate.Format(dateLayout), certificateID)

		cert := &models.Certificate{
			CertificateID:  certificateID,
			UserID:         userID,
			CourseID:       courseID,
			CompletionDate: completionDate,
			City:           city,
			Hash:           &hash,
		}
		err := s.store.CreateCertificate(ctx, cert)
		if err == nil {
			return cert, nil
		}
		if !errors.Is(err, storage.ErrDuplicate) {
			return nil, err
		}
		log.Printf("certificate id %s collided, regenerating (attempt %d)", certificateID, attempt+1)
		lastErr = err
	}
	return nil, fmt.Errorf("issue certificate: exhausted %d identifier attempts: %w", issueAttempts, lastErr)
}

// EnsureVerifiable runs the download-time backfill saga: recompute a missing
// or placeholder hash, then publish the certificate to the secondary index
// exactly once. Each step is best-effort; a failure is logged and the caller
// still serves the already-rendered PDF. Re-running for an already-published
// certificate is a no-op.
func (s *CertificateService) EnsureVerifiable(ctx context.Context, cert *models.Certificate, user *models.User, course *models.Course) *models.Certificate {
	date := cert.CompletionDate.Format(dateLayout)

	if cert.Hash == nil || *cert.Hash == "" || strings.HasPrefix(*cert.Hash, placeholderHashPrefix) {
		hash := ComputeCertificateHash(user.Name, course.Title, date, cert.CertificateID)
		if ok, err := s.store.UpdateCertificateHash(ctx, cert.ID, hash); err != nil || !ok {
			log.Printf("backfill: persisting hash for %s failed (ok=%v): %v", cert.CertificateID, ok, err)
		}
		cert.Hash = &hash
	}

	if cert.VerifyID != nil && *cert.VerifyID != "" {
		return cert
	}

	verifyID := NewVerifyRecordID()
	rec := &verifystore.Record{
		ID:             verifyID,
		CertificateID:  cert.CertificateID,
		Name:           user.Name,
		Course:         course.Title,
		CompletionDate: date,
		Hash:           *cert.Hash,
		UserID:         cert.UserID,
		CourseID:       cert.CourseID,
	}
	if err := s.index.Save(ctx, rec); err != nil {
		log.Printf("backfill: secondary store save for %s failed: %v", cert.CertificateID, err)
		return cert
	}

	// The two writes are not transactional; if this one fails the secondary
	// record is orphaned, which the resolver tolerates.
	updated, err := s.store.UpdateCertificate(ctx, cert.ID, models.CertificateUpdate{VerifyID: &verifyID})
	if err != nil {
		log.Printf("backfill: persisting verify id for %s failed: %v", cert.CertificateID, err)
		cert.VerifyID = &verifyID
		return cert
	}
	updated.User = cert.User
	updated.Course = cert.Course
	return updated
}
