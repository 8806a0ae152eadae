package services

import (
	"context"
	"log"

	"github.com/wespark/certifier/models"
	"github.com/wespark/certifier/storage"
	"github.com/wespark/certifier/verifystore"
)

const (
	SourceSecondary = "secondary"
	SourcePrimary   = "primary"
)

// VerificationResult is the normalized answer to a verification query.
// Callers never need to know which store produced the record.
type VerificationResult struct {
	Valid       bool                `json:"valid"`
	Source      string              `json:"source,omitempty"`
	Certificate *verifystore.Record `json:"certificate,omitempty"`
}

// VerificationService resolves an opaque caller-supplied token (certificate
// ID, content hash, or secondary-store ID) against both stores.
type VerificationService struct {
	store storage.Storage
	index verifystore.Store
}

func NewVerificationService(store storage.Storage, index verifystore.Store) *VerificationService {
	return &VerificationService{store: store, index: index}
}

// Resolve queries the secondary index first (certificate ID, then store ID,
// then hash), falling back to a scan of the primary store. The secondary
// store is best-effort: any error there is logged and the primary scan still
// runs. A miss in both stores returns {Valid: false} with a nil error; only a
// primary-store failure is an error.
func (s *VerificationService) Resolve(ctx context.Context, token string) (*VerificationResult, error) {
	if rec := s.lookupSecondary(ctx, token); rec != nil {
		return &VerificationResult{Valid: true, Source: SourceSecondary, Certificate: rec}, nil
	}

	certs, err := s.store.GetAllCertificates(ctx)
	if err != nil {
		return nil, err
	}
	// Linear scan; fine at this scale, an index on hash and verify_id
	// replaces it if the table ever grows.
	for i := range certs {
		if matchesToken(&certs[i], token) {
			return &VerificationResult{
				Valid:       true,
				Source:      SourcePrimary,
				Certificate: normalize(&certs[i]),
			}, nil
		}
	}

	return &VerificationResult{Valid: false}, nil
}

func (s *VerificationService) lookupSecondary(ctx context.Context, token string) *verifystore.Record {
	finders := []func(context.Context, string) (*verifystore.Record, error){
		s.index.FindByCertificateID,
		s.index.FindByID,
		s.index.FindByHash,
	}
	for _, find := range finders {
		rec, err := find(ctx, token)
		if err != nil {
			log.Printf("verification: secondary store lookup failed, falling back to primary: %v", err)
			return nil
		}
		if rec != nil {
			return rec
		}
	}
	return nil
}

func matchesToken(cert *models.Certificate, token string) bool {
	if cert.CertificateID == token {
		return true
	}
	if cert.Hash != nil && *cert.Hash == token {
		return true
	}
	if cert.VerifyID != nil && *cert.VerifyID == token {
		return true
	}
	return false
}

// normalize reshapes a primary-store row into the same record the secondary
// store returns.
func normalize(cert *models.Certificate) *verifystore.Record {
	rec := &verifystore.Record{
		CertificateID:  cert.CertificateID,
		Name:           cert.User.Name,
		Course:         cert.Course.Title,
		CompletionDate: cert.CompletionDate.Format(dateLayout),
		UserID:         cert.UserID,
		CourseID:       cert.CourseID,
	}
	if cert.Hash != nil {
		rec.Hash = *cert.Hash
	}
	if cert.VerifyID != nil {
		rec.ID = *cert.VerifyID
	} else {
		rec.ID = cert.CertificateID
	}
	return rec
}
