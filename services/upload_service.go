package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// UploadService archives rendered certificate PDFs in Cloudinary. Uploads are
// best-effort; the caller serves the PDF bytes whether or not the archive
// copy succeeded.
type UploadService struct {
	cld *cloudinary.Cloudinary
}

// NewUploadService returns nil when no CLOUDINARY_URL is configured, which
// disables archiving entirely.
func NewUploadService(cloudinaryURL string) (*UploadService, error) {
	if cloudinaryURL == "" {
		return nil, nil
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &UploadService{cld: cld}, nil
}

func (s *UploadService) UploadCertificatePDF(ctx context.Context, pdf []byte, certificateID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	params := uploader.UploadParams{
		PublicID:     fmt.Sprintf("certificates/%s_%s", certificateID, uuid.New().String()),
		Folder:       "wespark_certificates",
		ResourceType: "raw",
	}
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(pdf), params)
	if err != nil {
		return "", err
	}
	return result.SecureURL, nil
}
