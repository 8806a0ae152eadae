package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wespark/certifier/models"
	"github.com/wespark/certifier/services"
	"github.com/wespark/certifier/storage"
)

type CertificateHandler struct {
	Store        storage.Storage
	Certificates *services.CertificateService
	Verification *services.VerificationService
	PDF          *services.PDFService
	Uploads      *services.UploadService
}

type issueCertificateRequest struct {
	UserID         uint    `json:"user_id" validate:"required"`
	CourseID       uint    `json:"course_id" validate:"required"`
	CompletionDate string  `json:"completion_date" validate:"required"`
	City           *string `json:"city"`
}

func (h *CertificateHandler) List(c *fiber.Ctx) error {
	certs, err := h.Store.GetAllCertificates(c.UserContext())
	if err != nil {
		return serverError(c, "list certificates", err)
	}
	return c.JSON(certs)
}

func (h *CertificateHandler) ListByUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}
	certs, err := h.Store.GetCertificatesByUserID(c.UserContext(), userID)
	if err != nil {
		return serverError(c, "list user certificates", err)
	}
	return c.JSON(certs)
}

func (h *CertificateHandler) Create(c *fiber.Ctx) error {
	var req issueCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	completionDate, err := time.Parse("2006-01-02", req.CompletionDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "completion_date must be YYYY-MM-DD"})
	}

	cert, err := h.Certificates.Issue(c.UserContext(), req.UserID, req.CourseID, completionDate, req.City)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown user or course"})
		}
		return serverError(c, "issue certificate", err)
	}
	return c.Status(fiber.StatusCreated).JSON(cert)
}

// VerifyByCertificateID is the primary-store-only lookup: an exact match on
// the public certificate code, joined with holder and course.
func (h *CertificateHandler) VerifyByCertificateID(c *fiber.Ctx) error {
	cert, err := h.Store.GetCertificateByCertificateID(c.UserContext(), c.Params("certificateId"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certificate not found"})
		}
		return serverError(c, "verify certificate", err)
	}
	return c.JSON(cert)
}

// Verify exposes the full dual-store resolver: the token may be a certificate
// code, a content hash, or a secondary-store document ID.
func (h *CertificateHandler) Verify(c *fiber.Ctx) error {
	result, err := h.Verification.Resolve(c.UserContext(), c.Params("idOrHash"))
	if err != nil {
		return serverError(c, "resolve verification token", err)
	}
	if !result.Valid {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"valid": false, "error": "Certificate not found"})
	}
	return c.JSON(result)
}

// Download renders the certificate PDF. Before rendering it runs the backfill
// saga (hash recompute + secondary-store publish); saga failures are logged
// and never block delivery of the PDF bytes.
func (h *CertificateHandler) Download(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid certificate id"})
	}
	ctx := c.UserContext()

	cert, err := h.Store.GetCertificate(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certificate not found"})
		}
		return serverError(c, "get certificate", err)
	}
	user, uerr := h.Store.GetUser(ctx, cert.UserID)
	course, cerr := h.Store.GetCourse(ctx, cert.CourseID)
	if uerr != nil || cerr != nil {
		if errors.Is(uerr, storage.ErrNotFound) || errors.Is(cerr, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certificate data incomplete"})
		}
		return serverError(c, "resolve certificate references", errors.Join(uerr, cerr))
	}

	cert = h.Certificates.EnsureVerifiable(ctx, cert, user, course)

	pdf, err := h.PDF.RenderCertificate(ctx, cert, user, course)
	if err != nil {
		return serverError(c, "render certificate pdf", err)
	}

	if h.Uploads != nil && cert.PDFPath == nil {
		if url, err := h.Uploads.UploadCertificatePDF(ctx, pdf, cert.CertificateID); err != nil {
			log.Printf("handlers: archiving pdf for %s failed: %v", cert.CertificateID, err)
		} else if _, err := h.Store.UpdateCertificate(ctx, cert.ID, models.CertificateUpdate{PDFPath: &url}); err != nil {
			log.Printf("handlers: persisting pdf path for %s failed: %v", cert.CertificateID, err)
		}
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "certificate-"+cert.CertificateID+".pdf"))
	return c.Send(pdf)
}
