package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/wespark/certifier/models"
)

// PDFService renders certificates by printing an HTML template through
// headless Chrome. The QR code in the corner points at the public verifier
// and encodes the certificate's public code.
type PDFService struct {
	TemplatePath string
	// VerifierBaseURL is the public origin the QR code links to.
	VerifierBaseURL string
}

func NewPDFService(templatePath, verifierBaseURL string) *PDFService {
	return &PDFService{TemplatePath: templatePath, VerifierBaseURL: verifierBaseURL}
}

type certificateTemplateData struct {
	Name           string
	CourseTitle    string
	CompletionDate string
	City           string
	CertificateID  string
	HashPreview    string
	Background     string
	QRCode         template.URL
}

func (s *PDFService) RenderCertificate(ctx context.Context, cert *models.Certificate, user *models.User, course *models.Course) ([]byte, error) {
	html, err := s.renderHTML(cert, user, course)
	if err != nil {
		return nil, fmt.Errorf("render certificate html: %w", err)
	}
	pdf, err := printToPDF(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("print certificate pdf: %w", err)
	}
	return pdf, nil
}

func (s *PDFService) renderHTML(cert *models.Certificate, user *models.User, course *models.Course) (string, error) {
	tmpl, err := template.ParseFiles(s.TemplatePath)
	if err != nil {
		return "", err
	}

	verificationURL := fmt.Sprintf("%s/verifier?id=%s", s.VerifierBaseURL, cert.CertificateID)
	qrPNG, err := qrcode.Encode(verificationURL, qrcode.Medium, 200)
	if err != nil {
		return "", err
	}

	data := certificateTemplateData{
		Name:           user.Name,
		CourseTitle:    course.Title,
		CompletionDate: cert.CompletionDate.Format("January 2, 2006"),
		CertificateID:  cert.CertificateID,
		QRCode:         template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG)),
	}
	if cert.City != nil {
		data.City = *cert.City
	}
	if cert.Hash != nil && len(*cert.Hash) >= 32 {
		data.HashPreview = (*cert.Hash)[:32] + "..."
	}
	if course.CertificateBackground != nil {
		data.Background = *course.CertificateBackground
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", err
	}
	return out.String(), nil
}

func printToPDF(parent context.Context, htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 30*time.Second)
	defer cancelTimeout()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}
