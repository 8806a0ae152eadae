package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// EmailService sends transactional mail through the Brevo HTTP API. A nil
// *EmailService is valid and drops every send, so callers never branch on
// whether mail is configured.
type EmailService struct {
	apiKey      string
	senderEmail string
	senderName  string
	client      *http.Client
}

func NewEmailService(apiKey, senderEmail, senderName string) *EmailService {
	if apiKey == "" || senderEmail == "" {
		log.Println("Warning: email service not configured, outbound mail disabled")
		return nil
	}
	return &EmailService{
		apiKey:      apiKey,
		senderEmail: senderEmail,
		senderName:  senderName,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

func (s *EmailService) send(toEmail, toName, subject, htmlContent string) error {
	if !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}
	if toName == "" {
		toName = strings.SplitN(toEmail, "@", 2)[0]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.senderName, "email": s.senderEmail},
		To:          []map[string]string{{"email": toEmail, "name": toName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, brevoEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendMagicLink mails a login link. Intended to run in a goroutine; failures
// are logged, never surfaced to the login request.
func (s *EmailService) SendMagicLink(toEmail, loginURL string) {
	if s == nil {
		return
	}
	html := fmt.Sprintf(
		"<h1>Your login link</h1><p>Click the link below to sign in. It is valid for 15 minutes and works once.</p><p><a href='%s'>Sign in</a></p>",
		loginURL,
	)
	if err := s.send(toEmail, "", "Your WeSpark login link", html); err != nil {
		log.Printf("notifications: magic link email to %s failed: %v", toEmail, err)
	}
}
