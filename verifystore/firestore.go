package verifystore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const firestoreBaseURL = "https://firestore.googleapis.com/v1"

// FirestoreStore talks to the Firestore REST API. It carries the same
// identity rules the Firestore SDK client of the web app used: an API key on
// every request and open security rules on the certificates collection.
type FirestoreStore struct {
	ProjectID  string
	APIKey     string
	Collection string
	BaseURL    string
	HTTPClient *http.Client
}

func NewFirestoreStore(projectID, apiKey string) *FirestoreStore {
	return &FirestoreStore{
		ProjectID:  projectID,
		APIKey:     apiKey,
		Collection: "certificates",
		BaseURL:    firestoreBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *FirestoreStore) documentsURL() string {
	return fmt.Sprintf("%s/projects/%s/databases/(default)/documents", s.BaseURL, s.ProjectID)
}

// firestoreValue is the typed-value envelope Firestore documents use.
type firestoreValue struct {
	StringValue  *string `json:"stringValue,omitempty"`
	IntegerValue *string `json:"integerValue,omitempty"`
}

func strValue(v string) firestoreValue { return firestoreValue{StringValue: &v} }

func intValue(v uint) firestoreValue {
	s := strconv.FormatUint(uint64(v), 10)
	return firestoreValue{IntegerValue: &s}
}

func recordFields(rec *Record) map[string]firestoreValue {
	fields := map[string]firestoreValue{
		"id":              strValue(rec.ID),
		"certificate_id":  strValue(rec.CertificateID),
		"name":            strValue(rec.Name),
		"course":          strValue(rec.Course),
		"completion_date": strValue(rec.CompletionDate),
		"hash":            strValue(rec.Hash),
	}
	if rec.UserID != 0 {
		fields["user_id"] = intValue(rec.UserID)
	}
	if rec.CourseID != 0 {
		fields["course_id"] = intValue(rec.CourseID)
	}
	return fields
}

func fieldsToRecord(fields map[string]firestoreValue) *Record {
	rec := &Record{}
	str := func(key string) string {
		if v, ok := fields[key]; ok && v.StringValue != nil {
			return *v.StringValue
		}
		return ""
	}
	num := func(key string) uint {
		if v, ok := fields[key]; ok && v.IntegerValue != nil {
			n, _ := strconv.ParseUint(*v.IntegerValue, 10, 64)
			return uint(n)
		}
		return 0
	}
	rec.ID = str("id")
	rec.CertificateID = str("certificate_id")
	rec.Name = str("name")
	rec.Course = str("course")
	rec.CompletionDate = str("completion_date")
	rec.Hash = str("hash")
	rec.UserID = num("user_id")
	rec.CourseID = num("course_id")
	return rec
}

func (s *FirestoreStore) Save(ctx context.Context, rec *Record) error {
	payload, err := json.Marshal(map[string]any{"fields": recordFields(rec)})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s?key=%s", s.documentsURL(), s.Collection, s.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("verifystore: save request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("verifystore: save returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (s *FirestoreStore) FindByCertificateID(ctx context.Context, token string) (*Record, error) {
	return s.query(ctx, "certificate_id", token)
}

func (s *FirestoreStore) FindByID(ctx context.Context, token string) (*Record, error) {
	return s.query(ctx, "id", token)
}

func (s *FirestoreStore) FindByHash(ctx context.Context, token string) (*Record, error) {
	return s.query(ctx, "hash", token)
}

// query runs a single-field equality runQuery and returns the first document,
// or (nil, nil) when the result set is empty.
func (s *FirestoreStore) query(ctx context.Context, field, value string) (*Record, error) {
	payload, err := json.Marshal(map[string]any{
		"structuredQuery": map[string]any{
			"from": []map[string]any{{"collectionId": s.Collection}},
			"where": map[string]any{
				"fieldFilter": map[string]any{
					"field": map[string]any{"fieldPath": field},
					"op":    "EQUAL",
					"value": map[string]any{"stringValue": value},
				},
			},
			"limit": 1,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s:runQuery?key=%s", s.documentsURL(), s.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verifystore: query request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("verifystore: query returned %d: %s", resp.StatusCode, string(body))
	}

	// runQuery streams one JSON array entry per document; an empty result is
	// a single entry carrying only readTime.
	var results []struct {
		Document *struct {
			Fields map[string]firestoreValue `json:"fields"`
		} `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("verifystore: decode query response: %w", err)
	}

	for _, r := range results {
		if r.Document != nil {
			return fieldsToRecord(r.Document.Fields), nil
		}
	}
	return nil, nil
}
