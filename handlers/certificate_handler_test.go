package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wespark/certifier/models"
	"github.com/wespark/certifier/verifystore"
)

func TestCreateCertificate(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/certificates", map[string]any{
		"user_id":         1,
		"course_id":       3,
		"completion_date": "2025-01-15",
		"city":            "Berlin",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cert models.Certificate
	decodeJSON(t, resp, &cert)
	assert.Regexp(t, `^WS-\d{4}-[0-9A-F]{6}$`, cert.CertificateID)
	require.NotNil(t, cert.Hash)
	assert.Regexp(t, `^[0-9a-f]{64}$`, *cert.Hash)
}

func TestCreateCertificate_UnknownCourse(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/certificates", map[string]any{
		"user_id":         1,
		"course_id":       999,
		"completion_date": "2025-01-15",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateCertificate_BadDate(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/certificates", map[string]any{
		"user_id":         1,
		"course_id":       1,
		"completion_date": "15/01/2025",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyByCertificateID(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/verify/WS-2025-8A31F0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cert models.Certificate
	decodeJSON(t, resp, &cert)
	assert.Equal(t, "WS-2025-8A31F0", cert.CertificateID)
	assert.Equal(t, "Admin User", cert.User.Name)
	assert.Equal(t, "AI Design Sprint Bootcamp", cert.Course.Title)

	resp = env.do(t, http.MethodGet, "/api/verify/WS-2025-000000", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVerifyResolver_PrimaryAndMiss(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/verify-firebase/WS-2025-8A31F0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Valid       bool                `json:"valid"`
		Source      string              `json:"source"`
		Certificate *verifystore.Record `json:"certificate"`
	}
	decodeJSON(t, resp, &result)
	assert.True(t, result.Valid)
	assert.Equal(t, "primary", result.Source)
	require.NotNil(t, result.Certificate)
	assert.Equal(t, "Admin User", result.Certificate.Name)
	assert.Equal(t, "2025-01-15", result.Certificate.CompletionDate)

	resp = env.do(t, http.MethodGet, "/api/verify-firebase/definitely-not-a-token", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var miss struct {
		Valid bool `json:"valid"`
	}
	decodeJSON(t, resp, &miss)
	assert.False(t, miss.Valid)
}

func TestVerifyResolver_SecondaryWins(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.index.Save(context.Background(), &verifystore.Record{
		ID:             "VF-9-test",
		CertificateID:  "WS-2025-8A31F0",
		Name:           "Index Copy",
		Course:         "Index Course",
		CompletionDate: "2025-01-15",
		Hash:           "indexhash",
	}))

	resp := env.do(t, http.MethodGet, "/api/verify-firebase/WS-2025-8A31F0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Valid       bool                `json:"valid"`
		Source      string              `json:"source"`
		Certificate *verifystore.Record `json:"certificate"`
	}
	decodeJSON(t, resp, &result)
	assert.Equal(t, "secondary", result.Source)
	assert.Equal(t, "Index Copy", result.Certificate.Name)
}

func TestListCertificatesByUser(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/certificates/user/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var certs []models.Certificate
	decodeJSON(t, resp, &certs)
	require.Len(t, certs, 1)
	assert.Equal(t, "WS-2025-8A31F0", certs[0].CertificateID)

	resp = env.do(t, http.MethodGet, "/api/certificates/user/42", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	certs = nil
	decodeJSON(t, resp, &certs)
	assert.Empty(t, certs)
}
