package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/wespark/certifier/services"
	"github.com/wespark/certifier/storage"
	"github.com/wespark/certifier/verifystore"
)

// testEnv wires handlers against seeded in-memory backends. Admin routes are
// registered without the JWT middleware; the middleware has its own coverage
// concerns and these tests target handler behavior.
type testEnv struct {
	app   *fiber.App
	store *storage.MemoryStorage
	index *verifystore.MemoryStore
	certs *services.CertificateService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := storage.NewMemoryStorage()
	index := verifystore.NewMemoryStore()
	certs := services.NewCertificateService(store, index)

	app := fiber.New()

	auth := &AuthHandler{
		Store:       store,
		Auth:        services.NewAuthService(store, "test-secret"),
		FrontendURL: "http://localhost:5000",
	}
	app.Post("/api/auth/magic-link", auth.RequestMagicLink)
	app.Post("/api/auth/verify", auth.VerifyMagicLink)
	app.Post("/api/auth/login", auth.Login)

	users := &UserHandler{Store: store}
	app.Get("/api/users", users.List)
	app.Post("/api/users", users.Create)
	app.Delete("/api/users/:id", users.Delete)

	ch := &CertificateHandler{
		Store:        store,
		Certificates: certs,
		Verification: services.NewVerificationService(store, index),
	}
	app.Get("/api/certificates", ch.List)
	app.Get("/api/certificates/user/:userId", ch.ListByUser)
	app.Post("/api/certificates", ch.Create)
	app.Get("/api/verify/:certificateId", ch.VerifyByCertificateID)
	app.Get("/api/verify-firebase/:idOrHash", ch.Verify)

	admin := &AdminHandler{Store: store, Certificates: certs}
	app.Post("/api/admin/import-csv", admin.ImportCSV)
	app.Get("/api/admin/stats", admin.Stats)

	return &testEnv{app: app, store: store, index: index, certs: certs}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func multipartCSV(t *testing.T, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "import.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
