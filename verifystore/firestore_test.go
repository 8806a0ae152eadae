package verifystore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreAgainst(server *httptest.Server) *FirestoreStore {
	s := NewFirestoreStore("demo-project", "test-key")
	s.BaseURL = server.URL
	s.HTTPClient = server.Client()
	return s
}

func TestFirestoreSave(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/documents/certificates"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.Write([]byte(`{"name":"projects/demo-project/databases/(default)/documents/certificates/abc"}`))
	}))
	defer server.Close()

	store := newStoreAgainst(server)
	err := store.Save(context.Background(), &Record{
		ID:             "VF-1-abcd1234",
		CertificateID:  "WS-2025-AB12CD",
		Name:           "Jane Doe",
		Course:         "UX Design Principles",
		CompletionDate: "2025-01-15",
		Hash:           strings.Repeat("ab", 32),
		UserID:         7,
	})
	require.NoError(t, err)

	fields := gotBody["fields"].(map[string]any)
	cid := fields["certificate_id"].(map[string]any)
	assert.Equal(t, "WS-2025-AB12CD", cid["stringValue"])
	uid := fields["user_id"].(map[string]any)
	assert.Equal(t, "7", uid["integerValue"])
}

func TestFirestoreSave_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer server.Close()

	err := newStoreAgainst(server).Save(context.Background(), &Record{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFirestoreQuery_Found(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":runQuery"))
		var q struct {
			StructuredQuery struct {
				Where struct {
					FieldFilter struct {
						Field struct {
							FieldPath string `json:"fieldPath"`
						} `json:"field"`
						Value struct {
							StringValue string `json:"stringValue"`
						} `json:"value"`
					} `json:"fieldFilter"`
				} `json:"where"`
			} `json:"structuredQuery"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "hash", q.StructuredQuery.Where.FieldFilter.Field.FieldPath)

		w.Write([]byte(`[{"document":{"fields":{
			"id":{"stringValue":"VF-2-xyz"},
			"certificate_id":{"stringValue":"WS-2025-FF00AA"},
			"name":{"stringValue":"Jane Doe"},
			"course":{"stringValue":"UX Design Principles"},
			"completion_date":{"stringValue":"2025-01-15"},
			"hash":{"stringValue":"cafebabe"},
			"user_id":{"integerValue":"3"}
		}}}]`))
	}))
	defer server.Close()

	rec, err := newStoreAgainst(server).FindByHash(context.Background(), "cafebabe")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "VF-2-xyz", rec.ID)
	assert.Equal(t, "WS-2025-FF00AA", rec.CertificateID)
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.EqualValues(t, 3, rec.UserID)
}

func TestFirestoreQuery_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// An empty result set is one entry with only a readTime.
		w.Write([]byte(`[{"readTime":"2025-01-01T00:00:00Z"}]`))
	}))
	defer server.Close()

	rec, err := newStoreAgainst(server).FindByCertificateID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStoreLookups(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Record{
		ID:            "VF-1-aaa",
		CertificateID: "WS-2025-000001",
		Hash:          "h1",
	}))

	rec, err := store.FindByCertificateID(ctx, "WS-2025-000001")
	require.NoError(t, err)
	require.NotNil(t, rec)

	rec, err = store.FindByID(ctx, "VF-1-aaa")
	require.NoError(t, err)
	require.NotNil(t, rec)

	rec, err = store.FindByHash(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, rec)

	rec, err = store.FindByHash(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
