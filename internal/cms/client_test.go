package cms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"submission-intake/internal/common/errors"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/"
	cfg.APIToken = "cms-token"
	cfg.Timeout = time.Second
	return NewClient(cfg, logger.NewTestLogger(t)), srv
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{BaseURL: "https://cms.example", APIToken: "t", Timeout: time.Second}
	assert.NoError(t, cfg.Validate())

	assert.Error(t, (&Config{APIToken: "t", Timeout: time.Second}).Validate())
	assert.Error(t, (&Config{BaseURL: "https://cms.example", Timeout: time.Second}).Validate())
	assert.Error(t, (&Config{BaseURL: "https://cms.example", APIToken: "t"}).Validate())
}

// ==========================
// CreateEntry
// ==========================

func TestCreateEntry(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantID string
	}{
		{"numeric id", `{"data":{"id":42,"attributes":{}}}`, "42"},
		{"string id", `{"data":{"id":"abc123"}}`, "abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/contact-submissions", r.URL.Path)
				assert.Equal(t, "Bearer cms-token", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var body map[string]map[string]interface{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "Jane Doe", body["data"]["fullName"])
				assert.Contains(t, body["data"], "company")
				assert.Nil(t, body["data"]["company"])

				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(tt.body))
			})

			receipt, err := client.CreateEntry(context.Background(), "contact-submissions", map[string]interface{}{
				"fullName": "Jane Doe",
				"company":  nil,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, receipt.ID)
			assert.Equal(t, "contact-submissions", receipt.Collection)
		})
	}
}

func TestCreateEntry_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"db down"}}`},
		{"bad gateway", http.StatusBadGateway, `upstream`},
		{"validation error upstream", http.StatusBadRequest, `{"error":{"message":"email must be unique"}}`},
		{"missing id", http.StatusOK, `{"data":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.CreateEntry(context.Background(), "job-applications", map[string]interface{}{})
			require.Error(t, err)
			stdErr := errors.AsStandardError(err)
			assert.Equal(t, errors.ErrCodeUpstreamUnavailable, stdErr.Code)
			assert.NotContains(t, stdErr.Message, tt.body)
		})
	}
}

func TestCreateEntry_Timeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.CreateEntry(ctx, "contact-submissions", map[string]interface{}{})
	assert.True(t, errors.Is(err, errors.ErrCodeUpstreamUnavailable))
}

// ==========================
// Media
// ==========================

func TestUploadMedia(t *testing.T) {
	content := []byte{0x25, 0x50, 0x44, 0x46, 0x2D, 0x31}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		assert.Equal(t, "Bearer cms-token", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("files")
		require.NoError(t, err)
		defer f.Close()
		got, _ := io.ReadAll(f)
		assert.Equal(t, content, got)
		assert.Equal(t, "cv.pdf", hdr.Filename)
		assert.Equal(t, "application/pdf", hdr.Header.Get("Content-Type"))

		_, _ = w.Write([]byte(`[{"id":9,"name":"cv.pdf","url":"/uploads/cv_abc.pdf"}]`))
	})

	media, err := client.UploadMedia(context.Background(), &models.UploadedFile{
		Field:            "resume",
		Filename:         "cv.pdf",
		DeclaredMimeType: "application/pdf",
		Content:          content,
	})
	require.NoError(t, err)
	assert.Equal(t, "9", media.ID)
	assert.Regexp(t, `^http://127\.0\.0\.1:\d+/uploads/cv_abc\.pdf$`, media.URL)
}

func TestUploadMedia_AbsoluteURLKept(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"m1","url":"https://media.example/cv.pdf"}]`))
	})

	media, err := client.UploadMedia(context.Background(), &models.UploadedFile{Field: "resume", DeclaredMimeType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/cv.pdf", media.URL)
}

func TestUploadMedia_Failures(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusRequestEntityTooLarge) },
		"empty":  func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`[]`)) },
	} {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, handler)
			_, err := client.UploadMedia(context.Background(), &models.UploadedFile{Field: "resume", DeclaredMimeType: "application/pdf"})
			assert.True(t, errors.Is(err, errors.ErrCodeUpstreamUnavailable))
		})
	}
}

func TestDeleteMedia(t *testing.T) {
	var deleted string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		deleted = r.URL.Path
		_, _ = w.Write([]byte(`{"id":9}`))
	})

	require.NoError(t, client.DeleteMedia(context.Background(), "9"))
	assert.Equal(t, "/api/upload/files/9", deleted)
}

func TestDeleteMedia_Failure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	assert.Error(t, client.DeleteMedia(context.Background(), "missing"))
}
