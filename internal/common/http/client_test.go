package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	c := NewClient(time.Second, WithBaseURL("https://cms.example.com/"))

	assert.Equal(t, "https://cms.example.com/uploads/cv.pdf", c.ResolveURL("/uploads/cv.pdf"))
	assert.Equal(t, "https://cdn.example.com/cv.pdf", c.ResolveURL("https://cdn.example.com/cv.pdf"))
	assert.Equal(t, "/uploads/cv.pdf", NewClient(time.Second).ResolveURL("/uploads/cv.pdf"))
}

func TestPostJSON_SendsHeadersAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contact-submissions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Ana", in["name"])

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second, WithBaseURL(srv.URL), WithBearerToken("secret"))
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.PostJSON(context.Background(), "/api/contact-submissions", map[string]string{"name": "Ana"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestDoJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream exploded")
	}))
	defer srv.Close()

	c := NewClient(time.Second, WithBaseURL(srv.URL))
	err := c.PostJSON(context.Background(), "api/x", map[string]string{}, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream exploded", statusErr.Body)
}

func TestPostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	var out map[string]interface{}
	require.NoError(t, c.PostForm(context.Background(), srv.URL, url.Values{"response": {"tok"}}, &out))
	assert.Equal(t, true, out["success"])
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(20 * time.Millisecond)
	err := c.PostJSON(context.Background(), srv.URL, map[string]string{}, nil)
	assert.Error(t, err)
}
