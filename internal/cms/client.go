// Package cms forwards accepted submissions and uploaded files to the
// headless CMS that acts as the system of record.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"submission-intake/internal/common/errors"
	httpclient "submission-intake/internal/common/http"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/common/metrics"
	"submission-intake/internal/models"
)

const service = "cms"

// Config points the client at the CMS REST API.
type Config struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

func DefaultConfig() *Config {
	return &Config{Timeout: 10 * time.Second}
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("cms base url is required")
	}
	if c.APIToken == "" {
		return fmt.Errorf("cms api token is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("cms timeout must be positive")
	}
	return nil
}

// Client calls the CMS entry and media endpoints. It never retries.
type Client struct {
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		http: httpclient.NewClient(config.Timeout,
			httpclient.WithBaseURL(config.BaseURL),
			httpclient.WithBearerToken(config.APIToken),
			httpclient.WithHeader("Accept", "application/json"),
		),
		logger: log.WithFields(map[string]interface{}{"component": "cms"}),
	}
}

type entryResponse struct {
	Data struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

type mediaResponse struct {
	ID   json.RawMessage `json:"id"`
	Name string          `json:"name"`
	URL  string          `json:"url"`
}

// CreateEntry POSTs {"data": payload} to api/{collection}.
func (c *Client) CreateEntry(ctx context.Context, collection string, payload map[string]interface{}) (*models.Receipt, error) {
	var resp entryResponse
	err := c.http.PostJSON(ctx, "api/"+collection, map[string]interface{}{"data": payload}, &resp)
	if err != nil {
		return nil, c.fail("create_entry", err, map[string]interface{}{"collection": collection})
	}
	metrics.UpstreamRequests.WithLabelValues("cms_create_entry", "ok").Inc()

	id := idString(resp.Data.ID)
	if id == "" {
		return nil, c.fail("create_entry", fmt.Errorf("response for %s has no data.id", collection),
			map[string]interface{}{"collection": collection})
	}
	return &models.Receipt{ID: id, Collection: collection}, nil
}

// UploadMedia sends file as the multipart field "files" and returns the
// stored media with an absolute URL.
func (c *Client) UploadMedia(ctx context.Context, file *models.UploadedFile) (*models.Media, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filename(file)))
	header.Set("Content-Type", file.DeclaredMimeType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := mw.Close(); err != nil {
		return nil, errors.NewInternalError(err)
	}

	req, err := c.http.NewRequest(ctx, http.MethodPost, "api/upload", body)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp []mediaResponse
	if err := c.http.DoJSON(req, &resp); err != nil {
		return nil, c.fail("upload_media", err, map[string]interface{}{"field": file.Field})
	}
	if len(resp) == 0 || resp[0].URL == "" {
		return nil, c.fail("upload_media", fmt.Errorf("upload response has no media"), map[string]interface{}{"field": file.Field})
	}
	metrics.UpstreamRequests.WithLabelValues("cms_upload_media", "ok").Inc()

	return &models.Media{
		ID:   idString(resp[0].ID),
		Name: resp[0].Name,
		URL:  c.http.ResolveURL(resp[0].URL),
	}, nil
}

// DeleteMedia removes a media object, used to clean up after a partial upload.
func (c *Client) DeleteMedia(ctx context.Context, id string) error {
	req, err := c.http.NewRequest(ctx, http.MethodDelete, "api/upload/files/"+id, nil)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if err := c.http.DoJSON(req, nil); err != nil {
		return c.fail("delete_media", err, map[string]interface{}{"mediaId": id})
	}
	metrics.UpstreamRequests.WithLabelValues("cms_delete_media", "ok").Inc()
	return nil
}

// fail logs the upstream diagnostics and returns the generic caller-facing error.
func (c *Client) fail(operation string, err error, fields map[string]interface{}) error {
	metrics.UpstreamRequests.WithLabelValues("cms_"+operation, "error").Inc()

	logFields := map[string]interface{}{"operation": operation, "error": err.Error()}
	for k, v := range fields {
		logFields[k] = v
	}
	if statusErr, ok := err.(*httpclient.StatusError); ok {
		logFields["status"] = statusErr.StatusCode
		logFields["body"] = statusErr.Body
	}
	c.logger.Error("CMS request failed", logFields)

	return errors.NewUpstreamUnavailableError(service, err)
}

// idString renders a numeric or string JSON id as a string.
func idString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}

func filename(file *models.UploadedFile) string {
	if file.Filename != "" {
		return file.Filename
	}
	return file.Field
}
