package pipeline

import (
	"net/http"
	"strings"

	"submission-intake/internal/models"
)

// UnknownClient is the shared identifier for requests without proxy headers.
const UnknownClient = "unknown"

// Field names shared by every JSON form.
const (
	HoneypotField = "website"
	TokenField    = "recaptchaToken"
)

// Request is one untrusted submission entering the pipeline.
type Request struct {
	Endpoint         string
	RequestID        string
	ClientIdentifier string
	Fields           map[string]interface{}
	Files            []*models.UploadedFile
	BotToken         string
	Honeypot         interface{}

	admitted bool
}

// NewRequest builds a Request from a decoded JSON body, lifting the
// honeypot and bot token out of fields.
func NewRequest(endpoint, requestID string, r *http.Request, fields map[string]interface{}) *Request {
	req := &Request{
		Endpoint:         endpoint,
		RequestID:        requestID,
		ClientIdentifier: ClientIdentifier(r),
	}
	req.SetFields(fields)
	return req
}

// SetFields attaches a decoded body to a request that was built before
// the body was read.
func (r *Request) SetFields(fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	r.Fields = fields
	r.BotToken, _ = fields[TokenField].(string)
	r.Honeypot = fields[HoneypotField]
}

// File returns the uploaded file for a form field, or nil.
func (r *Request) File(field string) *models.UploadedFile {
	for _, f := range r.Files {
		if f.Field == field {
			return f
		}
	}
	return nil
}

// ClientIdentifier is the first X-Forwarded-For entry, then X-Real-IP,
// then "unknown". Anonymous clients share one rate-limit bucket.
func ClientIdentifier(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if id := strings.TrimSpace(first); id != "" {
			return id
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownClient
}
