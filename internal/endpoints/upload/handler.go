package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"submission-intake/internal/common/errors"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/endpoints/shared"
	"submission-intake/internal/models"
	"submission-intake/internal/pipeline"
)

type ServiceInterface interface {
	Admit(ctx context.Context, req *pipeline.Request) error
	Execute(ctx context.Context, req *pipeline.Request) (*Output, error)
}

type Handler struct {
	config  *Config
	service ServiceInterface
	logger  logger.Logger
}

func NewHandler(config *Config, service ServiceInterface, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		service: service,
		logger:  log.WithFields(map[string]interface{}{"endpoint": Endpoint}),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		errors.WriteHTTPError(w, h.logger, errors.NewMethodNotAllowedError(r.Method))
		return
	}
	if !h.config.Enabled {
		errors.WriteHTTPError(w, h.logger, errors.NewEndpointDisabledError(Endpoint))
		return
	}

	req := &pipeline.Request{
		Endpoint:         Endpoint,
		RequestID:        shared.RequestID(r),
		ClientIdentifier: pipeline.ClientIdentifier(r),
	}
	if err := h.service.Admit(r.Context(), req); err != nil {
		errors.WriteHTTPError(w, h.logger.WithFields(map[string]interface{}{"requestId": req.RequestID}), err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxMultipartBody)
	if err := r.ParseMultipartForm(MaxMultipartBody); err != nil {
		errors.WriteHTTPError(w, h.logger, errors.NewInvalidPayloadError(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	for _, field := range []string{FieldResume, FieldCoverLetter} {
		file, err := readFile(r.MultipartForm, field)
		if err != nil {
			errors.WriteHTTPError(w, h.logger, errors.NewInvalidPayloadError(err))
			return
		}
		if file != nil {
			req.Files = append(req.Files, file)
		}
	}

	output, err := h.service.Execute(r.Context(), req)
	if err != nil {
		errors.WriteHTTPError(w, h.logger.WithFields(map[string]interface{}{"requestId": req.RequestID}), err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, output)
}

// readFile returns nil when the field is absent or carries an empty part.
func readFile(form *multipart.Form, field string) (*models.UploadedFile, error) {
	headers := form.File[field]
	if len(headers) == 0 || headers[0].Size == 0 {
		return nil, nil
	}
	fh := headers[0]

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &models.UploadedFile{
		Field:            field,
		Filename:         fh.Filename,
		DeclaredMimeType: fh.Header.Get("Content-Type"),
		SizeBytes:        fh.Size,
		Content:          content,
	}, nil
}
