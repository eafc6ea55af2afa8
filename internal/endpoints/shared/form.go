package shared

import (
	"context"
	"net/http"

	"submission-intake/internal/common/errors"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/common/validation"
	"submission-intake/internal/pipeline"
	"submission-intake/internal/pipeline/botfilter"
	"submission-intake/internal/pipeline/ratelimit"
	"submission-intake/internal/pipeline/sanitize"
)

// ServiceDependencies are the collaborators of a form endpoint.
type ServiceDependencies struct {
	Logger   logger.Logger
	Limiter  ratelimit.Limiter
	Verifier *botfilter.Verifier
	CMS      EntryCreator
	Observer pipeline.Observer
}

// FormDefinition describes one JSON form: its rule tables and success message.
type FormDefinition struct {
	Endpoint       string
	Shape          validation.JSONSchema
	Rules          validation.RuleSet
	Sanitize       sanitize.Schema
	SuccessMessage string
}

// Output is the result of an accepted or silently discarded submission.
type Output struct {
	ID           string
	Message      string
	FakeAccepted bool
}

// FormService runs a JSON form submission through the pipeline and stores
// it in the endpoint's CMS collection.
type FormService struct {
	form     FormDefinition
	config   *EndpointConfig
	pipeline *pipeline.Pipeline
}

func NewFormService(form FormDefinition, deps ServiceDependencies, config *EndpointConfig) *FormService {
	s := &FormService{form: form, config: config}

	shape := form.Shape
	s.pipeline = pipeline.New(pipeline.Definition{
		Endpoint:       form.Endpoint,
		Limiter:        deps.Limiter,
		Window:         config.Window,
		CheckBots:      true,
		OnBotDetected:  config.OnBotDetected,
		Verifier:       deps.Verifier,
		Shape:          &shape,
		Rules:          form.Rules,
		Sanitize:       form.Sanitize,
		Forward:        s.forwarder(deps.CMS),
		ForwardTimeout: config.Timeout,
		Observer:       deps.Observer,
	}, deps.Logger)
	return s
}

func (s *FormService) forwarder(cms EntryCreator) pipeline.Forwarder {
	return func(ctx context.Context, req *pipeline.Request, payload map[string]interface{}) (*pipeline.Result, error) {
		receipt, err := cms.CreateEntry(ctx, s.config.Collection, payload)
		if err != nil {
			return nil, err
		}
		return &pipeline.Result{RecordID: receipt.ID}, nil
	}
}

// Admit consumes one rate-limit attempt before the body is read.
func (s *FormService) Admit(ctx context.Context, req *pipeline.Request) error {
	return s.pipeline.Admit(ctx, req)
}

func (s *FormService) Execute(ctx context.Context, req *pipeline.Request) (*Output, error) {
	outcome, err := s.pipeline.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if outcome.FakeAccepted {
		return &Output{FakeAccepted: true}, nil
	}
	return &Output{ID: outcome.Result.RecordID, Message: s.form.SuccessMessage}, nil
}

// ServiceInterface is implemented by FormService; handlers depend on it for testing.
type ServiceInterface interface {
	Admit(ctx context.Context, req *pipeline.Request) error
	Execute(ctx context.Context, req *pipeline.Request) (*Output, error)
}

// FormHandler serves POST requests for one JSON form.
type FormHandler struct {
	endpoint string
	config   *EndpointConfig
	service  ServiceInterface
	logger   logger.Logger
}

func NewFormHandler(endpoint string, config *EndpointConfig, service ServiceInterface, log logger.Logger) *FormHandler {
	return &FormHandler{
		endpoint: endpoint,
		config:   config,
		service:  service,
		logger:   log.WithFields(map[string]interface{}{"endpoint": endpoint}),
	}
}

func (h *FormHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		errors.WriteHTTPError(w, h.logger, errors.NewMethodNotAllowedError(r.Method))
		return
	}
	if !h.config.Enabled {
		errors.WriteHTTPError(w, h.logger, errors.NewEndpointDisabledError(h.endpoint))
		return
	}

	req := pipeline.NewRequest(h.endpoint, RequestID(r), r, nil)
	if err := h.service.Admit(r.Context(), req); err != nil {
		errors.WriteHTTPError(w, h.logger.WithFields(map[string]interface{}{"requestId": req.RequestID}), err)
		return
	}

	fields, err := DecodeJSON(w, r)
	if err != nil {
		errors.WriteHTTPError(w, h.logger, err)
		return
	}
	req.SetFields(fields)

	output, err := h.service.Execute(r.Context(), req)
	if err != nil {
		errors.WriteHTTPError(w, h.logger.WithFields(map[string]interface{}{"requestId": req.RequestID}), err)
		return
	}

	if output.FakeAccepted {
		WriteJSON(w, http.StatusOK, SubmissionResponse{Success: true})
		return
	}
	WriteJSON(w, http.StatusCreated, SubmissionResponse{
		Success: true,
		ID:      output.ID,
		Message: output.Message,
	})
}
