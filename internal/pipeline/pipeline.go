// Package pipeline runs a submission through rate limiting, bot filtering,
// validation, sanitization, file checks and forwarding. Every stage may
// short-circuit with a terminal rejection; nothing after a rejection runs.
package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"submission-intake/internal/common/errors"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/common/metrics"
	"submission-intake/internal/common/validation"
	"submission-intake/internal/pipeline/botfilter"
	"submission-intake/internal/pipeline/fileguard"
	"submission-intake/internal/pipeline/ratelimit"
	"submission-intake/internal/pipeline/sanitize"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("submission-intake/pipeline")

// Result is what the forwarder reports for an accepted submission.
type Result struct {
	RecordID string
	Data     map[string]interface{}
}

// Forwarder hands a sanitized payload to the system of record.
type Forwarder func(ctx context.Context, req *Request, payload map[string]interface{}) (*Result, error)

// Observer is notified once per finished request. Implementations must not block.
type Observer interface {
	Accepted(ctx context.Context, req *Request, payload map[string]interface{}, result *Result)
	Rejected(ctx context.Context, req *Request, reason string)
}

// Definition wires the stages for one endpoint. Nil stages are skipped.
type Definition struct {
	Endpoint string
	Limiter  ratelimit.Limiter
	Window   time.Duration

	// Honeypot and bot-token checks run only when CheckBots is set.
	CheckBots     bool
	OnBotDetected botfilter.Policy
	Verifier      *botfilter.Verifier

	Shape *validation.JSONSchema
	Rules validation.RuleSet

	Sanitize sanitize.Schema

	Guard         *fileguard.Guard
	RequiredFiles []string

	Forward        Forwarder
	ForwardTimeout time.Duration

	Observer Observer
}

// Outcome is the terminal state of an accepted or silently discarded request.
type Outcome struct {
	State        State
	Payload      map[string]interface{}
	Result       *Result
	FakeAccepted bool
}

type Pipeline struct {
	def    Definition
	logger logger.Logger
}

func New(def Definition, log logger.Logger) *Pipeline {
	return &Pipeline{
		def:    def,
		logger: log.WithFields(map[string]interface{}{"endpoint": def.Endpoint}),
	}
}

// Endpoint returns the endpoint name this pipeline serves.
func (p *Pipeline) Endpoint() string {
	return p.def.Endpoint
}

// Run executes the stages in order. A rejection is returned as a
// *errors.StandardError; Outcome is nil in that case.
func (p *Pipeline) Run(ctx context.Context, req *Request) (*Outcome, error) {
	metrics.SubmissionsInFlight.WithLabelValues(p.def.Endpoint).Inc()
	defer metrics.SubmissionsInFlight.WithLabelValues(p.def.Endpoint).Dec()

	ctx, span := tracer.Start(ctx, "submission "+p.def.Endpoint, trace.WithAttributes(
		attribute.String("intake.endpoint", p.def.Endpoint),
		attribute.String("intake.request_id", req.RequestID),
	))
	defer span.End()

	log := p.requestLogger(req)
	outcome := &Outcome{State: StateReceived}

	if err := p.Admit(ctx, req); err != nil {
		return nil, err
	}
	outcome.State = StateRateChecked

	if p.def.CheckBots {
		fake, err := p.checkBots(ctx, req, log)
		if err != nil {
			return nil, p.reject(ctx, req, outcome, log, err)
		}
		if fake {
			return p.fakeAccept(ctx, req, outcome, log), nil
		}
	}
	outcome.State = StateBotChecked

	if err := p.stage(ctx, StageValidate, log, func(context.Context) error { return p.validate(req) }); err != nil {
		return nil, p.reject(ctx, req, outcome, log, err)
	}
	outcome.State = StateValidated

	if p.def.Sanitize != nil {
		start := time.Now()
		outcome.Payload = p.def.Sanitize.Apply(req.Fields)
		observeStage(p.def.Endpoint, StageSanitize, start)
	}
	outcome.State = StateSanitized

	if p.def.Guard != nil {
		if err := p.stage(ctx, StageFileGuard, log, func(context.Context) error { return p.checkFiles(req) }); err != nil {
			return nil, p.reject(ctx, req, outcome, log, err)
		}
		outcome.State = StateFileChecked
	}

	outcome.State = StateForwarded
	var result *Result
	err := p.stage(ctx, StageForward, log, func(ctx context.Context) error {
		var ferr error
		result, ferr = p.forward(ctx, req, outcome.Payload)
		return ferr
	})
	if err != nil {
		return nil, p.reject(ctx, req, outcome, log, err)
	}
	outcome.State = StateAccepted
	outcome.Result = result

	metrics.SubmissionsTotal.WithLabelValues(p.def.Endpoint, "accepted").Inc()
	span.SetAttributes(attribute.String("intake.record_id", result.RecordID))
	log.Info("Submission accepted", map[string]interface{}{"recordId": result.RecordID})
	if p.def.Observer != nil {
		p.def.Observer.Accepted(ctx, req, outcome.Payload, result)
	}
	return outcome, nil
}

// Admit runs the rate-limit stage on its own, so a handler can turn a
// throttled client away before reading the body. Every call counts as an
// attempt. Run does not check an admitted request again.
func (p *Pipeline) Admit(ctx context.Context, req *Request) error {
	if req.admitted {
		return nil
	}
	log := p.requestLogger(req)
	err := p.stage(ctx, StageRateLimit, log, func(ctx context.Context) error { return p.checkRate(ctx, req, log) })
	if err != nil {
		return p.reject(ctx, req, &Outcome{State: StateReceived}, log, err)
	}
	req.admitted = true
	return nil
}

func (p *Pipeline) requestLogger(req *Request) logger.Logger {
	return p.logger.WithFields(map[string]interface{}{
		"requestId": req.RequestID,
		"clientId":  req.ClientIdentifier,
	})
}

// stage times fn and wraps it in a child span.
func (p *Pipeline) stage(ctx context.Context, name string, log logger.Logger, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "stage "+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	observeStage(p.def.Endpoint, name, start)
	if err != nil {
		span.SetStatus(codes.Error, string(errors.AsStandardError(err).Code))
		log.Debug("Stage short-circuited", map[string]interface{}{"stage": name, "error": err.Error()})
	}
	return err
}

func observeStage(endpoint, stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(endpoint, stage).Observe(time.Since(start).Seconds())
}

func (p *Pipeline) checkRate(ctx context.Context, req *Request, log logger.Logger) error {
	if p.def.Limiter == nil {
		return nil
	}
	allowed, err := p.def.Limiter.Allow(ctx, req.ClientIdentifier)
	if err != nil {
		log.Warn("Rate limit store unavailable, allowing request", map[string]interface{}{
			"stage": StageRateLimit,
			"error": err.Error(),
		})
	}
	if !allowed {
		return errors.NewRateLimitedError(p.def.Endpoint, p.def.Window)
	}
	return nil
}

// checkBots reports fake=true when the honeypot tripped under the
// fake_accept policy.
func (p *Pipeline) checkBots(ctx context.Context, req *Request, log logger.Logger) (fake bool, err error) {
	start := time.Now()
	defer observeStage(p.def.Endpoint, StageBotFilter, start)

	if botfilter.CheckHoneypot(req.Honeypot) {
		log.Info("Honeypot triggered", map[string]interface{}{
			"stage":  StageBotFilter,
			"policy": string(p.def.OnBotDetected),
		})
		if p.def.OnBotDetected == botfilter.PolicyFakeAccept {
			return true, nil
		}
		return false, errors.NewBotDetectedError()
	}

	if p.def.Verifier == nil {
		return false, nil
	}
	verdict := p.def.Verifier.Verify(ctx, req.BotToken, req.ClientIdentifier)
	if !verdict.Passed() {
		return false, errors.NewRecaptchaFailedError(verdict.Reason())
	}
	return false, nil
}

// validate runs the structural type check and then the rule table.
// Rules are not reported for fields that already failed the type check.
func (p *Pipeline) validate(req *Request) error {
	var messages []string
	badType := map[string]bool{}

	if p.def.Shape != nil {
		shape, err := validation.CheckShape(req.Fields, *p.def.Shape)
		if err != nil {
			return errors.NewInternalError(err)
		}
		for _, e := range shape.Errors {
			badType[e.Field] = true
			messages = append(messages, e.Message)
		}
	}

	if len(p.def.Rules) > 0 {
		result := p.def.Rules.Validate(req.Fields)
		for _, e := range result.Errors {
			if !badType[e.Field] {
				messages = append(messages, e.Message)
			}
		}
	}

	if len(messages) > 0 {
		return errors.NewValidationFailedError(messages)
	}
	return nil
}

func (p *Pipeline) checkFiles(req *Request) error {
	for _, field := range p.def.RequiredFiles {
		if req.File(field) == nil {
			return errors.NewFileRejectedError(field, fileguard.ReasonMissing, field+" file is required")
		}
	}
	for _, f := range req.Files {
		if err := p.def.Guard.Check(f); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) forward(ctx context.Context, req *Request, payload map[string]interface{}) (*Result, error) {
	if p.def.ForwardTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.def.ForwardTimeout)
		defer cancel()
	}
	result, err := p.def.Forward(ctx, req, payload)
	if err != nil {
		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) {
			return nil, stdErr
		}
		return nil, errors.NewUpstreamUnavailableError("cms", err)
	}
	if result == nil {
		result = &Result{}
	}
	return result, nil
}

func (p *Pipeline) reject(ctx context.Context, req *Request, outcome *Outcome, log logger.Logger, err error) error {
	stdErr := errors.AsStandardError(err)
	reason := errors.RejectionReason(stdErr.Code)

	metrics.SubmissionsTotal.WithLabelValues(p.def.Endpoint, "rejected").Inc()
	metrics.RejectionsTotal.WithLabelValues(p.def.Endpoint, reason).Inc()
	log.Info("Submission rejected", map[string]interface{}{
		"reason":    reason,
		"code":      string(stdErr.Code),
		"lastState": string(outcome.State),
	})
	outcome.State = StateRejected

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("intake.rejection", reason))
	span.SetStatus(codes.Error, reason)

	if p.def.Observer != nil {
		p.def.Observer.Rejected(ctx, req, reason)
	}
	return stdErr
}

func (p *Pipeline) fakeAccept(ctx context.Context, req *Request, outcome *Outcome, log logger.Logger) *Outcome {
	reason := errors.RejectionReason(errors.ErrCodeBotDetected)
	metrics.SubmissionsTotal.WithLabelValues(p.def.Endpoint, "discarded").Inc()
	metrics.RejectionsTotal.WithLabelValues(p.def.Endpoint, reason).Inc()
	log.Info("Bot submission discarded behind a success response", nil)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("intake.discarded", true))

	if p.def.Observer != nil {
		p.def.Observer.Rejected(ctx, req, reason)
	}
	outcome.State = StateRejected
	outcome.FakeAccepted = true
	return outcome
}
