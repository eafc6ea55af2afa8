// Package followup runs the best-effort side effects of a finished
// submission: journaling, staff e-mail, CRM lead, workflow message and
// operations alerts. None of them can change the response already sent.
package followup

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"submission-intake/internal/common/config"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/common/metrics"
	"submission-intake/internal/common/zoho"
	"submission-intake/internal/journal"
	"submission-intake/internal/models"
	"submission-intake/internal/pipeline"
)

type Mailer interface {
	SendText(ctx context.Context, to []string, subject, body string) (string, error)
}

type Alerter interface {
	PublishAlert(ctx context.Context, subject, message string) (string, error)
}

type LeadCreator interface {
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
}

type MessagePublisher interface {
	PublishMessage(ctx context.Context, name, correlationKey string, vars map[string]interface{}) error
}

type Config struct {
	NotifyTo    []string
	MessageName string
	LeadSource  string
	Timeout     time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		MessageName: "submission-accepted",
		LeadSource:  "Website",
		Timeout:     10 * time.Second,
	}
}

type Option func(*Dispatcher)

func WithRecorder(r journal.Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

func WithMailer(m Mailer) Option {
	return func(d *Dispatcher) { d.mailer = m }
}

func WithAlerter(a Alerter) Option {
	return func(d *Dispatcher) { d.alerter = a }
}

func WithLeadCreator(l LeadCreator) Option {
	return func(d *Dispatcher) { d.leads = l }
}

func WithPublisher(p MessagePublisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

// Dispatcher implements pipeline.Observer. Side effects run on their own
// goroutines detached from request cancellation; Wait blocks until all
// started work is done.
type Dispatcher struct {
	config    *Config
	recorder  journal.Recorder
	mailer    Mailer
	alerter   Alerter
	leads     LeadCreator
	publisher MessagePublisher
	logger    logger.Logger
	wg        sync.WaitGroup
}

var _ pipeline.Observer = (*Dispatcher)(nil)

func NewDispatcher(config *Config, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "followup"}),
	}
	if d.config.Timeout <= 0 {
		d.config.Timeout = DefaultConfig().Timeout
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Accepted journals the submission and notifies downstream systems.
func (d *Dispatcher) Accepted(ctx context.Context, req *pipeline.Request, payload map[string]interface{}, result *pipeline.Result) {
	event := journal.NewEvent(req.Endpoint, models.OutcomeAccepted, "", req.ClientIdentifier, result.RecordID, req.RequestID)
	d.record(ctx, event)

	if d.mailer != nil && len(d.config.NotifyTo) > 0 && payload != nil {
		d.run(ctx, "notify_email", req, func(ctx context.Context) error {
			_, err := d.mailer.SendText(ctx, d.config.NotifyTo, notificationSubject(req.Endpoint), notificationBody(req, payload, result))
			return err
		})
	}

	if d.leads != nil && req.Endpoint == config.EndpointContact && payload != nil {
		d.run(ctx, "crm_lead", req, func(ctx context.Context) error {
			_, err := d.leads.CreateLead(ctx, d.leadFrom(payload))
			return err
		})
	}

	if d.publisher != nil && result.RecordID != "" && payload != nil {
		d.run(ctx, "workflow_message", req, func(ctx context.Context) error {
			return d.publisher.PublishMessage(ctx, d.config.MessageName, req.Endpoint+":"+result.RecordID, map[string]interface{}{
				"endpoint":  req.Endpoint,
				"recordId":  result.RecordID,
				"requestId": req.RequestID,
			})
		})
	}
}

// Rejected journals the rejection and alerts operations on upstream failures.
func (d *Dispatcher) Rejected(ctx context.Context, req *pipeline.Request, reason string) {
	d.record(ctx, journal.NewEvent(req.Endpoint, models.OutcomeRejected, reason, req.ClientIdentifier, "", req.RequestID))

	if d.alerter != nil && reason == "upstream-error" {
		d.run(ctx, "ops_alert", req, func(ctx context.Context) error {
			_, err := d.alerter.PublishAlert(ctx,
				fmt.Sprintf("Submission intake: %s forwarding failed", req.Endpoint),
				fmt.Sprintf("The CMS did not accept a %s submission (request %s). The visitor received an error and the submission was not stored.",
					req.Endpoint, req.RequestID))
			return err
		})
	}
}

// Wait blocks until every dispatched side effect has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) record(ctx context.Context, event *models.IntakeEvent) {
	if d.recorder == nil {
		return
	}
	d.run(ctx, "journal", &pipeline.Request{Endpoint: event.Endpoint, RequestID: event.RequestID}, func(ctx context.Context) error {
		return d.recorder.Record(ctx, event)
	})
}

func (d *Dispatcher) run(ctx context.Context, operation string, req *pipeline.Request, fn func(context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.Timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			metrics.UpstreamRequests.WithLabelValues(operation, "error").Inc()
			d.logger.Warn("Follow-up failed", map[string]interface{}{
				"operation": operation,
				"endpoint":  req.Endpoint,
				"requestId": req.RequestID,
				"error":     err.Error(),
			})
			return
		}
		metrics.UpstreamRequests.WithLabelValues(operation, "ok").Inc()
	}()
}

func (d *Dispatcher) leadFrom(payload map[string]interface{}) *zoho.Lead {
	first, last := zoho.SplitName(stringField(payload, "fullName"))
	return &zoho.Lead{
		FirstName:   first,
		LastName:    last,
		Email:       stringField(payload, "email"),
		Phone:       stringField(payload, "phone"),
		Company:     stringField(payload, "company"),
		Description: stringField(payload, "message"),
		Source:      d.config.LeadSource,
	}
}

func notificationSubject(endpoint string) string {
	switch endpoint {
	case config.EndpointContact:
		return "New contact request"
	case config.EndpointJobApplication:
		return "New job application"
	case config.EndpointProviderApplication:
		return "New provider application"
	default:
		return "New submission: " + endpoint
	}
}

func notificationBody(req *pipeline.Request, payload map[string]interface{}, result *pipeline.Result) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Record: %s\nRequest: %s\n\n", result.RecordID, req.RequestID)
	for _, k := range keys {
		if payload[k] == nil {
			continue
		}
		fmt.Fprintf(&b, "%s: %v\n", k, payload[k])
	}
	return b.String()
}

func stringField(payload map[string]interface{}, key string) string {
	s, _ := payload[key].(string)
	return s
}
