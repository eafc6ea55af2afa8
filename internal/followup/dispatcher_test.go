package followup

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"submission-intake/internal/common/logger"
	"submission-intake/internal/common/zoho"
	"submission-intake/internal/models"
	"submission-intake/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// ==========================
// Mock Implementations
// ==========================

type MockRecorder struct{ mock.Mock }

func (m *MockRecorder) Record(ctx context.Context, event *models.IntakeEvent) error {
	return m.Called(event).Error(0)
}

type MockMailer struct{ mock.Mock }

func (m *MockMailer) SendText(ctx context.Context, to []string, subject, body string) (string, error) {
	args := m.Called(to, subject, body)
	return args.String(0), args.Error(1)
}

type MockAlerter struct{ mock.Mock }

func (m *MockAlerter) PublishAlert(ctx context.Context, subject, message string) (string, error) {
	args := m.Called(subject, message)
	return args.String(0), args.Error(1)
}

type MockLeadCreator struct{ mock.Mock }

func (m *MockLeadCreator) CreateLead(ctx context.Context, lead *zoho.Lead) (string, error) {
	args := m.Called(lead)
	return args.String(0), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) PublishMessage(ctx context.Context, name, correlationKey string, vars map[string]interface{}) error {
	// Detached from the request: a cancelled request context must not reach here.
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return m.Called(name, correlationKey, vars).Error(0)
}

func createTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.NotifyTo = []string{"staff@example.com"}
	cfg.Timeout = time.Second
	return cfg
}

func contactRequest() *pipeline.Request {
	return &pipeline.Request{Endpoint: "contact", RequestID: "req-1", ClientIdentifier: "203.0.113.7"}
}

var contactPayload = map[string]interface{}{
	"fullName": "Jane Maria Doe",
	"email":    "jane@example.com",
	"phone":    "+57 300 123 4567",
	"message":  "Need a cleaning quote",
	"company":  nil,
}

// ==========================
// Accepted
// ==========================

func TestDispatcher_AcceptedContact(t *testing.T) {
	recorder, mailer, leads, publisher := new(MockRecorder), new(MockMailer), new(MockLeadCreator), new(MockPublisher)

	recorder.On("Record", mock.MatchedBy(func(e *models.IntakeEvent) bool {
		return e.Outcome == models.OutcomeAccepted && e.RecordID == "42" && e.Endpoint == "contact" && e.Reason == ""
	})).Return(nil).Once()
	mailer.On("SendText", []string{"staff@example.com"}, "New contact request", mock.MatchedBy(func(body string) bool {
		return containsLine(body, "email: jane@example.com") && !containsLine(body, "company")
	})).Return("msg-1", nil).Once()
	leads.On("CreateLead", &zoho.Lead{
		FirstName:   "Jane Maria",
		LastName:    "Doe",
		Email:       "jane@example.com",
		Phone:       "+57 300 123 4567",
		Description: "Need a cleaning quote",
		Source:      "Website",
	}).Return("zoho-1", nil).Once()
	publisher.On("PublishMessage", "submission-accepted", "contact:42", map[string]interface{}{
		"endpoint":  "contact",
		"recordId":  "42",
		"requestId": "req-1",
	}).Return(nil).Once()

	d := NewDispatcher(createTestConfig(), logger.NewTestLogger(t),
		WithRecorder(recorder), WithMailer(mailer), WithLeadCreator(leads), WithPublisher(publisher))

	ctx, cancel := context.WithCancel(context.Background())
	d.Accepted(ctx, contactRequest(), contactPayload, &pipeline.Result{RecordID: "42"})
	cancel()
	d.Wait()

	recorder.AssertExpectations(t)
	mailer.AssertExpectations(t)
	leads.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestDispatcher_LeadsOnlyForContact(t *testing.T) {
	leads := new(MockLeadCreator)
	d := NewDispatcher(createTestConfig(), logger.NewNoOpLogger(), WithLeadCreator(leads))

	req := contactRequest()
	req.Endpoint = "job-application"
	d.Accepted(context.Background(), req, contactPayload, &pipeline.Result{RecordID: "7"})
	d.Wait()

	leads.AssertNotCalled(t, "CreateLead", mock.Anything)
}

func TestDispatcher_FailuresAreContained(t *testing.T) {
	recorder, mailer := new(MockRecorder), new(MockMailer)
	recorder.On("Record", mock.Anything).Return(stderrors.New("pq: connection refused")).Once()
	mailer.On("SendText", mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("throttled")).Once()

	d := NewDispatcher(createTestConfig(), logger.NewNoOpLogger(), WithRecorder(recorder), WithMailer(mailer))

	assert.NotPanics(t, func() {
		d.Accepted(context.Background(), contactRequest(), contactPayload, &pipeline.Result{RecordID: "1"})
		d.Wait()
	})
	recorder.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

// ==========================
// Rejected
// ==========================

func TestDispatcher_RejectedJournalsReasonOnly(t *testing.T) {
	recorder, alerter := new(MockRecorder), new(MockAlerter)
	recorder.On("Record", mock.MatchedBy(func(e *models.IntakeEvent) bool {
		return e.Outcome == models.OutcomeRejected && e.Reason == "rate-limited" && e.RecordID == "" && e.ClientID == "203.0.113.7"
	})).Return(nil).Once()

	d := NewDispatcher(createTestConfig(), logger.NewNoOpLogger(), WithRecorder(recorder), WithAlerter(alerter))
	d.Rejected(context.Background(), contactRequest(), "rate-limited")
	d.Wait()

	recorder.AssertExpectations(t)
	alerter.AssertNotCalled(t, "PublishAlert", mock.Anything, mock.Anything)
}

func TestDispatcher_UpstreamErrorAlerts(t *testing.T) {
	alerter := new(MockAlerter)
	alerter.On("PublishAlert", "Submission intake: contact forwarding failed", mock.AnythingOfType("string")).
		Return("sns-1", nil).Once()

	d := NewDispatcher(createTestConfig(), logger.NewNoOpLogger(), WithAlerter(alerter))
	d.Rejected(context.Background(), contactRequest(), "upstream-error")
	d.Wait()

	alerter.AssertExpectations(t)
}

func TestNotificationBody_SkipsNulls(t *testing.T) {
	body := notificationBody(contactRequest(), contactPayload, &pipeline.Result{RecordID: "42"})

	assert.True(t, containsLine(body, "Record: 42"))
	assert.True(t, containsLine(body, "fullName: Jane Maria Doe"))
	assert.False(t, containsLine(body, "company"))
}

func containsLine(body, prefix string) bool {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
