// Package journal records one event per finished submission, accepted or
// rejected. Rejected events carry no field contents.
package journal

import (
	"context"
	stderrors "errors"
	"time"

	"submission-intake/internal/models"

	"github.com/google/uuid"
)

// Recorder persists intake events.
type Recorder interface {
	Record(ctx context.Context, event *models.IntakeEvent) error
}

// NewEvent fills in the id and timestamp of an event.
func NewEvent(endpoint string, outcome models.Outcome, reason, clientID, recordID, requestID string) *models.IntakeEvent {
	return &models.IntakeEvent{
		ID:         uuid.New().String(),
		Endpoint:   endpoint,
		Outcome:    outcome,
		Reason:     reason,
		ClientID:   clientID,
		RecordID:   recordID,
		RequestID:  requestID,
		OccurredAt: time.Now().UTC(),
	}
}

// Multi fans an event out to every recorder and joins their errors.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, event *models.IntakeEvent) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
