// internal/models/event.go
package models

import "time"

type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// IntakeEvent is the journal record written for every finished submission.
// Rejected events never carry field contents.
type IntakeEvent struct {
	ID         string    `json:"id"`
	Endpoint   string    `json:"endpoint"`
	Outcome    Outcome   `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	ClientID   string    `json:"clientId"`
	RecordID   string    `json:"recordId,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
