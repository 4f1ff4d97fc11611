package event

import (
	"github.com/0xsj/overwatch-pkg/types"
)

// Aggregates that emit events. Both are keyed by the payment session ID.
const (
	AggregateTypePaymentSession = "payment_session"
	AggregateTypeAttestation    = "attestation"
)

const (
	EventTypePaymentSessionCreated = "payment_session.created"
	EventTypeChallengeResolved     = "payment_session.challenge_resolved"
	EventTypeAttestationUpdated    = "attestation.updated"
)

// Event is published after a payment session changes state.
type Event interface {
	EventID() types.ID
	EventType() string
	OccurredAt() types.Timestamp

	// AggregateID is the payment session the event belongs to.
	AggregateID() types.ID
	AggregateType() string
}

// BaseEvent carries the envelope fields shared by every payment event.
type BaseEvent struct {
	eventID       types.ID
	eventType     string
	occurredAt    types.Timestamp
	sessionID     types.ID
	aggregateType string
}

func newSessionEvent(eventType, aggregateType, sessionID string) BaseEvent {
	return BaseEvent{
		eventID:       types.NewID(),
		eventType:     eventType,
		occurredAt:    types.Now(),
		sessionID:     types.ID(sessionID),
		aggregateType: aggregateType,
	}
}

func (e BaseEvent) EventID() types.ID           { return e.eventID }
func (e BaseEvent) EventType() string           { return e.eventType }
func (e BaseEvent) OccurredAt() types.Timestamp { return e.occurredAt }
func (e BaseEvent) AggregateID() types.ID       { return e.sessionID }
func (e BaseEvent) AggregateType() string       { return e.aggregateType }
