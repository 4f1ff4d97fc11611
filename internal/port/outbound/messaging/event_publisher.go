package messaging

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/domain/event"
)

// EventPublisher defines the interface for publishing domain events.
type EventPublisher interface {
	// Publish publishes a single event.
	Publish(ctx context.Context, evt event.Event) error

	// PublishAll publishes multiple events.
	PublishAll(ctx context.Context, events []event.Event) error
}

// Topic names for payment events.
const (
	TopicSessionEvents     = "payments.session"
	TopicChallengeEvents   = "payments.challenge"
	TopicAttestationEvents = "payments.attestation"
)

// TopicForEvent returns the appropriate topic for an event type.
func TopicForEvent(evt event.Event) string {
	switch evt.AggregateType() {
	case event.AggregateTypePaymentSession:
		// Round outcomes go to a separate topic
		if evt.EventType() == event.EventTypeChallengeResolved {
			return TopicChallengeEvents
		}
		return TopicSessionEvents
	case event.AggregateTypeAttestation:
		return TopicAttestationEvents
	default:
		return TopicSessionEvents
	}
}
