package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/0xsj/overwatch-payments/internal/domain/event"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/messaging"
)

// Sealer wraps an event payload in a signed provenance envelope.
type Sealer interface {
	Seal(eventID, eventType string, occurredAt time.Time, payload any) ([]byte, error)
}

// eventPublisher implements messaging.EventPublisher.
type eventPublisher struct {
	conn          *nats.Conn
	sealer        Sealer
	subjectPrefix string
}

// NewEventPublisher creates a new EventPublisher. Every event goes out as a
// signed envelope on <prefix>.<topic>.
func NewEventPublisher(conn *nats.Conn, sealer Sealer, subjectPrefix string) messaging.EventPublisher {
	if subjectPrefix == "" {
		subjectPrefix = "overwatch"
	}
	return &eventPublisher{
		conn:          conn,
		sealer:        sealer,
		subjectPrefix: subjectPrefix,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, evt event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := p.sealer.Seal(
		evt.EventID().String(),
		evt.EventType(),
		evt.OccurredAt().Time(),
		evt,
	)
	if err != nil {
		return fmt.Errorf("failed to seal event: %w", err)
	}

	msg := nats.NewMsg(p.subjectForEvent(evt))
	msg.Data = data
	msg.Header.Set("X-Event-Type", evt.EventType())
	msg.Header.Set("X-Aggregate-Id", evt.AggregateID().String())

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *eventPublisher) PublishAll(ctx context.Context, events []event.Event) error {
	for _, evt := range events {
		if err := p.Publish(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (p *eventPublisher) subjectForEvent(evt event.Event) string {
	topic := messaging.TopicForEvent(evt)
	return fmt.Sprintf("%s.%s", p.subjectPrefix, topic)
}
