package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/repository"
)

const instrumentKeyPrefix = "payments:"

// instrumentSessionStore implements repository.InstrumentSessionStore.
// Records expire with the sessions they point at.
type instrumentSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewInstrumentSessionStore creates a new InstrumentSessionStore.
func NewInstrumentSessionStore(client *redis.Client, ttl time.Duration) repository.InstrumentSessionStore {
	return &instrumentSessionStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *instrumentSessionStore) Put(ctx context.Context, record *model.PaymentInstrumentSession) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal instrument session: %w", err)
	}

	if err := s.client.Set(ctx, instrumentKey(record.PaymentInstrumentID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to put instrument session: %w", err)
	}
	return nil
}

func (s *instrumentSessionStore) Get(ctx context.Context, piid string) (*model.PaymentInstrumentSession, error) {
	data, err := s.client.Get(ctx, instrumentKey(piid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get instrument session: %w", err)
	}

	var record model.PaymentInstrumentSession
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instrument session: %w", err)
	}
	return &record, nil
}

func instrumentKey(piid string) string {
	return instrumentKeyPrefix + model.PaymentInstrumentSessionKey(piid)
}
