package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xsj/overwatch-pkg/database"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/repository"
)

// DefaultSessionTTL is how long a session row stays readable.
const DefaultSessionTTL = 72 * time.Hour

// sessionStore implements repository.SessionStore.
type sessionStore struct {
	queries *Queries
	ttl     time.Duration
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(pool *pgxpool.Pool, ttl time.Duration) repository.SessionStore {
	return newSessionStore(pool, ttl)
}

func newSessionStore(db DBTX, ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessionStore{
		queries: New(db),
		ttl:     ttl,
	}
}

func (s *sessionStore) Get(ctx context.Context, sessionID string) (*model.StoredSession, error) {
	row, err := s.queries.FindSessionByID(ctx, sessionID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", database.MapError(err))
	}
	return toSessionModel(row)
}

func (s *sessionStore) Create(ctx context.Context, session *model.StoredSession) error {
	row, err := toSessionRow(session, s.ttl)
	if err != nil {
		return err
	}
	if err := s.queries.CreateSession(ctx, row); err != nil {
		mapped := database.MapError(err)
		if database.IsConflict(mapped) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create session: %w", mapped)
	}
	return nil
}

func (s *sessionStore) Update(ctx context.Context, session *model.StoredSession) error {
	row, err := toSessionRow(session, s.ttl)
	if err != nil {
		return err
	}
	n, err := s.queries.UpdateSession(ctx, row)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// instrumentSessionStore implements repository.InstrumentSessionStore.
type instrumentSessionStore struct {
	queries *Queries
}

// NewInstrumentSessionStore creates a new InstrumentSessionStore.
func NewInstrumentSessionStore(pool *pgxpool.Pool) repository.InstrumentSessionStore {
	return &instrumentSessionStore{queries: New(pool)}
}

func (s *instrumentSessionStore) Put(ctx context.Context, record *model.PaymentInstrumentSession) error {
	payload, err := toInstrumentSessionPayload(record)
	if err != nil {
		return err
	}
	if err := s.queries.UpsertInstrumentSession(ctx, record.PaymentInstrumentID, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put instrument session: %w", err)
	}
	return nil
}

func (s *instrumentSessionStore) Get(ctx context.Context, piid string) (*model.PaymentInstrumentSession, error) {
	payload, err := s.queries.FindInstrumentSession(ctx, piid)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find instrument session: %w", database.MapError(err))
	}
	return toInstrumentSessionModel(payload)
}
