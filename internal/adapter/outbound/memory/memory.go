// Package memory keeps sessions in process memory. It backs local
// development and tests; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"time"

	pkgcache "github.com/0xsj/overwatch-pkg/cache"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/cache"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/repository"
)

const (
	sessionKeyPrefix  = "session:"
	defaultSessionTTL = 72 * time.Hour
)

// Store holds sessions, instrument records and cached sessions in one
// in-memory cache.
type Store struct {
	mem *pkgcache.MemoryCache
	ttl time.Duration
}

// New creates a Store whose sessions expire ttl after creation.
func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Store{
		mem: pkgcache.NewMemory(pkgcache.WithPrefix("payments:"), pkgcache.WithDefaultTTL(ttl)),
		ttl: ttl,
	}
}

// Close stops the background expiry sweep.
func (s *Store) Close() error {
	return s.mem.Close()
}

// Sessions returns the durable session store view.
func (s *Store) Sessions() repository.SessionStore { return sessionStore{s} }

// Instruments returns the instrument session store view.
func (s *Store) Instruments() repository.InstrumentSessionStore { return instrumentStore{s} }

// Cache returns a session cache view. It keeps its own entries, separate
// from the durable sessions.
func (s *Store) Cache() cache.SessionCache { return sessionCache{s} }

type sessionStore struct{ *Store }

func (s sessionStore) Get(ctx context.Context, sessionID string) (*model.StoredSession, error) {
	var session model.StoredSession
	if err := s.mem.Get(ctx, sessionKeyPrefix+sessionID, &session); err != nil {
		if pkgcache.IsNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s sessionStore) Create(ctx context.Context, session *model.StoredSession) error {
	ok, err := s.mem.SetNX(ctx, sessionKeyPrefix+session.ID, session, s.ttl)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return repository.ErrAlreadyExists
	}
	return nil
}

// Update keeps the expiry set at creation.
func (s sessionStore) Update(ctx context.Context, session *model.StoredSession) error {
	key := sessionKeyPrefix + session.ID
	remaining, err := s.mem.TTL(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if remaining < 0 {
		return repository.ErrNotFound
	}
	if err := s.mem.Set(ctx, key, session, remaining); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

type instrumentStore struct{ *Store }

func (s instrumentStore) Put(ctx context.Context, record *model.PaymentInstrumentSession) error {
	if err := s.mem.Set(ctx, model.PaymentInstrumentSessionKey(record.PaymentInstrumentID), record, s.ttl); err != nil {
		return fmt.Errorf("failed to put instrument session: %w", err)
	}
	return nil
}

func (s instrumentStore) Get(ctx context.Context, piid string) (*model.PaymentInstrumentSession, error) {
	var record model.PaymentInstrumentSession
	if err := s.mem.Get(ctx, model.PaymentInstrumentSessionKey(piid), &record); err != nil {
		if pkgcache.IsNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get instrument session: %w", err)
	}
	return &record, nil
}

const cacheKeyPrefix = "cache:"

type sessionCache struct{ *Store }

func (c sessionCache) Get(ctx context.Context, sessionID string) (*model.StoredSession, error) {
	var session model.StoredSession
	if err := c.mem.Get(ctx, cacheKeyPrefix+sessionID, &session); err != nil {
		if pkgcache.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}
	return &session, nil
}

func (c sessionCache) Set(ctx context.Context, session *model.StoredSession, ttl time.Duration) error {
	return c.mem.Set(ctx, cacheKeyPrefix+session.ID, session, ttl)
}

func (c sessionCache) Delete(ctx context.Context, sessionID string) error {
	return c.mem.Delete(ctx, cacheKeyPrefix+sessionID)
}
