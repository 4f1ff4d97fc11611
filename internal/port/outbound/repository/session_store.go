package repository

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// SessionStore defines durable persistence for challenge sessions.
// The stored payload is opaque to the store; it is keyed by session ID only.
type SessionStore interface {
	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session does not exist or has expired.
	Get(ctx context.Context, sessionID string) (*model.StoredSession, error)

	// Create persists a new session.
	// Returns ErrAlreadyExists if the ID is taken.
	Create(ctx context.Context, session *model.StoredSession) error

	// Update overwrites an existing session. Last writer wins.
	Update(ctx context.Context, session *model.StoredSession) error
}

// InstrumentSessionStore keeps the latest session record per payment instrument.
type InstrumentSessionStore interface {
	// Put upserts the record for the instrument.
	Put(ctx context.Context, record *model.PaymentInstrumentSession) error

	// Get retrieves the record for an instrument.
	// Returns ErrNotFound if none was stored.
	Get(ctx context.Context, piid string) (*model.PaymentInstrumentSession, error)
}
