// Package postgres stores payment sessions as JSONB documents keyed by
// session id.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries holds the statements of the session tables.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS payment_sessions (
    id              TEXT PRIMARY KEY,
    handler_version TEXT NOT NULL DEFAULT '',
    payload         JSONB NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL,
    expires_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS payment_sessions_expires_at_idx ON payment_sessions (expires_at);

CREATE TABLE IF NOT EXISTS payment_instrument_sessions (
    piid       TEXT PRIMARY KEY,
    payload    JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the session tables when they do not exist.
func (q *Queries) EnsureSchema(ctx context.Context) error {
	_, err := q.db.Exec(ctx, schema)
	return err
}

type sessionRow struct {
	ID             string
	HandlerVersion string
	Payload        []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ExpiresAt      time.Time
}

const createSession = `
INSERT INTO payment_sessions (id, handler_version, payload, created_at, updated_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)`

func (q *Queries) CreateSession(ctx context.Context, row sessionRow) error {
	_, err := q.db.Exec(ctx, createSession,
		row.ID,
		row.HandlerVersion,
		row.Payload,
		row.CreatedAt,
		row.UpdatedAt,
		row.ExpiresAt,
	)
	return err
}

const updateSession = `
UPDATE payment_sessions
SET handler_version = $2, payload = $3, updated_at = $4
WHERE id = $1 AND expires_at > now()`

// UpdateSession returns the number of rows written.
func (q *Queries) UpdateSession(ctx context.Context, row sessionRow) (int64, error) {
	tag, err := q.db.Exec(ctx, updateSession,
		row.ID,
		row.HandlerVersion,
		row.Payload,
		row.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const findSessionByID = `
SELECT id, handler_version, payload, created_at, updated_at, expires_at
FROM payment_sessions
WHERE id = $1 AND expires_at > now()`

func (q *Queries) FindSessionByID(ctx context.Context, id string) (sessionRow, error) {
	var row sessionRow
	err := q.db.QueryRow(ctx, findSessionByID, id).Scan(
		&row.ID,
		&row.HandlerVersion,
		&row.Payload,
		&row.CreatedAt,
		&row.UpdatedAt,
		&row.ExpiresAt,
	)
	return row, err
}

const deleteExpiredSessions = `DELETE FROM payment_sessions WHERE expires_at <= now()`

func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpiredSessions)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const upsertInstrumentSession = `
INSERT INTO payment_instrument_sessions (piid, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (piid) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

func (q *Queries) UpsertInstrumentSession(ctx context.Context, piid string, payload []byte, updatedAt time.Time) error {
	_, err := q.db.Exec(ctx, upsertInstrumentSession, piid, payload, updatedAt)
	return err
}

const findInstrumentSession = `SELECT payload FROM payment_instrument_sessions WHERE piid = $1`

func (q *Queries) FindInstrumentSession(ctx context.Context, piid string) ([]byte, error) {
	var payload []byte
	err := q.db.QueryRow(ctx, findInstrumentSession, piid).Scan(&payload)
	return payload, err
}
