// Package bbolt keeps payment sessions in a single-file BBolt database for
// single-node deployments and the operator CLI.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/repository"
)

var (
	sessionsBucket    = []byte("payment_sessions")
	instrumentsBucket = []byte("payment_instrument_sessions")
)

const defaultSessionTTL = 72 * time.Hour

// Open opens the database at path and creates the session buckets.
func Open(path string, options *bbolt.Options) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{sessionsBucket, instrumentsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return db, nil
}

// sessionRecord is the stored value; the session document is kept verbatim.
type sessionRecord struct {
	ExpiresAt time.Time       `json:"expiresAt"`
	Session   json.RawMessage `json:"session"`
}

// SessionStore implements repository.SessionStore backed by a BBolt database.
type SessionStore struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

var _ repository.SessionStore = (*SessionStore)(nil)

// NewSessionStore returns a SessionStore over db. Sessions become unreadable
// ttl after they were created.
func NewSessionStore(db *bbolt.DB, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{db: db, ttl: ttl, now: time.Now}
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (*model.StoredSession, error) {
	var session model.StoredSession
	err := s.db.View(func(tx *bbolt.Tx) error {
		rec, err := s.read(tx.Bucket(sessionsBucket), sessionID)
		if err != nil {
			return err
		}
		return json.Unmarshal(rec.Session, &session)
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) Create(_ context.Context, session *model.StoredSession) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		if _, err := s.read(b, session.ID); err == nil {
			return repository.ErrAlreadyExists
		}
		created := session.CreatedAt.Time()
		if created.IsZero() {
			created = s.now()
		}
		return s.write(b, session, created.Add(s.ttl))
	})
}

func (s *SessionStore) Update(_ context.Context, session *model.StoredSession) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		rec, err := s.read(b, session.ID)
		if err != nil {
			return err
		}
		return s.write(b, session, rec.ExpiresAt)
	})
}

// PurgeExpired deletes every expired session and returns how many went.
func (s *SessionStore) PurgeExpired(_ context.Context) (int, error) {
	now := s.now()
	purged := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec sessionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			if !now.Before(rec.ExpiresAt) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		purged = len(expired)
		return nil
	})
	return purged, err
}

func (s *SessionStore) read(b *bbolt.Bucket, sessionID string) (*sessionRecord, error) {
	data := b.Get([]byte(sessionID))
	if data == nil {
		return nil, repository.ErrNotFound
	}
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", sessionID, err)
	}
	if !s.now().Before(rec.ExpiresAt) {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (s *SessionStore) write(b *bbolt.Bucket, session *model.StoredSession, expiresAt time.Time) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return err
	}
	data, err := json.Marshal(sessionRecord{ExpiresAt: expiresAt, Session: doc})
	if err != nil {
		return err
	}
	return b.Put([]byte(session.ID), data)
}

// InstrumentSessionStore implements repository.InstrumentSessionStore backed
// by a BBolt database.
type InstrumentSessionStore struct {
	db *bbolt.DB
}

var _ repository.InstrumentSessionStore = (*InstrumentSessionStore)(nil)

func NewInstrumentSessionStore(db *bbolt.DB) *InstrumentSessionStore {
	return &InstrumentSessionStore{db: db}
}

func (s *InstrumentSessionStore) Put(_ context.Context, record *model.PaymentInstrumentSession) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		key := model.PaymentInstrumentSessionKey(record.PaymentInstrumentID)
		return tx.Bucket(instrumentsBucket).Put([]byte(key), data)
	})
}

func (s *InstrumentSessionStore) Get(_ context.Context, piid string) (*model.PaymentInstrumentSession, error) {
	var record model.PaymentInstrumentSession
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(instrumentsBucket).Get([]byte(model.PaymentInstrumentSessionKey(piid)))
		if data == nil {
			return repository.ErrNotFound
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}
