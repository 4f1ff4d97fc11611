// Package mocks provides mock implementations of ports for testing.
package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/repository"
)

// --- SessionStore Mock ---

// SessionStore is a mock implementation of repository.SessionStore. It keeps
// the JSON document of every session so reads never alias the caller's value.
type SessionStore struct {
	mu sync.RWMutex

	docs map[string][]byte

	// FailCreates makes the next n Create calls fail with Errors.Create.
	FailCreates int

	// Call tracking
	Calls struct {
		Get    int
		Create int
		Update int
	}

	// Error injection
	Errors struct {
		Get    error
		Create error
		Update error
	}
}

// NewSessionStore creates a new mock SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{docs: make(map[string][]byte)}
}

func (m *SessionStore) Get(ctx context.Context, sessionID string) (*model.StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Get++

	if m.Errors.Get != nil {
		return nil, m.Errors.Get
	}

	doc, ok := m.docs[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	var s model.StoredSession
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *SessionStore) Create(ctx context.Context, session *model.StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Create++

	if m.Errors.Create != nil && (m.FailCreates > 0 || m.FailCreates < 0) {
		if m.FailCreates > 0 {
			m.FailCreates--
		}
		return m.Errors.Create
	}
	if _, ok := m.docs[session.ID]; ok {
		return repository.ErrAlreadyExists
	}
	return m.put(session)
}

func (m *SessionStore) Update(ctx context.Context, session *model.StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Update++

	if m.Errors.Update != nil {
		return m.Errors.Update
	}
	if _, ok := m.docs[session.ID]; !ok {
		return repository.ErrNotFound
	}
	return m.put(session)
}

func (m *SessionStore) put(session *model.StoredSession) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m.docs[session.ID] = doc
	return nil
}

// Helper methods for testing

// Seed stores a session directly, bypassing call tracking and errors.
func (m *SessionStore) Seed(session *model.StoredSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.put(session)
}

// Stored returns the persisted session or nil.
func (m *SessionStore) Stored(sessionID string) *model.StoredSession {
	m.mu.RLock()
	doc, ok := m.docs[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	var s model.StoredSession
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil
	}
	return &s
}

// Raw returns the persisted document.
func (m *SessionStore) Raw(sessionID string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.docs[sessionID]...)
}

// Count returns the number of stored sessions.
func (m *SessionStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// --- InstrumentSessionStore Mock ---

// InstrumentSessionStore is a mock implementation of repository.InstrumentSessionStore.
type InstrumentSessionStore struct {
	mu      sync.RWMutex
	records map[string]model.PaymentInstrumentSession

	Calls struct {
		Put int
		Get int
	}

	Errors struct {
		Put error
		Get error
	}
}

// NewInstrumentSessionStore creates a new mock InstrumentSessionStore.
func NewInstrumentSessionStore() *InstrumentSessionStore {
	return &InstrumentSessionStore{records: make(map[string]model.PaymentInstrumentSession)}
}

func (m *InstrumentSessionStore) Put(ctx context.Context, record *model.PaymentInstrumentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Put++

	if m.Errors.Put != nil {
		return m.Errors.Put
	}
	m.records[record.PaymentInstrumentID] = *record
	return nil
}

func (m *InstrumentSessionStore) Get(ctx context.Context, piid string) (*model.PaymentInstrumentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Get++

	if m.Errors.Get != nil {
		return nil, m.Errors.Get
	}
	r, ok := m.records[piid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

// --- SessionCache Mock ---

// SessionCache is a mock implementation of cache.SessionCache.
type SessionCache struct {
	mu      sync.RWMutex
	entries map[string]*model.StoredSession
	ttls    map[string]time.Duration

	Calls struct {
		Get    int
		Set    int
		Delete int
	}

	Errors struct {
		Get    error
		Set    error
		Delete error
	}
}

// NewSessionCache creates a new mock SessionCache.
func NewSessionCache() *SessionCache {
	return &SessionCache{
		entries: make(map[string]*model.StoredSession),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *SessionCache) Get(ctx context.Context, sessionID string) (*model.StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Get++

	if m.Errors.Get != nil {
		return nil, m.Errors.Get
	}
	s, ok := m.entries[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *SessionCache) Set(ctx context.Context, session *model.StoredSession, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Set++

	if m.Errors.Set != nil {
		return m.Errors.Set
	}
	cp := *session
	m.entries[session.ID] = &cp
	m.ttls[session.ID] = ttl
	return nil
}

func (m *SessionCache) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Delete++

	if m.Errors.Delete != nil {
		return m.Errors.Delete
	}
	delete(m.entries, sessionID)
	delete(m.ttls, sessionID)
	return nil
}

// Has reports whether sessionID is cached.
func (m *SessionCache) Has(sessionID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[sessionID]
	return ok
}

// TTL returns the ttl sessionID was cached with.
func (m *SessionCache) TTL(sessionID string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttls[sessionID]
}
