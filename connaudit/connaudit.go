// Package connaudit persists a lightweight audit trail of transport-layer
// connections (open/close timestamps, remote address) as an optional
// connsession.Option. It is grounded on the teacher's core/session.Store
// pattern — a narrow persistence interface plus a pluggable backend — but
// audits *transport* sessions instead of authenticated user sessions: no
// user identity, no token, no TTL, just "this connection existed from T1
// to T2."
package connaudit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Store.Get when no record exists for an ID.
var ErrNotFound = errors.New("connaudit: record not found")

// ConnectionRecord is one audited connection lifetime.
type ConnectionRecord struct {
	ID         uuid.UUID
	RemoteAddr string
	OpenedAt   time.Time
	ClosedAt   time.Time // zero until the connection closes
}

// IsOpen reports whether the record has not yet been closed.
func (r ConnectionRecord) IsOpen() bool { return r.ClosedAt.IsZero() }

// Store persists ConnectionRecord values. Implementations must be safe
// for concurrent use — every connsession.Session calls into the same
// Store instance from its own goroutine.
type Store interface {
	// Open records a newly-opened connection.
	Open(ctx context.Context, rec ConnectionRecord) error

	// Close marks rec as closed at closedAt.
	Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error

	// Get retrieves a record by ID, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (ConnectionRecord, error)
}

// MemoryStore is an in-process Store, useful for tests and single-instance
// deployments. It is the only Store implementation in this module; other
// backends plug in through the Store interface.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]ConnectionRecord
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]ConnectionRecord)}
}

func (s *MemoryStore) Open(_ context.Context, rec ConnectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Close(_ context.Context, id uuid.UUID, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.ClosedAt = closedAt
	s.records[id] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (ConnectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return ConnectionRecord{}, ErrNotFound
	}
	return rec, nil
}

// Len reports how many records (open or closed) the store currently holds.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
