// Package otp holds the transient verification sessions that gate manual
// coupon issuance. Sessions live for five minutes and are never persisted to
// durable storage; a process restart drops all pending sessions.
package otp

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a code stays valid after issue or resend.
const DefaultTTL = 5 * time.Minute

// Session is one pending verification, keyed by a composite session id.
type Session struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	PhoneNumber   string    `json:"phone_number"`
	InvoiceNumber string    `json:"invoice_number"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// SessionStore stores pending OTP sessions. Get returns nil, nil when the
// session is absent so callers can distinguish "gone" from storage errors.
type SessionStore interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a mutex-guarded in-process SessionStore. It is shared
// mutable state scoped to a single server instance; use the Redis store when
// running more than one.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates a store with an injected clock.
// Primarily used for testing expiry behavior.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      now,
	}
}

// Put stores or replaces a session.
func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

// Get returns the session or nil, nil when absent. Expired sessions are still
// returned; expiry is the caller's check so the "expired" failure can be
// reported distinctly from "invalid session".
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// Delete removes a session. Deleting an absent session is a no-op.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Sweep removes sessions whose expiry has elapsed and returns how many were
// dropped.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RunSweeper sweeps the store on the given interval until ctx is cancelled.
// Bounds memory growth from sessions that are never verified or resent.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
