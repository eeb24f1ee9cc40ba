// Package memstore keeps entitlements and pending codes in process memory.
// It backs tests and the "memory" database driver.
package memstore

import (
	"context"
	"sync"

	"github.com/m3rciful/offerbot/internal/entitlement"
)

// Entitlements is an in-memory entitlement.EntitlementStore.
type Entitlements struct {
	mu   sync.RWMutex
	recs map[int64]entitlement.Record
}

// NewEntitlements returns an empty store.
func NewEntitlements() *Entitlements {
	return &Entitlements{recs: make(map[int64]entitlement.Record)}
}

// Upsert replaces the record for rec.UserID.
func (s *Entitlements) Upsert(_ context.Context, rec entitlement.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.UserID] = rec
	return nil
}

// Get returns the record for userID or entitlement.ErrNotFound.
func (s *Entitlements) Get(_ context.Context, userID int64) (entitlement.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[userID]
	if !ok {
		return entitlement.Record{}, entitlement.ErrNotFound
	}
	return rec, nil
}

// Len reports the number of stored records.
func (s *Entitlements) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}

// Pending is an in-memory entitlement.PendingStore.
type Pending struct {
	mu    sync.RWMutex
	codes map[int64]entitlement.Pending
}

// NewPending returns an empty store.
func NewPending() *Pending {
	return &Pending{codes: make(map[int64]entitlement.Pending)}
}

// Upsert replaces the pending code for p.UserID.
func (s *Pending) Upsert(_ context.Context, p entitlement.Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[p.UserID] = p
	return nil
}

// Get returns the pending code for userID or entitlement.ErrNotFound.
func (s *Pending) Get(_ context.Context, userID int64) (entitlement.Pending, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.codes[userID]
	if !ok {
		return entitlement.Pending{}, entitlement.ErrNotFound
	}
	return p, nil
}
