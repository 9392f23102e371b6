// Package idempotency records the outcome of mutations by key so a retried or
// duplicated request replays the stored result instead of re-applying it.
package idempotency

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scopes used by this service.
const (
	ScopeCartMerge   = "cart.merge"
	ScopeCreateOrder = "order.create"
)

var namespace = uuid.MustParse("9b7e4c1a-3f52-4d0e-8a61-2c5f7d9e0b34")

// Derive builds a deterministic key from the parts that identify one logical
// operation. The same parts always give the same key.
func Derive(scope string, parts ...string) string {
	return uuid.NewSHA1(namespace, []byte(scope+"\x00"+strings.Join(parts, "\x00"))).String()
}

// Record is a stored outcome.
type Record struct {
	Scope     string
	Key       string
	Response  []byte
	CreatedAt time.Time
}

// Store persists outcomes. Put keeps the first response written for a key.
type Store interface {
	Get(ctx context.Context, scope, key string) (Record, bool, error)
	Put(ctx context.Context, scope, key string, response []byte) error
}

// Purger drops records of a scope written before cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, scope string, cutoff time.Time) (int64, error)
}

// ExpiringStore is a Store whose records can be purged by age.
type ExpiringStore interface {
	Store
	Purger
}

// MemoryStore is used for tests and single-instance deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), now: time.Now}
}

func (s *MemoryStore) Get(ctx context.Context, scope, key string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[scope+"/"+key]
	return rec, ok, nil
}

func (s *MemoryStore) Put(ctx context.Context, scope, key string, response []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := scope + "/" + key
	if _, exists := s.records[id]; exists {
		return nil
	}
	s.records[id] = Record{Scope: scope, Key: key, Response: append([]byte(nil), response...), CreatedAt: s.now().UTC()}
	return nil
}

func (s *MemoryStore) PurgeBefore(ctx context.Context, scope string, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.records {
		if rec.Scope == scope && rec.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}
