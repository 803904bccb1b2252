package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by a Store when the id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Store persists session data keyed by session id.  Save always replaces the
// whole record and resets its time to live, so two requests racing on one
// session keep the last writer's record.  A member works one request at a
// time, which makes that acceptable; a flash set by a request can be lost
// to a concurrent Touch of the same session.
type Store interface {
	Load(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, d *Data, ttl time.Duration) error
	Destroy(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory.  It is used when Redis is
// unreachable at startup and in tests.  Sessions are lost on restart.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	data    Data
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem), now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !it.expires.IsZero() && s.now().After(it.expires) {
		delete(s.items, id)
		return nil, ErrNotFound
	}
	d := it.data.clone()
	return &d, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, d *Data, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := memoryItem{data: d.clone()}
	if ttl > 0 {
		it.expires = s.now().Add(ttl)
	}
	s.items[id] = it
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
