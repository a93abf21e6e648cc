// Package session holds per-user conversation state: the current step, the ticket
// draft, and the registration progress marker, behind a pluggable Store.
package session

import (
	"context"
	"sync"
)

// Session is the live conversation of one user.
type Session struct {
	UserID string `json:"user_id"`
	Step   Step   `json:"step"`
	Draft  Draft  `json:"draft"`
}

// RegistrationField is the profile field currently being collected.
type RegistrationField string

const (
	FieldName   RegistrationField = "name"
	FieldRoom   RegistrationField = "room"
	FieldMobile RegistrationField = "mobile"
	FieldHostel RegistrationField = "hostel"
)

// Store is a keyed state store. Get reports ok=false when key has no value.
// Concurrent writes for the same key are last-write-wins.
type Store[V any] interface {
	Get(ctx context.Context, key string) (v V, ok bool, err error)
	Set(ctx context.Context, key string, v V) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps values in process memory; a restart drops everything.
type MemoryStore[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

func NewMemoryStore[V any]() *MemoryStore[V] {
	return &MemoryStore[V]{items: make(map[string]V)}
}

func (m *MemoryStore[V]) Get(_ context.Context, key string) (V, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStore[V]) Set(_ context.Context, key string, v V) error {
	m.mu.Lock()
	m.items[key] = v
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Len is the number of stored keys.
func (m *MemoryStore[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
