package state

import (
	"context"
	"sync"

	"github.com/sweeney/alarmguard/internal/logic"
)

// MemStore keeps the record in memory. It stands in for durable storage when
// none can be opened, and in tests.
type MemStore struct {
	mu    sync.Mutex
	rows  map[string]Row
	saves int

	// SaveErr, when set, is returned by Save and the record is left unchanged.
	SaveErr error
}

// NewMemStore returns an empty store; Load yields the default record.
func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string]Row)}
}

// NewMemStoreWith returns a store already holding st.
func NewMemStoreWith(st logic.State) *MemStore {
	return &MemStore{rows: ToRows(st)}
}

func (m *MemStore) Load(_ context.Context) logic.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, _ := FromRows(m.rows)
	return st
}

func (m *MemStore) Save(_ context.Context, st logic.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.rows = ToRows(st)
	m.saves++
	return nil
}

func (m *MemStore) Close() error { return nil }

// Saves returns the number of successful saves.
func (m *MemStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// SetRow plants a raw row, bypassing the schema.
func (m *MemStore) SetRow(key string, kind Kind, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key] = Row{Kind: kind, Text: text}
}
