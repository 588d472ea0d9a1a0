package storage

import "sync"

// MemoryStore keeps the record for the lifetime of the process
type MemoryStore struct {
	mu    sync.Mutex
	score int
	saves int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LoadHighScore() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

func (m *MemoryStore) SaveHighScore(score int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.score = score
	m.saves++
}

// Saves reports how many times SaveHighScore was called
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Close() error {
	return nil
}
