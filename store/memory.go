package store

import (
	"sync"

	"github.com/quillvm/cellar"
)

// Memory is an in-memory Store. Safe for concurrent use. The zero value is
// not usable; call NewMemory.
type Memory struct {
	mu    sync.RWMutex
	cells map[cellar.StorageKey][]byte
}

func NewMemory() *Memory {
	return &Memory{cells: make(map[cellar.StorageKey][]byte)}
}

func (m *Memory) Get(key cellar.StorageKey) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.cells[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Set(key cellar.StorageKey, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	m.mu.Lock()
	m.cells[key] = buf
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(key cellar.StorageKey) error {
	m.mu.Lock()
	delete(m.cells, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of non-empty cells.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cells)
}
