package cache

import (
	"context"
	"sync"
)

// maxMemoryEntries caps each map of a Memory store. A full map is dropped
// wholesale, like the chain client's timestamp cache.
const maxMemoryEntries = 1 << 16

// Memory is a process-local Store.
type Memory struct {
	mu     sync.RWMutex
	limit  int
	names  map[uint64]string
	blocks map[uint64]uint64
}

func NewMemory() *Memory {
	return &Memory{
		limit:  maxMemoryEntries,
		names:  make(map[uint64]string),
		blocks: make(map[uint64]uint64),
	}
}

func (m *Memory) AchievementName(_ context.Context, id uint64) (string, bool, error) {
	m.mu.RLock()
	name, ok := m.names[id]
	m.mu.RUnlock()
	return name, ok, nil
}

func (m *Memory) SetAchievementName(_ context.Context, id uint64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.names[id]; !ok && len(m.names) >= m.limit {
		m.names = make(map[uint64]string)
	}
	m.names[id] = name
	return nil
}

func (m *Memory) BlockTime(_ context.Context, number uint64) (uint64, bool, error) {
	m.mu.RLock()
	ts, ok := m.blocks[number]
	m.mu.RUnlock()
	return ts, ok, nil
}

func (m *Memory) SetBlockTime(_ context.Context, number uint64, ts uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blocks[number]; !ok && len(m.blocks) >= m.limit {
		m.blocks = make(map[uint64]uint64)
	}
	m.blocks[number] = ts
	return nil
}
