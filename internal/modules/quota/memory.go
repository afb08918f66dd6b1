package quota

import (
	"context"
	"sync"
)

// Memory is the default process-local Tracker. Counters live for the process
// lifetime only and the map is never pruned; quota survives session teardown
// by design.
type Memory struct {
	ceiling int

	mu   sync.Mutex
	used map[string]int
}

// NewMemory returns a Tracker holding counters in process memory.
func NewMemory(ceiling int) *Memory {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Memory{ceiling: ceiling, used: make(map[string]int)}
}

func (m *Memory) Remaining(_ context.Context, identity string) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used[identity]
	if _, seen := m.used[identity]; !seen {
		m.used[identity] = 0
	}
	return used < m.ceiling, m.ceiling - used, nil
}

func (m *Memory) Consume(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.used[identity]++
	return nil
}

func (m *Memory) Used(_ context.Context, identity string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.used[identity], nil
}

func (m *Memory) Reset(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.used[identity] = 0
	return nil
}
