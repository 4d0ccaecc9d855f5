package store

import (
	"context"
	"sync"
)

// Memory keeps State in process. It backs tests and one-shot runs.
type Memory struct {
	mu    sync.RWMutex
	state State
}

// NewMemory returns a Memory store holding initial.
func NewMemory(initial State) *Memory {
	return &Memory{state: initial.Clone()}
}

func (m *Memory) Load(_ context.Context) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone(), nil
}

func (m *Memory) Save(_ context.Context, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state.Clone()
	return nil
}

func (m *Memory) Close() error { return nil }
