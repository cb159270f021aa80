// Package guard remembers which respondent sessions already submitted a
// survey so replays inside the duplicate window are rejected.
package guard

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local guard. Expired claims are dropped lazily.
type Memory struct {
	mu    sync.Mutex
	held  map[string]time.Time
	now   func() time.Time
	calls int
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.calls++
	if m.calls%256 == 0 {
		m.sweep(now)
	}
	if exp, ok := m.held[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.held[key] = now.Add(ttl)
	return true, nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.held, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) sweep(now time.Time) {
	for k, exp := range m.held {
		if !now.Before(exp) {
			delete(m.held, k)
		}
	}
}

// Len reports the number of live claims.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(m.now())
	return len(m.held)
}
