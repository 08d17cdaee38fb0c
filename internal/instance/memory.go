package instance

import "sync"

// Hub plays the role of the operating system for in-memory coordinators: at
// most one coordinator per hub is Primary.
type Hub struct {
	mu      sync.Mutex
	primary *Memory
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// NewCoordinator returns a coordinator attached to h.
func (h *Hub) NewCoordinator() *Memory {
	return &Memory{hub: h, wake: make(chan struct{}, 1)}
}

// Memory is an in-process [Coordinator] for tests.
type Memory struct {
	hub  *Hub
	wake chan struct{}

	mu     sync.Mutex
	closed bool
}

var _ Coordinator = (*Memory)(nil)

func (m *Memory) TryAcquirePrimary() (bool, error) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return false, ErrClosed
	}

	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()

	if m.hub.primary == nil {
		m.hub.primary = m
	}

	return m.hub.primary == m, nil
}

func (m *Memory) SignalExistingPrimary() (bool, error) {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()

	primary := m.hub.primary
	if primary == nil || primary == m {
		return false, nil
	}

	select {
	case primary.wake <- struct{}{}:
	default:
	}

	return true, nil
}

func (m *Memory) Wakeups() <-chan struct{} {
	return m.wake
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()

	if m.hub.primary == m {
		m.hub.primary = nil
	}

	return nil
}
