package herald

import (
	"context"
	"sync"
)

// MockAdapter records events for tests and can be told to fail.
type MockAdapter struct {
	mu      sync.Mutex
	sent    []Event
	sendErr error
	closed  bool
}

// NewMockAdapter creates a MockAdapter.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

// FailWith makes every subsequent Send return err.
func (m *MockAdapter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// Send records the event.
func (m *MockAdapter) Send(ctx context.Context, evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, evt)
	return nil
}

// Sent returns a copy of the recorded events.
func (m *MockAdapter) Sent() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.sent))
	copy(out, m.sent)
	return out
}

// Close marks the adapter closed.
func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockAdapter) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
