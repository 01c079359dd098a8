package testutil

import (
	"context"
	"fmt"
	"sync"
)

// MockPublisher is an in-memory publisher for testing.
// Matches the natsclient.Client Publish signature.
type MockPublisher struct {
	mu       sync.RWMutex
	messages map[string][][]byte
	order    []string
	err      error
	closed   bool
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		messages: make(map[string][][]byte),
	}
}

// Publish records data under subject, or returns the configured error.
func (p *MockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}
	if p.err != nil {
		return p.err
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	p.messages[subject] = append(p.messages[subject], buf)
	p.order = append(p.order, subject)
	return nil
}

// SetError makes every subsequent Publish fail with err. Pass nil to clear.
func (p *MockPublisher) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// GetMessages returns copies of all payloads published to subject.
func (p *MockPublisher) GetMessages(subject string) [][]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()

	msgs := p.messages[subject]
	result := make([][]byte, len(msgs))
	copy(result, msgs)
	return result
}

// Subjects returns the subject of every publish in order.
func (p *MockPublisher) Subjects() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]string, len(p.order))
	copy(result, p.order)
	return result
}

// MessageCount returns the total number of recorded messages.
func (p *MockPublisher) MessageCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// Clear drops all recorded messages.
func (p *MockPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = make(map[string][][]byte)
	p.order = nil
}

// Close marks the publisher as closed.
func (p *MockPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}
