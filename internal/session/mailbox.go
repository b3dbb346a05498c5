package session

import (
	"context"
	"errors"
	"sync"
)

// ErrMailboxClosed is returned by Next once the controller has shut down and every
// queued event has been consumed.
var ErrMailboxClosed = errors.New("session mailbox closed")

// mailbox is an unbounded FIFO of events. Producers never block.
type mailbox struct {
	mu     sync.Mutex
	items  []Event
	closed bool
	signal chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

// push enqueues ev. It reports false when the mailbox is closed.
func (m *mailbox) push(ev Event) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, ev)
	m.mu.Unlock()
	m.wake()
	return true
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.wake()
}

func (m *mailbox) wake() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// pop waits for the next event.
func (m *mailbox) pop(ctx context.Context) (Event, error) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			ev := m.items[0]
			m.items[0] = Event{}
			m.items = m.items[1:]
			more := len(m.items) > 0 || m.closed
			m.mu.Unlock()
			if more {
				m.wake()
			}
			return ev, nil
		}
		closed := m.closed
		m.mu.Unlock()
		if closed {
			m.wake()
			return Event{}, ErrMailboxClosed
		}

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-m.signal:
		}
	}
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
