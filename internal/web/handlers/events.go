package handlers

import (
	"sync"
)

// eventChannelBuffer bounds each SSE listener's queue. A listener that falls
// this far behind starts losing events; the status snapshot catches it up.
const eventChannelBuffer = 64

// SessionEvent is one event on a session's SSE stream.
type SessionEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for
// live sessions. Embed this in session structs to get AddListener,
// RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	listeners []chan SessionEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan SessionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan SessionEvent, eventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan SessionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event SessionEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}
