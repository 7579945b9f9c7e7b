package chat

import (
	"sync"

	"github.com/reframe-labs/reframe/internal/domain"
)

// StatusTracker holds the most recent dispatch status and fans out
// transitions to subscribers (the websocket status feed). It implements
// provider.StatusSink.
//
// States: Idle -> Requesting -> Success/Error, re-entrant on dispatch.
// Idle is both the initial and the rest state.
type StatusTracker struct {
	mu      sync.Mutex
	current domain.Status
	subs    map[chan domain.Status]struct{}
}

// NewStatusTracker creates a tracker in the Idle state.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		current: domain.Status{State: domain.StateIdle},
		subs:    make(map[chan domain.Status]struct{}),
	}
}

// OnStatusChanged records a transition and notifies subscribers. Slow
// subscribers miss intermediate transitions rather than blocking a
// dispatch.
func (t *StatusTracker) OnStatusChanged(st domain.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = st
	for ch := range t.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

// Current returns the most recent status.
func (t *StatusTracker) Current() domain.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Subscribe registers a transition listener. The returned cancel func
// must be called to release it.
func (t *StatusTracker) Subscribe() (<-chan domain.Status, func()) {
	ch := make(chan domain.Status, 8)
	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		delete(t.subs, ch)
		t.mu.Unlock()
	}
	return ch, cancel
}
