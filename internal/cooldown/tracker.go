package cooldown

import (
	"sync"
	"time"
)

// DefaultWindow is the minimum interval between missed-call notifications to one sender.
const DefaultWindow = 15 * time.Minute

// Tracker remembers when each sender was last sent a missed-call notification.
//
// ShouldNotify and RecordNotification are individually atomic. Callers that act on the
// result of ShouldNotify must hold the sender's Lock across the check and the record.
type Tracker struct {
	window time.Duration

	mu    sync.Mutex
	last  map[string]time.Time
	locks map[string]*sync.Mutex
}

type Option func(*Tracker)

// WithWindow overrides DefaultWindow. Non-positive values are ignored.
func WithWindow(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.window = d
		}
	}
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		window: DefaultWindow,
		last:   make(map[string]time.Time),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Window() time.Duration {
	return t.window
}

// ShouldNotify reports false iff sender was notified less than one window before now.
func (t *Tracker) ShouldNotify(sender string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.last[sender]
	if !ok {
		return true
	}
	return now.Sub(last) >= t.window
}

// RecordNotification overwrites the last notification time for sender.
func (t *Tracker) RecordNotification(sender string, now time.Time) {
	t.mu.Lock()
	t.last[sender] = now
	t.mu.Unlock()
}

// Lock acquires the per-sender lock and returns its release func.
// Locks for different senders are independent.
func (t *Tracker) Lock(sender string) (unlock func()) {
	t.mu.Lock()
	l, ok := t.locks[sender]
	if !ok {
		l = &sync.Mutex{}
		t.locks[sender] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
