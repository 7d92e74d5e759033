// Package notify holds transient status messages (toasts) with a fixed
// display lifetime.
package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a toast stays visible.
const DefaultTTL = 3 * time.Second

// Kind classifies a toast for styling.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Toast is a single transient message.
type Toast struct {
	Kind      Kind
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Center is a fire-and-forget toast buffer. Expired toasts are pruned on
// read; nothing is retained after dismissal.
type Center struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	toasts []Toast
}

// NewCenter creates a Center with the given toast lifetime. A non-positive
// ttl falls back to DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{ttl: ttl, now: time.Now}
}

// Push adds a toast.
func (c *Center) Push(kind Kind, msg string) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toasts = append(c.toasts, Toast{
		Kind:      kind,
		Message:   msg,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	})
}

// Active returns the toasts still within their display window, oldest first,
// dropping everything expired.
func (c *Center) Active() []Toast {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.toasts[:0]
	for _, t := range c.toasts {
		if t.ExpiresAt.After(now) {
			live = append(live, t)
		}
	}
	c.toasts = live

	out := make([]Toast, len(live))
	copy(out, live)
	return out
}
