// Package session ties a browser session to its cart, checkout flow, and
// notification center.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitronics/storefront/internal/domain/cart"
	"github.com/vitronics/storefront/internal/domain/checkout"
	"github.com/vitronics/storefront/internal/notify"
	"github.com/vitronics/storefront/pkg/kvstore"
)

// CookieName identifies the session cookie.
const CookieName = "storefront_session"

// cartKeyPrefix namespaces cart entries in the key-value store.
const cartKeyPrefix = "cart:"

// Session is one visitor's storefront state. The cart is the only part that
// survives a restart; it rehydrates from the key-value store on first touch.
type Session struct {
	ID       string
	Cart     *cart.Store
	Checkout *checkout.Flow
	Notices  *notify.Center

	lastSeen time.Time
}

// Manager issues session cookies and owns the live session set.
type Manager struct {
	kv      kvstore.Store
	lookup  cart.Lookup
	flowCfg checkout.Config
	lg      *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session Manager.
func NewManager(kv kvstore.Store, lookup cart.Lookup, flowCfg checkout.Config, lg *zap.Logger) *Manager {
	return &Manager{
		kv:       kv,
		lookup:   lookup,
		flowCfg:  flowCfg,
		lg:       lg,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Resolve returns the session for the request, creating one (and setting the
// cookie) when the request carries none. A newly created session restores its
// cart from the key-value store, so returning visitors keep their cart.
func (m *Manager) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) *Session {
	id := ""
	if c, err := r.Cookie(CookieName); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			id = parsed.String()
		}
	}
	if id == "" {
		id = uuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		s.lastSeen = m.now()
		m.mu.Unlock()
		return s
	}
	m.mu.Unlock()

	// Build outside the lock: Restore may hit the network (Redis).
	c := cart.NewStore(m.kv, cartKeyPrefix+id, m.lookup, m.lg.With(zap.String("session", id)))
	c.Restore(ctx)
	fresh := &Session{
		ID:       id,
		Cart:     c,
		Checkout: checkout.NewFlow(c, m.flowCfg),
		Notices:  notify.NewCenter(notify.DefaultTTL),
		lastSeen: m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		// Lost the race with a concurrent request for the same new cookie.
		existing.lastSeen = m.now()
		return existing
	}
	m.sessions[id] = fresh
	return fresh
}

// Sweep drops sessions idle for longer than maxIdle from memory. Their carts
// stay in the key-value store and rehydrate on the next visit.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
