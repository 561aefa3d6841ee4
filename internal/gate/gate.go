// Package gate blocks protected views until identity is resolved.
//
// A Mount shows a placeholder for the whole unresolved interval, then either
// admits the view once per resolved identity or redirects to the sign-in
// path. A redirect is terminal for the mount.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/homestead/internal/domain"
)

const (
	// DefaultSignInPath is where unauthenticated users are sent
	DefaultSignInPath = "/sign-in"

	// DefaultResolveTimeout bounds how long a mount waits for the first
	// identity notification before treating the user as signed out
	DefaultResolveTimeout = 10 * time.Second
)

// ErrUnauthenticated is returned by Await when nobody is signed in
var ErrUnauthenticated = errors.New("not signed in")

// State is the resolution state of a Mount
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// View is the protected surface a gate controls
type View interface {
	// Placeholder is shown while identity is unknown
	Placeholder()
	// Admit renders the protected subtree for identity
	Admit(identity domain.Identity)
	// Redirect sends the user to path instead of the subtree
	Redirect(path string)
}

// Option configures a Gate
type Option func(*Gate)

// WithRedirectPath sets the sign-in entry point
func WithRedirectPath(path string) Option {
	return func(g *Gate) { g.redirectPath = path }
}

// WithResolveTimeout sets the resolution deadline; 0 waits forever
func WithResolveTimeout(d time.Duration) Option {
	return func(g *Gate) { g.timeout = d }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// Gate admits views based on an injected identity channel
type Gate struct {
	channel      domain.IdentityChannel
	redirectPath string
	timeout      time.Duration
	logger       *slog.Logger
}

// New creates a gate over channel
func New(channel domain.IdentityChannel, opts ...Option) *Gate {
	g := &Gate{
		channel:      channel,
		redirectPath: DefaultSignInPath,
		timeout:      DefaultResolveTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// RedirectPath returns the sign-in entry point
func (g *Gate) RedirectPath() string { return g.redirectPath }

// Mount shows the placeholder on v and starts resolving identity
func (g *Gate) Mount(v View) *Mount {
	m := &Mount{gate: g, view: v}

	v.Placeholder()

	if g.timeout > 0 {
		m.mu.Lock()
		m.timer = time.AfterFunc(g.timeout, m.expire)
		m.mu.Unlock()
	}

	sub := g.channel.Subscribe(m.onChange)

	m.mu.Lock()
	if m.done {
		// Resolved to signed-out (or unmounted) during Subscribe
		m.mu.Unlock()
		sub.Unsubscribe()
		return m
	}
	m.sub = sub
	m.mu.Unlock()

	return m
}

// Await blocks until identity resolves and returns it, or ErrUnauthenticated
func (g *Gate) Await(ctx context.Context) (*domain.Identity, error) {
	v := &awaitView{result: make(chan *domain.Identity, 1)}
	m := g.Mount(v)
	defer m.Unmount()

	select {
	case id := <-v.result:
		if id == nil {
			return nil, ErrUnauthenticated
		}
		return id, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Mount is one gated view's lifetime
type Mount struct {
	gate *Gate
	view View

	// emitMu serializes view callbacks; mu guards state
	emitMu sync.Mutex

	mu       sync.Mutex
	state    State
	identity *domain.Identity
	sub      domain.Subscription
	timer    *time.Timer
	done     bool
}

// State returns the current resolution
func (m *Mount) State() (State, *domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return m.state, nil
	}
	id := *m.identity
	return m.state, &id
}

// Unmount releases the identity subscription. Callbacks arriving afterwards
// are ignored.
func (m *Mount) Unmount() {
	m.mu.Lock()
	m.done = true
	sub := m.sub
	m.sub = nil
	m.stopTimerLocked()
	m.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

func (m *Mount) onChange(identity *domain.Identity) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}

	if identity == nil {
		sub := m.redirectLocked()
		m.mu.Unlock()

		m.gate.logger.Debug("gate redirecting", "path", m.gate.redirectPath)
		m.view.Redirect(m.gate.redirectPath)
		if sub != nil {
			sub.Unsubscribe()
		}
		return
	}

	if m.state == StateAuthenticated && m.identity.UserID == identity.UserID {
		// Same user re-announced; keep the rendered subtree
		id := *identity
		m.identity = &id
		m.mu.Unlock()
		return
	}

	id := *identity
	m.state = StateAuthenticated
	m.identity = &id
	m.stopTimerLocked()
	m.mu.Unlock()

	m.gate.logger.Debug("gate admitted", "userID", id.UserID)
	m.view.Admit(id)
}

func (m *Mount) expire() {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	if m.done || m.state != StateUnknown {
		m.mu.Unlock()
		return
	}
	sub := m.redirectLocked()
	m.mu.Unlock()

	m.gate.logger.Warn("identity resolution timed out", "timeout", m.gate.timeout)
	m.view.Redirect(m.gate.redirectPath)
	if sub != nil {
		sub.Unsubscribe()
	}
}

// redirectLocked makes the mount terminal and hands back the subscription to
// release outside the lock
func (m *Mount) redirectLocked() domain.Subscription {
	m.state = StateUnauthenticated
	m.identity = nil
	m.done = true
	m.stopTimerLocked()
	sub := m.sub
	m.sub = nil
	return sub
}

func (m *Mount) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// awaitView turns the first resolution into a channel value
type awaitView struct {
	once   sync.Once
	result chan *domain.Identity
}

func (v *awaitView) Placeholder() {}

func (v *awaitView) Admit(identity domain.Identity) {
	v.once.Do(func() { v.result <- &identity })
}

func (v *awaitView) Redirect(string) {
	v.once.Do(func() { v.result <- nil })
}
