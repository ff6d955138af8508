package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskflow/internal/config"
	"github.com/fyrsmithlabs/taskflow/internal/logging"
)

// Gate holds the in-memory session and keeps it in step with its Store.
// It is safe for concurrent use.
type Gate struct {
	store  Store
	logger *logging.Logger

	mu    sync.RWMutex
	state State

	hooksMu sync.Mutex
	hooks   []func(context.Context)
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the gate logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate creates an empty gate over store. Call Hydrate to load the
// persisted session.
func NewGate(store Store, opts ...Option) *Gate {
	g := &Gate{store: store, logger: logging.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Hydrate loads the persisted session into memory.
func (g *Gate) Hydrate(ctx context.Context) error {
	s, err := g.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()

	g.logger.Debug(ctx, "session hydrated", zap.Bool("authenticated", s.Authenticated()))
	return nil
}

// Establish persists a new session and then makes it current. If saving
// fails the previous session stays in effect.
func (g *Gate) Establish(ctx context.Context, token config.Secret, profile Profile) error {
	if !token.IsSet() {
		return ErrNoToken
	}
	s := State{Token: token, Profile: &profile}
	if err := g.store.Save(ctx, s); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()

	g.logger.Info(ctx, "session established", zap.String("email", profile.Email))
	return nil
}

// Logout clears the session in memory and in the store.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	g.state = State{}
	g.mu.Unlock()

	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Reject clears the session after the remote service refused token. A
// token other than the current one is ignored, so a late 401 for an old
// credential cannot clear a newer one. Revocation hooks run once per
// cleared credential.
func (g *Gate) Reject(ctx context.Context, token string) {
	g.mu.Lock()
	if !g.state.Authenticated() || g.state.Token.Value() != token {
		g.mu.Unlock()
		return
	}
	g.state = State{}
	g.mu.Unlock()

	if err := g.store.Clear(ctx); err != nil {
		g.logger.Warn(ctx, "failed to clear rejected session", zap.Error(err))
	}
	g.logger.Warn(ctx, "credential rejected, session cleared")

	g.hooksMu.Lock()
	hooks := slices.Clone(g.hooks)
	g.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

// OnRevoked registers fn to run after a rejected credential is cleared.
func (g *Gate) OnRevoked(fn func(context.Context)) {
	g.hooksMu.Lock()
	defer g.hooksMu.Unlock()
	g.hooks = append(g.hooks, fn)
}

// Token returns the current credential.
func (g *Gate) Token() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.Token.Value(), g.state.Authenticated()
}

// Authenticated reports whether a credential is held.
func (g *Gate) Authenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.Authenticated()
}

// Profile returns the signed-in user's profile.
func (g *Gate) Profile() (Profile, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.state.Authenticated() || g.state.Profile == nil {
		return Profile{}, false
	}
	return *g.state.Profile, true
}
