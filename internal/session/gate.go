// Package session tracks whether a spending session is active and gates
// every relayed action on it.
package session

import (
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/charmbracelet/log"

	"github.com/tomz197/furbo/internal/types"
)

// State is the gate's authentication state.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Session is what a provider publishes on every change.
type Session struct {
	Active   bool
	Identity types.Identity
}

// Provider establishes sessions outside the core.
type Provider interface {
	// CurrentIdentity returns the identity of the active session, if any.
	CurrentIdentity() (types.Identity, bool)
	// Subscribe registers fn to be called on every session change.
	Subscribe(fn func(Session))
}

// Gate derives Authenticated/Unauthenticated solely from provider events.
type Gate struct {
	mu       sync.RWMutex
	state    State
	identity types.Identity
	logger   *log.Logger
}

// NewGate returns an unauthenticated gate.
func NewGate(logger *log.Logger) *Gate {
	return &Gate{logger: logger}
}

// Attach seeds the gate from p and follows its changes.
func (g *Gate) Attach(p Provider) {
	if id, ok := p.CurrentIdentity(); ok {
		g.OnSessionChange(Session{Active: true, Identity: id})
	}
	p.Subscribe(g.OnSessionChange)
}

// OnSessionChange applies a provider event. An active session without a
// player key is ignored.
func (g *Gate) OnSessionChange(s Session) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.state
	switch {
	case s.Active && !s.Identity.Empty():
		g.state = Authenticated
		g.identity = s.Identity
	case s.Active:
		g.logger.Warn("ignoring session without player key")
		return
	default:
		g.state = Unauthenticated
		g.identity = types.Identity{}
	}
	if prev != g.state {
		g.logger.Info("session changed", "state", g.state, "player", g.identity.Short())
	}
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// CanDispatch is true iff the gate is Authenticated.
func (g *Gate) CanDispatch() bool {
	return g.State() == Authenticated
}

// Identity returns the authenticated identity.
func (g *Gate) Identity() (types.Identity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.identity, g.state == Authenticated
}

// Authorize returns the identity a relayed action is submitted for.
// Register is admitted without a session once its fields validate and is
// submitted for the identity it carries; every other action needs an
// active session.
func (g *Gate) Authorize(a types.Action) (types.Identity, error) {
	if r, ok := a.(types.Register); ok {
		if err := r.Identity.Validate(); err != nil {
			return types.Identity{}, err
		}
		return r.Identity, nil
	}
	id, ok := g.Identity()
	if !ok {
		return types.Identity{}, errorsmod.Wrapf(types.ErrNotAuthenticated, "cannot %s", a.Kind())
	}
	return id, nil
}
