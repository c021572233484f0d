package session

import (
	"slices"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/charmbracelet/log"

	"github.com/tomz197/furbo/internal/types"
)

// SubmitFunc relays an action and later reports its outcome through done.
type SubmitFunc func(a types.Action, done func(types.Outcome)) error

// publisher fans session changes out to subscribers.
type publisher struct {
	mu      sync.Mutex
	current Session
	subs    []func(Session)
}

func (p *publisher) CurrentIdentity() (types.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Identity, p.current.Active
}

func (p *publisher) Subscribe(fn func(Session)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

func (p *publisher) publish(s Session) {
	p.mu.Lock()
	p.current = s
	subs := slices.Clone(p.subs)
	p.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// RelayRegistration opens a session by relaying a register action. The
// session becomes active only once the relay confirms it.
type RelayRegistration struct {
	publisher
	submit  SubmitFunc
	logger  *log.Logger
	pending bool
}

var _ Provider = (*RelayRegistration)(nil)

// NewRelayRegistration creates a provider that registers through submit.
func NewRelayRegistration(submit SubmitFunc, logger *log.Logger) *RelayRegistration {
	return &RelayRegistration{submit: submit, logger: logger}
}

// Register submits a register action for id. A rejected submission or a
// failed outcome leaves the session inactive.
func (r *RelayRegistration) Register(id types.Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	if r.pending {
		r.mu.Unlock()
		return errorsmod.Wrap(types.ErrBackpressure, "registration already in flight")
	}
	r.pending = true
	r.mu.Unlock()

	err := r.submit(types.Register{Identity: id}, func(o types.Outcome) {
		r.mu.Lock()
		r.pending = false
		r.mu.Unlock()

		if !o.Confirmed() {
			r.logger.Error("registration failed", "player", id.Short(), "err", o.Err)
			return
		}
		r.logger.Info("registered", "player", id.Short(), "sig", o.Signature)
		r.publish(Session{Active: true, Identity: id})
	})
	if err != nil {
		r.mu.Lock()
		r.pending = false
		r.mu.Unlock()
		return err
	}
	return nil
}

// Pending reports whether a registration awaits the relay.
func (r *RelayRegistration) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// End closes the active session.
func (r *RelayRegistration) End() {
	r.publish(Session{})
}

// Static is a provider whose session is established out of band.
type Static struct {
	publisher
}

var _ Provider = (*Static)(nil)

// NewStatic returns a provider with id already active.
func NewStatic(id types.Identity) *Static {
	s := &Static{}
	s.current = Session{Active: true, Identity: id}
	return s
}

// End closes the session.
func (s *Static) End() {
	s.publish(Session{})
}
