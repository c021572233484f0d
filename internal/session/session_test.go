package session

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/decred/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/furbo/internal/types"
)

var alice = types.Identity{
	Player: base58.Encode(bytes.Repeat([]byte{1}, types.PlayerKeyLength)),
	Handle: "@alice",
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestGateStartsUnauthenticated(t *testing.T) {
	g := NewGate(quietLogger())
	assert.Equal(t, Unauthenticated, g.State())
	assert.False(t, g.CanDispatch())

	for _, a := range []types.Action{types.Move{}, types.Shoot{}, types.Score{}} {
		_, err := g.Authorize(a)
		assert.True(t, errors.Is(err, types.ErrNotAuthenticated), "%s: %v", a.Kind(), err)
	}
}

func TestGateFollowsSessionEvents(t *testing.T) {
	g := NewGate(quietLogger())

	g.OnSessionChange(Session{Active: true, Identity: alice})
	require.True(t, g.CanDispatch())
	id, err := g.Authorize(types.Shoot{ShipX: 1})
	require.NoError(t, err)
	assert.Equal(t, alice, id)

	g.OnSessionChange(Session{Active: true})
	assert.True(t, g.CanDispatch(), "an active session without a key is ignored")

	g.OnSessionChange(Session{})
	assert.False(t, g.CanDispatch())
	_, ok := g.Identity()
	assert.False(t, ok)
}

func TestRegisterIsAdmittedBeforeSession(t *testing.T) {
	g := NewGate(quietLogger())

	id, err := g.Authorize(types.Register{Identity: alice})
	require.NoError(t, err)
	assert.Equal(t, alice, id)
	assert.False(t, g.CanDispatch(), "admitting a register never authenticates")

	_, err = g.Authorize(types.Register{Identity: types.Identity{Handle: "@x"}})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestStaticProvider(t *testing.T) {
	p := NewStatic(alice)
	g := NewGate(quietLogger())
	g.Attach(p)
	assert.True(t, g.CanDispatch())

	p.End()
	assert.False(t, g.CanDispatch())
}

// fakeRelay records submissions and lets the test resolve them.
type fakeRelay struct {
	actions []types.Action
	done    []func(types.Outcome)
	err     error
}

func (f *fakeRelay) submit(a types.Action, done func(types.Outcome)) error {
	if f.err != nil {
		return f.err
	}
	f.actions = append(f.actions, a)
	f.done = append(f.done, done)
	return nil
}

func TestRelayRegistrationConfirmed(t *testing.T) {
	relay := &fakeRelay{}
	reg := NewRelayRegistration(relay.submit, quietLogger())
	g := NewGate(quietLogger())
	g.Attach(reg)

	require.NoError(t, reg.Register(alice))
	require.Len(t, relay.actions, 1)
	assert.Equal(t, types.Register{Identity: alice}, relay.actions[0])
	assert.True(t, reg.Pending())
	assert.False(t, g.CanDispatch(), "a pending registration does not authenticate")

	err := reg.Register(alice)
	assert.True(t, errors.Is(err, types.ErrBackpressure))

	relay.done[0](types.Outcome{Signature: "sig"})
	assert.False(t, reg.Pending())
	assert.True(t, g.CanDispatch())
	id, _ := reg.CurrentIdentity()
	assert.Equal(t, alice, id)

	reg.End()
	assert.False(t, g.CanDispatch())
}

func TestRelayRegistrationFailureStaysUnauthenticated(t *testing.T) {
	relay := &fakeRelay{}
	reg := NewRelayRegistration(relay.submit, quietLogger())
	g := NewGate(quietLogger())
	g.Attach(reg)

	require.NoError(t, reg.Register(alice))
	relay.done[0](types.Outcome{Err: types.ErrRelayRejected})
	assert.False(t, g.CanDispatch())
	assert.False(t, reg.Pending())

	relay.err = types.ErrBackpressure
	err := reg.Register(alice)
	assert.ErrorIs(t, err, types.ErrBackpressure)
	assert.False(t, reg.Pending(), "a synchronous rejection frees the registration")
	assert.False(t, g.CanDispatch())
}

func TestRelayRegistrationValidates(t *testing.T) {
	relay := &fakeRelay{}
	reg := NewRelayRegistration(relay.submit, quietLogger())

	err := reg.Register(types.Identity{Player: alice.Player})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Empty(t, relay.actions)
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	p := NewStatic(alice)
	var got []Session
	p.Subscribe(func(s Session) { got = append(got, s) })
	p.Subscribe(func(s Session) {
		got = append(got, s)
		// Subscribing from a callback only affects later events.
		p.Subscribe(func(s Session) { got = append(got, s) })
	})

	p.End()
	require.Len(t, got, 2)
	assert.False(t, got[0].Active)
	assert.False(t, got[1].Active)

	got = nil
	p.End()
	assert.Len(t, got, 3)
}
