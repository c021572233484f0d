package sim

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/decred/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/furbo/internal/relay"
	"github.com/tomz197/furbo/internal/types"
)

func player(b byte, handle string) types.Identity {
	return types.Identity{Player: base58.Encode(bytes.Repeat([]byte{b}, types.PlayerKeyLength)), Handle: handle}
}

func newServer(t *testing.T, opts Options) (*Simulator, *relay.HTTPClient) {
	t.Helper()
	opts.Path = "/sponsor"
	s := New(opts, nil, log.New(io.Discard))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, relay.NewHTTPClient(srv.URL+"/sponsor", 2*time.Second, clock.New())
}

func TestRegisterThenPlay(t *testing.T) {
	s, c := newServer(t, Options{Seed: 1})
	ctx := context.Background()
	alice := player(1, "@alice")

	_, err := c.SubmitAction(ctx, alice, types.Shoot{ShipX: 10})
	assert.True(t, errors.Is(err, types.ErrRelayRejected), "unregistered players are refused: %v", err)

	rec, err := c.SubmitAction(ctx, alice, types.Register{Identity: alice})
	require.NoError(t, err)
	assert.Len(t, base58.Decode(rec.Signature), 64)

	shot, err := c.SubmitAction(ctx, alice, types.Shoot{ShipX: 10})
	require.NoError(t, err)
	assert.NotEqual(t, rec.Signature, shot.Signature)

	_, err = c.SubmitAction(ctx, alice, types.Move{Direction: types.DirLeft, ShipX: 6})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Count(types.KindRegister))
	assert.Equal(t, 1, s.Count(types.KindShoot))
	assert.Equal(t, 1, s.Count(types.KindMove))
}

func TestLeaderboardKeepsBestScores(t *testing.T) {
	_, c := newServer(t, Options{Seed: 1, LeaderboardSize: 2})
	ctx := context.Background()
	alice, bob, carol := player(1, "@alice"), player(2, "@bob"), player(3, "@carol")

	for _, p := range []types.Identity{alice, bob, carol} {
		_, err := c.SubmitAction(ctx, p, types.Register{Identity: p})
		require.NoError(t, err)
	}
	submit := func(p types.Identity, score int) {
		_, err := c.SubmitAction(ctx, p, types.Score{Score: score, DurationMs: 60000})
		require.NoError(t, err)
	}
	submit(alice, 300)
	submit(alice, 100)
	submit(bob, 500)
	submit(carol, 0)

	entries, err := c.FetchLeaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, relay.Entry{Player: bob.Player, Handle: "@bob", Score: 500}, entries[0])
	assert.Equal(t, relay.Entry{Player: alice.Player, Handle: "@alice", Score: 300}, entries[1])
	assert.Equal(t, "@bob", entries[0].Name())
}

func TestInvalidPlayerKey(t *testing.T) {
	_, c := newServer(t, Options{Seed: 1})
	_, err := c.SubmitAction(context.Background(), types.Identity{Player: "abc", Handle: "@x"},
		types.Register{Identity: types.Identity{Player: "abc", Handle: "@x"}})
	assert.ErrorIs(t, err, types.ErrRelayRejected)
}

func TestFailureRate(t *testing.T) {
	_, c := newServer(t, Options{Seed: 1, FailureRate: 1})
	alice := player(1, "@alice")
	_, err := c.SubmitAction(context.Background(), alice, types.Register{Identity: alice})
	assert.ErrorIs(t, err, types.ErrRelayRejected)
}

func TestUnreachableRelay(t *testing.T) {
	srv := httptest.NewServer(New(Options{}, nil, log.New(io.Discard)).Handler())
	url := srv.URL
	srv.Close()

	c := relay.NewHTTPClient(url, time.Second, nil)
	alice := player(1, "@alice")
	_, err := c.SubmitAction(context.Background(), alice, types.Register{Identity: alice})
	assert.ErrorIs(t, err, types.ErrRelayUnreachable)

	_, err = c.FetchLeaderboard(context.Background())
	assert.ErrorIs(t, err, types.ErrRelayUnreachable)
}

func TestLatencyHonoursContext(t *testing.T) {
	_, c := newServer(t, Options{Seed: 1, Latency: time.Minute})
	alice := player(1, "@alice")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.SubmitAction(ctx, alice, types.Register{Identity: alice})
	assert.ErrorIs(t, err, types.ErrTimeout)
}
