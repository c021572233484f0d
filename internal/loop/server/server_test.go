package server

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/furbo/internal/leaderboard"
	"github.com/tomz197/furbo/internal/loop/config"
	"github.com/tomz197/furbo/internal/relay"
	"github.com/tomz197/furbo/internal/types"
)

type fakeRelay struct {
	mu      sync.Mutex
	entries []relay.Entry
	err     error
	polls   int
}

func (f *fakeRelay) SubmitAction(context.Context, types.Identity, types.Action) (relay.Receipt, error) {
	return relay.Receipt{}, errors.New("not used")
}

func (f *fakeRelay) FetchLeaderboard(context.Context) ([]relay.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	return f.entries, f.err
}

func (f *fakeRelay) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func runHub(t *testing.T, h *Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRegisterAndUnregister(t *testing.T) {
	h := NewHub(nil, clock.NewMock(), log.New(io.Discard))
	runHub(t, h)

	a := h.RegisterClient("ann")
	b := h.RegisterClient("bob")
	assert.NotEqual(t, a.ID, b.ID)
	require.Eventually(t, func() bool { return h.Players() == 2 }, time.Second, time.Millisecond)

	h.UnregisterClient(a.ID)
	require.Eventually(t, func() bool { return h.Players() == 1 }, time.Second, time.Millisecond)
	_, open := <-a.EventsCh
	assert.False(t, open, "events channel is closed on unregister")
}

func TestLocalLeaderboardWithoutRelay(t *testing.T) {
	h := NewHub(nil, clock.NewMock(), log.New(io.Discard))
	h.Board().Push(leaderboard.Record{Identity: types.Identity{Player: "p1", Handle: "@p1"}, Score: 40})

	entries := h.Leaderboard()
	require.Len(t, entries, 1)
	assert.Equal(t, "@p1", entries[0].Handle)
	assert.Equal(t, 40, entries[0].Score)
}

func TestLeaderboardPolling(t *testing.T) {
	mock := clock.NewMock()
	rc := &fakeRelay{entries: []relay.Entry{{Player: "x", Score: 9}}}
	h := NewHub(rc, mock, log.New(io.Discard))
	runHub(t, h)

	require.Eventually(t, func() bool { return len(h.Leaderboard()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 9, h.Leaderboard()[0].Score)

	rc.mu.Lock()
	rc.entries = nil
	rc.err = types.ErrRelayUnreachable
	rc.mu.Unlock()

	mock.Add(config.LeaderboardPollInterval)
	require.Eventually(t, func() bool { return rc.pollCount() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 9, h.Leaderboard()[0].Score, "a failed poll keeps the last result")
}

func TestShutdownNotifiesClients(t *testing.T) {
	h := NewHub(nil, clock.New(), log.New(io.Discard))
	runHub(t, h)

	c := h.RegisterClient("ann")
	require.Eventually(t, func() bool { return h.Players() == 1 }, time.Second, time.Millisecond)

	go func() {
		for ev := range c.EventsCh {
			if ev.Type == EventServerShutdown {
				h.UnregisterClient(c.ID)
			}
		}
	}()

	start := time.Now()
	h.Shutdown(5 * time.Second)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Zero(t, h.Players())
}
