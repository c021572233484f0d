package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/decred/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/furbo/internal/config"
	"github.com/tomz197/furbo/internal/relay"
	"github.com/tomz197/furbo/internal/relay/sim"
	"github.com/tomz197/furbo/internal/types"
)

func TestIndexShowsLeaderboard(t *testing.T) {
	cfg := config.Default()
	s := sim.New(sim.Options{Path: cfg.Sim.Path, Seed: 1}, nil, log.New(io.Discard))
	srv := httptest.NewServer(newRouter(cfg, s, "play.example.org"))
	t.Cleanup(srv.Close)

	get := func() string {
		resp, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	body := get()
	assert.Contains(t, body, "ssh -t play.example.org -p 2222")
	assert.Contains(t, body, "No scores yet.")

	c := relay.NewHTTPClient(srv.URL+cfg.Sim.Path, 2*time.Second, clock.New())
	dave := types.Identity{Player: base58.Encode(bytes.Repeat([]byte{4}, types.PlayerKeyLength)), Handle: "@dave"}
	ctx := context.Background()
	_, err := c.SubmitAction(ctx, dave, types.Register{Identity: dave})
	require.NoError(t, err)
	_, err = c.SubmitAction(ctx, dave, types.Score{Score: 1234, DurationMs: 60000})
	require.NoError(t, err)

	body = get()
	assert.Contains(t, body, "@dave")
	assert.Contains(t, body, "1234")
	assert.NotContains(t, body, "No scores yet.")
}

func TestRelayRoutesMounted(t *testing.T) {
	cfg := config.Default()
	s := sim.New(sim.Options{Path: cfg.Sim.Path, Seed: 1}, nil, log.New(io.Discard))
	srv := httptest.NewServer(newRouter(cfg, s, "localhost"))
	t.Cleanup(srv.Close)

	c := relay.NewHTTPClient(srv.URL+cfg.Sim.Path, 2*time.Second, clock.New())
	entries, err := c.FetchLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
