// Package server holds what SSH sessions share: the connected client list,
// the local leaderboard and the relay's leaderboard as last polled.
package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"

	"github.com/tomz197/furbo/internal/leaderboard"
	"github.com/tomz197/furbo/internal/loop/config"
	"github.com/tomz197/furbo/internal/relay"
)

// GameServer is the interface clients use to reach the hub.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	Board() leaderboard.Board
	Leaderboard() []relay.Entry
	Players() int
}

// Hub tracks connected clients and keeps a leaderboard view fresh.
type Hub struct {
	board  *leaderboard.Memory
	relay  relay.Client // nil keeps the leaderboard local
	clock  clock.Clock
	logger *log.Logger

	clients      map[int]*ClientHandle
	nextClientID int
	registerCh   chan *ClientHandle
	unregisterCh chan int
	mu           sync.RWMutex

	remote atomic.Pointer[[]relay.Entry] // Last successful relay poll
}

// Compile-time check that Hub implements GameServer.
var _ GameServer = (*Hub)(nil)

// NewHub creates a hub. rc may be nil.
func NewHub(rc relay.Client, clk clock.Clock, logger *log.Logger) *Hub {
	if clk == nil {
		clk = clock.New()
	}
	return &Hub{
		board:        leaderboard.NewMemory(config.LeaderboardSize),
		relay:        rc,
		clock:        clk,
		logger:       logger,
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		registerCh:   make(chan *ClientHandle, 16),
		unregisterCh: make(chan int, 16),
	}
}

// Run processes registrations and polls the relay leaderboard until ctx is
// cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := h.clock.Ticker(config.LeaderboardPollInterval)
	defer ticker.Stop()

	h.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case handle := <-h.registerCh:
			h.mu.Lock()
			h.clients[handle.ID] = handle
			h.mu.Unlock()
		case id := <-h.unregisterCh:
			h.mu.Lock()
			if handle, ok := h.clients[id]; ok {
				close(handle.EventsCh)
				delete(h.clients, id)
			}
			h.mu.Unlock()
		case <-ticker.C:
			h.poll(ctx)
		}
	}
}

// poll refreshes the relay leaderboard. On failure the previous result is
// kept.
func (h *Hub) poll(ctx context.Context) {
	if h.relay == nil {
		return
	}
	ctx, cancel := h.clock.WithTimeout(ctx, config.LeaderboardPollInterval)
	defer cancel()

	entries, err := h.relay.FetchLeaderboard(ctx)
	if err != nil {
		h.logger.Warn("leaderboard poll failed", "err", err)
		return
	}
	if len(entries) > config.LeaderboardSize {
		entries = entries[:config.LeaderboardSize]
	}
	h.remote.Store(&entries)
	h.broadcast(ClientEvent{Type: EventLeaderboardUpdated})
}

func (h *Hub) broadcast(ev ClientEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, handle := range h.clients {
		select {
		case handle.EventsCh <- ev:
		default:
		}
	}
}

// Shutdown notifies every client and waits for them to disconnect, up to
// timeout. The caller should cancel the Run context afterwards.
func (h *Hub) Shutdown(timeout time.Duration) {
	h.broadcast(ClientEvent{Type: EventServerShutdown})

	deadline := h.clock.After(timeout)
	ticker := h.clock.Ticker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			if h.Players() == 0 {
				return
			}
		}
	}
}

// RegisterClient registers a new client with the given username and returns its handle.
func (h *Hub) RegisterClient(username string) *ClientHandle {
	h.mu.Lock()
	id := h.nextClientID
	h.nextClientID++
	h.mu.Unlock()

	handle := &ClientHandle{
		ID:       id,
		Username: username,
		EventsCh: make(chan ClientEvent, 16),
	}
	h.registerCh <- handle
	return handle
}

// UnregisterClient removes a client from the hub.
func (h *Hub) UnregisterClient(clientID int) {
	h.unregisterCh <- clientID
}

// Board is where finished matches are recorded.
func (h *Hub) Board() leaderboard.Board {
	return h.board
}

// Leaderboard returns the relay's leaderboard when one has been fetched,
// otherwise the local one.
func (h *Hub) Leaderboard() []relay.Entry {
	if remote := h.remote.Load(); remote != nil {
		return *remote
	}
	return h.board.Entries()
}

// Players returns the number of connected clients.
func (h *Hub) Players() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
