// Package sim emulates the fee-sponsoring relay for local play and tests.
// It speaks the same wire protocol as the real service, signs nothing and
// answers with pseudo-signatures.
package sim

import (
	"context"
	"crypto/sha512"
	"encoding/binary"
	"encoding/json"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/decred/base58"
	"github.com/gorilla/mux"

	"github.com/tomz197/furbo/internal/relay"
	"github.com/tomz197/furbo/internal/types"
)

// Options tunes the simulated relay.
type Options struct {
	Path            string        // Route prefix, e.g. "/sponsor"
	Latency         time.Duration // Delay before every action reply
	FailureRate     float64       // Fraction of actions answered with 503
	LeaderboardSize int
	Seed            int64
}

// Simulator is an in-memory relay.
type Simulator struct {
	opts   Options
	clock  clock.Clock
	logger *log.Logger

	mu         sync.Mutex
	rng        *rand.Rand
	seq        uint64
	registered map[string]string // player -> handle
	best       map[string]int    // player -> best score
	counts     map[types.Kind]int
}

// New creates a simulator. A zero Path serves at "/".
func New(opts Options, clk clock.Clock, logger *log.Logger) *Simulator {
	if clk == nil {
		clk = clock.New()
	}
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = 10
	}
	seed := opts.Seed
	if seed == 0 {
		seed = clk.Now().UnixNano()
	}
	return &Simulator{
		opts:       opts,
		clock:      clk,
		logger:     logger,
		rng:        rand.New(rand.NewSource(seed)),
		registered: make(map[string]string),
		best:       make(map[string]int),
		counts:     make(map[types.Kind]int),
	}
}

// Register mounts the relay routes on r.
func (s *Simulator) Register(r *mux.Router) {
	base := strings.TrimSuffix(s.opts.Path, "/")
	route := base
	if route == "" {
		route = "/"
	}
	r.HandleFunc(route, s.handleAction).Methods(http.MethodPost)
	r.HandleFunc(base+relay.LeaderboardPath, s.handleLeaderboard).Methods(http.MethodGet)
}

// Handler returns a router serving only the relay routes.
func (s *Simulator) Handler() http.Handler {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

// Count returns how many actions of kind k were accepted.
func (s *Simulator) Count(k types.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[k]
}

// Leaderboard returns the best scores, highest first.
func (s *Simulator) Leaderboard() []relay.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]relay.Entry, 0, len(s.best))
	for player, score := range s.best {
		entries = append(entries, relay.Entry{Player: player, Handle: s.registered[player], Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Player < entries[j].Player
	})
	if len(entries) > s.opts.LeaderboardSize {
		entries = entries[:s.opts.LeaderboardSize]
	}
	return entries
}

func (s *Simulator) handleAction(w http.ResponseWriter, r *http.Request) {
	var req relay.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, relay.Response{Error: "malformed request"})
		return
	}

	if err := s.wait(r.Context()); err != nil {
		return
	}

	status, resp := s.apply(req)
	if status == http.StatusOK {
		s.logger.Debug("sponsored", "action", req.Action, "player", req.Player, "sig", resp.TxSignature)
	} else {
		s.logger.Warn("rejected", "action", req.Action, "player", req.Player, "status", status, "reason", resp.Error)
	}
	writeJSON(w, status, resp)
}

func (s *Simulator) wait(ctx context.Context) error {
	if s.opts.Latency <= 0 {
		return nil
	}
	timer := s.clock.Timer(s.opts.Latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Simulator) apply(req relay.Request) (int, relay.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(base58.Decode(req.Player)) != types.PlayerKeyLength {
		return http.StatusBadRequest, relay.Response{Error: "invalid player key"}
	}
	if s.opts.FailureRate > 0 && s.rng.Float64() < s.opts.FailureRate {
		return http.StatusServiceUnavailable, relay.Response{Error: "sponsor unavailable"}
	}

	var kind types.Kind
	switch req.Action {
	case types.KindRegister.String():
		if req.Handle == "" {
			return http.StatusBadRequest, relay.Response{Error: "xHandle required"}
		}
		kind = types.KindRegister
		s.registered[req.Player] = req.Handle
	case types.KindMove.String(), types.KindShoot.String():
		if _, ok := s.registered[req.Player]; !ok {
			return http.StatusForbidden, relay.Response{Error: "player not registered"}
		}
		kind = types.KindShoot
		if req.Action == types.KindMove.String() {
			kind = types.KindMove
		}
	case types.KindScore.String():
		if _, ok := s.registered[req.Player]; !ok {
			return http.StatusForbidden, relay.Response{Error: "player not registered"}
		}
		if req.Score == nil || *req.Score < 0 {
			return http.StatusBadRequest, relay.Response{Error: "score required"}
		}
		kind = types.KindScore
		if prev, ok := s.best[req.Player]; !ok || *req.Score > prev {
			s.best[req.Player] = *req.Score
		}
	default:
		return http.StatusBadRequest, relay.Response{Error: "unknown action"}
	}

	s.counts[kind]++
	s.seq++
	return http.StatusOK, relay.Response{TxSignature: s.signature(req)}
}

// signature derives a 64-byte pseudo-signature from the request and sequence.
func (s *Simulator) signature(req relay.Request) string {
	h := sha512.New()
	h.Write([]byte(req.Player))
	h.Write([]byte(req.Action))
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], s.seq)
	h.Write(n[:])
	return base58.Encode(h.Sum(nil))
}

func (s *Simulator) handleLeaderboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Leaderboard())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
