// Package loop runs one match: it owns the world and the match state, feeds
// player input into them once per tick and mirrors actions through the
// dispatcher.
package loop

import (
	"math"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/tomz197/furbo/internal/config"
	"github.com/tomz197/furbo/internal/difficulty"
	"github.com/tomz197/furbo/internal/dispatch"
	"github.com/tomz197/furbo/internal/leaderboard"
	"github.com/tomz197/furbo/internal/types"
	"github.com/tomz197/furbo/internal/world"
)

// Dispatcher is the part of dispatch.Dispatcher a match uses.
type Dispatcher interface {
	Submit(a types.Action, reconcile dispatch.Reconcile) (dispatch.PendingAction, error)
	Pump() int
	InFlight() int
	SetEpoch(epoch uint64)
}

// Gate reports the session a match plays under.
type Gate interface {
	CanDispatch() bool
	Identity() (types.Identity, bool)
}

// Options wires a Match.
type Options struct {
	Game       config.Game
	Dispatch   config.Dispatch
	World      *world.World
	Dispatcher Dispatcher
	Gate       Gate
	Board      leaderboard.Board // optional
	Clock      clock.Clock
	Logger     *log.Logger
}

// Match drives the Idle → Running → Over lifecycle. All methods must be
// called from the goroutine running the frame loop.
type Match struct {
	game     config.Game
	dispatch config.Dispatch
	world    *world.World
	disp     Dispatcher
	gate     Gate
	board    leaderboard.Board
	clock    clock.Clock
	logger   *log.Logger

	state      MatchState
	input      Input
	survivalMs float64

	fireLimiter *rate.Limiter
	moveLimiter *rate.Limiter
}

// NewMatch returns an Idle match.
func NewMatch(o Options) *Match {
	clk := o.Clock
	if clk == nil {
		clk = clock.New()
	}
	m := &Match{
		game:     o.Game,
		dispatch: o.Dispatch,
		world:    o.World,
		disp:     o.Dispatcher,
		gate:     o.Gate,
		board:    o.Board,
		clock:    clk,
		logger:   o.Logger,
	}
	m.resetState(PhaseIdle)
	return m
}

// Start begins a match. It needs an authenticated session.
func (m *Match) Start() error {
	if !m.gate.CanDispatch() {
		return errorsmod.Wrap(types.ErrNotAuthenticated, "cannot start match")
	}
	m.Reset()
	return nil
}

// Reset discards the current match. The new one is Running when a session is
// active and Idle otherwise. Outcomes of actions submitted before the reset
// no longer affect the world.
func (m *Match) Reset() {
	phase := PhaseIdle
	if m.gate.CanDispatch() {
		phase = PhaseRunning
	}
	m.world.Reset()
	m.resetState(phase)
	m.logger.Debug("match reset", "epoch", m.state.Epoch, "phase", phase)
}

func (m *Match) resetState(phase Phase) {
	m.state = MatchState{
		Phase:      phase,
		TimeLeftMs: m.game.DurationMs,
		Difficulty: 1,
		Epoch:      m.state.Epoch + 1,
	}
	m.input = Input{}
	m.survivalMs = 0
	m.fireLimiter = newLimiter(m.dispatch.FireRate)
	m.moveLimiter = newLimiter(m.dispatch.MoveUpdateInterval)
	m.disp.SetEpoch(m.state.Epoch)
}

func newLimiter(every time.Duration) *rate.Limiter {
	if every <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(every), 1)
}

// QueueInput records input for the next tick. Direction is a level and
// replaces the previous one; Fire is an edge and stays queued until a tick
// consumes it.
func (m *Match) QueueInput(in Input) {
	m.input.Direction = in.Direction
	m.input.Fire = m.input.Fire || in.Fire
}

// State returns a copy of the match state.
func (m *Match) State() MatchState {
	return m.state
}

// Snapshot returns the world for rendering.
func (m *Match) Snapshot() world.Snapshot {
	return m.world.Snapshot()
}

// InFlight returns the number of unresolved relay actions.
func (m *Match) InFlight() int {
	return m.disp.InFlight()
}

// Tick applies relay outcomes and, while Running, advances the match by
// delta.
func (m *Match) Tick(delta time.Duration) {
	m.disp.Pump()
	if m.state.Phase != PhaseRunning {
		m.input.Fire = false
		return
	}

	dt := float64(delta) / float64(time.Millisecond)
	if dt < 0 {
		dt = 0
	}
	m.state.ElapsedMs = math.Min(m.state.ElapsedMs+dt, m.game.DurationMs)
	m.state.TimeLeftMs = math.Max(m.game.DurationMs-m.state.ElapsedMs, 0)
	m.state.Difficulty = difficulty.At(m.state.ElapsedMs, m.game.DurationMs)

	m.world.Advance(dt, m.state.Difficulty)

	hits := m.world.ResolvePlayerBullets()
	m.state.Score += hits.ScoreDelta
	m.state.Kills += hits.Kills()
	m.addSurvival(dt)

	if m.world.ResolveShipContact() {
		m.finish(CauseContact)
		return
	}

	m.applyInput()

	if m.state.TimeLeftMs <= 0 {
		m.finish(CauseTimeUp)
	}
}

func (m *Match) addSurvival(dt float64) {
	if m.game.ScorePerSecond <= 0 {
		return
	}
	m.survivalMs += dt
	for m.survivalMs >= 1000 {
		m.survivalMs -= 1000
		m.state.Score += m.game.ScorePerSecond
	}
}

func (m *Match) applyInput() {
	in := m.input
	m.input.Fire = false

	if in.Direction != types.DirNone {
		m.world.ApplyInput(in.Direction)
		m.mirrorMove(in.Direction)
	}
	if in.Fire {
		m.fire()
	}
}

// mirrorMove sends at most one move per update interval. Movement is
// applied locally regardless of the outcome.
func (m *Match) mirrorMove(dir types.Direction) {
	if !m.dispatch.MirrorMovement || !m.moveLimiter.AllowN(m.clock.Now(), 1) {
		return
	}
	_, err := m.disp.Submit(types.Move{Direction: dir, ShipX: m.world.Ship().X}, nil)
	switch {
	case err == nil:
	case errorsmod.IsOf(err, types.ErrBackpressure):
		m.logger.Debug("move not mirrored", "err", err)
	default:
		m.logger.Warn("move not mirrored", "err", err)
	}
}

// fire spawns the shot now (optimistic) or once the relay confirms it
// (confirm_first).
func (m *Match) fire() {
	if !m.fireLimiter.AllowN(m.clock.Now(), 1) {
		return
	}
	if m.dispatch.Policy == config.PolicyOptimistic {
		m.world.SpawnPlayerBullet()
	}
	if _, err := m.disp.Submit(types.Shoot{ShipX: m.world.Ship().X}, m.reconcileShot); err != nil {
		m.logger.Warn("shot not mirrored", "err", err)
	}
}

func (m *Match) reconcileShot(p dispatch.PendingAction, o types.Outcome) {
	if !o.Confirmed() || m.dispatch.Policy != config.PolicyConfirmFirst {
		return
	}
	if p.Epoch != m.state.Epoch || m.state.Phase != PhaseRunning {
		m.logger.Debug("dropping stale shot", "id", p.ID, "epoch", p.Epoch)
		return
	}
	m.world.SpawnPlayerBullet()
}

// finish enters Over and reports the final score exactly once.
func (m *Match) finish(cause Cause) {
	m.state.Phase = PhaseOver
	m.state.Cause = cause
	m.input = Input{}
	if m.state.ScoreSubmitted {
		return
	}
	m.state.ScoreSubmitted = true

	score := types.Score{Score: m.state.Score, DurationMs: int64(m.state.ElapsedMs)}
	id, _ := m.gate.Identity()
	m.logger.Info("match over", "cause", cause, "score", score.Score, "kills", m.state.Kills)
	if m.board != nil {
		m.board.Push(leaderboard.Record{
			Identity:   id,
			Score:      score.Score,
			DurationMs: score.DurationMs,
			Timestamp:  m.clock.Now(),
		})
	}

	_, err := m.disp.Submit(score, func(p dispatch.PendingAction, o types.Outcome) {
		if o.Confirmed() {
			m.logger.Info("score recorded", "score", score.Score, "sig", o.Signature)
		}
	})
	if err != nil {
		m.logger.Error("score not submitted", "score", score.Score, "err", err)
	}
}
