package loop

import "github.com/tomz197/furbo/internal/types"

// Phase is the lifecycle phase of a match.
type Phase int

const (
	PhaseIdle    Phase = iota // Waiting for a session
	PhaseRunning              // Simulation advancing
	PhaseOver                 // Terminal state reached, score reported
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseOver:
		return "over"
	default:
		return "idle"
	}
}

// Cause records why a match ended.
type Cause int

const (
	CauseNone Cause = iota
	CauseContact    // Ship touched an enemy or an enemy shot
	CauseTimeUp     // Match duration elapsed
)

func (c Cause) String() string {
	switch c {
	case CauseContact:
		return "destroyed"
	case CauseTimeUp:
		return "time up"
	default:
		return "none"
	}
}

// MatchState is the per-match bookkeeping owned by Match.
type MatchState struct {
	Phase          Phase
	Score          int
	Kills          int
	ElapsedMs      float64
	TimeLeftMs     float64
	Difficulty     float64
	ScoreSubmitted bool   // Flips to true at most once per match
	Epoch          uint64 // Bumped on every reset
	Cause          Cause
}

// Input is the player's intent for the next tick: a held direction and a
// fire edge.
type Input struct {
	Direction types.Direction
	Fire      bool
}
