package client

import (
	"time"

	"github.com/tomz197/furbo/internal/input"
)

// GameState represents the current screen of a client.
type GameState int

const (
	GameStateStart    GameState = iota // Handle entry and registration
	GameStatePlaying                   // Match running
	GameStateOver                      // Match finished, show restart prompt
	GameStateShutdown                  // Server is shutting down
)

// ClientState holds per-connection screen state.
type ClientState struct {
	Input         input.Input
	GameState     GameState
	Handle        []rune // Handle being typed on the start screen
	Running       bool
	delta         time.Duration
	shutdownTimer float64 // Countdown before auto-disconnect on shutdown
	isInactive    bool

	prevGameState GameState
	wasInactive   bool
}

// NewClientState creates a new initialized client state.
func NewClientState(handle string) *ClientState {
	return &ClientState{
		GameState:     GameStateStart,
		Handle:        []rune(handle),
		Running:       true,
		prevGameState: -1,
	}
}
