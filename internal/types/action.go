// Package types holds the shared action variants, identities and errors
// exchanged between the simulation core and the relay.
package types

import "fmt"

// Kind tags an action variant.
type Kind uint8

const (
	KindMove Kind = iota + 1
	KindShoot
	KindRegister
	KindScore
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindShoot:
		return "shoot"
	case KindRegister:
		return "register"
	case KindScore:
		return "score"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Direction is the logical horizontal input.
type Direction int8

const (
	DirNone  Direction = 0
	DirLeft  Direction = -1
	DirRight Direction = 1
)

// String returns a short name for logs and the wire.
func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "none"
	}
}

// Identity is the player on whose behalf actions are relayed.
type Identity struct {
	Player string // base58 public key
	Handle string // social handle shown on the leaderboard
}

// Empty reports whether no player key is set.
func (i Identity) Empty() bool {
	return i.Player == ""
}

// Short returns an abbreviated player key for display.
func (i Identity) Short() string {
	if i.Handle != "" {
		return i.Handle
	}
	if len(i.Player) <= 4 {
		return i.Player
	}
	return i.Player[:4] + "..."
}

// Action is a sealed sum type; only the variants below implement it.
type Action interface {
	Kind() Kind
	isAction()
}

// Move mirrors a ship movement sample.
type Move struct {
	Direction Direction
	ShipX     float64
}

// Shoot mirrors a player shot fired from ShipX.
type Shoot struct {
	ShipX float64
}

// Register asks the relay to register the identity; it is the only action
// admitted before a session exists.
type Register struct {
	Identity Identity
}

// Score reports the final score of a finished match.
type Score struct {
	Score      int
	DurationMs int64
}

func (Move) Kind() Kind     { return KindMove }
func (Shoot) Kind() Kind    { return KindShoot }
func (Register) Kind() Kind { return KindRegister }
func (Score) Kind() Kind    { return KindScore }

func (Move) isAction()     {}
func (Shoot) isAction()    {}
func (Register) isAction() {}
func (Score) isAction()    {}

// Outcome is how the relay resolved one action: a transaction signature on
// success, or one of ErrRelayRejected, ErrRelayUnreachable, ErrTimeout.
type Outcome struct {
	Signature string
	Err       error
}

// Confirmed reports whether the relay accepted the action.
func (o Outcome) Confirmed() bool {
	return o.Err == nil
}
