// Package relay talks to the fee-sponsoring relay that settles mirrored
// actions on the ledger.
package relay

import (
	"context"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/tomz197/furbo/internal/types"
)

// LeaderboardPath is appended to the relay URL to list top scores.
const LeaderboardPath = "/leaderboard"

// Receipt is the relay's confirmation of one action.
type Receipt struct {
	Signature string
}

// Entry is one leaderboard row as the relay reports it.
type Entry struct {
	Player string `json:"player"`
	Handle string `json:"xHandle,omitempty"`
	Score  int    `json:"score"`
}

// Name returns the handle, or an abbreviated key when there is none.
func (e Entry) Name() string {
	return types.Identity{Player: e.Player, Handle: e.Handle}.Short()
}

// Client submits actions and reads the relay's leaderboard.
type Client interface {
	// SubmitAction relays a on behalf of player. Errors wrap
	// ErrRelayRejected, ErrRelayUnreachable or ErrTimeout.
	SubmitAction(ctx context.Context, player types.Identity, a types.Action) (Receipt, error)
	FetchLeaderboard(ctx context.Context) ([]Entry, error)
}

// Request is the JSON body posted for each action.
type Request struct {
	Action     string   `json:"action"`
	Player     string   `json:"player"`
	Timestamp  int64    `json:"timestamp,omitempty"`
	ShipX      *float64 `json:"shipX,omitempty"`
	Direction  string   `json:"direction,omitempty"`
	Handle     string   `json:"xHandle,omitempty"`
	Score      *int     `json:"score,omitempty"`
	DurationMs int64    `json:"durationMs,omitempty"`
}

// Response is the relay's JSON reply.
type Response struct {
	TxSignature string `json:"txSignature,omitempty"`
	Error       string `json:"error,omitempty"`
}

// EncodeAction builds the wire request for a. Move and shoot carry the
// submission timestamp in Unix milliseconds.
func EncodeAction(player types.Identity, a types.Action, now time.Time) (Request, error) {
	req := Request{Action: a.Kind().String(), Player: player.Player}
	switch act := a.(type) {
	case types.Move:
		x := act.ShipX
		req.ShipX = &x
		req.Direction = act.Direction.String()
		req.Timestamp = now.UnixMilli()
	case types.Shoot:
		x := act.ShipX
		req.ShipX = &x
		req.Timestamp = now.UnixMilli()
	case types.Register:
		req.Player = act.Identity.Player
		req.Handle = act.Identity.Handle
	case types.Score:
		s := act.Score
		req.Score = &s
		req.DurationMs = act.DurationMs
	default:
		return Request{}, errorsmod.Wrapf(types.ErrInvalidInput, "unknown action %T", a)
	}
	return req, nil
}
