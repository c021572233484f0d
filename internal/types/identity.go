package types

import (
	"strings"
	"unicode/utf8"

	errorsmod "cosmossdk.io/errors"
	"github.com/decred/base58"
)

const (
	// PlayerKeyLength is the decoded size of a player public key.
	PlayerKeyLength = 32
	// MaxHandleLength bounds the leaderboard handle.
	MaxHandleLength = 16
)

// Validate checks the fields a register action carries: a non-empty handle
// of at most MaxHandleLength characters and a base58 player key that decodes to PlayerKeyLength bytes.
func (i Identity) Validate() error {
	if i.Player == "" {
		return errorsmod.Wrap(ErrInvalidInput, "player key is empty")
	}
	if key := base58.Decode(i.Player); len(key) != PlayerKeyLength {
		return errorsmod.Wrapf(ErrInvalidInput, "player key decodes to %d bytes, want %d", len(key), PlayerKeyLength)
	}
	handle := strings.TrimSpace(i.Handle)
	if handle == "" {
		return errorsmod.Wrap(ErrInvalidInput, "handle is empty")
	}
	if utf8.RuneCountInString(handle) > MaxHandleLength {
		return errorsmod.Wrapf(ErrInvalidInput, "handle longer than %d characters", MaxHandleLength)
	}
	return nil
}
