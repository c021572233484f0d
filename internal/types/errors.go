package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace groups the furbo error codes.
const Codespace = "furbo"

var (
	ErrNotAuthenticated = errorsmod.Register(Codespace, 2, "no active session")
	ErrBackpressure     = errorsmod.Register(Codespace, 3, "too many pending actions")
	ErrRelayRejected    = errorsmod.Register(Codespace, 4, "relay rejected action")
	ErrRelayUnreachable = errorsmod.Register(Codespace, 5, "relay unreachable")
	ErrInvalidInput     = errorsmod.Register(Codespace, 6, "invalid input")
	ErrTimeout          = errorsmod.Register(Codespace, 7, "relay call timed out")
)
