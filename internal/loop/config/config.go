// Package config centralizes the shell's fixed timing and display constants.
// Gameplay tuning lives in internal/config and can be overridden at runtime.
package config

import "time"

// Terminal rendering bounds.
const (
	MaxTermWidth  = 100
	MaxTermHeight = 48
)

// Log box
const (
	LogBoxLines = 15 // Entries kept in the in-game log box
)

// Leaderboard
const (
	LeaderboardSize         = 10
	LeaderboardPollInterval = 5 * time.Second
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)
