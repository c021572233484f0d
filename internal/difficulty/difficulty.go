// Package difficulty derives spawn cadence and enemy aggressiveness from how
// far a match has progressed. Every function is pure.
package difficulty

import "github.com/tomz197/furbo/internal/physics"

const (
	// Max is the difficulty reached when the match clock runs out.
	Max = 2.0

	baseShootInterval   = 1500.0
	shootIntervalSpread = 1000.0
)

// At returns 1 + elapsed/duration clamped to [1, Max].
func At(elapsedMs, durationMs float64) float64 {
	if durationMs <= 0 {
		return Max
	}
	return 1 + physics.Clamp(elapsedMs/durationMs, 0, 1)
}

// SpawnIntervalAt returns the milliseconds between enemy spawns at
// difficulty d: baseMs/d, never below floorMs.
func SpawnIntervalAt(d, baseMs, floorMs float64) float64 {
	if d < 1 {
		d = 1
	}
	interval := baseMs / d
	if interval < floorMs {
		return floorMs
	}
	return interval
}

// EnemySpeedAt returns the downward speed for a new enemy given a random
// draw r in [0,1).
func EnemySpeedAt(d, r float64) float64 {
	return 1 + r*d
}

// ShootIntervalAt returns a new enemy's milliseconds between shots given a
// random draw r in [0,1). Intervals tighten as difficulty grows.
func ShootIntervalAt(d, r float64) float64 {
	if d < 1 {
		d = 1
	}
	return baseShootInterval + r*shootIntervalSpread/d
}
