// Package object defines the entities of a match: the ship, enemies,
// projectiles and particles, and how each one moves per tick.
package object

import (
	"math/rand"

	"github.com/tomz197/furbo/internal/draw"
	"github.com/tomz197/furbo/internal/physics"
)

// PlayerOwner is the OwnerID carried by projectiles the ship fired.
// Enemy IDs start at 1, so an OwnerID identifies exactly one shooter.
const PlayerOwner uint64 = 0

// Bounds is the visible play area in world units.
type Bounds struct {
	Width  float64
	Height float64
}

// ShotSpec describes projectiles fired by enemies.
type ShotSpec struct {
	Width, Height float64
	Speed         float64 // Minimum downward speed per tick
	Spread        float64 // Random extra speed in [0, Spread)
}

// Spawner allows objects to spawn new objects during update.
// Spawned objects join the world after the current pass completes.
type Spawner interface {
	Spawn(obj Object)
}

// UpdateContext provides all the information an object needs during update.
type UpdateContext struct {
	DeltaMs float64 // Wall time since the previous tick
	Scale   float64 // Motion multiplier: 1 per tick, or delta relative to a 60 Hz frame
	Bounds  Bounds
	Rand    *rand.Rand
	Spawner Spawner

	EnemyShot       ShotSpec
	MuzzleParticles int
}

// DrawContext provides drawing resources for objects.
type DrawContext struct {
	Canvas *draw.Canvas
}

// Drawable paints itself onto the canvas.
type Drawable interface {
	Draw(ctx DrawContext)
}

// Object is a drawable and updatable match entity.
type Object interface {
	Drawable

	// Update advances the object one tick. Returns true if it should be removed.
	Update(ctx UpdateContext) (remove bool)
}

// Collider is implemented by objects that take part in collision passes.
type Collider interface {
	Rect() physics.Rect
}

// Destructible is implemented by objects that can be destroyed/marked for removal.
type Destructible interface {
	// MarkDestroyed marks the object for removal on next update cycle.
	MarkDestroyed()
	// IsDestroyed returns true if the object is marked for destruction.
	IsDestroyed() bool
}

// Releasable is implemented by pooled objects that can be returned to a pool.
type Releasable interface {
	// Release returns the object to its pool for reuse.
	Release()
}

// ReleaseObject releases an object back to its pool if it implements Releasable.
func ReleaseObject(obj Object) {
	if r, ok := obj.(Releasable); ok {
		r.Release()
	}
}
