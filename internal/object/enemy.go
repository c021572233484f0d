package object

import (
	"github.com/tomz197/furbo/internal/draw"
	"github.com/tomz197/furbo/internal/physics"
)

// enemyColors distinguishes enemy variants on screen.
var enemyColors = [...]draw.Color{
	draw.ColorRed,
	draw.ColorMagenta,
	draw.ColorOrange,
	draw.ColorGreen,
	draw.ColorLightRed,
}

// Enemy descends from the top edge, drifting sideways and firing downwards.
type Enemy struct {
	ID            uint64  // Unique within a match; never PlayerOwner
	X, Y          float64 // Top-left corner
	Size          float64 // Width and height
	Speed         float64 // Downward units per tick
	Drift         float64 // Sideways units per tick
	Direction     float64 // +1 right, -1 left
	ShootTimer    float64 // Milliseconds since the last shot
	ShootInterval float64 // Milliseconds between shots
	Variant       int
	destroyed     bool
}

// MarkDestroyed marks the enemy for removal.
func (e *Enemy) MarkDestroyed() {
	e.destroyed = true
}

// IsDestroyed returns true if the enemy is marked for destruction.
func (e *Enemy) IsDestroyed() bool {
	return e.destroyed
}

// Rect returns the collision rectangle.
func (e *Enemy) Rect() physics.Rect {
	return physics.Rect{X: e.X, Y: e.Y, Width: e.Size, Height: e.Size}
}

// Update moves the enemy, turns it around at the side walls, ages its shoot
// timer and fires when the interval elapses.
func (e *Enemy) Update(ctx UpdateContext) bool {
	if e.destroyed {
		return true
	}

	e.Y += e.Speed * ctx.Scale
	e.X += e.Direction * e.Drift * ctx.Scale
	if e.X < 0 {
		e.Direction = 1
	} else if e.X+e.Size > ctx.Bounds.Width {
		e.Direction = -1
	}
	if e.Y > ctx.Bounds.Height {
		return true
	}

	e.ShootTimer += ctx.DeltaMs
	if e.ShootTimer > e.ShootInterval {
		e.ShootTimer = 0
		e.fire(ctx)
	}
	return false
}

func (e *Enemy) fire(ctx UpdateContext) {
	if ctx.Spawner == nil {
		return
	}
	shot := ctx.EnemyShot
	speed := shot.Speed
	if ctx.Rand != nil {
		speed += ctx.Rand.Float64() * shot.Spread
	}
	x := e.X + e.Size/2 - shot.Width/2
	y := e.Y + e.Size
	ctx.Spawner.Spawn(NewProjectile(x, y, shot.Width, shot.Height, speed, e.ID))
	SpawnBurst(x+shot.Width/2, y, draw.ColorOrange, ctx.MuzzleParticles, ctx.Rand, ctx.Spawner)
}

// Draw renders the enemy in its variant color.
func (e *Enemy) Draw(ctx DrawContext) {
	ctx.Canvas.FillRect(e.X, e.Y, e.Size, e.Size, enemyColors[e.Variant%len(enemyColors)])
}
