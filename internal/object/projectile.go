package object

import (
	"github.com/tomz197/furbo/internal/draw"
	"github.com/tomz197/furbo/internal/physics"
)

// Projectile is a bullet fired by the ship or an enemy.
type Projectile struct {
	X, Y          float64 // Top-left corner
	Width, Height float64
	VY            float64 // Vertical speed per tick; negative travels up
	OwnerID       uint64  // PlayerOwner, or the ID of the enemy that fired it
	destroyed     bool    // Marked for destruction
}

// NewProjectile creates a projectile with its top-left corner at (x,y).
func NewProjectile(x, y, width, height, vy float64, ownerID uint64) *Projectile {
	return &Projectile{
		X:       x,
		Y:       y,
		Width:   width,
		Height:  height,
		VY:      vy,
		OwnerID: ownerID,
	}
}

// FromPlayer reports whether the ship fired this projectile.
func (p *Projectile) FromPlayer() bool {
	return p.OwnerID == PlayerOwner
}

// MarkDestroyed marks the projectile for removal.
func (p *Projectile) MarkDestroyed() {
	p.destroyed = true
}

// IsDestroyed returns true if the projectile is marked for destruction.
func (p *Projectile) IsDestroyed() bool {
	return p.destroyed
}

// Rect returns the collision rectangle.
func (p *Projectile) Rect() physics.Rect {
	return physics.Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

// Update moves the projectile and removes it once it is fully off-screen.
func (p *Projectile) Update(ctx UpdateContext) bool {
	if p.destroyed {
		return true
	}
	p.Y += p.VY * ctx.Scale
	return p.Y+p.Height < 0 || p.Y > ctx.Bounds.Height
}

// Draw renders the projectile.
func (p *Projectile) Draw(ctx DrawContext) {
	color := draw.ColorLightRed
	if p.FromPlayer() {
		color = draw.ColorYellow
	}
	ctx.Canvas.FillRect(p.X, p.Y, p.Width, p.Height, color)
}
