package object

import (
	"github.com/tomz197/furbo/internal/draw"
	"github.com/tomz197/furbo/internal/physics"
	"github.com/tomz197/furbo/internal/types"
)

// Ship is the player-controlled craft. It only moves horizontally.
type Ship struct {
	X, Y          float64 // Top-left corner
	Width, Height float64
	Speed         float64 // Units per tick
}

// NewShip places a ship horizontally centred, bottomOffset above the bottom edge.
func NewShip(b Bounds, width, height, speed, bottomOffset float64) *Ship {
	return &Ship{
		X:      (b.Width - width) / 2,
		Y:      b.Height - bottomOffset,
		Width:  width,
		Height: height,
		Speed:  speed,
	}
}

// Move shifts the ship by its speed in dir and clamps it into [0, width-Width].
func (s *Ship) Move(dir types.Direction, scale float64, b Bounds) {
	s.X += float64(dir) * s.Speed * scale
	s.X = physics.Clamp(s.X, 0, b.Width-s.Width)
}

// Rect returns the collision rectangle.
func (s *Ship) Rect() physics.Rect {
	return physics.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// Muzzle returns the top-left corner for a w×h projectile leaving the nose.
func (s *Ship) Muzzle(w, h float64) (float64, float64) {
	return s.X + s.Width/2 - w/2, s.Y - h
}

// Draw renders the hull and the wings.
func (s *Ship) Draw(ctx DrawContext) {
	ctx.Canvas.FillRect(s.X, s.Y+s.Height*0.55, s.Width, s.Height*0.3, draw.ColorCyan)
	ctx.Canvas.FillRect(s.X+s.Width*0.35, s.Y, s.Width*0.3, s.Height, draw.ColorWhite)
}
