package object

import (
	"math"
	"math/rand"
	"sync"

	"github.com/tomz197/furbo/internal/draw"
)

// particleShrink is the per-tick radius decay factor.
const particleShrink = 0.97

// particlePool is a sync.Pool for reusing Particle objects to reduce allocations.
var particlePool = sync.Pool{
	New: func() any {
		return &Particle{}
	},
}

// Particle is a short-lived visual effect.
type Particle struct {
	X, Y   float64 // Position
	VX, VY float64 // Velocity per tick
	Radius float64
	Life   float64 // Ticks remaining
	Color  draw.Color
}

// NewParticle creates a single particle from the pool.
func NewParticle(x, y, vx, vy, radius, life float64, color draw.Color) *Particle {
	p := particlePool.Get().(*Particle)
	p.X = x
	p.Y = y
	p.VX = vx
	p.VY = vy
	p.Radius = radius
	p.Life = life
	p.Color = color
	return p
}

// Release returns the particle to the pool for reuse.
// Should be called when the particle is removed from the world.
func (p *Particle) Release() {
	particlePool.Put(p)
}

// SpawnBurst emits count particles at (x,y) scattering in random directions.
func SpawnBurst(x, y float64, color draw.Color, count int, rng *rand.Rand, spawner Spawner) {
	if spawner == nil || rng == nil {
		return
	}
	for i := 0; i < count; i++ {
		vx := (rng.Float64() - 0.5) * 4
		vy := (rng.Float64() - 0.5) * 4
		radius := 2 + rng.Float64()*2
		life := 20 + rng.Float64()*10
		spawner.Spawn(NewParticle(x, y, vx, vy, radius, life, color))
	}
}

// Update moves the particle and decays its radius and life.
func (p *Particle) Update(ctx UpdateContext) bool {
	p.X += p.VX * ctx.Scale
	p.Y += p.VY * ctx.Scale
	p.Life -= ctx.Scale
	p.Radius *= math.Pow(particleShrink, ctx.Scale)
	return p.Life <= 0
}

// Draw renders the particle as a square of its current radius.
func (p *Particle) Draw(ctx DrawContext) {
	ctx.Canvas.FillRect(p.X-p.Radius, p.Y-p.Radius, p.Radius*2, p.Radius*2, p.Color)
}
