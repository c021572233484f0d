// Package world owns every entity of the current match and advances them
// tick by tick. It performs no I/O; the only randomness comes from the
// seeded source handed to New.
package world

import (
	"math/rand"

	"github.com/tomz197/furbo/internal/config"
	"github.com/tomz197/furbo/internal/difficulty"
	"github.com/tomz197/furbo/internal/draw"
	"github.com/tomz197/furbo/internal/object"
	"github.com/tomz197/furbo/internal/types"
)

// referenceFrameMs is the frame length per-tick speeds were tuned for.
const referenceFrameMs = 1000.0 / 60

// World holds the ship and the entity collections of one match.
type World struct {
	cfg    config.Game
	bounds object.Bounds
	rng    *rand.Rand
	scale  float64 // Motion multiplier of the latest Advance

	ship         *object.Ship
	bullets      []*object.Projectile // Player shots
	enemyBullets []*object.Projectile
	enemies      []*object.Enemy // Spawn order
	particles    []*object.Particle
	spawner      *object.EnemySpawner
	toSpawn      []object.Object // Objects to add after the current pass

	resolver *resolver
}

// Snapshot exposes the current collections for rendering. Slices are only
// valid until the next mutating call and must not be modified.
type Snapshot struct {
	Bounds       object.Bounds
	Ship         object.Ship
	Bullets      []*object.Projectile
	EnemyBullets []*object.Projectile
	Enemies      []*object.Enemy
	Particles    []*object.Particle
}

// Each calls fn for every drawable in back-to-front order.
func (s Snapshot) Each(fn func(object.Drawable)) {
	for _, p := range s.Particles {
		fn(p)
	}
	for _, e := range s.Enemies {
		fn(e)
	}
	for _, p := range s.EnemyBullets {
		fn(p)
	}
	for _, p := range s.Bullets {
		fn(p)
	}
	ship := s.Ship
	fn(&ship)
}

// New creates a world with a freshly placed ship and no other entities.
func New(cfg config.Game, rng *rand.Rand) *World {
	b := object.Bounds{Width: cfg.Width, Height: cfg.Height}
	w := &World{
		cfg:      cfg,
		bounds:   b,
		rng:      rng,
		resolver: newResolver(b),
	}
	w.Reset()
	return w
}

// Reset discards every entity and recreates the ship and spawn timer.
func (w *World) Reset() {
	for _, p := range w.particles {
		p.Release()
	}
	w.ship = object.NewShip(w.bounds, w.cfg.ShipWidth, w.cfg.ShipHeight, w.cfg.ShipSpeed, w.cfg.ShipOffset)
	w.bullets = nil
	w.enemyBullets = nil
	w.enemies = nil
	w.particles = nil
	w.toSpawn = nil
	w.spawner = object.NewEnemySpawner()
	w.scale = 1
}

// Bounds returns the play area.
func (w *World) Bounds() object.Bounds {
	return w.bounds
}

// Ship returns the player's ship.
func (w *World) Ship() *object.Ship {
	return w.ship
}

// Snapshot returns the current collections.
func (w *World) Snapshot() Snapshot {
	return Snapshot{
		Bounds:       w.bounds,
		Ship:         *w.ship,
		Bullets:      w.bullets,
		EnemyBullets: w.enemyBullets,
		Enemies:      w.enemies,
		Particles:    w.particles,
	}
}

// Spawn queues an object to be added after the current update pass.
// Implements object.Spawner.
func (w *World) Spawn(obj object.Object) {
	w.toSpawn = append(w.toSpawn, obj)
}

// flushSpawned adds all queued objects to their collections.
func (w *World) flushSpawned() {
	for _, obj := range w.toSpawn {
		switch o := obj.(type) {
		case *object.Projectile:
			w.addProjectile(o)
		case *object.Enemy:
			w.enemies = append(w.enemies, o)
		case *object.Particle:
			w.particles = append(w.particles, o)
		}
	}
	clear(w.toSpawn)
	w.toSpawn = w.toSpawn[:0]
}

func (w *World) addProjectile(p *object.Projectile) {
	if p.FromPlayer() {
		w.bullets = append(w.bullets, p)
	} else {
		w.enemyBullets = append(w.enemyBullets, p)
	}
}

func (w *World) motionScale(deltaMs float64) float64 {
	if w.cfg.Motion == config.MotionScaled {
		return deltaMs / referenceFrameMs
	}
	return 1
}

// Advance moves every projectile, enemy and particle, ages shoot and spawn
// timers by deltaMs, expires entities that left the field and spawns a new
// enemy when the interval for pace has elapsed.
func (w *World) Advance(deltaMs, pace float64) {
	if deltaMs < 0 {
		deltaMs = 0
	}
	w.scale = w.motionScale(deltaMs)
	ctx := object.UpdateContext{
		DeltaMs: deltaMs,
		Scale:   w.scale,
		Bounds:  w.bounds,
		Rand:    w.rng,
		Spawner: w,
		EnemyShot: object.ShotSpec{
			Width:  w.cfg.EnemyBulletWidth,
			Height: w.cfg.EnemyBulletHeight,
			Speed:  w.cfg.EnemyBulletSpeed,
			Spread: w.cfg.EnemyBulletSpread,
		},
		MuzzleParticles: w.cfg.MuzzleParticles,
	}

	w.bullets = updateAll(w.bullets, ctx)
	w.enemyBullets = updateAll(w.enemyBullets, ctx)
	w.enemies = updateAll(w.enemies, ctx)
	w.particles = updateAll(w.particles, ctx)
	w.flushSpawned()

	interval := difficulty.SpawnIntervalAt(pace, w.cfg.SpawnIntervalMs, w.cfg.SpawnIntervalFloor)
	if w.spawner.Update(deltaMs, interval) {
		w.SpawnEnemy(pace)
	}
}

// updateAll updates objects in place, keeping order and releasing pooled
// objects that asked to be removed.
func updateAll[T object.Object](objs []T, ctx object.UpdateContext) []T {
	kept := objs[:0]
	for _, obj := range objs {
		if obj.Update(ctx) {
			object.ReleaseObject(obj)
			continue
		}
		kept = append(kept, obj)
	}
	clear(objs[len(kept):])
	return kept
}

// ApplyInput moves the ship one step in dir and clamps it to the field.
func (w *World) ApplyInput(dir types.Direction) {
	w.ship.Move(dir, w.scale, w.bounds)
}

// SpawnEnemy adds an enemy above a random column, tuned for pace.
func (w *World) SpawnEnemy(pace float64) *object.Enemy {
	size := w.cfg.EnemySize
	x := w.rng.Float64() * (w.bounds.Width - size)
	e := w.SpawnEnemyAt(x, -size, difficulty.EnemySpeedAt(pace, w.rng.Float64()))
	e.ShootInterval = difficulty.ShootIntervalAt(pace, w.rng.Float64())
	if w.rng.Float64() < 0.5 {
		e.Direction = -1
	}
	e.Variant = w.rng.Intn(5)
	return e
}

// SpawnEnemyAt adds an enemy with its top-left corner at (x,y) heading right.
func (w *World) SpawnEnemyAt(x, y, speed float64) *object.Enemy {
	e := &object.Enemy{
		ID:            w.spawner.NextID(),
		X:             x,
		Y:             y,
		Size:          w.cfg.EnemySize,
		Speed:         speed,
		Drift:         w.cfg.EnemyDrift,
		Direction:     1,
		ShootInterval: difficulty.ShootIntervalAt(1, 0),
	}
	w.enemies = append(w.enemies, e)
	return e
}

// SpawnPlayerBullet fires a bullet from the ship's nose.
func (w *World) SpawnPlayerBullet() *object.Projectile {
	bw, bh := w.cfg.BulletWidth, w.cfg.BulletHeight
	x, y := w.ship.Muzzle(bw, bh)
	p := object.NewProjectile(x, y, bw, bh, -w.cfg.BulletSpeed, object.PlayerOwner)
	w.SpawnProjectile(p)
	return p
}

// SpawnProjectile adds a projectile to the collection matching its owner.
func (w *World) SpawnProjectile(p *object.Projectile) {
	w.addProjectile(p)
}

// SpawnParticles emits count particles of color at (x,y).
func (w *World) SpawnParticles(x, y float64, color draw.Color, count int) {
	object.SpawnBurst(x, y, color, count, w.rng, w)
	w.flushSpawned()
}

// ResolvePlayerBullets runs the bullets-vs-enemies pass, removes the
// destroyed pairs and spawns kill particles. With clear_orphan_shots set,
// every in-flight shot owned by a destroyed enemy is removed as well.
func (w *World) ResolvePlayerBullets() Hits {
	hits := w.resolver.playerBullets(w.bullets, w.enemies, w.cfg.ScorePerKill)
	if hits.Kills() == 0 {
		return hits
	}

	dead := make(map[uint64]struct{}, hits.Kills())
	for _, e := range hits.Enemies {
		dead[e.ID] = struct{}{}
		cx, cy := e.Rect().Center()
		w.SpawnParticles(cx, cy, draw.ColorYellow, w.cfg.KillParticles+w.rng.Intn(5))
	}
	if w.cfg.ClearOrphanShots {
		for _, p := range w.enemyBullets {
			if _, ok := dead[p.OwnerID]; ok {
				p.MarkDestroyed()
			}
		}
		w.enemyBullets = compact(w.enemyBullets)
	}
	w.bullets = compact(w.bullets)
	w.enemies = compact(w.enemies)
	return hits
}

// ResolveShipContact reports whether the ship touches an enemy or an enemy
// shot, bursting it into particles if so.
func (w *World) ResolveShipContact() bool {
	if !ResolveShipContact(w.ship, w.enemies, w.enemyBullets) {
		return false
	}
	cx, cy := w.ship.Rect().Center()
	w.SpawnParticles(cx, cy, draw.ColorCyan, w.cfg.KillParticles*2)
	return true
}

// compact drops destroyed entries, keeping order.
func compact[T object.Destructible](objs []T) []T {
	kept := objs[:0]
	for _, obj := range objs {
		if !obj.IsDestroyed() {
			kept = append(kept, obj)
		}
	}
	clear(objs[len(kept):])
	return kept
}
