package world

import (
	"github.com/tomz197/furbo/internal/object"
	"github.com/tomz197/furbo/internal/physics"
)

// collisionGridCellSize must be at least the largest entity dimension so a
// query never has to span more than two cells per axis.
const collisionGridCellSize = 80.0

// Hits is the outcome of one bullets-vs-enemies pass.
type Hits struct {
	Enemies    []*object.Enemy      // Destroyed enemies, in kill order
	Bullets    []*object.Projectile // Bullets that scored, parallel to Enemies
	ScoreDelta int
}

// Kills returns the number of destroyed enemies.
func (h Hits) Kills() int {
	return len(h.Enemies)
}

// ResolvePlayerBullets destroys, for each bullet in slice order, the live
// enemy with the lowest index that it overlaps. Both are marked destroyed and
// every pair is worth scorePerKill. A bullet overlapping two enemies in the
// same tick always takes the first one.
func ResolvePlayerBullets(bullets []*object.Projectile, enemies []*object.Enemy, scorePerKill int) Hits {
	var hits Hits
	for _, b := range bullets {
		if b.IsDestroyed() {
			continue
		}
		br := b.Rect()
		for _, e := range enemies {
			if e.IsDestroyed() || !physics.Overlaps(br, e.Rect()) {
				continue
			}
			hits.record(b, e, scorePerKill)
			break
		}
	}
	return hits
}

// ResolveShipContact reports whether the ship overlaps any live enemy or
// enemy projectile. A single contact is lethal.
func ResolveShipContact(ship *object.Ship, enemies []*object.Enemy, enemyBullets []*object.Projectile) bool {
	sr := ship.Rect()
	for _, e := range enemies {
		if !e.IsDestroyed() && physics.Overlaps(sr, e.Rect()) {
			return true
		}
	}
	for _, p := range enemyBullets {
		if !p.IsDestroyed() && physics.Overlaps(sr, p.Rect()) {
			return true
		}
	}
	return false
}

func (h *Hits) record(b *object.Projectile, e *object.Enemy, scorePerKill int) {
	b.MarkDestroyed()
	e.MarkDestroyed()
	h.Enemies = append(h.Enemies, e)
	h.Bullets = append(h.Bullets, b)
	h.ScoreDelta += scorePerKill
}

// resolver runs ResolvePlayerBullets through a spatial grid. The narrow
// phase still picks the lowest enemy index, so results match the brute-force
// pass regardless of grid iteration order.
type resolver struct {
	grid *physics.SpatialGrid
}

func newResolver(b object.Bounds) *resolver {
	return &resolver{grid: physics.NewSpatialGrid(b.Width, b.Height, collisionGridCellSize)}
}

func (r *resolver) playerBullets(bullets []*object.Projectile, enemies []*object.Enemy, scorePerKill int) Hits {
	r.grid.Clear()
	for i, e := range enemies {
		if !e.IsDestroyed() {
			r.grid.Insert(e.Rect(), i)
		}
	}

	var hits Hits
	for _, b := range bullets {
		if b.IsDestroyed() {
			continue
		}
		br := b.Rect()
		best := -1
		r.grid.QueryRect(br, func(i int) bool {
			e := enemies[i]
			if (best < 0 || i < best) && !e.IsDestroyed() && physics.Overlaps(br, e.Rect()) {
				best = i
			}
			return false
		})
		if best >= 0 {
			hits.record(b, enemies[best], scorePerKill)
		}
	}
	return hits
}
