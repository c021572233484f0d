package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/furbo/internal/config"
	"github.com/tomz197/furbo/internal/object"
	"github.com/tomz197/furbo/internal/types"
)

const frameMs = 1000.0 / 60

// quietConfig disables random spawns and drift so scenarios are deterministic.
func quietConfig() config.Game {
	cfg := config.Default().Game
	cfg.SpawnIntervalMs = 1e12
	cfg.SpawnIntervalFloor = 1e12
	cfg.EnemyDrift = 0
	return cfg
}

func newTestWorld(t *testing.T, cfg config.Game) *World {
	t.Helper()
	return New(cfg, rand.New(rand.NewSource(42)))
}

func TestShipStaysInBounds(t *testing.T) {
	w := newTestWorld(t, config.Default().Game)
	rng := rand.New(rand.NewSource(7))
	dirs := []types.Direction{types.DirLeft, types.DirNone, types.DirRight}

	for tick := 0; tick < 5000; tick++ {
		w.Advance(frameMs, 1)
		w.ApplyInput(dirs[rng.Intn(len(dirs))])
		x := w.Ship().X
		require.GreaterOrEqual(t, x, 0.0, "tick %d", tick)
		require.LessOrEqual(t, x, w.Bounds().Width-w.Ship().Width, "tick %d", tick)
	}
}

func TestBulletDestroysEnemyEndToEnd(t *testing.T) {
	cfg := quietConfig()
	w := newTestWorld(t, cfg)

	w.SpawnEnemyAt(100, -50, 2)
	w.SpawnProjectile(object.NewProjectile(100, 500, cfg.BulletWidth, cfg.BulletHeight, -8, object.PlayerOwner))

	score := 0
	for tick := 0; tick < 100 && score == 0; tick++ {
		w.Advance(frameMs, 1)
		score += w.ResolvePlayerBullets().ScoreDelta
	}

	assert.Equal(t, cfg.ScorePerKill, score)
	snap := w.Snapshot()
	assert.Empty(t, snap.Enemies)
	assert.Empty(t, snap.Bullets)
	assert.NotEmpty(t, snap.Particles, "a kill bursts into particles")
}

func TestResolvePlayerBulletsTieBreak(t *testing.T) {
	w := newTestWorld(t, quietConfig())
	first := w.SpawnEnemyAt(100, 100, 0)
	second := w.SpawnEnemyAt(110, 100, 0)
	w.SpawnProjectile(object.NewProjectile(115, 120, 5, 10, -8, object.PlayerOwner))

	hits := w.ResolvePlayerBullets()
	require.Equal(t, 1, hits.Kills())
	assert.Same(t, first, hits.Enemies[0], "the lowest-index enemy wins a tie")
	assert.Equal(t, []*object.Enemy{second}, w.Snapshot().Enemies)
}

func TestResolvePlayerBulletsOneKillPerBullet(t *testing.T) {
	enemies := []*object.Enemy{
		{ID: 1, X: 100, Y: 100, Size: 40},
		{ID: 2, X: 100, Y: 100, Size: 40},
	}
	bullets := []*object.Projectile{
		object.NewProjectile(110, 110, 5, 10, -8, object.PlayerOwner),
		object.NewProjectile(112, 110, 5, 10, -8, object.PlayerOwner),
		object.NewProjectile(120, 120, 5, 10, -8, object.PlayerOwner),
	}

	hits := ResolvePlayerBullets(bullets, enemies, 100)
	require.Equal(t, 2, hits.Kills())
	assert.Equal(t, uint64(1), hits.Enemies[0].ID)
	assert.Equal(t, uint64(2), hits.Enemies[1].ID)
	assert.Same(t, bullets[0], hits.Bullets[0])
	assert.Same(t, bullets[1], hits.Bullets[1])
	assert.False(t, bullets[2].IsDestroyed(), "no enemy left for the third bullet")
	assert.Equal(t, 200, hits.ScoreDelta)
}

func TestTouchingEdgesDoNotCollide(t *testing.T) {
	enemies := []*object.Enemy{{ID: 1, X: 100, Y: 100, Size: 40}}
	bullets := []*object.Projectile{
		object.NewProjectile(110, 140, 5, 10, -8, object.PlayerOwner), // top touches bottom edge
		object.NewProjectile(140, 110, 5, 10, -8, object.PlayerOwner), // left touches right edge
	}
	assert.Zero(t, ResolvePlayerBullets(bullets, enemies, 100).Kills())

	ship := &object.Ship{X: 200, Y: 500, Width: 70, Height: 80}
	shot := object.NewProjectile(195, 520, 5, 10, 3, 1)
	assert.False(t, ResolveShipContact(ship, nil, []*object.Projectile{shot}))
	shot.X = 196
	assert.True(t, ResolveShipContact(ship, nil, []*object.Projectile{shot}))
}

func TestShipContactWithEnemy(t *testing.T) {
	w := newTestWorld(t, quietConfig())
	ship := w.Ship()
	assert.False(t, w.ResolveShipContact())

	w.SpawnEnemyAt(ship.X+10, ship.Y+10, 0)
	assert.True(t, w.ResolveShipContact())
}

// scene builds a deterministic random arrangement of bullets and enemies.
func scene(seed int64) ([]*object.Projectile, []*object.Enemy) {
	rng := rand.New(rand.NewSource(seed))
	var bullets []*object.Projectile
	var enemies []*object.Enemy
	for i := 0; i < 30; i++ {
		enemies = append(enemies, &object.Enemy{
			ID:   uint64(i + 1),
			X:    rng.Float64() * 440,
			Y:    rng.Float64()*680 - 40,
			Size: 40,
		})
	}
	for i := 0; i < 60; i++ {
		bullets = append(bullets, object.NewProjectile(rng.Float64()*475, rng.Float64()*640, 5, 10, -8, object.PlayerOwner))
	}
	return bullets, enemies
}

func TestGridResolverMatchesBruteForce(t *testing.T) {
	r := newResolver(object.Bounds{Width: 480, Height: 640})
	for seed := int64(1); seed <= 25; seed++ {
		b1, e1 := scene(seed)
		b2, e2 := scene(seed)

		want := ResolvePlayerBullets(b1, e1, 100)
		got := r.playerBullets(b2, e2, 100)

		require.Equal(t, want.Kills(), got.Kills(), "seed %d", seed)
		for i := range want.Enemies {
			assert.Equal(t, want.Enemies[i].ID, got.Enemies[i].ID, "seed %d kill %d", seed, i)
		}
		assert.Equal(t, want.ScoreDelta, got.ScoreDelta)
	}
}

func TestClearOrphanShots(t *testing.T) {
	cfg := quietConfig()
	cfg.ClearOrphanShots = true
	w := newTestWorld(t, cfg)

	shooter := w.SpawnEnemyAt(50, 100, 0)
	bystander := w.SpawnEnemyAt(300, 100, 0)
	shooter.ShootInterval = 10
	bystander.ShootInterval = 10
	w.Advance(frameMs, 1)

	snap := w.Snapshot()
	require.Len(t, snap.EnemyBullets, 2)

	w.SpawnProjectile(object.NewProjectile(60, 110, 5, 10, 0, object.PlayerOwner))
	require.Equal(t, 1, w.ResolvePlayerBullets().Kills())

	snap = w.Snapshot()
	require.Len(t, snap.EnemyBullets, 1)
	assert.Equal(t, bystander.ID, snap.EnemyBullets[0].OwnerID)
}

func TestOrphanShotsSurviveByDefault(t *testing.T) {
	w := newTestWorld(t, quietConfig())
	shooter := w.SpawnEnemyAt(50, 100, 0)
	shooter.ShootInterval = 10
	w.Advance(frameMs, 1)

	w.SpawnProjectile(object.NewProjectile(60, 110, 5, 10, 0, object.PlayerOwner))
	require.Equal(t, 1, w.ResolvePlayerBullets().Kills())
	assert.Len(t, w.Snapshot().EnemyBullets, 1)
}

func TestAdvanceSpawnsAndExpiresEnemies(t *testing.T) {
	cfg := config.Default().Game
	cfg.EnemyDrift = 0
	w := newTestWorld(t, cfg)

	w.Advance(cfg.SpawnIntervalMs+1, 1)
	snap := w.Snapshot()
	require.Len(t, snap.Enemies, 1)
	e := snap.Enemies[0]
	assert.Equal(t, -cfg.EnemySize, e.Y)
	assert.GreaterOrEqual(t, e.Speed, 1.0)
	assert.Less(t, e.Speed, 2.0)

	e.Y = cfg.Height
	e.ShootInterval = 1e12
	w.Advance(1, 1)
	assert.Empty(t, w.Snapshot().Enemies, "enemy below the bottom edge is expired")
}

func TestScaledMotion(t *testing.T) {
	cfg := quietConfig()
	cfg.Motion = config.MotionScaled
	w := newTestWorld(t, cfg)
	b := object.NewProjectile(100, 500, 5, 10, -8, object.PlayerOwner)
	w.SpawnProjectile(b)

	w.Advance(2*frameMs, 1)
	assert.InDelta(t, 484.0, b.Y, 1e-9)

	fixed := newTestWorld(t, quietConfig())
	b2 := object.NewProjectile(100, 500, 5, 10, -8, object.PlayerOwner)
	fixed.SpawnProjectile(b2)
	fixed.Advance(2*frameMs, 1)
	assert.Equal(t, 492.0, b2.Y)
}

func TestResetClearsEverything(t *testing.T) {
	w := newTestWorld(t, config.Default().Game)
	for i := 0; i < 300; i++ {
		w.Advance(frameMs, 2)
		w.ApplyInput(types.DirLeft)
		if i%10 == 0 {
			w.SpawnPlayerBullet()
		}
	}
	w.SpawnParticles(10, 10, 0, 5)

	w.Reset()
	snap := w.Snapshot()
	assert.Empty(t, snap.Bullets)
	assert.Empty(t, snap.EnemyBullets)
	assert.Empty(t, snap.Enemies)
	assert.Empty(t, snap.Particles)
	assert.Equal(t, (snap.Bounds.Width-snap.Ship.Width)/2, snap.Ship.X)

	second := w.SpawnEnemyAt(0, 0, 1)
	assert.Equal(t, uint64(1), second.ID, "enemy IDs restart with each match")
}

func TestSpawnPlayerBulletLeavesNose(t *testing.T) {
	cfg := quietConfig()
	w := newTestWorld(t, cfg)
	ship := w.Ship()

	b := w.SpawnPlayerBullet()
	assert.Equal(t, ship.X+ship.Width/2-cfg.BulletWidth/2, b.X)
	assert.Equal(t, ship.Y-cfg.BulletHeight, b.Y)
	assert.Equal(t, -cfg.BulletSpeed, b.VY)
	assert.True(t, b.FromPlayer())
	assert.Len(t, w.Snapshot().Bullets, 1)
}
