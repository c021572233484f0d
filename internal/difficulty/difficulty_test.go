package difficulty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAt(t *testing.T) {
	tests := []struct {
		elapsed float64
		want    float64
	}{
		{0, 1},
		{30000, 1.5},
		{60000, 2},
		{90000, 2},
		{-10, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, At(tt.elapsed, 60000), 1e-9, "elapsed=%v", tt.elapsed)
	}
	assert.Equal(t, Max, At(5, 0))
}

func TestAtIsMonotonic(t *testing.T) {
	prev := At(0, 60000)
	for e := 100.0; e <= 70000; e += 100 {
		d := At(e, 60000)
		assert.GreaterOrEqual(t, d, prev)
		assert.GreaterOrEqual(t, d, 1.0)
		prev = d
	}
}

func TestSpawnIntervalAt(t *testing.T) {
	assert.Equal(t, 1200.0, SpawnIntervalAt(1, 1200, 300))
	assert.Equal(t, 600.0, SpawnIntervalAt(2, 1200, 300))
	assert.Equal(t, 300.0, SpawnIntervalAt(10, 1200, 300), "floor caps runaway spawn rates")
	assert.Equal(t, 1200.0, SpawnIntervalAt(0.5, 1200, 300))
	assert.Less(t, SpawnIntervalAt(1.8, 1200, 300), SpawnIntervalAt(1.2, 1200, 300))
}

func TestEnemyTuning(t *testing.T) {
	assert.Equal(t, 1.0, EnemySpeedAt(2, 0))
	assert.Equal(t, 2.0, EnemySpeedAt(2, 0.5))
	assert.Equal(t, 1500.0, ShootIntervalAt(1, 0))
	assert.Equal(t, 2000.0, ShootIntervalAt(1, 0.5))
	assert.Equal(t, 1750.0, ShootIntervalAt(2, 0.5))
}
