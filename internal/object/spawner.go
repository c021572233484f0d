package object

// EnemySpawner decides when the next enemy enters the field.
type EnemySpawner struct {
	timer float64 // Milliseconds since the last spawn
	next  uint64
}

// NewEnemySpawner creates a spawner whose first enemy gets ID 1.
func NewEnemySpawner() *EnemySpawner {
	return &EnemySpawner{next: 1}
}

// Update ages the spawn timer by deltaMs and reports whether the interval has
// been exceeded. The timer restarts from zero on every spawn.
func (s *EnemySpawner) Update(deltaMs, intervalMs float64) bool {
	s.timer += deltaMs
	if s.timer <= intervalMs {
		return false
	}
	s.timer = 0
	return true
}

// NextID returns a fresh enemy ID.
func (s *EnemySpawner) NextID() uint64 {
	id := s.next
	s.next++
	return id
}

// Timer returns the milliseconds accumulated since the last spawn.
func (s *EnemySpawner) Timer() float64 {
	return s.timer
}
