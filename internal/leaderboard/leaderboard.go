// Package leaderboard keeps finished-match records.
package leaderboard

import (
	"sort"
	"sync"
	"time"

	"github.com/tomz197/furbo/internal/relay"
	"github.com/tomz197/furbo/internal/types"
)

// Record is one finished match.
type Record struct {
	Identity   types.Identity
	Score      int
	DurationMs int64
	Timestamp  time.Time
}

// Board receives a record for every finished match.
type Board interface {
	Push(r Record)
}

// Memory is a Board keeping each player's best record, capped at size
// entries. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	size    int
	records []Record
}

var _ Board = (*Memory)(nil)

// NewMemory returns a board holding at most size players.
func NewMemory(size int) *Memory {
	if size < 1 {
		size = 1
	}
	return &Memory{size: size}
}

// Push stores r if it beats the player's previous best.
func (m *Memory) Push(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, prev := range m.records {
		if prev.Identity.Player == r.Identity.Player {
			if r.Score <= prev.Score {
				return
			}
			m.records[i] = r
			m.sort()
			return
		}
	}
	m.records = append(m.records, r)
	m.sort()
	if len(m.records) > m.size {
		m.records = m.records[:m.size]
	}
}

// sort orders by score, earlier records first on ties.
func (m *Memory) sort() {
	sort.SliceStable(m.records, func(i, j int) bool {
		a, b := m.records[i], m.records[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Timestamp.Before(b.Timestamp)
	})
}

// Top returns up to n records, best first.
func (m *Memory) Top(n int) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n > len(m.records) || n < 0 {
		n = len(m.records)
	}
	out := make([]Record, n)
	copy(out, m.records[:n])
	return out
}

// Entries returns the board in the relay's leaderboard shape.
func (m *Memory) Entries() []relay.Entry {
	top := m.Top(-1)
	out := make([]relay.Entry, len(top))
	for i, r := range top {
		out[i] = relay.Entry{Player: r.Identity.Player, Handle: r.Identity.Handle, Score: r.Score}
	}
	return out
}

// Multi pushes every record to each board in turn.
type Multi []Board

// Push implements Board.
func (m Multi) Push(r Record) {
	for _, b := range m {
		b.Push(r)
	}
}
