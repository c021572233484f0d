package loop

import (
	"strings"
	"sync"
)

// LogBox keeps the most recent log lines for on-screen display. It is an
// io.Writer so a charmbracelet logger can target it.
type LogBox struct {
	mu      sync.Mutex
	size    int
	lines   []string
	partial string
}

// NewLogBox returns a box holding the last size lines.
func NewLogBox(size int) *LogBox {
	if size < 1 {
		size = 1
	}
	return &LogBox{size: size}
}

// Write splits p into lines and keeps the newest ones. Continuation lines of
// a multi-line value ("  │ ...") are joined onto the entry they belong to.
func (b *LogBox) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	text := b.partial + string(p)
	parts := strings.Split(text, "\n")
	b.partial = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		line = strings.TrimRight(line, "\r ")
		if line == "" {
			continue
		}
		if rest, ok := continuation(line); ok && len(b.lines) > 0 {
			if rest != "" {
				b.lines[len(b.lines)-1] += " " + rest
			}
			continue
		}
		b.lines = append(b.lines, line)
	}
	if over := len(b.lines) - b.size; over > 0 {
		b.lines = append(b.lines[:0], b.lines[over:]...)
	}
	return len(p), nil
}

func continuation(line string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimLeft(line, " \t"), "│")
	return strings.TrimSpace(rest), ok
}

// Lines returns the kept lines, oldest first.
func (b *LogBox) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}
