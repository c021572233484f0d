// Package input turns raw terminal bytes into per-frame player intent.
package input

import (
	"bufio"
	"time"
	"unicode"

	"github.com/tomz197/furbo/internal/types"
)

// keyHoldDuration is how long a direction key is considered "held" after its
// last press. Terminals only repeat keys, they never report releases.
const keyHoldDuration = 120 * time.Millisecond

// Input represents the current frame's input state. Direction is a level
// derived from recent key presses; the remaining flags are edges seen in
// this frame's bytes.
type Input struct {
	Quit      bool // Ctrl-C or Ctrl-D
	Direction types.Direction
	Fire      bool
	Enter     bool
	Backspace bool
	Escape    bool
	Text      []rune // Printable characters, for text entry
	Pressed   []byte
}

// keyState tracks the last time each direction was pressed.
type keyState struct {
	left  time.Time
	right time.Time
}

// Stream delivers input bytes via a channel and tracks held directions.
type Stream struct {
	ch    chan byte
	state keyState
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := newStream()
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

func newStream() *Stream {
	return &Stream{ch: make(chan byte, 128)}
}

// Reset forgets held directions, e.g. when switching screens.
func (s *Stream) Reset() {
	s.state = keyState{}
}

// ReadInput drains all available bytes from the stream (non-blocking).
func ReadInput(s *Stream) Input {
	return readInputAt(s, time.Now())
}

func readInputAt(s *Stream, now time.Time) Input {
	var in Input
	var buf []byte

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				in.Quit = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// CSI sequence: ESC [ <code>
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			switch buf[i+2] {
			case 'C':
				s.state.right = now
				s.state.left = time.Time{}
			case 'D':
				s.state.left = now
				s.state.right = time.Time{}
			}
			i += 2
			continue
		}
		applyByte(&in, &s.state, b, now)
	}

	left := now.Sub(s.state.left) < keyHoldDuration
	right := now.Sub(s.state.right) < keyHoldDuration
	switch {
	case left && !right:
		in.Direction = types.DirLeft
	case right && !left:
		in.Direction = types.DirRight
	}
	in.Pressed = buf
	return in
}

// applyByte records a single byte. Letters used for movement are also
// reported as text so the handle prompt can accept them.
func applyByte(in *Input, state *keyState, b byte, now time.Time) {
	switch b {
	case 0x03, 0x04:
		in.Quit = true
		return
	case 'a', 'A', 'h', 'H':
		state.left = now
		state.right = time.Time{}
	case 'd', 'D', 'l', 'L':
		state.right = now
		state.left = time.Time{}
	case ' ':
		in.Fire = true
		return
	case '\n', '\r':
		in.Enter = true
		return
	case '\b', '\x7f':
		in.Backspace = true
		return
	case '\x1b':
		in.Escape = true
		return
	}
	if r := rune(b); b < 0x80 && unicode.IsPrint(r) {
		in.Text = append(in.Text, r)
	}
}
