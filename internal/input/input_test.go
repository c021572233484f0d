package input

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tomz197/furbo/internal/types"
)

func feed(s *Stream, data string) {
	for i := 0; i < len(data); i++ {
		s.ch <- data[i]
	}
}

func TestArrowKeysHoldDirection(t *testing.T) {
	s := newStream()
	now := time.Unix(100, 0)

	feed(s, "\x1b[D")
	assert.Equal(t, types.DirLeft, readInputAt(s, now).Direction)
	assert.Equal(t, types.DirLeft, readInputAt(s, now.Add(keyHoldDuration/2)).Direction, "held between repeats")
	assert.Equal(t, types.DirNone, readInputAt(s, now.Add(keyHoldDuration)).Direction)

	feed(s, "\x1b[C")
	assert.Equal(t, types.DirRight, readInputAt(s, now).Direction)
}

func TestLatestDirectionWins(t *testing.T) {
	s := newStream()
	now := time.Unix(100, 0)

	feed(s, "ad")
	assert.Equal(t, types.DirRight, readInputAt(s, now).Direction)
}

func TestEdges(t *testing.T) {
	s := newStream()
	now := time.Unix(100, 0)

	feed(s, " \r\x7f")
	in := readInputAt(s, now)
	assert.True(t, in.Fire)
	assert.True(t, in.Enter)
	assert.True(t, in.Backspace)
	assert.False(t, in.Quit)

	in = readInputAt(s, now)
	assert.False(t, in.Fire, "fire is reported once per press")
}

func TestTextEntry(t *testing.T) {
	s := newStream()
	feed(s, "@ace_1\x03")
	in := readInputAt(s, time.Unix(0, 0))
	assert.Equal(t, "@ace_1", string(in.Text))
	assert.True(t, in.Quit)
}

func TestClosedStreamQuits(t *testing.T) {
	s := StartStream(bufio.NewReader(strings.NewReader("")))
	assert.Eventually(t, func() bool {
		return ReadInput(s).Quit
	}, time.Second, time.Millisecond)
}
