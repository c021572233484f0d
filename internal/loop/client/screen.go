package client

import (
	"fmt"
	"time"

	"github.com/tomz197/furbo/internal/draw"
	"github.com/tomz197/furbo/internal/loop"
	"github.com/tomz197/furbo/internal/object"
)

var titleArt = []string{
	`  ___ _   _ ___ ___  ___  `,
	` | __| | | | _ \ _ )/ _ \ `,
	` | _|| |_| |   / _ \ (_) |`,
	` |_|  \___/|_|_\___/\___/ `,
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	// On screen or inactivity transitions, do a full terminal clear so text
	// from the previous screen doesn't persist.
	if c.state.GameState != c.state.prevGameState || c.state.isInactive != c.state.wasInactive {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.canvas.ForceRedraw()
		c.state.prevGameState = c.state.GameState
		c.state.wasInactive = c.state.isInactive
	}

	c.canvas.Clear()
	if c.state.GameState == GameStatePlaying || c.state.GameState == GameStateOver {
		ctx := object.DrawContext{Canvas: c.canvas}
		c.match.Snapshot().Each(func(d object.Drawable) {
			d.Draw(ctx)
		})
	}
	c.canvas.Render(c.chunkWriter)
	c.canvas.RenderBorder(c.chunkWriter)

	c.drawPanel()
	c.drawOverlay()

	return c.chunkWriter.Flush()
}

// drawOverlay draws the text of the current screen over the playfield.
func (c *Client) drawOverlay() {
	if c.state.GameState == GameStateShutdown {
		c.drawShutdownScreen()
		return
	}
	if c.state.isInactive {
		c.drawInactivityScreen()
		return
	}
	switch c.state.GameState {
	case GameStateStart:
		c.drawStartScreen()
	case GameStateOver:
		c.drawOverScreen()
	}
}

// fieldText centers s on the playfield, rowOffset rows from its middle, and
// marks the covered cells so the canvas repaints them later.
func (c *Client) fieldText(rowOffset int, color draw.Color, s string) {
	l := c.layout
	width := len([]rune(s))
	col := l.FieldCol + 1 + (l.FieldCols-width)/2
	row := l.FieldRow + 1 + l.FieldRows/2 + rowOffset
	if col < 1 {
		col = 1
	}
	if row < 1 || row > l.FieldRow+l.FieldRows {
		return
	}
	if color == draw.ColorNone {
		c.chunkWriter.WriteAt(col, row, s)
	} else {
		c.chunkWriter.WriteColorAt(col, row, color, s)
	}
	c.canvas.MarkTextDirty(col+c.offCol, row+c.offRow, width)
}

func blinkOn() bool {
	return time.Now().UnixMilli()/600%2 == 0
}

// drawStartScreen draws the title and the handle prompt.
func (c *Client) drawStartScreen() {
	top := -10
	for i, line := range titleArt {
		c.fieldText(top+i, draw.ColorYellow, line)
	}
	c.fieldText(top+len(titleArt)+1, draw.ColorNone, "~ every shot settles on-chain ~")

	cursor := " "
	if blinkOn() {
		cursor = "_"
	}
	handle := fmt.Sprintf("Handle: %-*s", 17, string(c.state.Handle)+cursor)
	c.fieldText(-2, draw.ColorCyan, handle)

	switch {
	case c.registration.Pending():
		c.fieldText(0, draw.ColorNone, "   Registering with relay...   ")
	case blinkOn():
		c.fieldText(0, draw.ColorNone, ">>  Press ENTER to register  <<")
	default:
		c.fieldText(0, draw.ColorNone, "                               ")
	}

	controls := []string{
		"A D / < >  . . .  Move",
		"SPACE  . . . . . Shoot",
		"Q  . . . . . . .  Quit",
	}
	for i, line := range controls {
		c.fieldText(3+i, draw.ColorNone, line)
	}
}

// drawOverScreen draws the result of the finished match.
func (c *Client) drawOverScreen() {
	st := c.match.State()
	title := "GAME OVER"
	if st.Cause == loop.CauseTimeUp {
		title = "TIME UP"
	}
	c.fieldText(-4, draw.ColorRed, title)
	c.fieldText(-2, draw.ColorNone, fmt.Sprintf("Score: %d", st.Score))
	c.fieldText(-1, draw.ColorNone, fmt.Sprintf("Kills: %d", st.Kills))

	status := "Score sent to relay"
	if n := c.match.InFlight(); n > 0 {
		status = fmt.Sprintf("Settling %d action(s)...", n)
	}
	c.fieldText(1, draw.ColorNone, fmt.Sprintf("%-26s", status))

	if blinkOn() {
		c.fieldText(3, draw.ColorNone, ">>  Press ENTER to play again  <<")
	} else {
		c.fieldText(3, draw.ColorNone, "                                 ")
	}
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen() {
	c.fieldText(-2, draw.ColorOrange, "INACTIVITY WARNING")
	left := int(inactivityLeft(c.lastInput).Seconds())
	c.fieldText(0, draw.ColorNone, fmt.Sprintf("Disconnecting in %3d seconds", left))
	c.fieldText(2, draw.ColorNone, "Press any key to continue")
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen() {
	c.fieldText(-3, draw.ColorRed, "SERVER SHUTTING DOWN")
	c.fieldText(-1, draw.ColorNone, "Please reconnect in a moment.")
	remaining := int(c.state.shutdownTimer) + 1
	c.fieldText(1, draw.ColorNone, fmt.Sprintf("Disconnecting in %2d seconds...", remaining))
	c.fieldText(3, draw.ColorNone, "Press Q to disconnect now")
}

// drawPanel draws the HUD, the leaderboard and the log box right of the
// playfield. Every line is padded so shorter values overwrite longer ones.
func (c *Client) drawPanel() {
	l := c.layout
	cw := c.chunkWriter
	st := c.match.State()
	maxRow := l.FieldRow + l.FieldRows + 1

	row := l.FieldRow
	line := func(color draw.Color, s string) {
		if row > maxRow {
			return
		}
		if color == draw.ColorNone {
			cw.WritePadded(l.PanelCol, row, l.PanelWidth, s)
		} else {
			cw.WriteString(color.FG())
			cw.WritePadded(l.PanelCol, row, l.PanelWidth, s)
			cw.WriteString(draw.ColorReset)
		}
		row++
	}

	line(draw.ColorYellow, "FURBO")
	who := string(c.state.Handle)
	if id, ok := c.gate.Identity(); ok {
		who = id.Short()
	}
	line(draw.ColorNone, "Pilot  "+who)
	line(draw.ColorNone, "")
	line(draw.ColorNone, fmt.Sprintf("Score  %d", st.Score))
	line(draw.ColorNone, fmt.Sprintf("Time   %.1fs", st.TimeLeftMs/1000))
	line(draw.ColorNone, fmt.Sprintf("Kills  %d", st.Kills))
	line(draw.ColorNone, fmt.Sprintf("Level  x%.2f", st.Difficulty))
	line(draw.ColorNone, fmt.Sprintf("Relay  %d/%d in flight", c.match.InFlight(), c.cfg.Dispatch.MaxPending))
	line(draw.ColorNone, fmt.Sprintf("Mode   %s", c.cfg.Dispatch.Policy))
	if c.server != nil {
		line(draw.ColorNone, fmt.Sprintf("Online %d", c.server.Players()))
	}
	line(draw.ColorNone, "")

	line(draw.ColorCyan, "LEADERBOARD")
	var entries int
	if c.server != nil {
		for i, e := range c.server.Leaderboard() {
			line(draw.ColorNone, fmt.Sprintf("%2d %-16s %6d", i+1, e.Name(), e.Score))
			entries++
		}
	}
	if entries == 0 {
		line(draw.ColorNone, "   no scores yet")
	}
	line(draw.ColorNone, "")

	line(draw.ColorCyan, "LOG")
	logLines := c.logBox.Lines()
	if free := maxRow - row + 1; len(logLines) > free && free >= 0 {
		logLines = logLines[len(logLines)-free:]
	}
	for _, s := range logLines {
		line(draw.ColorNone, s)
	}
	for row <= maxRow {
		line(draw.ColorNone, "")
	}
}
