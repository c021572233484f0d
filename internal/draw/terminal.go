package draw

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ChunkWriter accumulates text for terminal output and writes in chunks for optimal
// network flow over SSH. Use MoveCursor, WriteString, WriteRune to accumulate,
// then Flush to write to the underlying writer. Implements io.Writer for Canvas.Render.
type ChunkWriter struct {
	buf    strings.Builder
	bufw   *bufio.Writer // Buffers writes to underlying writer for fewer syscalls
	numBuf [20]byte      // Scratch buffer for allocation-free integer formatting
	offCol int
	offRow int
}

// NewChunkWriter creates a ChunkWriter that writes to w. offsetCol and offsetRow
// are added to all MoveCursor coordinates (for canvas centering).
func NewChunkWriter(w io.Writer, offsetCol, offsetRow int) *ChunkWriter {
	return &ChunkWriter{
		bufw:   bufio.NewWriterSize(w, 8192),
		offCol: offsetCol,
		offRow: offsetRow,
	}
}

// SetOffset updates the cursor offset (e.g. after terminal resize).
func (cw *ChunkWriter) SetOffset(offsetCol, offsetRow int) {
	cw.offCol = offsetCol
	cw.offRow = offsetRow
}

// MoveCursor appends an ANSI cursor position sequence. col and row are 1-based
// canvas coordinates; offset is applied automatically.
func (cw *ChunkWriter) MoveCursor(col, row int) {
	cw.buf.WriteString("\033[")
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(row+cw.offRow), 10))
	cw.buf.WriteByte(';')
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(col+cw.offCol), 10))
	cw.buf.WriteByte('H')
}

// Write implements io.Writer for use with Canvas.Render and other writers.
func (cw *ChunkWriter) Write(p []byte) (n int, err error) {
	return cw.buf.Write(p)
}

// WriteString appends a string to the buffer.
func (cw *ChunkWriter) WriteString(s string) {
	cw.buf.WriteString(s)
}

// WriteAt writes a string at a specific position. col and row are 1-based canvas coordinates; offset is applied automatically.
func (cw *ChunkWriter) WriteAt(col, row int, s string) {
	cw.MoveCursor(col, row)
	cw.buf.WriteString(s)
}

// WriteColorAt writes s in color c at a position and resets attributes after.
func (cw *ChunkWriter) WriteColorAt(col, row int, c Color, s string) {
	cw.MoveCursor(col, row)
	cw.buf.WriteString(c.FG())
	cw.buf.WriteString(s)
	cw.buf.WriteString(ColorReset)
}

// WritePadded writes s at a position, truncated or space-padded to width so
// shorter values overwrite longer ones from the previous frame.
func (cw *ChunkWriter) WritePadded(col, row, width int, s string) {
	if width <= 0 {
		return
	}
	r := []rune(s)
	if len(r) > width {
		r = r[:width]
	}
	cw.MoveCursor(col, row)
	cw.buf.WriteString(string(r))
	for i := len(r); i < width; i++ {
		cw.buf.WriteByte(' ')
	}
}

// WriteByte appends a byte to the buffer.
func (cw *ChunkWriter) WriteByte(c byte) error {
	return cw.buf.WriteByte(c)
}

// WriteRune appends a rune to the buffer.
func (cw *ChunkWriter) WriteRune(r rune) {
	cw.buf.WriteRune(r)
}

// Ensure ChunkWriter satisfies io.Writer.
var _ io.Writer = (*ChunkWriter)(nil)

// Flush writes the accumulated buffer to the underlying writer in chunks,
// then resets the buffer. Uses the same chunk size as Canvas.Render.
func (cw *ChunkWriter) Flush() error {
	data := cw.buf.String()
	cw.buf.Reset()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		if _, err := cw.bufw.WriteString(chunk); err != nil {
			return err
		}
		data = data[len(chunk):]
	}
	return cw.bufw.Flush()
}

// TermSizeFunc is a function that returns the terminal dimensions.
type TermSizeFunc func() (width, height int, err error)

// DefaultTermSizeFunc returns terminal size from os.Stdout.
var DefaultTermSizeFunc TermSizeFunc = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// ClearScreen clears the terminal and moves cursor to top-left.
func ClearScreen(w io.Writer) {
	fmt.Fprint(w, "\033[H\033[2J")
}

// HideCursor hides the terminal cursor.
func HideCursor(w io.Writer) {
	fmt.Fprint(w, "\033[?25l")
}

// ShowCursor shows the terminal cursor.
func ShowCursor(w io.Writer) {
	fmt.Fprint(w, "\033[?25h")
}

// MoveCursor moves cursor to a specific position (1-based).
func MoveCursor(w io.Writer, x, y int) {
	fmt.Fprintf(w, "\033[%d;%dH", y, x)
}

// Layout places the playfield and the side panel inside a terminal.
type Layout struct {
	FieldCols, FieldRows int // Playfield size in cells
	FieldCol, FieldRow   int // 0-based offset of the playfield
	PanelCol             int // 1-based first column of the side panel
	PanelWidth           int
}

// FitLayout sizes a playfield with the logical aspect ratio (two sub-pixels
// per row) into a termWidth×termHeight area, leaving panelWidth columns on
// the right. Both axes leave room for a one-cell border.
func FitLayout(termWidth, termHeight, panelWidth int, logicalWidth, logicalHeight float64) Layout {
	rows := termHeight - 2
	cols := int(float64(rows*2) * logicalWidth / logicalHeight)
	if maxCols := termWidth - panelWidth - 3; cols > maxCols {
		cols = maxCols
		rows = int(float64(cols) * logicalHeight / logicalWidth / 2)
	}
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return Layout{
		FieldCols:  cols,
		FieldRows:  rows,
		FieldCol:   1,
		FieldRow:   1,
		PanelCol:   cols + 4,
		PanelWidth: panelWidth,
	}
}
