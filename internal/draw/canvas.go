package draw

import (
	"io"
	"math"
	"strconv"
	"strings"
)

// dirtyCell marks a cell that must be rewritten on the next Render.
const dirtyCell = math.MaxUint16

// Canvas is a drawing buffer with 2x vertical resolution using half-block characters.
// It scales from logical world coordinates to terminal pixels and only emits
// cells that changed since the previous Render.
type Canvas struct {
	termWidth      int     // Actual terminal columns
	termHeight     int     // Actual terminal rows
	subPixelHeight int     // termHeight * 2
	pixels         []Color // Flat slice: [y * termWidth + x]
	prev           []uint16

	// Scaling from logical to pixel coordinates
	logicalWidth  float64
	logicalHeight float64
	scaleX        float64 // termWidth / logicalWidth
	scaleY        float64 // (termHeight*2) / logicalHeight

	// Offset for placing the render area inside a larger terminal.
	// These are 0-based terminal offsets (columns/rows to skip).
	offsetCol int
	offsetRow int

	renderBuf strings.Builder
	numBuf    [20]byte
}

// NewScaledCanvas creates a canvas that scales from logical coordinates to terminal pixels.
// logicalWidth/Height define the coordinate space used by the world.
// termWidth/Height are the terminal cells given to the canvas.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{
		logicalWidth:  logicalWidth,
		logicalHeight: logicalHeight,
	}
	c.termWidth = -1
	c.Resize(termWidth, termHeight)
	return c
}

// Resize updates the canvas for new terminal dimensions while keeping logical size.
func (c *Canvas) Resize(termWidth, termHeight int) {
	if termWidth < 1 {
		termWidth = 1
	}
	if termHeight < 1 {
		termHeight = 1
	}
	if termWidth != c.termWidth || termHeight != c.termHeight {
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = termHeight * 2
		c.pixels = make([]Color, c.subPixelHeight*termWidth)
		c.prev = make([]uint16, termWidth*termHeight)
		c.ForceRedraw()
	}

	c.scaleX = float64(termWidth) / c.logicalWidth
	c.scaleY = float64(c.subPixelHeight) / c.logicalHeight
}

// SetOffset sets the column and row offset of the canvas.
// Offsets are 0-based terminal positions: the canvas starts at (offsetCol+1, offsetRow+1).
func (c *Canvas) SetOffset(col, row int) {
	if col != c.offsetCol || row != c.offsetRow {
		c.ForceRedraw()
	}
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset.
func (c *Canvas) OffsetCol() int {
	return c.offsetCol
}

// OffsetRow returns the row offset.
func (c *Canvas) OffsetRow() int {
	return c.offsetRow
}

// Clear resets all pixels in the canvas.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// ForceRedraw makes the next Render rewrite every cell.
func (c *Canvas) ForceRedraw() {
	for i := range c.prev {
		c.prev[i] = dirtyCell
	}
}

// MarkTextDirty flags n cells starting at the 1-based terminal position so
// text drawn over the canvas gets overwritten on the next Render.
func (c *Canvas) MarkTextDirty(col, row, n int) {
	x := col - 1 - c.offsetCol
	y := row - 1 - c.offsetRow
	if y < 0 || y >= c.termHeight {
		return
	}
	for i := 0; i < n; i++ {
		if x+i >= 0 && x+i < c.termWidth {
			c.prev[y*c.termWidth+x+i] = dirtyCell
		}
	}
}

// setPixel sets a pixel at actual terminal coordinates (no scaling).
func (c *Canvas) setPixel(x, y int, color Color) {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		c.pixels[y*c.termWidth+x] = color
	}
}

// SetFloat sets a pixel using float logical coordinates (applies scaling).
func (c *Canvas) SetFloat(x, y float64, color Color) {
	c.setPixel(int(math.Floor(x*c.scaleX)), int(math.Floor(y*c.scaleY)), color)
}

// FillRect fills the logical rectangle. Anything visible covers at least one pixel.
func (c *Canvas) FillRect(x, y, w, h float64, color Color) {
	x0 := int(math.Floor(x * c.scaleX))
	y0 := int(math.Floor(y * c.scaleY))
	x1 := int(math.Ceil((x+w)*c.scaleX)) - 1
	y1 := int(math.Ceil((y+h)*c.scaleY)) - 1
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 >= c.termWidth {
		x1 = c.termWidth - 1
	}
	if y1 >= c.subPixelHeight {
		y1 = c.subPixelHeight - 1
	}
	for py := y0; py <= y1; py++ {
		row := c.pixels[py*c.termWidth : (py+1)*c.termWidth]
		for px := x0; px <= x1; px++ {
			row[px] = color
		}
	}
}

// maxChunkSize is the maximum bytes to write at once for optimal network flow.
// 1500 bytes matches typical MTU size for smooth SSH/network transmission.
const maxChunkSize = 1400

// Render outputs changed cells to the writer using half-block characters.
func (c *Canvas) Render(w io.Writer) {
	c.renderBuf.Reset()

	for row := 0; row < c.termHeight; row++ {
		topOffset := row * 2 * c.termWidth
		bottomOffset := topOffset + c.termWidth

		for col := 0; col < c.termWidth; col++ {
			top := c.pixels[topOffset+col]
			bottom := c.pixels[bottomOffset+col]
			cell := uint16(top)<<8 | uint16(bottom)
			idx := row*c.termWidth + col
			if c.prev[idx] == cell {
				continue
			}
			c.prev[idx] = cell

			c.moveCursor(col+1+c.offsetCol, row+1+c.offsetRow)
			switch {
			case top == ColorNone && bottom == ColorNone:
				c.renderBuf.WriteString(ColorReset)
				c.renderBuf.WriteRune(BlockEmpty)
			case top == bottom:
				c.renderBuf.WriteString(top.FG())
				c.renderBuf.WriteRune(BlockFull)
			case bottom == ColorNone:
				c.renderBuf.WriteString(ColorReset)
				c.renderBuf.WriteString(top.FG())
				c.renderBuf.WriteRune(BlockUpperHalf)
			case top == ColorNone:
				c.renderBuf.WriteString(ColorReset)
				c.renderBuf.WriteString(bottom.FG())
				c.renderBuf.WriteRune(BlockLowerHalf)
			default:
				c.renderBuf.WriteString(top.FG())
				c.renderBuf.WriteString(bottom.BG())
				c.renderBuf.WriteRune(BlockUpperHalf)
			}
		}
	}
	if c.renderBuf.Len() > 0 {
		c.renderBuf.WriteString(ColorReset)
	}

	// Write output in chunks for optimal network flow
	data := c.renderBuf.String()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		io.WriteString(w, chunk)
		data = data[len(chunk):]
	}
}

func (c *Canvas) moveCursor(col, row int) {
	c.renderBuf.WriteString("\033[")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(row), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col), 10))
	c.renderBuf.WriteByte('H')
}

// RenderBorder draws a box around the canvas area. It needs one free
// column and row on every side; otherwise it draws nothing.
func (c *Canvas) RenderBorder(w io.Writer) {
	if c.offsetCol < 1 || c.offsetRow < 1 {
		return
	}

	left := c.offsetCol
	right := c.offsetCol + c.termWidth + 1
	top := c.offsetRow
	bottom := c.offsetRow + c.termHeight + 1

	var buf strings.Builder
	horizontal := strings.Repeat("─", c.termWidth)
	buf.WriteString("\033[" + strconv.Itoa(top) + ";" + strconv.Itoa(left) + "H┌" + horizontal + "┐")
	buf.WriteString("\033[" + strconv.Itoa(bottom) + ";" + strconv.Itoa(left) + "H└" + horizontal + "┘")
	for row := top + 1; row < bottom; row++ {
		r := strconv.Itoa(row)
		buf.WriteString("\033[" + r + ";" + strconv.Itoa(left) + "H│\033[" + r + ";" + strconv.Itoa(right) + "H│")
	}

	io.WriteString(w, buf.String())
}

// TerminalWidth returns the canvas width in terminal columns.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the canvas height in terminal rows.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

// LogicalToTerminal converts logical coordinates to a 1-based terminal position (col, row).
func (c *Canvas) LogicalToTerminal(x, y float64) (col, row int) {
	px := int(math.Floor(x * c.scaleX))
	py := int(math.Floor(y * c.scaleY))
	return px + 1 + c.offsetCol, py/2 + 1 + c.offsetRow
}

// Pixel reports the color at pixel coordinates. Used by tests and overlays.
func (c *Canvas) Pixel(x, y int) Color {
	if x < 0 || x >= c.termWidth || y < 0 || y >= c.subPixelHeight {
		return ColorNone
	}
	return c.pixels[y*c.termWidth+x]
}
