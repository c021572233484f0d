// Package draw renders a match onto an ANSI terminal using half-block cells.
package draw

import "strconv"

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
	BlockEmpty     = ' '
)

// Color is a palette index for canvas pixels. The zero value is empty.
type Color uint8

const (
	ColorNone Color = iota
	ColorWhite
	ColorYellow
	ColorRed
	ColorLightRed
	ColorCyan
	ColorMagenta
	ColorGreen
	ColorOrange
)

// ColorReset restores the terminal's default attributes.
const ColorReset = "\033[0m"

// ansiFG maps palette entries to SGR foreground codes; background is +10.
var ansiFG = [...]int{
	ColorNone:     39,
	ColorWhite:    97,
	ColorYellow:   93,
	ColorRed:      31,
	ColorLightRed: 91,
	ColorCyan:     96,
	ColorMagenta:  95,
	ColorGreen:    92,
	ColorOrange:   33,
}

// FG returns the escape sequence selecting c as the foreground color.
func (c Color) FG() string {
	if int(c) >= len(ansiFG) {
		c = ColorNone
	}
	return "\033[" + strconv.Itoa(ansiFG[c]) + "m"
}

// BG returns the escape sequence selecting c as the background color.
func (c Color) BG() string {
	if int(c) >= len(ansiFG) {
		c = ColorNone
	}
	return "\033[" + strconv.Itoa(ansiFG[c]+10) + "m"
}
