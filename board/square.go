package board

import (
	"fmt"
	"os"
	"strconv"
)

var (
	ColorSupport = os.Getenv("BLOCKGLASS_DISABLE_COLOR") != "on"
)

// A Cell is a single square on the board. It is either Empty or holds the
// color tag of the piece that filled it. There is no third state.
type Cell uint8

// Empty is the zero Cell.
const Empty Cell = 0

// MaxColor is the largest color tag a Cell can hold.
const MaxColor = 255

// Filled returns a Cell filled with the given color tag. Tag 0 is reserved
// for Empty, so it gets bumped to 1.
func Filled(tag uint8) Cell {
	if tag == 0 {
		return Cell(1)
	}
	return Cell(tag)
}

func (c Cell) IsEmpty() bool {
	return c == Empty
}

// Color returns the color tag, or 0 for an empty cell.
func (c Cell) Color() uint8 {
	return uint8(c)
}

func (c Cell) String() string {
	if c.IsEmpty() {
		return "<empty>"
	}
	return fmt.Sprintf("<filled %d>", c)
}

// ansi background colors, cycled by tag.
var colorCodes = []string{
	"\033[46m", // cyan
	"\033[45m", // magenta
	"\033[43m", // yellow
	"\033[42m", // green
	"\033[41m", // red
	"\033[44m", // blue
	"\033[47m", // white
}

// DisplayString is the two-character representation of a cell used by
// ToDisplayText.
func (c Cell) DisplayString() string {
	if c.IsEmpty() {
		return ". "
	}
	if !ColorSupport {
		return plaintextRune(c) + " "
	}
	code := colorCodes[(int(c)-1)%len(colorCodes)]
	return code + plaintextRune(c) + " \033[0m"
}

// plaintextRune maps tags 1-9 to their digit and every other tag to '#'.
func plaintextRune(c Cell) string {
	if c >= 1 && c <= 9 {
		return strconv.Itoa(int(c))
	}
	return "#"
}
