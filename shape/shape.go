// Package shape defines the immutable block shapes a player is dealt, the
// catalog they are drawn from, and the per-deal Piece and Batch types.
package shape

import (
	"errors"
	"fmt"
	"strings"

	"github.com/domino14/blockglass/board"
)

var (
	ErrEmptyShape      = errors.New("shape has no cells")
	ErrDuplicateOffset = errors.New("shape has a duplicate cell offset")
	ErrEmptyCatalog    = errors.New("catalog has no shapes")
	ErrUnknownShape    = errors.New("shape not in catalog")
)

const (
	// EasyDifficulty and below is considered an easy shape.
	EasyDifficulty = 3
	// HardDifficulty and above is a hard shape.
	HardDifficulty = 7
)

// A Shape is a fixed set of cell offsets, normalized so that the minimum row
// and the minimum column are both 0. The anchor of a placement is the
// top-left corner of the shape's bounding box.
type Shape struct {
	ID         int
	Name       string
	Offsets    []board.Coord
	Color      board.Cell
	Difficulty int

	height, width int
}

// NewShape normalizes the offsets and validates them.
func NewShape(name string, offsets []board.Coord, difficulty int, color board.Cell) (*Shape, error) {
	if len(offsets) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyShape)
	}
	minR, minC := offsets[0].Row, offsets[0].Col
	for _, o := range offsets[1:] {
		minR = min(minR, o.Row)
		minC = min(minC, o.Col)
	}
	norm := make([]board.Coord, len(offsets))
	seen := make(map[board.Coord]bool, len(offsets))
	s := &Shape{Name: name, Difficulty: difficulty, Color: color}
	for i, o := range offsets {
		n := board.Coord{Row: o.Row - minR, Col: o.Col - minC}
		if seen[n] {
			return nil, fmt.Errorf("%s at %v: %w", name, o, ErrDuplicateOffset)
		}
		seen[n] = true
		norm[i] = n
		s.height = max(s.height, n.Row+1)
		s.width = max(s.width, n.Col+1)
	}
	s.Offsets = norm
	if s.Color.IsEmpty() {
		s.Color = board.Filled(1)
	}
	return s, nil
}

// MustShape is NewShape that panics. It is meant for fixed catalogs.
func MustShape(name string, offsets []board.Coord, difficulty int, color board.Cell) *Shape {
	s, err := NewShape(name, offsets, difficulty, color)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Shape) CellCount() int {
	return len(s.Offsets)
}

// Bounds returns the height and width of the bounding box.
func (s *Shape) Bounds() (int, int) {
	return s.height, s.width
}

func (s *Shape) IsEasy() bool {
	return s.Difficulty <= EasyDifficulty
}

func (s *Shape) IsHard() bool {
	return s.Difficulty >= HardDifficulty
}

func (s *Shape) String() string {
	return s.Name
}

// Picture draws the shape with '#' for cells and '.' for holes in the
// bounding box.
func (s *Shape) Picture() string {
	grid := make([][]byte, s.height)
	for r := range grid {
		grid[r] = []byte(strings.Repeat(".", s.width))
	}
	for _, o := range s.Offsets {
		grid[o.Row][o.Col] = '#'
	}
	lines := make([]string, s.height)
	for r := range grid {
		lines[r] = string(grid[r])
	}
	return strings.Join(lines, "\n")
}
