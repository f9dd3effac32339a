// Package board holds the occupancy/color matrix of a block puzzle, along
// with the line-clear engine that runs after every placement.
package board

import (
	"errors"
	"fmt"
)

var (
	ErrDimensionMismatch = errors.New("board dimensions do not match")
	ErrBadDimensions     = errors.New("board dimensions must be positive")
)

// A Coord is a row/column pair on the board. Shapes also use Coords for
// their relative cell offsets.
type Coord struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

func (c Coord) Add(o Coord) Coord {
	return Coord{Row: c.Row + o.Row, Col: c.Col + o.Col}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// A Board is the main board structure: a rows x cols matrix of Cells,
// stored row-major.
type Board struct {
	rows   int
	cols   int
	cells  []Cell
	filled int
}

// NewBoard creates an empty board. It panics on non-positive dimensions;
// configuration validation is supposed to catch those first.
func NewBoard(rows, cols int) *Board {
	if rows <= 0 || cols <= 0 {
		panic(ErrBadDimensions)
	}
	return &Board{
		rows:  rows,
		cols:  cols,
		cells: make([]Cell, rows*cols),
	}
}

func (b *Board) Rows() int {
	return b.rows
}

func (b *Board) Cols() int {
	return b.cols
}

// NumCells is rows * cols.
func (b *Board) NumCells() int {
	return len(b.cells)
}

func (b *Board) idx(row, col int) int {
	return row*b.cols + col
}

// InBounds returns whether the row/col pair is on the board.
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

func (b *Board) Get(row, col int) Cell {
	return b.cells[b.idx(row, col)]
}

// GetIdx returns the cell at the given row-major index.
func (b *Board) GetIdx(i int) Cell {
	return b.cells[i]
}

// Set sets a single cell, keeping the filled count up to date.
func (b *Board) Set(row, col int, c Cell) {
	i := b.idx(row, col)
	old := b.cells[i]
	if old.IsEmpty() && !c.IsEmpty() {
		b.filled++
	} else if !old.IsEmpty() && c.IsEmpty() {
		b.filled--
	}
	b.cells[i] = c
}

// IsEmptyAt returns false for out-of-bounds positions.
func (b *Board) IsEmptyAt(row, col int) bool {
	if !b.InBounds(row, col) {
		return false
	}
	return b.cells[b.idx(row, col)].IsEmpty()
}

func (b *Board) FilledCount() int {
	return b.filled
}

func (b *Board) EmptyCount() int {
	return len(b.cells) - b.filled
}

// FillRatio is the fraction of occupied cells, from 0 to 1.
func (b *Board) FillRatio() float64 {
	return float64(b.filled) / float64(len(b.cells))
}

// IsEmpty returns if the board has no filled cells at all.
func (b *Board) IsEmpty() bool {
	return b.filled == 0
}

// IsFull returns if every cell is filled.
func (b *Board) IsFull() bool {
	return b.filled == len(b.cells)
}

// Clear clears the board.
func (b *Board) Clear() {
	clear(b.cells)
	b.filled = 0
}

// Copy returns a deep copy of the board.
func (b *Board) Copy() *Board {
	c := &Board{
		rows:   b.rows,
		cols:   b.cols,
		cells:  make([]Cell, len(b.cells)),
		filled: b.filled,
	}
	copy(c.cells, b.cells)
	return c
}

// CopyFrom copies the squares of another board into this one, without
// allocating. The dimensions must be the same.
func (b *Board) CopyFrom(other *Board) {
	if b.rows != other.rows || b.cols != other.cols {
		panic(ErrDimensionMismatch)
	}
	copy(b.cells, other.cells)
	b.filled = other.filled
}

// Equals compares dimensions and every cell, colors included.
func (b *Board) Equals(other *Board) bool {
	if b.rows != other.rows || b.cols != other.cols {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// SameOccupancy is like Equals but ignores colors.
func (b *Board) SameOccupancy(other *Board) bool {
	if b.rows != other.rows || b.cols != other.cols {
		return false
	}
	for i := range b.cells {
		if b.cells[i].IsEmpty() != other.cells[i].IsEmpty() {
			return false
		}
	}
	return true
}

// Matrix returns a fresh [][]Cell copy of the board, suitable for
// serialization.
func (b *Board) Matrix() [][]Cell {
	m := make([][]Cell, b.rows)
	for r := 0; r < b.rows; r++ {
		m[r] = make([]Cell, b.cols)
		copy(m[r], b.cells[r*b.cols:(r+1)*b.cols])
	}
	return m
}

// FromMatrix builds a board from a rectangular matrix.
func FromMatrix(m [][]Cell) (*Board, error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return nil, ErrBadDimensions
	}
	b := NewBoard(len(m), len(m[0]))
	for r, row := range m {
		if len(row) != b.cols {
			return nil, fmt.Errorf("row %d has %d cells, expected %d: %w",
				r, len(row), b.cols, ErrDimensionMismatch)
		}
		for c, cell := range row {
			b.Set(r, c, cell)
		}
	}
	return b, nil
}

// OccupiedCells lists filled cells in row-major order.
func (b *Board) OccupiedCells() []Coord {
	ret := make([]Coord, 0, b.filled)
	for i, c := range b.cells {
		if !c.IsEmpty() {
			ret = append(ret, Coord{Row: i / b.cols, Col: i % b.cols})
		}
	}
	return ret
}

// EmptyCells lists empty cells in row-major order.
func (b *Board) EmptyCells() []Coord {
	ret := make([]Coord, 0, len(b.cells)-b.filled)
	for i, c := range b.cells {
		if c.IsEmpty() {
			ret = append(ret, Coord{Row: i / b.cols, Col: i % b.cols})
		}
	}
	return ret
}

// Fill writes the color into every anchor+offset cell. It does not validate;
// callers must have checked the placement first.
func (b *Board) Fill(anchor Coord, offsets []Coord, color Cell) {
	for _, o := range offsets {
		b.Set(anchor.Row+o.Row, anchor.Col+o.Col, color)
	}
}

// RemoveDiamond empties every occupied cell within Manhattan distance
// radius of center, and returns the cells that were removed.
func (b *Board) RemoveDiamond(center Coord, radius int) []Coord {
	removed := []Coord{}
	for dr := -radius; dr <= radius; dr++ {
		span := radius - abs(dr)
		for dc := -span; dc <= span; dc++ {
			r, c := center.Row+dr, center.Col+dc
			if !b.InBounds(r, c) || b.Get(r, c).IsEmpty() {
				continue
			}
			b.Set(r, c, Empty)
			removed = append(removed, Coord{Row: r, Col: c})
		}
	}
	return removed
}

// DiamondFootprint returns all in-bounds cells within Manhattan distance
// radius of center, occupied or not. Useful for previews.
func (b *Board) DiamondFootprint(center Coord, radius int) []Coord {
	ret := []Coord{}
	for dr := -radius; dr <= radius; dr++ {
		span := radius - abs(dr)
		for dc := -span; dc <= span; dc++ {
			r, c := center.Row+dr, center.Col+dc
			if b.InBounds(r, c) {
				ret = append(ret, Coord{Row: r, Col: c})
			}
		}
	}
	return ret
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
