package board

import (
	"fmt"
	"slices"
)

type LineKind uint8

const (
	RowLine LineKind = iota
	ColumnLine
)

func (k LineKind) String() string {
	if k == RowLine {
		return "row"
	} else if k == ColumnLine {
		return "col"
	}
	return "none"
}

// A LineID identifies a full row or column.
type LineID struct {
	Kind  LineKind `json:"kind" yaml:"kind"`
	Index int      `json:"index" yaml:"index"`
}

func (l LineID) String() string {
	return fmt.Sprintf("%v %d", l.Kind, l.Index)
}

// ClearResult describes what a single clear scan removed. All lines were
// found on the same post-placement matrix and cleared together.
type ClearResult struct {
	Lines []LineID `json:"lines" yaml:"lines"`
	// Cells holds every cleared cell once, even where a cleared row and
	// a cleared column intersect.
	Cells []Coord `json:"cells" yaml:"cells"`
}

// LinesCleared is rows + columns. An intersection cell counts once per
// line it belongs to.
func (cr ClearResult) LinesCleared() int {
	return len(cr.Lines)
}

func (cr ClearResult) RowsCleared() int {
	n := 0
	for _, l := range cr.Lines {
		if l.Kind == RowLine {
			n++
		}
	}
	return n
}

func (cr ClearResult) ColumnsCleared() int {
	return len(cr.Lines) - cr.RowsCleared()
}

// RevealOrder orders the cleared cells by Manhattan distance from source,
// ties broken row-major. The board already holds the final state; this is
// only a replay order for staged visual reveals.
func (cr ClearResult) RevealOrder(source Coord) []Coord {
	ret := slices.Clone(cr.Cells)
	slices.SortStableFunc(ret, func(a, b Coord) int {
		da := abs(a.Row-source.Row) + abs(a.Col-source.Col)
		db := abs(b.Row-source.Row) + abs(b.Col-source.Col)
		if da != db {
			return da - db
		}
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
	return ret
}

func (b *Board) RowFull(row int) bool {
	start := row * b.cols
	for _, c := range b.cells[start : start+b.cols] {
		if c.IsEmpty() {
			return false
		}
	}
	return true
}

func (b *Board) ColFull(col int) bool {
	for r := 0; r < b.rows; r++ {
		if b.cells[b.idx(r, col)].IsEmpty() {
			return false
		}
	}
	return true
}

// FullLines scans every row, then every column.
func (b *Board) FullLines() []LineID {
	var lines []LineID
	for r := 0; r < b.rows; r++ {
		if b.RowFull(r) {
			lines = append(lines, LineID{Kind: RowLine, Index: r})
		}
	}
	for c := 0; c < b.cols; c++ {
		if b.ColFull(c) {
			lines = append(lines, LineID{Kind: ColumnLine, Index: c})
		}
	}
	return lines
}

// ClearFullLines finds every full line on the current matrix and clears
// them all in one step.
func (b *Board) ClearFullLines() ClearResult {
	lines := b.FullLines()
	if len(lines) == 0 {
		return ClearResult{}
	}
	cells := []Coord{}
	// Cells are collected before anything is emptied, so that the line scan
	// above and the set of cleared cells agree.
	for _, l := range lines {
		if l.Kind == RowLine {
			for c := 0; c < b.cols; c++ {
				cells = append(cells, Coord{Row: l.Index, Col: c})
			}
		} else {
			for r := 0; r < b.rows; r++ {
				cells = append(cells, Coord{Row: r, Col: l.Index})
			}
		}
	}
	uniq := cells[:0]
	seen := make(map[Coord]struct{}, len(cells))
	for _, c := range cells {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		uniq = append(uniq, c)
	}
	for _, c := range uniq {
		b.Set(c.Row, c.Col, Empty)
	}
	return ClearResult{Lines: lines, Cells: uniq}
}

// ApplyAndClear fills the given cells and then runs a clear scan against
// the fully updated board. It does not re-validate the placement.
func (b *Board) ApplyAndClear(anchor Coord, offsets []Coord, color Cell) ClearResult {
	b.Fill(anchor, offsets, color)
	return b.ClearFullLines()
}

// LinesCompletedBy returns the lines that would become full if the given
// cells were filled, without mutating the board. Cells that are out of
// bounds or already filled are ignored, so callers should validate first.
func (b *Board) LinesCompletedBy(anchor Coord, offsets []Coord) []LineID {
	rowAdds := map[int]int{}
	colAdds := map[int]int{}
	for _, o := range offsets {
		r, c := anchor.Row+o.Row, anchor.Col+o.Col
		if !b.IsEmptyAt(r, c) {
			continue
		}
		rowAdds[r]++
		colAdds[c]++
	}
	var lines []LineID
	for r := 0; r < b.rows; r++ {
		add, ok := rowAdds[r]
		if !ok {
			continue
		}
		if b.emptyInRow(r) == add {
			lines = append(lines, LineID{Kind: RowLine, Index: r})
		}
	}
	for c := 0; c < b.cols; c++ {
		add, ok := colAdds[c]
		if !ok {
			continue
		}
		if b.emptyInCol(c) == add {
			lines = append(lines, LineID{Kind: ColumnLine, Index: c})
		}
	}
	return lines
}

func (b *Board) emptyInRow(row int) int {
	n := 0
	for c := 0; c < b.cols; c++ {
		if b.cells[b.idx(row, c)].IsEmpty() {
			n++
		}
	}
	return n
}

func (b *Board) emptyInCol(col int) int {
	n := 0
	for r := 0; r < b.rows; r++ {
		if b.cells[b.idx(r, col)].IsEmpty() {
			n++
		}
	}
	return n
}
