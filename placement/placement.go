// Package placement answers whether a shape can go somewhere on a board.
// Every function here is pure except Apply.
package placement

import (
	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/shape"
)

// CanPlace returns true if every cell of s, offset by anchor, is on the
// board and empty.
func CanPlace(b *board.Board, s *shape.Shape, anchor board.Coord) bool {
	for _, o := range s.Offsets {
		if !b.IsEmptyAt(anchor.Row+o.Row, anchor.Col+o.Col) {
			return false
		}
	}
	return true
}

// FirstFit scans anchors row-major and returns the first legal one.
func FirstFit(b *board.Board, s *shape.Shape) (board.Coord, bool) {
	h, w := s.Bounds()
	for r := 0; r+h <= b.Rows(); r++ {
		for c := 0; c+w <= b.Cols(); c++ {
			anchor := board.Coord{Row: r, Col: c}
			if CanPlace(b, s, anchor) {
				return anchor, true
			}
		}
	}
	return board.Coord{}, false
}

func CanFitAnywhere(b *board.Board, s *shape.Shape) bool {
	_, ok := FirstFit(b, s)
	return ok
}

// LegalAnchors lists every legal anchor, row-major.
func LegalAnchors(b *board.Board, s *shape.Shape) []board.Coord {
	return AppendLegalAnchors(nil, b, s)
}

// AppendLegalAnchors is LegalAnchors into a caller-owned buffer.
func AppendLegalAnchors(dst []board.Coord, b *board.Board, s *shape.Shape) []board.Coord {
	h, w := s.Bounds()
	for r := 0; r+h <= b.Rows(); r++ {
		for c := 0; c+w <= b.Cols(); c++ {
			anchor := board.Coord{Row: r, Col: c}
			if CanPlace(b, s, anchor) {
				dst = append(dst, anchor)
			}
		}
	}
	return dst
}

// HasLegalMove returns true if any unused piece of the batch fits anywhere.
func HasLegalMove(b *board.Board, batch shape.Batch) bool {
	for _, p := range batch {
		if p.Used {
			continue
		}
		if CanFitAnywhere(b, p.Shape) {
			return true
		}
	}
	return false
}

// CompletableLines returns the lines that would clear if s were committed at
// anchor, or nil if the placement is illegal. Used for highlighting.
func CompletableLines(b *board.Board, s *shape.Shape, anchor board.Coord) []board.LineID {
	if !CanPlace(b, s, anchor) {
		return nil
	}
	return b.LinesCompletedBy(anchor, s.Offsets)
}

// Apply commits a placement and runs the clear engine. It does not
// re-validate; call CanPlace first.
func Apply(b *board.Board, s *shape.Shape, color board.Cell, anchor board.Coord) board.ClearResult {
	return b.ApplyAndClear(anchor, s.Offsets, color)
}
