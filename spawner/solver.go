package spawner

import (
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/placement"
	"github.com/domino14/blockglass/shape"
	"github.com/domino14/blockglass/zobrist"
)

// A Solver decides whether a multiset of shapes can all be placed on a
// board, in some order, with line clears applied after every placement.
// It only answers existence; the first full ordering found wins.
//
// The live board is never touched: depth d of the search works on
// boards[d], a preallocated copy.
type Solver struct {
	nodeLimit      int
	simulateClears bool

	boards  []*board.Board
	anchors [][]board.Coord
	counts  []int
	ids     []int
	shapes  []*shape.Shape

	zobrist *zobrist.Zobrist
	table   *ResultTable

	nodes   int
	aborted bool
}

func NewSolver(catalog *shape.Catalog, nodeLimit int, simulateClears bool, table *ResultTable) *Solver {
	return &Solver{
		nodeLimit:      nodeLimit,
		simulateClears: simulateClears,
		shapes:         catalog.Shapes(),
		counts:         make([]int, catalog.Len()),
		table:          table,
	}
}

// prepare makes sure scratch boards and hash tables fit the given board and
// number of shapes.
func (s *Solver) prepare(b *board.Board, n int) {
	resize := len(s.boards) < n+1 ||
		s.boards[0].Rows() != b.Rows() || s.boards[0].Cols() != b.Cols()
	if resize {
		s.boards = make([]*board.Board, n+1)
		s.anchors = make([][]board.Coord, n+1)
		for i := range s.boards {
			s.boards[i] = board.NewBoard(b.Rows(), b.Cols())
		}
	}
	if s.zobrist == nil || s.zobrist.MaxCount() < n || resize {
		s.zobrist = &zobrist.Zobrist{}
		s.zobrist.Initialize(b.Rows(), b.Cols(), len(s.shapes), n)
		if s.table != nil {
			// Old keys are meaningless under new zobrist tables.
			clear(s.table.table)
		}
	}
}

// Solvable returns true if every shape in pending can be placed on b. A
// search that runs past the node limit counts as unsolvable.
func (s *Solver) Solvable(b *board.Board, pending []*shape.Shape) bool {
	if len(pending) == 0 {
		return true
	}
	s.prepare(b, len(pending))
	clear(s.counts)
	s.ids = s.ids[:0]
	for _, sh := range pending {
		if s.counts[sh.ID] == 0 {
			s.ids = append(s.ids, sh.ID)
		}
		s.counts[sh.ID]++
	}
	s.nodes = 0
	s.aborted = false
	s.boards[0].CopyFrom(b)
	key := s.zobrist.Hash(s.boards[0], s.counts)
	ok := s.solve(0, len(pending), key)
	if s.aborted {
		log.Debug().Int("nodes", s.nodes).Int("pending", len(pending)).Msg("solver-node-limit")
		return false
	}
	return ok
}

// Nodes is the number of positions the last Solvable call visited.
func (s *Solver) Nodes() int {
	return s.nodes
}

func (s *Solver) Aborted() bool {
	return s.aborted
}

func (s *Solver) solve(depth, remaining int, key uint64) bool {
	if remaining == 0 {
		return true
	}
	s.nodes++
	if s.nodes > s.nodeLimit {
		s.aborted = true
		return false
	}
	if s.table != nil {
		if solvable, found := s.table.lookup(key); found {
			return solvable
		}
	}
	cur := s.boards[depth]
	next := s.boards[depth+1]
	result := false
outer:
	// Each distinct pending shape is tried once per level, however many
	// copies of it are pending.
	for _, id := range s.ids {
		ct := s.counts[id]
		if ct == 0 {
			continue
		}
		sh := s.shapes[id]
		s.anchors[depth] = placement.AppendLegalAnchors(s.anchors[depth][:0], cur, sh)
		for _, anchor := range s.anchors[depth] {
			next.CopyFrom(cur)
			next.Fill(anchor, sh.Offsets, board.Filled(1))
			nkey := s.zobrist.TogglePlacement(key, anchor, sh.Offsets)
			nkey = s.zobrist.UseShape(nkey, id, ct)
			if s.simulateClears {
				cr := next.ClearFullLines()
				nkey = s.zobrist.ToggleCells(nkey, cr.Cells)
			}
			s.counts[id]--
			ok := s.solve(depth+1, remaining-1, nkey)
			s.counts[id]++
			if ok {
				result = true
				break outer
			}
			if s.aborted {
				return false
			}
		}
	}
	if s.table != nil {
		s.table.store(key, result)
	}
	return result
}
