package automatic

import (
	"github.com/samber/lo"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/game"
	"github.com/domino14/blockglass/placement"
)

const (
	lineWeight = 10.0
	holeWeight = 3.0
)

// ActionKind is what the player decided to do on its turn.
type ActionKind int

const (
	ActionPlace ActionKind = iota
	ActionPowerup
	ActionNone
)

// Action is one decision. Anchor is meaningless for ActionNone and for
// powerups that do not target a cell.
type Action struct {
	Kind    ActionKind
	Slot    int
	Anchor  board.Coord
	Powerup game.PowerupKind
	Eval    float64
}

// GreedyPlayer evaluates every legal placement of every unused piece one
// ply deep, and reaches for powerups only when stuck.
type GreedyPlayer struct {
	scratch *board.Board
	anchors []board.Coord
}

func NewGreedyPlayer() *GreedyPlayer {
	return &GreedyPlayer{}
}

// holes counts empty cells with no empty orthogonal neighbor. They can
// only ever be filled by the single-cell shape.
func holes(b *board.Board) int {
	n := 0
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			if !b.IsEmptyAt(r, c) {
				continue
			}
			if !b.IsEmptyAt(r-1, c) && !b.IsEmptyAt(r+1, c) &&
				!b.IsEmptyAt(r, c-1) && !b.IsEmptyAt(r, c+1) {
				n++
			}
		}
	}
	return n
}

// BestPlacement returns the highest-evaluated placement, or false if no
// unused piece fits.
func (p *GreedyPlayer) BestPlacement(g *game.Game) (Action, bool) {
	b := g.Board()
	if p.scratch == nil || p.scratch.Rows() != b.Rows() || p.scratch.Cols() != b.Cols() {
		p.scratch = board.NewBoard(b.Rows(), b.Cols())
	}
	var moves []Action
	for slot, piece := range g.Batch() {
		if piece.Used {
			continue
		}
		p.anchors = placement.AppendLegalAnchors(p.anchors[:0], b, piece.Shape)
		for _, a := range p.anchors {
			p.scratch.CopyFrom(b)
			cr := placement.Apply(p.scratch, piece.Shape, piece.Color, a)
			eval := float64(cr.LinesCleared())*lineWeight +
				float64(piece.Shape.CellCount()) -
				float64(holes(p.scratch))*holeWeight
			moves = append(moves, Action{Kind: ActionPlace, Slot: slot, Anchor: a, Eval: eval})
		}
	}
	if len(moves) == 0 {
		return Action{Kind: ActionNone}, false
	}
	return lo.MaxBy(moves, func(a, b Action) bool { return a.Eval > b.Eval }), true
}

// bombTarget is the cell whose diamond removes the most occupied cells.
func bombTarget(b *board.Board, radius int) board.Coord {
	occupied := b.OccupiedCells()
	return lo.MaxBy(occupied, func(x, y board.Coord) bool {
		return countFilled(b, b.DiamondFootprint(x, radius)) >
			countFilled(b, b.DiamondFootprint(y, radius))
	})
}

func countFilled(b *board.Board, cells []board.Coord) int {
	return lo.CountBy(cells, func(c board.Coord) bool { return !b.IsEmptyAt(c.Row, c.Col) })
}

// fillTarget is the empty cell that completes the most lines.
func fillTarget(b *board.Board) board.Coord {
	single := []board.Coord{{}}
	return lo.MaxBy(b.EmptyCells(), func(x, y board.Coord) bool {
		return len(b.LinesCompletedBy(x, single)) > len(b.LinesCompletedBy(y, single))
	})
}

// ChooseAction picks the next thing to do. Powerups are tried in the
// order bomb, reroll, fill, undo.
func (p *GreedyPlayer) ChooseAction(g *game.Game) Action {
	switch g.Phase() {
	case game.PhaseGameOver:
		return Action{Kind: ActionNone}
	case game.PhaseStuck:
		return p.rescueAction(g)
	}
	if a, ok := p.BestPlacement(g); ok {
		return a
	}
	return p.rescueAction(g)
}

func (p *GreedyPlayer) rescueAction(g *game.Game) Action {
	b := g.Board()
	budgets := g.Budgets()
	switch {
	case budgets.Bomb > 0 && b.FilledCount() > 0:
		return Action{Kind: ActionPowerup, Powerup: game.PowerupBomb,
			Anchor: bombTarget(b, g.Rules().BombRadius)}
	case budgets.Reroll > 0:
		return Action{Kind: ActionPowerup, Powerup: game.PowerupReroll}
	case budgets.Fill > 0 && b.EmptyCount() > 0:
		return Action{Kind: ActionPowerup, Powerup: game.PowerupFill, Anchor: fillTarget(b)}
	case budgets.Undo > 0 && g.UndoDepth() > 0:
		return Action{Kind: ActionPowerup, Powerup: game.PowerupUndo}
	}
	return Action{Kind: ActionNone}
}
