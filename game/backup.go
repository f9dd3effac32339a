package game

import (
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/shape"
)

// stateBackup is a subset of Game, meant only for undo purposes. Budgets,
// the rescue flag and the best score are never part of it.
type stateBackup struct {
	board         *board.Board
	batch         shape.Batch
	score         int
	linesCleared  int
	combo         int
	scoredInCycle bool
	placements    int
	batchesDealt  int
	adventure     Adventure
}

// setStateStackLength preallocates every snapshot so that saving one does
// not allocate.
func (g *Game) setStateStackLength(length int) {
	g.stateStack = make([]*stateBackup, length)
	for idx := range g.stateStack {
		g.stateStack[idx] = &stateBackup{
			board: board.NewBoard(g.rules.Rows, g.rules.Cols),
			batch: make(shape.Batch, g.rules.BatchSize),
		}
	}
	g.stackStart = 0
	g.stackLen = 0
}

// saveSnapshot must be called before any undoable mutation. When the stack
// is full the oldest snapshot is overwritten.
func (g *Game) saveSnapshot() {
	depth := len(g.stateStack)
	if depth == 0 {
		return
	}
	var idx int
	if g.stackLen < depth {
		idx = (g.stackStart + g.stackLen) % depth
		g.stackLen++
	} else {
		idx = g.stackStart
		g.stackStart = (g.stackStart + 1) % depth
	}
	st := g.stateStack[idx]
	st.board.CopyFrom(g.board)
	if len(st.batch) != len(g.batch) {
		st.batch = make(shape.Batch, len(g.batch))
	}
	st.batch.CopyFrom(g.batch)
	st.score = g.score
	st.linesCleared = g.linesCleared
	st.combo = g.combo
	st.scoredInCycle = g.scoredInCycle
	st.placements = g.placements
	st.batchesDealt = g.batchesDealt
	st.adventure = g.adventure
}

// UndoDepth is the number of snapshots that could be restored.
func (g *Game) UndoDepth() int {
	return g.stackLen
}

// Undo pops the most recent snapshot and restores it wholesale, consuming
// one undo from the budget. It returns false, changing nothing, if there is
// nothing to undo, no budget, or the game is over.
func (g *Game) Undo() bool {
	if g.phase == PhaseGameOver || g.stackLen == 0 || g.budgets.Undo <= 0 {
		log.Debug().Int("depth", g.stackLen).Int("budget", g.budgets.Undo).Msg("undo-rejected")
		return false
	}
	idx := (g.stackStart + g.stackLen - 1) % len(g.stateStack)
	g.stackLen--
	st := g.stateStack[idx]

	g.board.CopyFrom(st.board)
	g.batch = st.batch.Copy()
	g.score = st.score
	g.linesCleared = st.linesCleared
	g.combo = st.combo
	g.scoredInCycle = st.scoredInCycle
	g.placements = st.placements
	g.batchesDealt = st.batchesDealt
	g.adventure = st.adventure
	g.budgets.Undo--
	g.evaluatePhase()
	log.Debug().Int("depth", g.stackLen).Int("score", g.score).Msg("undone")
	return true
}
