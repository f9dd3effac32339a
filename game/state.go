package game

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/shape"
)

var (
	ErrDimensionMismatch = errors.New("state does not match the configured board")
	ErrBatchMismatch     = errors.New("state does not match the configured batch size")
	ErrInvalidBudget     = errors.New("state budget is outside the configured range")
	ErrInvalidAdventure  = errors.New("state adventure progress is invalid")
	errUnknownPhase      = errors.New("unknown phase")
)

// PieceState is a serializable dealt piece.
type PieceState struct {
	Shape string `json:"shape" yaml:"shape"`
	Color uint8  `json:"color" yaml:"color"`
	Used  bool   `json:"used" yaml:"used"`
}

// State is a serializable snapshot of a session. Board holds one int per
// cell: 0 for empty, otherwise the color tag.
type State struct {
	SessionID     string       `json:"session_id" yaml:"session_id"`
	Rows          int          `json:"rows" yaml:"rows"`
	Cols          int          `json:"cols" yaml:"cols"`
	Board         [][]int      `json:"board" yaml:"board,flow"`
	Batch         []PieceState `json:"batch" yaml:"batch"`
	Score         int          `json:"score" yaml:"score"`
	BestScore     int          `json:"best_score" yaml:"best_score"`
	LinesCleared  int          `json:"lines_cleared" yaml:"lines_cleared"`
	Combo         int          `json:"combo" yaml:"combo"`
	ScoredInCycle bool         `json:"scored_in_cycle" yaml:"scored_in_cycle"`
	Budgets       Budgets      `json:"budgets" yaml:"budgets"`
	Phase         Phase        `json:"phase" yaml:"phase"`
	RescueUsed    bool         `json:"rescue_used" yaml:"rescue_used"`
	UndoDepth     int          `json:"undo_depth" yaml:"undo_depth"`
	Placements    int          `json:"placements" yaml:"placements"`
	BatchesDealt  int          `json:"batches_dealt" yaml:"batches_dealt"`
	Adventure     *Adventure   `json:"adventure,omitempty" yaml:"adventure,omitempty"`
}

// CurrentState is allowed in every phase.
func (g *Game) CurrentState() State {
	st := State{
		SessionID:     g.sessionID,
		Rows:          g.board.Rows(),
		Cols:          g.board.Cols(),
		Board:         make([][]int, g.board.Rows()),
		Batch:         make([]PieceState, len(g.batch)),
		Score:         g.score,
		BestScore:     g.bestScore,
		LinesCleared:  g.linesCleared,
		Combo:         g.combo,
		ScoredInCycle: g.scoredInCycle,
		Budgets:       g.budgets,
		Phase:         g.phase,
		RescueUsed:    g.rescueUsed,
		UndoDepth:     g.stackLen,
		Placements:    g.placements,
		BatchesDealt:  g.batchesDealt,
	}
	for r := range st.Board {
		st.Board[r] = make([]int, g.board.Cols())
		for c := range st.Board[r] {
			st.Board[r][c] = int(g.board.Get(r, c))
		}
	}
	for i, p := range g.batch {
		st.Batch[i] = PieceState{Shape: p.Shape.Name, Color: p.Color.Color(), Used: p.Used}
	}
	if adv, ok := g.Adventure(); ok {
		st.Adventure = &adv
	}
	return st
}

// Restore replaces the session with st. It refuses a state whose board or
// batch does not match the configuration, whose budgets exceed the
// configured ones, or whose adventure progress is off the level's goal, and
// leaves the session untouched in that case. An empty session ID keeps the
// current one. The undo history is dropped.
func (g *Game) Restore(st State) error {
	if st.Rows != g.rules.Rows || st.Cols != g.rules.Cols || len(st.Board) != g.rules.Rows {
		return fmt.Errorf("got %dx%d, want %dx%d: %w",
			st.Rows, st.Cols, g.rules.Rows, g.rules.Cols, ErrDimensionMismatch)
	}
	if len(st.Batch) != g.rules.BatchSize {
		return fmt.Errorf("got %d pieces, want %d: %w",
			len(st.Batch), g.rules.BatchSize, ErrBatchMismatch)
	}
	for _, k := range []PowerupKind{PowerupBomb, PowerupFill, PowerupReroll, PowerupUndo} {
		if v, limit := st.Budgets.Get(k), g.rules.Budgets.Get(k); v < 0 || v > limit {
			return fmt.Errorf("%s budget %d, want 0 to %d: %w", k, v, limit, ErrInvalidBudget)
		}
	}
	var adv Adventure
	if st.Adventure != nil {
		adv = *st.Adventure
		if adv.Level < 1 {
			return fmt.Errorf("level %d: %w", adv.Level, ErrInvalidAdventure)
		}
		// The goal follows from the level; a client cannot choose it.
		adv.Goal = g.levelGoal(adv.Level)
		if adv.LevelScore < 0 || adv.LevelScore >= adv.Goal {
			return fmt.Errorf("level score %d, goal %d: %w", adv.LevelScore, adv.Goal, ErrInvalidAdventure)
		}
	}
	b := board.NewBoard(g.rules.Rows, g.rules.Cols)
	for r, row := range st.Board {
		if len(row) != g.rules.Cols {
			return fmt.Errorf("row %d has %d cells: %w", r, len(row), ErrDimensionMismatch)
		}
		for c, v := range row {
			if v < 0 || v > board.MaxColor {
				return fmt.Errorf("cell (%d,%d) has value %d", r, c, v)
			}
			b.Set(r, c, board.Cell(v))
		}
	}
	batch := make(shape.Batch, len(st.Batch))
	for i, ps := range st.Batch {
		sh, err := g.catalog.ByName(ps.Shape)
		if err != nil {
			return err
		}
		batch[i] = shape.Piece{Shape: sh, Color: board.Filled(ps.Color), Used: ps.Used}
	}

	g.board.CopyFrom(b)
	g.batch = batch
	if st.SessionID != "" {
		g.sessionID = st.SessionID
	}
	g.score = st.Score
	g.bestScore = max(g.bestScore, st.BestScore, st.Score)
	g.linesCleared = st.LinesCleared
	g.combo = st.Combo
	g.scoredInCycle = st.ScoredInCycle
	g.budgets = st.Budgets
	g.rescueUsed = st.RescueUsed
	g.placements = st.Placements
	g.batchesDealt = st.BatchesDealt
	g.adventure = adv
	g.stackLen = 0
	g.stackStart = 0
	g.phase = st.Phase
	if g.phase == PhaseRescued {
		g.phase = PhasePlaying
	}
	if g.batch.Exhausted() {
		g.endCycle()
		g.dealBatch()
	}
	g.evaluatePhase()
	log.Debug().Str("session", g.sessionID).Str("phase", g.phase.String()).Msg("restored")
	return nil
}
