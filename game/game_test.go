package game

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/placement"
	"github.com/domino14/blockglass/shape"
	"github.com/domino14/blockglass/spawner"
)

var catalog = shape.MustDefaultCatalog()

func seed(b byte) [32]byte {
	var s [32]byte
	for i := range s {
		s[i] = b ^ byte(i*7)
	}
	return s
}

func newTestGame(t *testing.T, cfg *config.Config) *Game {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	g, err := NewGame(cfg, catalog, spawner.NewSeededRNG(seed(1)))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// stateWith returns the current state of g with the board and batch
// replaced.
func stateWith(g *Game, desc string, shapes ...string) State {
	st := g.CurrentState()
	b := board.MustFromPlaintext(desc)
	for r := range st.Board {
		for c := range st.Board[r] {
			st.Board[r][c] = int(b.Get(r, c))
		}
	}
	st.Batch = nil
	for _, s := range shapes {
		st.Batch = append(st.Batch, PieceState{Shape: s, Color: 2})
	}
	return st
}

const empty8 = `
........
........
........
........
........
........
........
........`

func TestNewGame(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	is.Equal(len(g.Batch()), 3)
	is.Equal(g.Phase(), PhasePlaying)
	is.True(g.Board().IsEmpty())
	is.Equal(g.Budgets(), Budgets{Bomb: 2, Fill: 2, Reroll: 2, Undo: 2})
	is.True(g.SessionID() != "")
	is.Equal(g.UndoDepth(), 0)
}

func TestNewGameBadConfig(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigBatchSize, 0)
	_, err := NewGame(cfg, catalog, spawner.NewSeededRNG(seed(1)))
	is.True(errors.Is(err, config.ErrInvalidConfig))
}

func TestScenario1x4(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	is.NoErr(g.Restore(stateWith(g, empty8, "line4-h", "line4-h", "single")))

	res := g.AttemptPlace(board.Coord{Row: 0, Col: 0}, 0)
	is.True(res.Accepted)
	is.Equal(res.LinesCleared, 0)
	is.Equal(res.ScoreDelta, 12)

	res = g.AttemptPlace(board.Coord{Row: 0, Col: 4}, 1)
	is.True(res.Accepted)
	is.Equal(res.LinesCleared, 1)
	is.Equal(res.ScoreDelta, 12+100)
	is.True(g.Board().IsEmpty())
	is.Equal(g.Combo(), 1)
	is.Equal(g.LinesCleared(), 1)
	is.Equal(len(res.Reveal), 8)
	is.Equal(res.Reveal[0], board.Coord{Row: 0, Col: 4})
}

func TestClearAtomicityScore(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	is.NoErr(g.Restore(stateWith(g, board.TwoRowsOneCol, "line2-v", "single", "single")))

	lines := g.CompletableLines(board.Coord{Row: 6, Col: 7}, 0)
	is.Equal(len(lines), 3)

	res := g.AttemptPlace(board.Coord{Row: 6, Col: 7}, 0)
	is.True(res.Accepted)
	is.Equal(res.LinesCleared, 3)
	// 2 cells, then 3 lines * 100 * 3 * combo 1.
	is.Equal(res.ScoreDelta, 6+900)
	is.Equal(g.Score(), 906)
	is.Equal(g.BestScore(), 906)
	is.True(g.Board().IsEmpty())
}

func TestRejectedPlacementChangesNothing(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	is.NoErr(g.Restore(stateWith(g, board.Checkerboard, "line2-h", "single", "single")))
	before := g.CurrentState()

	is.True(!g.QueryValidity(board.Coord{Row: 0, Col: 1}, 0))
	is.True(!g.AttemptPlace(board.Coord{Row: 0, Col: 1}, 0).Accepted)
	is.True(!g.AttemptPlace(board.Coord{Row: 0, Col: 0}, 1).Accepted)
	is.True(!g.AttemptPlace(board.Coord{Row: 0, Col: 1}, 7).Accepted)
	is.True(!g.AttemptPlace(board.Coord{Row: 9, Col: 9}, 1).Accepted)
	assert.Equal(t, before, g.CurrentState())
}

func TestComboDecay(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	st := stateWith(g, empty8, "single", "single", "single")
	st.Combo = 2
	is.NoErr(g.Restore(st))

	g.AttemptPlace(board.Coord{Row: 0, Col: 0}, 0)
	g.AttemptPlace(board.Coord{Row: 2, Col: 2}, 1)
	is.Equal(g.Combo(), 2)
	res := g.AttemptPlace(board.Coord{Row: 4, Col: 4}, 2)
	is.True(res.NewBatch)
	is.Equal(g.Combo(), 0)
}

func TestComboSurvivesScoringCycle(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	st := stateWith(g, `
1111111.
........
........
........
........
........
........
........`, "single", "single", "single")
	st.Combo = 1
	is.NoErr(g.Restore(st))

	res := g.AttemptPlace(board.Coord{Row: 0, Col: 7}, 0)
	is.Equal(res.LinesCleared, 1)
	is.Equal(g.Combo(), 2)
	is.Equal(res.ScoreDelta, 3+100*2)

	g.AttemptPlace(board.Coord{Row: 5, Col: 5}, 1)
	is.Equal(g.Combo(), 2)
	g.AttemptPlace(board.Coord{Row: 6, Col: 6}, 2)
	is.Equal(g.Combo(), 2)
}

func TestUndoRoundTrip(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	is.NoErr(g.Restore(stateWith(g, board.TwoRowsOneCol, "line2-v", "single", "single")))

	g.AttemptPlace(board.Coord{Row: 6, Col: 7}, 0)
	mid := g.CurrentState()
	g.AttemptPlace(board.Coord{Row: 0, Col: 0}, 1)
	res := g.AttemptPlace(board.Coord{Row: 0, Col: 1}, 2)
	is.True(res.NewBatch)
	is.Equal(g.UndoDepth(), 3)

	is.True(g.Undo())
	is.True(g.Undo())
	is.True(!g.Undo()) // the budget of 2 is gone
	is.Equal(g.UndoDepth(), 1)

	got := g.CurrentState()
	is.Equal(got.Budgets.Undo, 0)
	is.Equal(got.BestScore, 906+6)
	// Budgets and the best score are not part of a snapshot.
	got.Budgets = mid.Budgets
	got.BestScore = mid.BestScore
	assert.Equal(t, mid, got)
}

func TestUndoRestoresPreviousBatch(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	is.NoErr(g.Restore(stateWith(g, empty8, "single", "line2-h", "square2")))
	g.AttemptPlace(board.Coord{Row: 0, Col: 0}, 0)
	g.AttemptPlace(board.Coord{Row: 2, Col: 0}, 1)
	res := g.AttemptPlace(board.Coord{Row: 4, Col: 0}, 2)
	is.True(res.NewBatch)
	is.Equal(g.BatchesDealt(), 2)

	is.True(g.Undo())
	b := g.Batch()
	is.Equal(b[2].Shape.Name, "square2")
	is.True(!b[2].Used)
	is.True(b[0].Used && b[1].Used)
	is.Equal(g.Board().FilledCount(), 3)
	is.Equal(g.Score(), 9)
	is.Equal(g.BatchesDealt(), 1)
}

func TestBoundedUndo(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigUndoBudget, 10)
	cfg.Set(config.ConfigUndoDepth, 5)
	g := newTestGame(t, cfg)

	scores := []int{}
	for i := 0; i < 7; i++ {
		placed := false
		for _, slot := range g.batch.Unused() {
			anchor, ok := placement.FirstFit(g.Board(), g.batch[slot].Shape)
			if ok {
				is.True(g.AttemptPlace(anchor, slot).Accepted)
				placed = true
				break
			}
		}
		is.True(placed)
		scores = append(scores, g.Score())
	}
	is.Equal(g.UndoDepth(), 5)
	for i := 0; i < 5; i++ {
		is.True(g.Undo())
	}
	is.True(!g.Undo())
	// The first two snapshots were dropped; we are back after placement 2.
	is.Equal(g.Score(), scores[1])
	is.Equal(g.Placements(), 2)
	is.Equal(g.Budgets().Undo, 5)
}

func TestBombScenario(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	is.NoErr(g.Restore(stateWith(g, board.Full8, "single", "single", "single")))
	is.Equal(g.Phase(), PhaseStuck)

	res := g.AttemptPowerup(PowerupBomb, &board.Coord{Row: 4, Col: 4})
	is.True(res.Accepted)
	is.Equal(res.CellsAffected, 13)
	// Rows 0, 1, 7 and columns 0, 1, 7 were untouched and full.
	is.Equal(res.LinesCleared, 6)
	is.Equal(res.ScoreDelta, 0)
	is.Equal(g.Score(), 0)
	is.Equal(g.Budgets().Bomb, 1)
	is.Equal(g.Phase(), PhasePlaying)
	is.True(g.Board().IsEmptyAt(4, 4))
	is.True(g.Board().IsEmptyAt(2, 4))
	is.True(!g.Board().IsEmptyAt(2, 3))
}

func TestBombNeedsAnchor(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	is.True(!g.AttemptPowerup(PowerupBomb, nil).Accepted)
	is.True(!g.AttemptPowerup(PowerupBomb, &board.Coord{Row: 8, Col: 0}).Accepted)
	is.Equal(g.Budgets().Bomb, 2)
	is.Equal(g.UndoDepth(), 0)
}

func TestFillScoresWithoutCombo(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	st := stateWith(g, board.AlmostFull8, "single", "single", "single")
	st.Combo = 3
	is.NoErr(g.Restore(st))

	is.True(!g.AttemptPowerup(PowerupFill, &board.Coord{Row: 0, Col: 0}).Accepted)
	res := g.AttemptPowerup(PowerupFill, &board.Coord{Row: 3, Col: 4})
	is.True(res.Accepted)
	is.Equal(res.LinesCleared, 2)
	is.Equal(res.ScoreDelta, 2*100*2)
	is.Equal(g.Combo(), 3)
	is.Equal(g.Budgets().Fill, 1)
	is.Equal(g.LinesCleared(), 2)
}

func TestReroll(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	dealt := g.BatchesDealt()
	res := g.AttemptPowerup(PowerupReroll, nil)
	is.True(res.Accepted)
	is.Equal(g.BatchesDealt(), dealt+1)
	is.Equal(g.Budgets().Reroll, 1)
	is.True(g.AttemptPowerup(PowerupReroll, nil).Accepted)
	is.True(!g.AttemptPowerup(PowerupReroll, nil).Accepted)
	// Undo through the powerup interface as well.
	is.True(g.AttemptPowerup(PowerupUndo, nil).Accepted)
	is.Equal(g.Budgets().Reroll, 0)
}

func TestStuckThenHelper(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	st := stateWith(g, board.Checkerboard, "square2", "square2", "square2")
	st.Budgets = Budgets{Bomb: 1}
	is.NoErr(g.Restore(st))
	is.Equal(g.Phase(), PhaseStuck)
	is.True(g.HelperAvailable())

	res := g.AttemptPowerup(PowerupBomb, &board.Coord{Row: 3, Col: 3})
	is.True(res.Accepted)
	is.Equal(g.Phase(), PhasePlaying)
	is.True(!g.RescueUsed())
}

func TestRescueThenGameOver(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	st := stateWith(g, board.Checkerboard, "square2", "square2", "square2")
	st.Budgets = Budgets{}
	st.Score = 50
	is.NoErr(g.Restore(st))

	is.True(g.RescueUsed())
	is.True(g.Phase() != PhaseGameOver)
	is.Equal(g.Board().FilledCount(), 32-16)
	is.Equal(g.Score(), 50)
	is.True(placement.HasLegalMove(g.Board(), g.Batch()))

	st = stateWith(g, board.Checkerboard, "square2", "square2", "square2")
	st.Budgets = Budgets{}
	st.RescueUsed = true
	is.NoErr(g.Restore(st))
	is.Equal(g.Phase(), PhaseGameOver)

	// Game over rejects everything but queries and reset.
	is.True(!g.AttemptPlace(board.Coord{Row: 0, Col: 1}, 0).Accepted)
	is.True(!g.AttemptPowerup(PowerupReroll, nil).Accepted)
	is.True(!g.Undo())
	is.True(!g.QueryValidity(board.Coord{Row: 0, Col: 1}, 0))
	is.Equal(g.CurrentState().Phase, PhaseGameOver)

	g.ResetSession()
	is.Equal(g.Phase(), PhasePlaying)
	is.True(!g.RescueUsed())
	is.Equal(g.Score(), 0)
}

func TestRescueDisabled(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigRescueEnabled, false)
	g := newTestGame(t, cfg)
	st := stateWith(g, board.Checkerboard, "square2", "square2", "square2")
	st.Budgets = Budgets{}
	is.NoErr(g.Restore(st))
	is.Equal(g.Phase(), PhaseGameOver)
	is.True(!g.RescueUsed())
}

func TestRestoreMismatch(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	before := g.CurrentState()

	st := g.CurrentState()
	st.Rows = 9
	is.True(errors.Is(g.Restore(st), ErrDimensionMismatch))

	st = g.CurrentState()
	st.Board[3] = st.Board[3][:5]
	is.True(errors.Is(g.Restore(st), ErrDimensionMismatch))

	st = g.CurrentState()
	st.Batch = st.Batch[:2]
	is.True(errors.Is(g.Restore(st), ErrBatchMismatch))

	st = g.CurrentState()
	st.Batch[0].Shape = "heptomino"
	is.True(errors.Is(g.Restore(st), shape.ErrUnknownShape))

	assert.Equal(t, before, g.CurrentState())
}

func TestStateJSON(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	is.NoErr(g.Restore(stateWith(g, board.TwoRowsOneCol, "line2-v", "single", "single")))
	bts, err := json.Marshal(g.CurrentState())
	is.NoErr(err)

	var st State
	is.NoErr(json.Unmarshal(bts, &st))
	is.Equal(st.Phase, PhasePlaying)

	g2 := newTestGame(t, nil)
	is.NoErr(g2.Restore(st))
	assert.Equal(t, g.CurrentState(), g2.CurrentState())
	is.True(g2.Board().Equals(g.Board()))
}

func TestSeededSessionsMatch(t *testing.T) {
	is := is.New(t)
	a := newTestGame(t, nil)
	b := newTestGame(t, nil)
	for i := 0; i < 10; i++ {
		is.Equal(a.Batch().String(), b.Batch().String())
		a.AttemptPowerup(PowerupReroll, nil)
		b.AttemptPowerup(PowerupReroll, nil)
	}
}

func TestParsePowerupKind(t *testing.T) {
	is := is.New(t)
	k, ok := ParsePowerupKind("Roll")
	is.True(ok)
	is.Equal(k, PowerupReroll)
	_, ok = ParsePowerupKind("nuke")
	is.True(!ok)
	is.Equal(PowerupFill.String(), "fill")
}

func spend(b Budgets, k PowerupKind) Budgets {
	switch k {
	case PowerupBomb:
		b.Bomb--
	case PowerupFill:
		b.Fill--
	case PowerupReroll:
		b.Reroll--
	}
	b.Undo--
	return b
}

func TestUndoAfterPowerup(t *testing.T) {
	for _, tc := range []struct {
		kind   PowerupKind
		anchor *board.Coord
	}{
		{PowerupBomb, &board.Coord{Row: 4, Col: 4}},
		{PowerupFill, &board.Coord{Row: 3, Col: 4}},
		{PowerupReroll, nil},
	} {
		t.Run(tc.kind.String(), func(t *testing.T) {
			is := is.New(t)
			g := newTestGame(t, nil)
			st := stateWith(g, board.AlmostFull8, "single", "line2-h", "square2")
			st.Score = 120
			st.Combo = 2
			is.NoErr(g.Restore(st))
			before := g.CurrentState()

			res := g.AttemptPowerup(tc.kind, tc.anchor)
			is.True(res.Accepted)
			is.Equal(g.UndoDepth(), 1)

			is.True(g.Undo())
			got := g.CurrentState()
			is.Equal(got.Budgets, spend(before.Budgets, tc.kind))
			// The best score only ever goes up; budgets are not restored.
			got.BestScore = before.BestScore
			got.Budgets = before.Budgets
			assert.Equal(t, before, got)
		})
	}
}

func TestRestoreRejectsBudgets(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	before := g.CurrentState()

	st := g.CurrentState()
	st.Budgets = Budgets{Bomb: 99, Fill: 2, Reroll: 2, Undo: 99}
	is.True(errors.Is(g.Restore(st), ErrInvalidBudget))

	st = g.CurrentState()
	st.Budgets.Fill = -1
	is.True(errors.Is(g.Restore(st), ErrInvalidBudget))
	assert.Equal(t, before, g.CurrentState())

	st = g.CurrentState()
	st.Budgets = Budgets{Bomb: 2, Reroll: 1}
	is.NoErr(g.Restore(st))
	is.Equal(g.Budgets(), Budgets{Bomb: 2, Reroll: 1})
}

func TestRestoreKeepsSessionID(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	id := g.SessionID()
	st := g.CurrentState()
	st.SessionID = ""
	is.NoErr(g.Restore(st))
	is.Equal(g.SessionID(), id)
}

func TestLevelGoal(t *testing.T) {
	is := is.New(t)
	for _, tc := range []struct {
		level, goal int
	}{
		{1, 500},
		{2, 750},
		{3, 1125},
		{4, 1688},
		{5, 2531},
	} {
		is.Equal(LevelGoal(500, 1.5, tc.level), tc.goal)
	}
}

func TestAdventureLevelUp(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	_, ok := g.Adventure()
	is.True(!ok)
	is.True(g.CurrentState().Adventure == nil)

	g.StartAdventure(1)
	st := stateWith(g, empty8, "single", "single", "single")
	st.Adventure.LevelScore = 497
	is.NoErr(g.Restore(st))

	res := g.AttemptPlace(board.Coord{Row: 0, Col: 0}, 0)
	is.True(res.Accepted)
	is.True(res.LevelUp)
	adv, ok := g.Adventure()
	is.True(ok)
	is.Equal(adv, Adventure{Level: 2, Goal: 750})

	res = g.AttemptPlace(board.Coord{Row: 0, Col: 1}, 1)
	is.True(!res.LevelUp)
	adv, _ = g.Adventure()
	is.Equal(adv.LevelScore, 3)

	// Undo walks the level back with the score.
	is.True(g.Undo())
	is.True(g.Undo())
	adv, _ = g.Adventure()
	is.Equal(adv, Adventure{Level: 1, LevelScore: 497, Goal: 500})

	g.AttemptPlace(board.Coord{Row: 0, Col: 0}, 0)
	g.ResetSession()
	adv, ok = g.Adventure()
	is.True(ok)
	is.Equal(adv, Adventure{Level: 2, Goal: 750})
	is.Equal(g.CurrentState().Adventure.Level, 2)
}

func TestRestoreAdventure(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, nil)
	g.StartAdventure(3)

	st := g.CurrentState()
	st.Adventure.Goal = 7
	st.Adventure.LevelScore = 1000
	is.NoErr(g.Restore(st))
	adv, _ := g.Adventure()
	is.Equal(adv, Adventure{Level: 3, LevelScore: 1000, Goal: 1125})

	st = g.CurrentState()
	st.Adventure.LevelScore = 1125
	is.True(errors.Is(g.Restore(st), ErrInvalidAdventure))

	st = g.CurrentState()
	st.Adventure.Level = 0
	is.True(errors.Is(g.Restore(st), ErrInvalidAdventure))

	st = g.CurrentState()
	st.Adventure = nil
	is.NoErr(g.Restore(st))
	_, ok := g.Adventure()
	is.True(!ok)
}
