package game

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/board"
)

// PowerupKind is a closed set; AttemptPowerup dispatches on it.
type PowerupKind int

const (
	PowerupBomb PowerupKind = iota
	PowerupFill
	PowerupReroll
	PowerupUndo
)

var powerupNames = [...]string{"bomb", "fill", "reroll", "undo"}

func (k PowerupKind) String() string {
	if k < 0 || int(k) >= len(powerupNames) {
		return "unknown"
	}
	return powerupNames[k]
}

// ParsePowerupKind accepts the kind names, case-insensitively. "roll" is an
// alias for reroll.
func ParsePowerupKind(s string) (PowerupKind, bool) {
	s = strings.ToLower(s)
	if s == "roll" {
		return PowerupReroll, true
	}
	for i, n := range powerupNames {
		if n == s {
			return PowerupKind(i), true
		}
	}
	return 0, false
}

// Budgets are the remaining uses of each powerup. They only ever go down
// within a session.
type Budgets struct {
	Bomb   int `json:"bomb" yaml:"bomb"`
	Fill   int `json:"fill" yaml:"fill"`
	Reroll int `json:"reroll" yaml:"reroll"`
	Undo   int `json:"undo" yaml:"undo"`
}

func (b Budgets) Get(k PowerupKind) int {
	switch k {
	case PowerupBomb:
		return b.Bomb
	case PowerupFill:
		return b.Fill
	case PowerupReroll:
		return b.Reroll
	case PowerupUndo:
		return b.Undo
	}
	return 0
}

type PowerupResult struct {
	Accepted      bool `json:"accepted" yaml:"accepted"`
	CellsAffected int  `json:"cells_affected" yaml:"cells_affected"`
	LinesCleared  int  `json:"lines_cleared" yaml:"lines_cleared"`
	ScoreDelta    int  `json:"score_delta" yaml:"score_delta"`
	LevelUp       bool `json:"level_up,omitempty" yaml:"level_up,omitempty"`
}

// AttemptPowerup uses one powerup. Bomb and Fill need an anchor on the
// board; Fill's anchor must be empty. Reroll and Undo ignore the anchor.
func (g *Game) AttemptPowerup(kind PowerupKind, anchor *board.Coord) PowerupResult {
	if g.phase == PhaseGameOver {
		log.Debug().Stringer("kind", kind).Msg("powerup-rejected-game-over")
		return PowerupResult{}
	}
	if kind != PowerupUndo && g.budgets.Get(kind) <= 0 {
		log.Debug().Stringer("kind", kind).Msg("powerup-rejected-no-budget")
		return PowerupResult{}
	}
	var res PowerupResult
	switch kind {
	case PowerupBomb:
		res = g.bomb(anchor)
	case PowerupFill:
		res = g.fill(anchor)
	case PowerupReroll:
		res = g.reroll()
	case PowerupUndo:
		res = PowerupResult{Accepted: g.Undo()}
	default:
		log.Debug().Int("kind", int(kind)).Msg("powerup-rejected-unknown")
	}
	if res.Accepted {
		log.Debug().Stringer("kind", kind).Int("cells", res.CellsAffected).
			Int("lines", res.LinesCleared).Str("phase", g.phase.String()).Msg("powerup")
	}
	return res
}

func (g *Game) onBoard(anchor *board.Coord) bool {
	return anchor != nil && g.board.InBounds(anchor.Row, anchor.Col)
}

// bomb empties the diamond around anchor. Lines that happen to be full
// afterwards are cleared but not scored.
func (g *Game) bomb(anchor *board.Coord) PowerupResult {
	if !g.onBoard(anchor) {
		return PowerupResult{}
	}
	g.saveSnapshot()
	removed := g.board.RemoveDiamond(*anchor, g.rules.BombRadius)
	cr := g.board.ClearFullLines()
	g.budgets.Bomb--
	g.evaluatePhase()
	return PowerupResult{
		Accepted:      true,
		CellsAffected: len(removed),
		LinesCleared:  cr.LinesCleared(),
	}
}

// fill drops a single cell of a random color. Clears score the plain clear
// bonus; fill does not take part in combos.
func (g *Game) fill(anchor *board.Coord) PowerupResult {
	if !g.onBoard(anchor) || !g.board.IsEmptyAt(anchor.Row, anchor.Col) {
		return PowerupResult{}
	}
	g.saveSnapshot()
	color := board.Filled(uint8(g.rng.Intn(max(1, g.rules.PaletteSize)) + 1))
	g.board.Set(anchor.Row, anchor.Col, color)
	cr := g.board.ClearFullLines()
	delta := g.clearBonus(cr.LinesCleared(), 1)
	g.linesCleared += cr.LinesCleared()
	levelUp := g.addScore(delta)
	g.budgets.Fill--
	g.evaluatePhase()
	return PowerupResult{
		Accepted:      true,
		CellsAffected: 1,
		LinesCleared:  cr.LinesCleared(),
		ScoreDelta:    delta,
		LevelUp:       levelUp,
	}
}

// reroll replaces every slot with a freshly dealt fair batch.
func (g *Game) reroll() PowerupResult {
	g.saveSnapshot()
	g.dealBatch()
	g.budgets.Reroll--
	g.evaluatePhase()
	return PowerupResult{Accepted: true, CellsAffected: len(g.batch)}
}
