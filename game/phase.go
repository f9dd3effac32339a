package game

import (
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/placement"
)

type Phase int

const (
	PhasePlaying Phase = iota
	// PhaseStuck means no piece fits but a helper could change that.
	PhaseStuck
	// PhaseRescued is passed through while the one-time rescue runs.
	PhaseRescued
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseStuck:
		return "stuck"
	case PhaseRescued:
		return "rescued"
	case PhaseGameOver:
		return "game-over"
	}
	return "unknown"
}

// ParsePhase is the inverse of String.
func ParsePhase(s string) (Phase, bool) {
	for p := PhasePlaying; p <= PhaseGameOver; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return PhasePlaying, false
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	ph, ok := ParsePhase(string(b))
	if !ok {
		return errUnknownPhase
	}
	*p = ph
	return nil
}

func (g *Game) Phase() Phase {
	return g.phase
}

// HelperAvailable returns true if some powerup could still change the
// board or the batch.
func (g *Game) HelperAvailable() bool {
	b := g.budgets
	switch {
	case b.Bomb > 0 && g.board.FilledCount() > 0:
		return true
	case b.Fill > 0 && g.board.EmptyCount() > 0:
		return true
	case b.Reroll > 0:
		return true
	case b.Undo > 0 && g.stackLen > 0:
		return true
	}
	return false
}

// evaluatePhase runs after every batch mutation.
func (g *Game) evaluatePhase() {
	if g.phase == PhaseGameOver {
		return
	}
	if placement.HasLegalMove(g.board, g.batch) {
		g.phase = PhasePlaying
		return
	}
	if g.HelperAvailable() {
		if g.phase != PhaseStuck {
			log.Debug().Interface("budgets", g.budgets).Msg("stuck")
		}
		g.phase = PhaseStuck
		return
	}
	if g.rules.RescueEnabled && !g.rescueUsed {
		g.rescue()
		return
	}
	g.phase = PhaseGameOver
	log.Debug().Int("score", g.score).Int("lines", g.linesCleared).
		Str("session", g.sessionID).Msg("game-over")
}

// rescue is the one-time reprieve: a bounded random subset of occupied
// cells is emptied, lines are rescanned and a new batch is dealt. It never
// changes the score.
func (g *Game) rescue() {
	g.phase = PhaseRescued
	g.rescueUsed = true
	occupied := g.board.OccupiedCells()
	n := min(g.rules.RescueCells, len(occupied))
	// partial Fisher-Yates: the first n entries are the random subset.
	for i := 0; i < n; i++ {
		j := i + g.rng.Intn(len(occupied)-i)
		occupied[i], occupied[j] = occupied[j], occupied[i]
	}
	for _, c := range occupied[:n] {
		g.board.Set(c.Row, c.Col, board.Empty)
	}
	g.board.ClearFullLines()
	g.dealBatch()
	log.Debug().Int("cleared", n).Int("empty", g.board.EmptyCount()).Msg("rescued")
	g.evaluatePhase()
}
