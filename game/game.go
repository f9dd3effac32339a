// Package game encapsulates the session mechanics of a block puzzle: the
// board, the dealt batch, score and combo, powerup budgets, the bounded
// undo history, and the Playing/Stuck/Rescued/GameOver phase machine.
// A Game is not safe for concurrent use.
package game

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/placement"
	"github.com/domino14/blockglass/shape"
	"github.com/domino14/blockglass/spawner"
)

// Rules are the per-session constants read from the configuration.
type Rules struct {
	Rows, Cols    int
	BatchSize     int
	UndoDepth     int
	RescueEnabled bool
	RescueCells   int
	BombRadius    int
	PointsPerCell int
	PointsPerLine int
	PaletteSize   int
	Budgets       Budgets
	AdventureBase int
	AdventureMult float64
}

func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		Rows:          cfg.GetInt(config.ConfigRows),
		Cols:          cfg.GetInt(config.ConfigCols),
		BatchSize:     cfg.GetInt(config.ConfigBatchSize),
		UndoDepth:     cfg.GetInt(config.ConfigUndoDepth),
		RescueEnabled: cfg.GetBool(config.ConfigRescueEnabled),
		RescueCells:   cfg.GetInt(config.ConfigRescueCells),
		BombRadius:    cfg.GetInt(config.ConfigBombRadius),
		PointsPerCell: cfg.GetInt(config.ConfigPointsPerCell),
		PointsPerLine: cfg.GetInt(config.ConfigPointsPerLine),
		PaletteSize:   cfg.GetInt(config.ConfigPaletteSize),
		Budgets: Budgets{
			Bomb:   cfg.GetInt(config.ConfigBombBudget),
			Fill:   cfg.GetInt(config.ConfigFillBudget),
			Reroll: cfg.GetInt(config.ConfigRerollBudget),
			Undo:   cfg.GetInt(config.ConfigUndoBudget),
		},
		AdventureBase: cfg.GetInt(config.ConfigAdventureBase),
		AdventureMult: cfg.GetFloat64(config.ConfigAdventureMult),
	}
}

// Game is the session structure that controls the business logic of one
// block puzzle game. Bots, shells and network services drive a Game from
// outside of this package.
type Game struct {
	config  *config.Config
	rules   Rules
	catalog *shape.Catalog
	rng     spawner.Randomizer
	spawner *spawner.Spawner

	board *board.Board
	batch shape.Batch

	score         int
	bestScore     int
	linesCleared  int
	combo         int
	scoredInCycle bool
	budgets       Budgets
	phase         Phase
	rescueUsed    bool
	adventure     Adventure

	placements   int
	batchesDealt int
	sessionID    string

	stateStack []*stateBackup
	stackStart int
	stackLen   int
}

// NewGame validates the configuration and starts a session. The catalog and
// the RNG are collaborators owned by the caller; the RNG must not be shared
// with another Game.
func NewGame(cfg *config.Config, catalog *shape.Catalog, rng spawner.Randomizer) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Game{
		config:  cfg,
		rules:   RulesFromConfig(cfg),
		catalog: catalog,
		rng:     rng,
	}
	g.spawner = spawner.NewSpawner(catalog, rng, spawner.ParamsFromConfig(cfg))
	g.board = board.NewBoard(g.rules.Rows, g.rules.Cols)
	g.setStateStackLength(g.rules.UndoDepth)
	g.ResetSession()
	return g, nil
}

// ResetSession starts over: empty board, zero score, full budgets, a fresh
// batch and a new session ID. The best score and the adventure level carry
// over.
func (g *Game) ResetSession() {
	g.board.Clear()
	g.score = 0
	g.linesCleared = 0
	g.combo = 0
	g.scoredInCycle = false
	g.budgets = g.rules.Budgets
	g.rescueUsed = false
	g.placements = 0
	g.batchesDealt = 0
	g.stackLen = 0
	g.stackStart = 0
	g.phase = PhasePlaying
	if g.adventure.Level > 0 {
		g.StartAdventure(g.adventure.Level)
	}
	g.sessionID = uuid.NewString()
	g.dealBatch()
	g.evaluatePhase()
	log.Debug().Str("session", g.sessionID).Msg("new-session")
}

// QueryValidity is the drag-preview check. It is allowed in every phase and
// never mutates anything.
func (g *Game) QueryValidity(anchor board.Coord, slot int) bool {
	p, ok := g.piece(slot)
	if !ok {
		return false
	}
	return placement.CanPlace(g.board, p.Shape, anchor)
}

// CompletableLines returns the lines a placement would clear, for
// highlighting. Nil if the placement is not legal.
func (g *Game) CompletableLines(anchor board.Coord, slot int) []board.LineID {
	p, ok := g.piece(slot)
	if !ok {
		return nil
	}
	return placement.CompletableLines(g.board, p.Shape, anchor)
}

func (g *Game) piece(slot int) (shape.Piece, bool) {
	if slot < 0 || slot >= len(g.batch) || g.batch[slot].Used {
		return shape.Piece{}, false
	}
	return g.batch[slot], true
}

// PlaceResult is returned by AttemptPlace. Reveal lists the cleared cells
// in staged-reveal order, nearest the placement first.
type PlaceResult struct {
	Accepted     bool           `json:"accepted" yaml:"accepted"`
	LinesCleared int            `json:"lines_cleared" yaml:"lines_cleared"`
	ScoreDelta   int            `json:"score_delta" yaml:"score_delta"`
	Lines        []board.LineID `json:"lines,omitempty" yaml:"lines,omitempty"`
	Reveal       []board.Coord  `json:"reveal,omitempty" yaml:"reveal,omitempty"`
	NewBatch     bool           `json:"new_batch" yaml:"new_batch"`
	LevelUp      bool           `json:"level_up,omitempty" yaml:"level_up,omitempty"`
}

// AttemptPlace places the piece in slot at anchor. An illegal request is
// rejected without touching the session.
func (g *Game) AttemptPlace(anchor board.Coord, slot int) PlaceResult {
	if g.phase == PhaseGameOver {
		log.Debug().Msg("place-rejected-game-over")
		return PlaceResult{}
	}
	p, ok := g.piece(slot)
	if !ok {
		log.Debug().Int("slot", slot).Msg("place-rejected-bad-slot")
		return PlaceResult{}
	}
	if !placement.CanPlace(g.board, p.Shape, anchor) {
		log.Debug().Int("slot", slot).Stringer("anchor", anchor).
			Str("shape", p.Shape.Name).Msg("place-rejected-illegal")
		return PlaceResult{}
	}
	g.saveSnapshot()

	cr := placement.Apply(g.board, p.Shape, p.Color, anchor)
	g.batch[slot].Used = true
	g.placements++

	res := PlaceResult{
		Accepted:     true,
		LinesCleared: cr.LinesCleared(),
		Lines:        cr.Lines,
	}
	res.ScoreDelta, res.LevelUp = g.scorePlacement(p.Shape.CellCount(), cr.LinesCleared())
	if cr.LinesCleared() > 0 {
		res.Reveal = cr.RevealOrder(anchor)
	}

	if g.batch.Exhausted() {
		g.endCycle()
		g.dealBatch()
		res.NewBatch = true
	}
	g.evaluatePhase()
	log.Debug().Str("shape", p.Shape.Name).Stringer("anchor", anchor).
		Int("lines", res.LinesCleared).Int("delta", res.ScoreDelta).
		Int("combo", g.combo).Str("phase", g.phase.String()).Msg("placed")
	return res
}

// dealBatch asks the spawner for a fresh batch for every slot.
func (g *Game) dealBatch() {
	g.batch = g.spawner.Generate(g.board, g.rules.BatchSize)
	g.batchesDealt++
	st := g.spawner.LastStats()
	log.Debug().Str("batch", g.batch.String()).
		Str("outcome", st.Outcome.String()).
		Int("attempts", st.Attempts).Msg("dealt")
}

func (g *Game) Board() *board.Board {
	return g.board
}

// Batch returns a copy of the current batch.
func (g *Game) Batch() shape.Batch {
	return g.batch.Copy()
}

func (g *Game) Catalog() *shape.Catalog {
	return g.catalog
}

func (g *Game) Config() *config.Config {
	return g.config
}

func (g *Game) Rules() Rules {
	return g.rules
}

func (g *Game) Score() int {
	return g.score
}

func (g *Game) BestScore() int {
	return g.bestScore
}

// SetBestScore seeds the best score, e.g. from a persisted high score.
func (g *Game) SetBestScore(s int) {
	g.bestScore = max(g.bestScore, s)
}

func (g *Game) LinesCleared() int {
	return g.linesCleared
}

func (g *Game) Combo() int {
	return g.combo
}

func (g *Game) Budgets() Budgets {
	return g.budgets
}

func (g *Game) RescueUsed() bool {
	return g.rescueUsed
}

func (g *Game) Placements() int {
	return g.placements
}

func (g *Game) BatchesDealt() int {
	return g.batchesDealt
}

func (g *Game) SessionID() string {
	return g.sessionID
}

// SpawnStats describes how the current batch was dealt.
func (g *Game) SpawnStats() spawner.Stats {
	return g.spawner.LastStats()
}
