// Package spawner deals new batches of pieces. A batch is only dealt
// unverified when the solver could not certify one in time, and even then
// every piece fits somewhere on the board.
package spawner

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/placement"
	"github.com/domino14/blockglass/shape"
)

// Outcome says how the last batch was produced.
type Outcome int

const (
	OutcomeVerified Outcome = iota
	OutcomeFallback
	OutcomeNoFit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeFallback:
		return "fallback"
	case OutcomeNoFit:
		return "no-fit"
	}
	return "unknown"
}

// Stats describe the last Generate call.
type Stats struct {
	Outcome     Outcome
	Attempts    int
	SolverNodes int
	FittingPool int
	SmallPool   int
}

type Spawner struct {
	catalog *shape.Catalog
	rng     Randomizer
	params  Params
	solver  *Solver

	last Stats
}

func NewSpawner(catalog *shape.Catalog, rng Randomizer, params Params) *Spawner {
	return &Spawner{
		catalog: catalog,
		rng:     rng,
		params:  params,
		solver: NewSolver(catalog, params.NodeLimit, params.SimulateClears,
			NewResultTable(params.MemoryFraction)),
	}
}

func (s *Spawner) Catalog() *shape.Catalog {
	return s.catalog
}

func (s *Spawner) Params() Params {
	return s.params
}

func (s *Spawner) LastStats() Stats {
	return s.last
}

// Solver exposes the joint-solvability checker, mostly for tests and bots.
func (s *Spawner) Solver() *Solver {
	return s.solver
}

// Generate deals n pieces for b. It never mutates b.
func (s *Spawner) Generate(b *board.Board, n int) shape.Batch {
	s.last = Stats{}
	fitting := lo.Filter(s.catalog.Shapes(), func(sh *shape.Shape, _ int) bool {
		return placement.CanFitAnywhere(b, sh)
	})
	if len(fitting) == 0 {
		s.last.Outcome = OutcomeNoFit
		log.Debug().Int("empty", b.EmptyCount()).Msg("no-shape-fits")
		return s.minimalBatch(n)
	}
	small := lo.Filter(fitting, func(sh *shape.Shape, _ int) bool {
		return sh.CellCount() <= s.params.SmallShapeMaxCells
	})
	large := lo.Filter(fitting, func(sh *shape.Shape, _ int) bool {
		return sh.CellCount() > s.params.SmallShapeMaxCells
	})
	s.last.FittingPool = len(fitting)
	s.last.SmallPool = len(small)
	bias := s.params.smallBias(b.EmptyCount())

	picks := make([]*shape.Shape, n)
	for attempt := 1; attempt <= s.params.Attempts; attempt++ {
		s.last.Attempts = attempt
		s.sample(picks, fitting, small, large, bias)
		ok := s.solver.Solvable(b, picks)
		s.last.SolverNodes += s.solver.Nodes()
		if ok {
			s.last.Outcome = OutcomeVerified
			log.Debug().Int("attempts", attempt).
				Int("empty", b.EmptyCount()).
				Float64("bias", bias).
				Msg("batch-verified")
			return s.deal(picks)
		}
	}

	s.last.Outcome = OutcomeFallback
	pool := small
	if len(pool) == 0 {
		pool = fitting
	}
	for i := range picks {
		picks[i] = pool[s.rng.Intn(len(pool))]
	}
	minimal := s.catalog.Minimal()
	if s.params.tight(b.EmptyCount()) && placement.CanFitAnywhere(b, minimal) {
		picks[0] = minimal
	}
	log.Debug().Int("attempts", s.last.Attempts).
		Int("empty", b.EmptyCount()).
		Int("pool", len(pool)).
		Msg("batch-fallback")
	return s.deal(picks)
}

// sample fills picks from the fitting pool. With probability bias a pick
// comes from the small pool, otherwise from the large pool. At most
// MaxHardPerBatch hard shapes are picked while a non-hard shape is
// available.
func (s *Spawner) sample(picks []*shape.Shape, fitting, small, large []*shape.Shape, bias float64) {
	hard := 0
	for i := range picks {
		pool := fitting
		if bias > 0 && len(small) > 0 && len(large) > 0 {
			if chance(s.rng, bias) {
				pool = small
			} else {
				pool = large
			}
		}
		if hard >= s.params.MaxHardPerBatch {
			easier := lo.Reject(pool, func(sh *shape.Shape, _ int) bool {
				return s.isHard(sh)
			})
			if len(easier) == 0 {
				easier = lo.Reject(fitting, func(sh *shape.Shape, _ int) bool {
					return s.isHard(sh)
				})
			}
			if len(easier) > 0 {
				pool = easier
			}
		}
		picks[i] = pool[s.rng.Intn(len(pool))]
		if s.isHard(picks[i]) {
			hard++
		}
	}
}

func (s *Spawner) isHard(sh *shape.Shape) bool {
	return sh.Difficulty >= s.params.HardDifficulty
}

func (s *Spawner) deal(picks []*shape.Shape) shape.Batch {
	batch := make(shape.Batch, len(picks))
	for i, sh := range picks {
		batch[i] = shape.Piece{Shape: sh, Color: s.color()}
	}
	return batch
}

func (s *Spawner) minimalBatch(n int) shape.Batch {
	picks := make([]*shape.Shape, n)
	for i := range picks {
		picks[i] = s.catalog.Minimal()
	}
	return s.deal(picks)
}

func (s *Spawner) color() board.Cell {
	palette := max(1, s.params.PaletteSize)
	return board.Filled(uint8(s.rng.Intn(palette) + 1))
}
