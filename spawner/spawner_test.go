package spawner

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/placement"
	"github.com/domino14/blockglass/shape"
)

var catalog = shape.MustDefaultCatalog()

func testSeed(b byte) [32]byte {
	var seed [32]byte
	for i := range seed {
		seed[i] = b + byte(i)
	}
	return seed
}

func byName(name string) *shape.Shape {
	s, err := catalog.ByName(name)
	if err != nil {
		panic(err)
	}
	return s
}

func randomBoard(rng Randomizer, pct int) *board.Board {
	b := board.NewBoard(8, 8)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if rng.Intn(100) < pct {
				b.Set(r, c, board.Filled(1))
			}
		}
	}
	b.ClearFullLines()
	return b
}

func TestFairness(t *testing.T) {
	is := is.New(t)
	rng := NewSeededRNG(testSeed(1))
	sp := NewSpawner(catalog, rng, DefaultParams())
	for i := 0; i < 300; i++ {
		b := randomBoard(rng, 30+i%65)
		before := b.Copy()
		batch := sp.Generate(b, 3)
		is.Equal(len(batch), 3)
		is.True(b.Equals(before))
		anyFits := false
		for _, s := range catalog.Shapes() {
			if placement.CanFitAnywhere(b, s) {
				anyFits = true
				break
			}
		}
		is.True(placement.HasLegalMove(b, batch) || !anyFits)
		switch sp.LastStats().Outcome {
		case OutcomeVerified:
			is.True(sp.Solver().Solvable(b, batch.UnusedShapes()))
		case OutcomeFallback:
			for _, p := range batch {
				is.True(placement.CanFitAnywhere(b, p.Shape))
			}
		case OutcomeNoFit:
			is.True(!anyFits)
		}
	}
}

func TestSingleEmptyCell(t *testing.T) {
	is := is.New(t)
	sp := NewSpawner(catalog, NewSeededRNG(testSeed(2)), DefaultParams())
	b := board.MustFromPlaintext(board.AlmostFull8)
	batch := sp.Generate(b, 3)
	found := false
	for _, p := range batch {
		if p.Shape == catalog.Minimal() {
			found = true
		}
	}
	is.True(found)
	is.True(placement.HasLegalMove(b, batch))
}

func TestFullBoardDealsMinimal(t *testing.T) {
	is := is.New(t)
	sp := NewSpawner(catalog, NewSeededRNG(testSeed(3)), DefaultParams())
	batch := sp.Generate(board.MustFromPlaintext(board.Full8), 3)
	is.Equal(sp.LastStats().Outcome, OutcomeNoFit)
	for _, p := range batch {
		is.Equal(p.Shape.Name, "single")
		is.True(!p.Used)
	}
}

func TestSolverUsesClears(t *testing.T) {
	is := is.New(t)
	b := board.MustFromPlaintext(board.ClearToWin)
	pending := []*shape.Shape{byName("square3"), byName("line4-h")}

	withClears := NewSolver(catalog, 10000, true, NewResultTable(0.0001))
	is.True(withClears.Solvable(b, pending))

	strict := NewSolver(catalog, 10000, false, nil)
	is.True(!strict.Solvable(b, pending))
	is.True(!strict.Aborted())

	// The search worked on its own copies.
	is.True(b.Equals(board.MustFromPlaintext(board.ClearToWin)))
}

func TestSolverNodeLimit(t *testing.T) {
	is := is.New(t)
	b := board.MustFromPlaintext(board.Checkerboard)
	s := NewSolver(catalog, 1, true, nil)
	pending := []*shape.Shape{byName("single"), byName("single"), byName("single")}
	is.True(!s.Solvable(b, pending))
	is.True(s.Aborted())

	s = NewSolver(catalog, 1000, true, nil)
	is.True(s.Solvable(b, pending))
}

func TestSolverTableHits(t *testing.T) {
	is := is.New(t)
	table := NewResultTable(0.0001)
	s := NewSolver(catalog, 100000, true, table)
	b := board.MustFromPlaintext(board.Checkerboard)
	b.Set(0, 1, board.Filled(1))
	pending := []*shape.Shape{byName("line2-h"), byName("single")}
	first := s.Solvable(b, pending)
	_, lookups, hits, _ := table.Stats()
	is.Equal(hits, uint64(0))
	is.True(lookups > 0)

	is.Equal(s.Solvable(b, pending), first)
	_, _, hits, _ = table.Stats()
	is.True(hits > 0)
	is.Equal(s.Nodes(), 1)
}

func TestSeededDeterminism(t *testing.T) {
	is := is.New(t)
	a := NewSpawner(catalog, NewSeededRNG(testSeed(9)), DefaultParams())
	b := NewSpawner(catalog, NewSeededRNG(testSeed(9)), DefaultParams())
	bd := board.MustFromPlaintext(board.ClearToWin)
	for i := 0; i < 20; i++ {
		ba := a.Generate(bd, 3)
		bb := b.Generate(bd, 3)
		is.Equal(ba.String(), bb.String())
		for j := range ba {
			is.Equal(ba[j].Color, bb[j].Color)
		}
	}
}

func TestHardShapeCap(t *testing.T) {
	is := is.New(t)
	sp := NewSpawner(catalog, NewSeededRNG(testSeed(4)), DefaultParams())
	b := board.NewBoard(8, 8)
	for i := 0; i < 200; i++ {
		batch := sp.Generate(b, 3)
		hard := 0
		for _, p := range batch {
			if p.Shape.IsHard() {
				hard++
			}
			is.True(p.Color >= 1 && p.Color <= 7)
		}
		is.True(hard <= 1)
	}
}

func TestTightBoardPrefersSmall(t *testing.T) {
	is := is.New(t)
	sp := NewSpawner(catalog, NewSeededRNG(testSeed(5)), DefaultParams())
	// 14 empty cells: under the snug threshold, above the tight one.
	b := board.MustFromPlaintext(`
1111111.
1111111.
1111111.
1111111.
1111111.
1111111.
1111....
1111....`)
	small, total := 0, 0
	for i := 0; i < 100; i++ {
		for _, p := range sp.Generate(b, 3) {
			total++
			if p.Shape.CellCount() <= 3 {
				small++
			}
		}
	}
	// The snug bias asks for half; sampling noise stays well above a third.
	is.True(small*3 > total)
}

func TestSeedEncoding(t *testing.T) {
	is := is.New(t)
	seed := testSeed(7)
	got, err := DecodeSeed(EncodeSeed(seed))
	is.NoErr(err)
	is.Equal(got, seed)
	_, err = DecodeSeed("AAAA")
	is.Equal(err, ErrBadSeed)
}

func BenchmarkGenerateSnug(b *testing.B) {
	sp := NewSpawner(catalog, NewSeededRNG(testSeed(6)), DefaultParams())
	bd := board.MustFromPlaintext(board.ClearToWin)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sp.Generate(bd, 3)
	}
}
