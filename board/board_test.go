package board

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
)

func TestFromPlaintextRoundTrip(t *testing.T) {
	is := is.New(t)
	b := MustFromPlaintext(Full8)
	is.True(b.IsFull())
	is.Equal(b.Rows(), 8)
	is.Equal(b.Cols(), 8)
	is.Equal(b.Get(0, 1).Color(), uint8(2))

	c, err := FromPlaintext(b.ToPlaintext())
	is.NoErr(err)
	is.True(b.Equals(c))
}

func TestFromPlaintextRagged(t *testing.T) {
	is := is.New(t)
	_, err := FromPlaintext([]string{"...", ".."})
	is.True(err != nil)
	_, err = FromPlaintext([]string{"", "  "})
	is.Equal(err, ErrBadDimensions)
}

func TestSetKeepsCount(t *testing.T) {
	is := is.New(t)
	b := NewBoard(4, 5)
	is.Equal(b.NumCells(), 20)
	b.Set(1, 1, Filled(3))
	b.Set(1, 1, Filled(4))
	is.Equal(b.FilledCount(), 1)
	b.Set(1, 1, Empty)
	is.Equal(b.FilledCount(), 0)
	is.True(b.IsEmpty())
	is.True(!b.IsEmptyAt(-1, 0))
	is.True(!b.IsEmptyAt(4, 0))
}

func TestClearAtomicityTwoRowsOneCol(t *testing.T) {
	is := is.New(t)
	b := MustFromPlaintext(TwoRowsOneCol)
	offsets := []Coord{{0, 0}, {1, 0}}

	preview := b.LinesCompletedBy(Coord{6, 7}, offsets)
	is.Equal(len(preview), 3)

	res := b.ApplyAndClear(Coord{6, 7}, offsets, Filled(2))
	is.Equal(res.LinesCleared(), 3)
	is.Equal(res.RowsCleared(), 2)
	is.Equal(res.ColumnsCleared(), 1)
	assert.Equal(t, []LineID{{RowLine, 6}, {RowLine, 7}, {ColumnLine, 7}}, res.Lines)
	// 16 row cells + 8 column cells, minus the two intersections.
	is.Equal(len(res.Cells), 22)
	is.True(b.IsEmpty())
}

func TestSingleEmptyCell(t *testing.T) {
	is := is.New(t)
	b := MustFromPlaintext(AlmostFull8)
	is.Equal(b.EmptyCount(), 1)
	res := b.ApplyAndClear(Coord{3, 4}, []Coord{{0, 0}}, Filled(1))
	is.Equal(res.LinesCleared(), 2)
	is.Equal(len(res.Cells), 15)
	is.Equal(b.FilledCount(), 64-15)
}

func TestNoClearWithoutFullLine(t *testing.T) {
	is := is.New(t)
	b := MustFromPlaintext(Checkerboard)
	res := b.ClearFullLines()
	is.Equal(res.LinesCleared(), 0)
	is.Equal(b.FilledCount(), 32)
}

func TestBombDiamond(t *testing.T) {
	is := is.New(t)
	b := MustFromPlaintext(Full8)
	removed := b.RemoveDiamond(Coord{4, 4}, 2)
	is.Equal(len(removed), 13)
	is.Equal(b.FilledCount(), 64-13)
	for _, c := range removed {
		d := abs(c.Row-4) + abs(c.Col-4)
		is.True(d <= 2)
		is.True(b.Get(c.Row, c.Col).IsEmpty())
	}
	// Only occupied cells are reported the second time around.
	is.Equal(len(b.RemoveDiamond(Coord{4, 4}, 2)), 0)
	// Footprint is clipped at the edges.
	is.Equal(len(b.DiamondFootprint(Coord{0, 0}, 2)), 6)
}

func TestRevealOrder(t *testing.T) {
	is := is.New(t)
	b := MustFromPlaintext(AlmostFull8)
	res := b.ApplyAndClear(Coord{3, 4}, []Coord{{0, 0}}, Filled(1))
	order := res.RevealOrder(Coord{3, 4})
	is.Equal(len(order), len(res.Cells))
	is.Equal(order[0], Coord{3, 4})
	assert.ElementsMatch(t, []Coord{{2, 4}, {3, 3}, {3, 5}, {4, 4}}, order[1:5])
	is.Equal(order[1], Coord{2, 4})
}

func TestCopyFromDoesNotAlias(t *testing.T) {
	is := is.New(t)
	b := MustFromPlaintext(Checkerboard)
	c := NewBoard(8, 8)
	c.CopyFrom(b)
	c.Set(0, 1, Filled(5))
	is.True(b.Get(0, 1).IsEmpty())
	is.True(!b.Equals(c))
	is.Equal(c.FilledCount(), 33)

	m, err := FromMatrix(b.Matrix())
	is.NoErr(err)
	is.True(m.Equals(b))
	is.True(m.SameOccupancy(b))
}

func BenchmarkClearFullLines(b *testing.B) {
	board := MustFromPlaintext(TwoRowsOneCol)
	scratch := NewBoard(8, 8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scratch.CopyFrom(board)
		scratch.ApplyAndClear(Coord{6, 7}, []Coord{{0, 0}, {1, 0}}, Filled(1))
	}
}
