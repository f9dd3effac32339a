// Package zobrist hashes a board occupancy together with a multiset of
// shapes still to be placed, so that the spawner's solver can remember
// positions it has already decided.
package zobrist

import (
	"lukechampine.com/frand"

	"github.com/domino14/blockglass/board"
)

const bignum = 1<<63 - 2

// keySeed fixes the key tables, so that memo collisions (and the searches
// they cut short) are the same in every process.
var keySeed = [32]byte{'b', 'l', 'o', 'c', 'k', 'g', 'l', 'a', 's', 's'}

// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	posTable   []uint64
	shapeTable [][]uint64

	rows, cols int
	maxCount   int
}

// Initialize builds the key tables. numShapes is the catalog size, maxCount
// the largest number of copies of one shape that can be pending at once
// (the batch size).
func (z *Zobrist) Initialize(rows, cols, numShapes, maxCount int) {
	z.rows, z.cols = rows, cols
	z.maxCount = maxCount
	rng := frand.NewCustom(keySeed[:], 1024, 12)
	z.posTable = make([]uint64, rows*cols)
	for i := range z.posTable {
		z.posTable[i] = rng.Uint64n(bignum) + 1
	}
	z.shapeTable = make([][]uint64, numShapes)
	for i := range z.shapeTable {
		// index 0 is "none pending" and stays 0 so that absent shapes
		// contribute nothing.
		z.shapeTable[i] = make([]uint64, maxCount+1)
		for j := 1; j <= maxCount; j++ {
			z.shapeTable[i][j] = rng.Uint64n(bignum) + 1
		}
	}
}

func (z *Zobrist) Dims() (int, int) {
	return z.rows, z.cols
}

func (z *Zobrist) NumShapes() int {
	return len(z.shapeTable)
}

func (z *Zobrist) MaxCount() int {
	return z.maxCount
}

// Hash hashes the occupancy of b (colors are ignored) and the pending shape
// counts, indexed by shape ID.
func (z *Zobrist) Hash(b *board.Board, counts []int) uint64 {
	key := uint64(0)
	for i := 0; i < b.NumCells(); i++ {
		if !b.GetIdx(i).IsEmpty() {
			key ^= z.posTable[i]
		}
	}
	for id, ct := range counts {
		key ^= z.shapeTable[id][ct]
	}
	return key
}

// TogglePlacement flips the occupancy bits of the given cells.
func (z *Zobrist) TogglePlacement(key uint64, anchor board.Coord, offsets []board.Coord) uint64 {
	for _, o := range offsets {
		key ^= z.posTable[(anchor.Row+o.Row)*z.cols+anchor.Col+o.Col]
	}
	return key
}

// ToggleCells flips the occupancy bits of cleared (or restored) cells.
func (z *Zobrist) ToggleCells(key uint64, cells []board.Coord) uint64 {
	for _, c := range cells {
		key ^= z.posTable[c.Row*z.cols+c.Col]
	}
	return key
}

// UseShape moves shape id from count pending copies to count-1.
func (z *Zobrist) UseShape(key uint64, id, count int) uint64 {
	key ^= z.shapeTable[id][count]
	key ^= z.shapeTable[id][count-1]
	return key
}
