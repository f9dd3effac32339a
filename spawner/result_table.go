package spawner

import (
	"math"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const (
	resultUnsolvable = 0x01
	resultSolvable   = 0x02
)

const entrySize = 16

// Solver positions are small; a quarter million slots covers many batches
// on a full session without evicting much.
const (
	minTablePowerOf2 = 12
	maxTablePowerOf2 = 18
)

type tableEntry struct {
	key    uint64
	result uint8
}

func (t tableEntry) valid() bool {
	return t.result != 0
}

// A ResultTable remembers whether a (board occupancy, pending shapes)
// position could be fully placed. Entries are overwritten on collision of
// their low bits; a full key mismatch is a miss.
type ResultTable struct {
	table    []tableEntry
	sizeMask uint64

	created      uint64
	lookups      uint64
	hits         uint64
	t2collisions uint64
}

// NewResultTable sizes the table from a fraction of system memory, clamped
// to a range that makes sense for one session.
func NewResultTable(fractionOfMemory float64) *ResultTable {
	t := &ResultTable{}
	t.Reset(fractionOfMemory)
	return t
}

func (t *ResultTable) Reset(fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	sizePowerOf2 := minTablePowerOf2
	if desiredNElems > 1 {
		sizePowerOf2 = int(math.Log2(desiredNElems))
	}
	sizePowerOf2 = max(minTablePowerOf2, min(maxTablePowerOf2, sizePowerOf2))
	numElems := 1 << sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		clear(t.table)
	} else {
		t.table = make([]tableEntry, numElems)
	}
	log.Debug().Int("num-elems", numElems).
		Float64("desired-num-elems", desiredNElems).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("result-table-size")
	t.created, t.lookups, t.hits, t.t2collisions = 0, 0, 0, 0
}

// lookup returns (solvable, found).
func (t *ResultTable) lookup(key uint64) (bool, bool) {
	t.lookups++
	e := t.table[key&t.sizeMask]
	if e.key != key {
		if e.valid() {
			t.t2collisions++
		}
		return false, false
	}
	if !e.valid() {
		return false, false
	}
	t.hits++
	return e.result == resultSolvable, true
}

func (t *ResultTable) store(key uint64, solvable bool) {
	r := uint8(resultUnsolvable)
	if solvable {
		r = resultSolvable
	}
	t.table[key&t.sizeMask] = tableEntry{key: key, result: r}
	t.created++
}

func (t *ResultTable) Size() int {
	return len(t.table)
}

// Stats returns created, lookups, hits and low-bit collisions.
func (t *ResultTable) Stats() (uint64, uint64, uint64, uint64) {
	return t.created, t.lookups, t.hits, t.t2collisions
}
