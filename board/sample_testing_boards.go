package board

// This file contains some sample filled boards, used solely for testing.

const (
	// AlmostFull8 has exactly one empty cell, at (3,4).
	AlmostFull8 = `
11111111
22222222
33333333
4444.444
55555555
66666666
77777777
11111111`

	// TwoRowsOneCol is one vertical domino away from clearing two rows and
	// a column at once: filling (6,7) and (7,7) completes rows 6 and 7 and
	// column 7.
	TwoRowsOneCol = `
.......1
.......1
.......1
.......1
.......1
.......1
1111111.
1111111.`

	// Checkerboard leaves no two orthogonally adjacent empty cells.
	Checkerboard = `
1.1.1.1.
.1.1.1.1
1.1.1.1.
.1.1.1.1
1.1.1.1.
.1.1.1.1
1.1.1.1.
.1.1.1.1`

	// ClearToWin has a 1x4 gap at the end of row 0 and a 2x3 hole below the
	// start of row 0. A 3x3 square only fits once row 0 has been cleared by
	// a horizontal line of four. The holes in the last two rows keep
	// columns 4-7 from clearing along with it.
	ClearToWin = `
1111....
...11111
...11111
11111111
11111111
11111111
1111.1.1
11111.1.`

	// Full8 has every cell filled.
	Full8 = `
12345671
23456712
34567123
45671234
56712345
67123456
71234567
12345671`
)
