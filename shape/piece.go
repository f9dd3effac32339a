package shape

import "github.com/domino14/blockglass/board"

// A Piece is a dealt instance of a shape. Pieces share their *Shape.
type Piece struct {
	Shape *Shape
	Color board.Cell
	Used  bool
}

// A Batch is the set of pieces currently offered to the player.
type Batch []Piece

// Exhausted returns true if every piece in the batch has been placed.
func (b Batch) Exhausted() bool {
	for _, p := range b {
		if !p.Used {
			return false
		}
	}
	return true
}

// Unused returns the slot indexes that still hold a placeable piece.
func (b Batch) Unused() []int {
	ret := []int{}
	for i, p := range b {
		if !p.Used {
			ret = append(ret, i)
		}
	}
	return ret
}

// UnusedShapes returns the shapes of the pieces not placed yet, in slot order.
func (b Batch) UnusedShapes() []*Shape {
	ret := []*Shape{}
	for _, p := range b {
		if !p.Used {
			ret = append(ret, p.Shape)
		}
	}
	return ret
}

// Copy is a value copy; shapes are shared since they are immutable.
func (b Batch) Copy() Batch {
	if b == nil {
		return nil
	}
	c := make(Batch, len(b))
	copy(c, b)
	return c
}

// CopyFrom copies o into b without allocating. Lengths must match.
func (b Batch) CopyFrom(o Batch) {
	copy(b, o)
}

func (b Batch) String() string {
	s := ""
	for i, p := range b {
		if i > 0 {
			s += " "
		}
		if p.Used {
			s += "[-]"
		} else {
			s += "[" + p.Shape.Name + "]"
		}
	}
	return s
}
