package shape

import (
	"fmt"

	"github.com/domino14/blockglass/board"
)

// A Catalog is an ordered, read-only list of shapes.
type Catalog struct {
	shapes  []*Shape
	byName  map[string]*Shape
	minimal *Shape
}

// NewCatalog assigns shape IDs in order. Shape names must be unique.
func NewCatalog(shapes []*Shape) (*Catalog, error) {
	if len(shapes) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		shapes: make([]*Shape, len(shapes)),
		byName: make(map[string]*Shape, len(shapes)),
	}
	for i, s := range shapes {
		if _, ok := c.byName[s.Name]; ok {
			return nil, fmt.Errorf("duplicate shape name %q", s.Name)
		}
		// Copy so the catalog's IDs never leak into a shared *Shape.
		cp := *s
		cp.ID = i
		c.shapes[i] = &cp
		c.byName[s.Name] = &cp
		if c.minimal == nil || cp.CellCount() < c.minimal.CellCount() {
			c.minimal = &cp
		}
	}
	return c, nil
}

func (c *Catalog) Shapes() []*Shape {
	return c.shapes
}

func (c *Catalog) Len() int {
	return len(c.shapes)
}

func (c *Catalog) Get(id int) *Shape {
	return c.shapes[id]
}

// ByName looks up a shape, or returns ErrUnknownShape.
func (c *Catalog) ByName(name string) (*Shape, error) {
	s, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownShape)
	}
	return s, nil
}

// Minimal returns the shape with the fewest cells, earliest in the catalog
// on ties.
func (c *Catalog) Minimal() *Shape {
	return c.minimal
}

func cells(pairs ...int) []board.Coord {
	ret := make([]board.Coord, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		ret = append(ret, board.Coord{Row: pairs[i], Col: pairs[i+1]})
	}
	return ret
}

func defaultShapes() []*Shape {
	c := board.Filled
	return []*Shape{
		MustShape("single", cells(0, 0), 1, c(1)),
		MustShape("line2-h", cells(0, 0, 0, 1), 2, c(2)),
		MustShape("line2-v", cells(0, 0, 1, 0), 2, c(2)),
		MustShape("line3-h", cells(0, 0, 0, 1, 0, 2), 3, c(3)),
		MustShape("line3-v", cells(0, 0, 1, 0, 2, 0), 3, c(3)),
		MustShape("line4-h", cells(0, 0, 0, 1, 0, 2, 0, 3), 5, c(4)),
		MustShape("line4-v", cells(0, 0, 1, 0, 2, 0, 3, 0), 5, c(4)),
		MustShape("line5-h", cells(0, 0, 0, 1, 0, 2, 0, 3, 0, 4), 7, c(5)),
		MustShape("line5-v", cells(0, 0, 1, 0, 2, 0, 3, 0, 4, 0), 7, c(5)),
		MustShape("square2", cells(0, 0, 0, 1, 1, 0, 1, 1), 3, c(6)),
		MustShape("square3", cells(0, 0, 0, 1, 0, 2, 1, 0, 1, 1, 1, 2, 2, 0, 2, 1, 2, 2), 8, c(7)),
		MustShape("l-0", cells(0, 0, 1, 0, 2, 0, 2, 1), 4, c(1)),
		MustShape("l-90", cells(0, 0, 0, 1, 0, 2, 1, 0), 4, c(1)),
		MustShape("l-180", cells(0, 0, 0, 1, 1, 1, 2, 1), 4, c(1)),
		MustShape("l-270", cells(0, 2, 1, 0, 1, 1, 1, 2), 4, c(1)),
		MustShape("t", cells(0, 0, 0, 1, 0, 2, 1, 1), 5, c(2)),
		MustShape("s", cells(0, 1, 0, 2, 1, 0, 1, 1), 6, c(3)),
		MustShape("z", cells(0, 0, 0, 1, 1, 1, 1, 2), 6, c(4)),
		MustShape("plus", cells(0, 1, 1, 0, 1, 1, 1, 2, 2, 1), 6, c(5)),
		MustShape("corner-0", cells(0, 0, 1, 0, 1, 1), 2, c(6)),
		MustShape("corner-90", cells(0, 0, 0, 1, 1, 0), 2, c(6)),
		MustShape("corner-180", cells(0, 0, 0, 1, 1, 1), 2, c(6)),
		MustShape("corner-270", cells(0, 1, 1, 0, 1, 1), 2, c(6)),
		MustShape("big-l", cells(0, 0, 0, 1, 0, 2, 1, 0, 2, 0), 7, c(7)),
	}
}

// DefaultCatalog builds the built-in 24-shape catalog.
func DefaultCatalog() (*Catalog, error) {
	return NewCatalog(defaultShapes())
}

// MustDefaultCatalog panics if the built-in catalog is malformed, which is a
// programmer error.
func MustDefaultCatalog() *Catalog {
	c, err := DefaultCatalog()
	if err != nil {
		panic(err)
	}
	return c
}
