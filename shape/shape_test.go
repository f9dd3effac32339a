package shape

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/config"
)

func TestNormalize(t *testing.T) {
	is := is.New(t)
	s, err := NewShape("odd", cells(3, 5, 4, 5, 4, 6), 2, board.Filled(2))
	is.NoErr(err)
	assert.Equal(t, cells(0, 0, 1, 0, 1, 1), s.Offsets)
	h, w := s.Bounds()
	is.Equal(h, 2)
	is.Equal(w, 2)
	is.Equal(s.Picture(), "#.\n##")
}

func TestBadShapes(t *testing.T) {
	is := is.New(t)
	_, err := NewShape("nothing", nil, 1, board.Filled(1))
	is.True(errors.Is(err, ErrEmptyShape))
	_, err = NewShape("dup", cells(0, 0, 1, 1, 0, 0), 1, board.Filled(1))
	is.True(errors.Is(err, ErrDuplicateOffset))
	_, err = NewCatalog(nil)
	is.Equal(err, ErrEmptyCatalog)
}

func TestDefaultCatalog(t *testing.T) {
	is := is.New(t)
	c := MustDefaultCatalog()
	is.Equal(c.Len(), 24)
	is.Equal(c.Minimal().Name, "single")
	is.Equal(c.Minimal().CellCount(), 1)
	for i, s := range c.Shapes() {
		is.Equal(s.ID, i)
		for _, o := range s.Offsets {
			is.True(o.Row >= 0 && o.Col >= 0)
		}
	}
	sq, err := c.ByName("square3")
	is.NoErr(err)
	is.True(sq.IsHard())
	is.Equal(sq.CellCount(), 9)
	_, err = c.ByName("heptomino")
	is.True(errors.Is(err, ErrUnknownShape))
}

func TestBatch(t *testing.T) {
	is := is.New(t)
	c := MustDefaultCatalog()
	b := Batch{
		{Shape: c.Get(0), Color: board.Filled(1)},
		{Shape: c.Get(1), Color: board.Filled(2)},
		{Shape: c.Get(2), Color: board.Filled(3)},
	}
	cp := b.Copy()
	b[1].Used = true
	is.True(!cp[1].Used)
	is.Equal(b.Unused(), []int{0, 2})
	is.Equal(len(b.UnusedShapes()), 2)
	is.True(!b.Exhausted())
	b[0].Used = true
	b[2].Used = true
	is.True(b.Exhausted())
	is.Equal(b.String(), "[-] [-] [-]")
}

func TestCatalogYAMLRoundTrip(t *testing.T) {
	is := is.New(t)
	data, err := MarshalCatalog(MustDefaultCatalog())
	is.NoErr(err)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	is.NoErr(os.WriteFile(path, data, 0644))
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigCatalogPath, path)

	c, err := CatalogFromConfig(cfg)
	is.NoErr(err)
	is.Equal(c.Len(), 24)
	again, err := LoadCatalog(cfg, path)
	is.NoErr(err)
	// Same pointer: the second load came out of the cache.
	is.True(c == again)
	ForgetCatalog(path)
}

func TestParseCatalogErrors(t *testing.T) {
	is := is.New(t)
	_, err := ParseCatalog([]byte("shapes:\n  - name: bad\n    cells: [[0]]\n"))
	is.True(err != nil)
	_, err = ParseCatalog([]byte("shapes: []\n"))
	is.Equal(err, ErrEmptyCatalog)
}
