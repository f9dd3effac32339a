package shape

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/cache"
	"github.com/domino14/blockglass/config"
)

const catalogCachePrefix = "catalog:"

type shapeDef struct {
	Name       string  `yaml:"name"`
	Difficulty int     `yaml:"difficulty"`
	Color      uint8   `yaml:"color"`
	Cells      [][]int `yaml:"cells"`
}

type catalogFile struct {
	Shapes []shapeDef `yaml:"shapes"`
}

// ParseCatalog reads a YAML catalog:
//
//	shapes:
//	  - name: corner
//	    difficulty: 2
//	    color: 3
//	    cells: [[0, 0], [1, 0], [1, 1]]
func ParseCatalog(data []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	shapes := make([]*Shape, 0, len(cf.Shapes))
	for i, d := range cf.Shapes {
		offsets := make([]board.Coord, 0, len(d.Cells))
		for _, pair := range d.Cells {
			if len(pair) != 2 {
				return nil, fmt.Errorf("shape %d (%s): cell %v is not a row/col pair", i, d.Name, pair)
			}
			offsets = append(offsets, board.Coord{Row: pair[0], Col: pair[1]})
		}
		s, err := NewShape(d.Name, offsets, d.Difficulty, board.Filled(d.Color))
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, s)
	}
	return NewCatalog(shapes)
}

// MarshalCatalog is the inverse of ParseCatalog.
func MarshalCatalog(c *Catalog) ([]byte, error) {
	cf := catalogFile{Shapes: make([]shapeDef, 0, c.Len())}
	for _, s := range c.Shapes() {
		d := shapeDef{Name: s.Name, Difficulty: s.Difficulty, Color: s.Color.Color()}
		for _, o := range s.Offsets {
			d.Cells = append(d.Cells, []int{o.Row, o.Col})
		}
		cf.Shapes = append(cf.Shapes, d)
	}
	return yaml.Marshal(cf)
}

func catalogLoadFunc(cfg *config.Config, key string) (any, error) {
	path := strings.TrimPrefix(key, catalogCachePrefix)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Str("path", path).Int("shapes", c.Len()).Msg("loaded-catalog")
	return c, nil
}

// LoadCatalog loads a YAML catalog file through the global object cache.
func LoadCatalog(cfg *config.Config, path string) (*Catalog, error) {
	obj, err := cache.Load(cfg, catalogCachePrefix+path, catalogLoadFunc)
	if err != nil {
		return nil, err
	}
	return obj.(*Catalog), nil
}

// ForgetCatalog drops a cached catalog file.
func ForgetCatalog(path string) {
	cache.Evict(catalogCachePrefix + path)
}

// CatalogFromConfig returns the catalog at catalog-path, or the built-in
// catalog if the path is empty.
func CatalogFromConfig(cfg *config.Config) (*Catalog, error) {
	path := cfg.GetString(config.ConfigCatalogPath)
	if path == "" {
		return DefaultCatalog()
	}
	return LoadCatalog(cfg, path)
}
