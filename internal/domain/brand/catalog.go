// internal/domain/brand/catalog.go

package brand

import (
	"errors"
	"fmt"
	"strings"
)

// Group names of the catalog
const (
	GroupIndian = "indian"
	GroupGlobal = "global"
)

var (
	// ErrInvalidCatalog is returned when the catalog cannot be used to drive a cycle
	ErrInvalidCatalog = errors.New("invalid brand catalog")

	// ErrUnknownBrand is returned for a brand that is not tracked
	ErrUnknownBrand = errors.New("unknown brand")
)

// DefaultIndian is the default list of tracked Indian brands
var DefaultIndian = []string{"Myntra", "Fabindia", "W", "AND", "Nykaa Fashion", "Ajio", "Global Desi"}

// DefaultGlobal is the default list of tracked global brands
var DefaultGlobal = []string{"Zara", "H&M", "Nike", "Adidas", "Uniqlo", "Forever 21", "Shein"}

// Catalog is the immutable set of tracked brands, split in two named groups.
// It is built once at startup and shared by reference.
type Catalog struct {
	indian []string
	global []string
	all    []string
	index  map[string]struct{}
}

// NewCatalog builds and validates a catalog
func NewCatalog(indian, global []string) (*Catalog, error) {
	c := &Catalog{
		indian: clean(indian),
		global: clean(global),
		index:  make(map[string]struct{}),
	}

	for _, name := range append(append([]string{}, c.indian...), c.global...) {
		if _, dup := c.index[name]; dup {
			return nil, fmt.Errorf("%w: brand %q listed twice", ErrInvalidCatalog, name)
		}
		c.index[name] = struct{}{}
		c.all = append(c.all, name)
	}

	if len(c.all) == 0 {
		return nil, fmt.Errorf("%w: no brands configured", ErrInvalidCatalog)
	}

	return c, nil
}

// Default returns the catalog tracked by default
func Default() *Catalog {
	c, err := NewCatalog(DefaultIndian, DefaultGlobal)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns every tracked brand, indian group first
func (c *Catalog) All() []string {
	out := make([]string, len(c.all))
	copy(out, c.all)
	return out
}

// Groups returns a copy of the named groups
func (c *Catalog) Groups() map[string][]string {
	return map[string][]string{
		GroupIndian: append([]string{}, c.indian...),
		GroupGlobal: append([]string{}, c.global...),
	}
}

// Contains reports whether the brand is tracked
func (c *Catalog) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Len returns the number of tracked brands
func (c *Catalog) Len() int {
	return len(c.all)
}

func clean(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}
