// Package filter holds the fixed catalog of cosmetic color filters and the
// ffmpeg filter expressions they compile to.
package filter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFilter is returned when an identifier is not in the catalog
var ErrUnknownFilter = errors.New("unknown filter")

// ID identifies a filter in the catalog. The empty ID means no filter.
type ID string

// None is the absence of a filter
const None ID = ""

// Filter is a single catalog entry
type Filter struct {
	ID   ID
	Name string
	// Expr is the ffmpeg -vf expression implementing the filter
	Expr string
}

// CatalogProvider supplies the list of filters a user can choose from
type CatalogProvider interface {
	Filters() []Filter
}

var defaultFilters = []Filter{
	{ID: "sepia", Name: "Sepia", Expr: "colorchannelmixer=.393:.769:.189:0:.349:.686:.168:0:.272:.534:.131"},
	{ID: "mono", Name: "Mono", Expr: "hue=s=0"},
	{ID: "vivid", Name: "Vivid", Expr: "eq=saturation=1.6:contrast=1.1"},
	{ID: "fade", Name: "Fade", Expr: "curves=preset=lighter,eq=saturation=0.6"},
	{ID: "invert", Name: "Invert", Expr: "negate"},
}

// Catalog is an ordered, immutable set of filters
type Catalog struct {
	filters []Filter
	byID    map[ID]Filter
}

// DefaultCatalog returns every built-in filter
func DefaultCatalog() *Catalog {
	return newCatalog(defaultFilters)
}

// Restrict returns a catalog containing only the enabled IDs, in catalog order.
// An empty list keeps every filter.
func (c *Catalog) Restrict(enabled []string) (*Catalog, error) {
	if len(enabled) == 0 {
		return c, nil
	}

	keep := make(map[ID]bool, len(enabled))
	for _, raw := range enabled {
		id := ID(strings.ToLower(strings.TrimSpace(raw)))
		if _, ok := c.byID[id]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, raw)
		}
		keep[id] = true
	}

	var filters []Filter
	for _, f := range c.filters {
		if keep[f.ID] {
			filters = append(filters, f)
		}
	}
	return newCatalog(filters), nil
}

// Lookup returns the filter with the given ID
func (c *Catalog) Lookup(id ID) (Filter, error) {
	f, ok := c.byID[id]
	if !ok {
		return Filter{}, fmt.Errorf("%w: %q", ErrUnknownFilter, string(id))
	}
	return f, nil
}

// Filters implements CatalogProvider
func (c *Catalog) Filters() []Filter {
	out := make([]Filter, len(c.filters))
	copy(out, c.filters)
	return out
}

// IDs returns the filter identifiers in catalog order
func (c *Catalog) IDs() []ID {
	ids := make([]ID, len(c.filters))
	for i, f := range c.filters {
		ids[i] = f.ID
	}
	return ids
}

func newCatalog(filters []Filter) *Catalog {
	c := &Catalog{
		filters: filters,
		byID:    make(map[ID]Filter, len(filters)),
	}
	for _, f := range filters {
		c.byID[f.ID] = f
	}
	return c
}

// Ensure Catalog implements CatalogProvider
var _ CatalogProvider = (*Catalog)(nil)
