package extraction

import (
	"regexp"
	"strings"

	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
)

// DefaultProductSubstrings is the broad relevant-product set. The narrower
// set used by older extractions is {"87", "91", "dsl"}.
var DefaultProductSubstrings = []string{"87", "88", "91", "dsl", "racing", "red"}

var totalPattern = regexp.MustCompile(`(?i)total`)

// Product is the identity of one product label cell.
type Product struct {
	Raw       string
	Canonical string
	IsTotal   bool
}

// ProductClassifier decides which label cells name a relevant product.
type ProductClassifier struct {
	substrings []string
}

// NewProductClassifier returns a classifier for the given substrings. An
// empty set falls back to DefaultProductSubstrings.
func NewProductClassifier(substrings []string) *ProductClassifier {
	if len(substrings) == 0 {
		substrings = DefaultProductSubstrings
	}
	c := &ProductClassifier{substrings: make([]string, 0, len(substrings))}
	for _, s := range substrings {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			c.substrings = append(c.substrings, s)
		}
	}
	return c
}

// Substrings returns the configured relevant substrings, lower-cased.
func (c *ProductClassifier) Substrings() []string {
	return append([]string(nil), c.substrings...)
}

// Classify returns the product named by cell. The second result is false
// for empty cells and labels that contain no relevant substring.
func (c *ProductClassifier) Classify(cell grid.Cell) (Product, bool) {
	raw := cell.String()
	if raw == "" {
		return Product{}, false
	}

	lower := strings.ToLower(raw)
	relevant := false
	for _, s := range c.substrings {
		if strings.Contains(lower, s) {
			relevant = true
			break
		}
	}
	if !relevant {
		return Product{}, false
	}

	p := Product{Raw: raw, Canonical: raw}
	if strings.Contains(lower, "total") {
		p.IsTotal = true
		p.Canonical = strings.TrimSpace(totalPattern.ReplaceAllString(raw, ""))
	}
	if p.Canonical == "" {
		return Product{}, false
	}
	return p, true
}

// ProductGroup collects the rows of one canonical product inside a window.
// TankRows are non-total rows in sheet order; tank n is TankRows[n-1].
type ProductGroup struct {
	Product  string
	TankRows []int
	TotalRow int // -1 when the product has no total row
}

// HasTotal reports whether a total row was seen.
func (p ProductGroup) HasTotal() bool {
	return p.TotalRow >= 0
}

// Grouping is an ordered, immutable product → rows mapping. Products keep
// the order of their first row.
type Grouping struct {
	groups []ProductGroup
}

// Len returns the number of products.
func (g Grouping) Len() int {
	return len(g.groups)
}

// Groups returns a copy of the product groups in first-appearance order.
func (g Grouping) Groups() []ProductGroup {
	out := make([]ProductGroup, len(g.groups))
	for i, pg := range g.groups {
		out[i] = ProductGroup{
			Product:  pg.Product,
			TankRows: append([]int(nil), pg.TankRows...),
			TotalRow: pg.TotalRow,
		}
	}
	return out
}

// Lookup returns the group of a canonical product.
func (g Grouping) Lookup(product string) (ProductGroup, bool) {
	for _, pg := range g.Groups() {
		if pg.Product == product {
			return pg, true
		}
	}
	return ProductGroup{}, false
}

// With returns a new grouping that also holds row for p. The receiver is
// not modified. When a product already has a total row, later totals are
// ignored.
func (g Grouping) With(p Product, row int) Grouping {
	next := Grouping{groups: g.Groups()}
	idx := -1
	for i, pg := range next.groups {
		if pg.Product == p.Canonical {
			idx = i
			break
		}
	}
	if idx < 0 {
		next.groups = append(next.groups, ProductGroup{Product: p.Canonical, TotalRow: -1})
		idx = len(next.groups) - 1
	}

	pg := &next.groups[idx]
	switch {
	case !p.IsTotal:
		pg.TankRows = append(pg.TankRows, row)
	case !pg.HasTotal():
		pg.TotalRow = row
	}
	return next
}

// GroupProducts folds the product column of window w into a Grouping.
// keep, when non-nil, filters rows before classification.
func GroupProducts(g *grid.Grid, w Window, col int, c *ProductClassifier, keep func(row int) bool) Grouping {
	var out Grouping
	for row := w.Start; row < w.End && row < g.Height(); row++ {
		if keep != nil && !keep(row) {
			continue
		}
		p, ok := c.Classify(g.At(row, col))
		if !ok {
			continue
		}
		out = out.With(p, row)
	}
	return out
}
