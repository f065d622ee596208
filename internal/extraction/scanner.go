package extraction

import (
	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// Clause matches keywords against the joined text of one or more columns.
type Clause struct {
	Columns  []int
	Keywords Keywords
}

// In builds a clause for the given columns.
func In(kw Keywords, cols ...int) Clause {
	return Clause{Columns: cols, Keywords: kw}
}

// Probe is one bounded forward search. Rows origin+Skip through
// origin+Bound-1 are examined in order; a row matches when any clause does.
type Probe struct {
	Clauses []Clause
	Skip    int
	Bound   int
}

// Rule describes how to find one section relative to a site anchor.
type Rule struct {
	Section domain.SectionType

	// After, when set, is searched first from the anchor and Start is then
	// searched from the row it matched. No After match means no section.
	After *Probe

	Start Probe

	// DataOffset is added to the start label row to get the first data row
	// (0 when data shares the label row, 1 when it begins below).
	DataOffset int

	// Stop is searched from the first data row. Its match is the exclusive
	// window end.
	Stop Probe

	// DefaultLength is the window length used when Stop finds nothing.
	DefaultLength int
}

// Window is a half-open row range [Start, End).
type Window struct {
	Start int
	End   int
}

// Len returns the number of rows in the window.
func (w Window) Len() int {
	if w.End < w.Start {
		return 0
	}
	return w.End - w.Start
}

// Scanner runs probes and rules over one grid.
type Scanner struct {
	grid *grid.Grid
}

// NewScanner returns a scanner over g.
func NewScanner(g *grid.Grid) *Scanner {
	return &Scanner{grid: g}
}

// Matches reports whether any clause of p matches row.
func (s *Scanner) Matches(row int, p Probe) bool {
	for _, c := range p.Clauses {
		if c.Keywords.Match(s.grid.Label(row, c.Columns...)) {
			return true
		}
	}
	return false
}

// Find returns the first row at or after origin+p.Skip and before
// origin+p.Bound that matches p. The search stops at the end of the grid.
func (s *Scanner) Find(origin int, p Probe) (int, bool) {
	for offset := p.Skip; offset < p.Bound; offset++ {
		row := origin + offset
		if row < 0 {
			continue
		}
		if row >= s.grid.Height() {
			break
		}
		if s.Matches(row, p) {
			return row, true
		}
	}
	return 0, false
}

// Window resolves r for the site anchored at anchor. The second result is
// false when the section's start label is not found.
func (s *Scanner) Window(anchor int, r Rule) (Window, bool) {
	origin := anchor
	if r.After != nil {
		row, ok := s.Find(anchor, *r.After)
		if !ok {
			return Window{}, false
		}
		origin = row
	}

	label, ok := s.Find(origin, r.Start)
	if !ok {
		return Window{}, false
	}

	start := label + r.DataOffset
	if end, ok := s.Find(start, r.Stop); ok {
		return Window{Start: start, End: end}, true
	}
	return Window{Start: start, End: start + r.DefaultLength}, true
}
