package extraction

import (
	"strings"
	"time"

	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// HeaderDateLayout is the header cell format, e.g. "Sep-01-25".
const HeaderDateLayout = "Jan-2-06"

// DateRange is an inclusive civil date range. Zero bounds are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls inside r.
func (r DateRange) Contains(d time.Time) bool {
	d = civilDate(d)
	if !r.From.IsZero() && d.Before(civilDate(r.From)) {
		return false
	}
	if !r.To.IsZero() && d.After(civilDate(r.To)) {
		return false
	}
	return true
}

// ParseHeaderDate parses an abbreviated-month header such as "Sep-01-25".
// The month name is matched case-insensitively.
func ParseHeaderDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return time.Time{}, false
	}
	s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:3]) + s[3:]
	t, err := time.Parse(HeaderDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IndexDates reads the header row from the first date column to the grid
// width and returns every parseable date not after today and inside r, in
// column order. Unparseable cells are skipped.
func IndexDates(g *grid.Grid, l grid.Layout, today time.Time, r DateRange) []domain.DateColumn {
	limit := civilDate(today)
	var out []domain.DateColumn
	for col := l.FirstDateColumn; col < g.Width(); col++ {
		cell := g.At(l.HeaderRow, col)
		if cell.IsEmpty() {
			continue
		}
		d, ok := ParseHeaderDate(cell.String())
		if !ok || d.After(limit) || !r.Contains(d) {
			continue
		}
		out = append(out, domain.DateColumn{Column: col, Date: d})
	}
	return out
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
