package extraction

import (
	"io"
	"log/slog"
	"time"

	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
)

// sheet builds sparse test grids row by row.
type sheet struct {
	rows [][]string
}

func newSheet(height, width int) *sheet {
	s := &sheet{rows: make([][]string, height)}
	for i := range s.rows {
		s.rows[i] = make([]string, width)
	}
	return s
}

func (s *sheet) set(row, col int, v string) *sheet {
	s.rows[row][col] = v
	return s
}

func (s *sheet) grid() *grid.Grid {
	return grid.FromStrings(s.rows)
}

var fixtureToday = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return fixtureToday }
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

// siteFixture is one complete site block starting at row 1 with two dates.
func siteFixture() *grid.Grid {
	s := newSheet(27, 8)
	s.set(0, 6, "Sep-01-25").set(0, 7, "Sep-02-25")
	s.set(1, 1, "1a OLD Morongo")

	s.set(2, 1, "INV. SETTING")
	s.set(3, 1, "8,000").set(3, 4, "87")
	s.set(4, 1, "6000").set(4, 4, "87")
	s.set(5, 1, "14000").set(5, 4, "87 Total")
	s.set(6, 1, "5000").set(6, 4, "dsl total")

	s.set(7, 1, "TANK SIZE")
	s.set(8, 1, "10,000").set(8, 4, "87")
	s.set(9, 1, "10000").set(9, 4, "87")
	s.set(10, 1, "20000").set(10, 4, "87 total")
	s.set(11, 1, "12000").set(11, 4, "91")
	s.set(12, 1, "0").set(12, 4, "dsl")

	s.set(13, 3, "READINGS")
	s.set(14, 4, "87").set(14, 6, "1,234")
	s.set(15, 4, "87").set(15, 6, "2000").set(15, 7, "abc")
	s.set(16, 4, "91").set(16, 6, "500").set(16, 7, "600")

	s.set(17, 3, "ULLAGE").set(17, 4, "87").set(17, 6, "10")
	s.set(18, 3, "LOADS").set(18, 4, "87").set(18, 7, "8,500")
	s.set(19, 4, "91")

	s.set(20, 1, "SALES (actual)").set(20, 4, "87").set(20, 6, "300").set(20, 7, "310")
	s.set(21, 4, "87 total").set(21, 6, "600")
	s.set(22, 4, "AM READING")

	s.set(23, 3, "7 DAY AVG").set(23, 4, "87").set(23, 6, "250")
	s.set(24, 4, "91").set(24, 6, "40")
	s.set(25, 3, "NOTES")
	return s.grid()
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(f float64) *float64 {
	return &f
}
