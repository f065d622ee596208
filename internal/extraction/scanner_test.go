package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
)

func TestScannerFind(t *testing.T) {
	g := newSheet(8, 5).
		set(2, 3, "READINGS").
		set(5, 3, "READINGS").
		grid()
	s := NewScanner(g)
	probe := Probe{Clauses: []Clause{In(AnyOf("READINGS"), 3)}, Bound: 10}

	row, ok := s.Find(0, probe)
	require.True(t, ok)
	assert.Equal(t, 2, row, "first match wins")

	row, ok = s.Find(3, probe)
	require.True(t, ok)
	assert.Equal(t, 5, row, "never looks backward")

	probe.Skip = 1
	row, ok = s.Find(2, probe)
	require.True(t, ok)
	assert.Equal(t, 5, row, "skip excludes the origin row")

	short := Probe{Clauses: probe.Clauses, Bound: 2}
	_, ok = s.Find(0, short)
	assert.False(t, ok, "match beyond bound is ignored")
	_, ok = s.Find(1, short)
	assert.True(t, ok)

	_, ok = s.Find(7, Probe{Clauses: probe.Clauses, Bound: 100})
	assert.False(t, ok, "search stops at the end of the grid")
}

func TestScannerWindowDefaultLength(t *testing.T) {
	g := newSheet(5, 5).set(1, 3, "READINGS").grid()
	rule := DefaultGrammar(grid.DefaultLayout(), nil).Readings

	w, ok := NewScanner(g).Window(0, rule)
	require.True(t, ok)
	assert.Equal(t, 2, w.Start)
	assert.Equal(t, rule.DefaultLength, w.Len())
}

func TestScannerWindowStopMatch(t *testing.T) {
	g := newSheet(10, 5).
		set(1, 3, "READINGS").
		set(5, 3, "NOTES").
		grid()
	rule := DefaultGrammar(grid.DefaultLayout(), nil).Readings

	w, ok := NewScanner(g).Window(0, rule)
	require.True(t, ok)
	assert.Equal(t, Window{Start: 2, End: 5}, w)
}

func TestScannerWindowAbsent(t *testing.T) {
	g := newSheet(30, 5).set(25, 3, "READINGS").grid()
	rule := DefaultGrammar(grid.DefaultLayout(), nil).Readings

	_, ok := NewScanner(g).Window(0, rule)
	assert.False(t, ok, "label past the start bound is absent")
}

func TestScannerWindowAfterMarker(t *testing.T) {
	rule := DefaultGrammar(grid.DefaultLayout(), nil).Loads

	t.Run("loads above ullage are ignored", func(t *testing.T) {
		g := newSheet(12, 5).
			set(1, 3, "LOADS").
			set(3, 3, "ULLAGE").
			set(5, 3, "LOADS").
			set(8, 3, "NOTES").
			grid()
		w, ok := NewScanner(g).Window(0, rule)
		require.True(t, ok)
		assert.Equal(t, Window{Start: 5, End: 8}, w)
	})

	t.Run("no ullage means no loads", func(t *testing.T) {
		g := newSheet(12, 5).set(5, 3, "LOADS").grid()
		_, ok := NewScanner(g).Window(0, rule)
		assert.False(t, ok)
	})

	t.Run("value column stop", func(t *testing.T) {
		g := newSheet(12, 5).
			set(2, 3, "ULLAGE").
			set(3, 3, "LOADS").
			set(6, 1, "CARRIER").
			grid()
		w, ok := NewScanner(g).Window(0, rule)
		require.True(t, ok)
		assert.Equal(t, Window{Start: 3, End: 6}, w)
	})
}

func TestWindowLen(t *testing.T) {
	assert.Equal(t, 3, Window{Start: 2, End: 5}.Len())
	assert.Equal(t, 0, Window{Start: 5, End: 2}.Len())
}
