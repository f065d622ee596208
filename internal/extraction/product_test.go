package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
)

func TestProductClassifierClassify(t *testing.T) {
	c := NewProductClassifier(nil)

	tests := []struct {
		raw       string
		ok        bool
		canonical string
		isTotal   bool
	}{
		{"87 Total", true, "87", true},
		{"87", true, "87", false},
		{"TOTAL 91", true, "91", true},
		{"red 91 total", true, "red 91", true},
		{"DSL", true, "DSL", false},
		{"Racing", true, "Racing", false},
		{"AM READING", false, "", false},
		{"Total", false, "", false},
		{"", false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p, ok := c.Classify(grid.Text(tt.raw))
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.canonical, p.Canonical)
			assert.Equal(t, tt.isTotal, p.IsTotal)
			assert.Equal(t, tt.raw, p.Raw)
		})
	}
}

func TestProductClassifierNumericCell(t *testing.T) {
	p, ok := NewProductClassifier(nil).Classify(grid.Number(87))
	require.True(t, ok)
	assert.Equal(t, "87", p.Canonical)
}

func TestProductClassifierNarrowSet(t *testing.T) {
	c := NewProductClassifier([]string{"87", "91", " DSL "})
	assert.Equal(t, []string{"87", "91", "dsl"}, c.Substrings())

	_, ok := c.Classify(grid.Text("88"))
	assert.False(t, ok)
	_, ok = c.Classify(grid.Text("dsl total"))
	assert.True(t, ok)
}

func TestGroupingWithIsImmutable(t *testing.T) {
	var empty Grouping
	one := empty.With(Product{Raw: "87", Canonical: "87"}, 3)
	two := one.With(Product{Raw: "87", Canonical: "87"}, 4)

	assert.Equal(t, 0, empty.Len())
	g, ok := one.Lookup("87")
	require.True(t, ok)
	assert.Equal(t, []int{3}, g.TankRows)

	g, ok = two.Lookup("87")
	require.True(t, ok)
	assert.Equal(t, []int{3, 4}, g.TankRows)
	assert.False(t, g.HasTotal())
}

func TestGroupProducts(t *testing.T) {
	g := newSheet(8, 5).
		set(0, 4, "91").
		set(1, 4, "87").
		set(2, 4, "87 Total").
		set(3, 4, "87").
		set(4, 4, "notes").
		set(5, 4, "91").
		set(6, 4, "87 total").
		set(7, 4, "dsl").
		grid()

	grouping := GroupProducts(g, Window{Start: 0, End: 7}, 4, NewProductClassifier(nil), nil)
	groups := grouping.Groups()
	require.Len(t, groups, 2)

	assert.Equal(t, "91", groups[0].Product)
	assert.Equal(t, []int{0, 5}, groups[0].TankRows)
	assert.False(t, groups[0].HasTotal())

	assert.Equal(t, "87", groups[1].Product)
	assert.Equal(t, []int{1, 3}, groups[1].TankRows)
	assert.Equal(t, 2, groups[1].TotalRow, "first total wins")

	_, ok := grouping.Lookup("dsl")
	assert.False(t, ok, "row outside the window")
}

func TestGroupProductsKeep(t *testing.T) {
	g := newSheet(3, 5).
		set(0, 4, "87").
		set(1, 4, "87").
		set(2, 4, "87").
		grid()

	grouping := GroupProducts(g, Window{Start: 0, End: 3}, 4, NewProductClassifier(nil), func(row int) bool {
		return row != 1
	})
	pg, ok := grouping.Lookup("87")
	require.True(t, ok)
	assert.Equal(t, []int{0, 2}, pg.TankRows)
}
