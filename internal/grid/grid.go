// Package grid holds the immutable cell matrix the extraction engine reads,
// plus readers that build one from CSV, XLSX or Sheets API values.
package grid

import (
	"fmt"
	"strings"
)

// Grid is a read-only rows × columns matrix of cells with origin (0,0).
// Rows may be ragged; reads outside the stored cells return Empty.
type Grid struct {
	rows  [][]Cell
	width int
}

// New copies rows into a Grid.
func New(rows [][]Cell) *Grid {
	g := &Grid{rows: make([][]Cell, len(rows))}
	for i, row := range rows {
		g.rows[i] = append([]Cell(nil), row...)
		if len(row) > g.width {
			g.width = len(row)
		}
	}
	return g
}

// FromStrings builds a Grid from raw exported text, classifying each cell
// with Parse.
func FromStrings(records [][]string) *Grid {
	rows := make([][]Cell, len(records))
	for i, record := range records {
		row := make([]Cell, len(record))
		for j, raw := range record {
			row[j] = Parse(raw)
		}
		rows[i] = row
	}
	return New(rows)
}

// FromValues builds a Grid from loosely typed values such as those returned
// by the Sheets API.
func FromValues(values [][]interface{}) *Grid {
	rows := make([][]Cell, len(values))
	for i, record := range values {
		row := make([]Cell, len(record))
		for j, v := range record {
			row[j] = cellFromValue(v)
		}
		rows[i] = row
	}
	return New(rows)
}

func cellFromValue(v interface{}) Cell {
	switch val := v.(type) {
	case nil:
		return Empty()
	case string:
		return Parse(val)
	case float64:
		return Number(val)
	case float32:
		return Number(float64(val))
	case int:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case bool:
		if val {
			return Text("TRUE")
		}
		return Text("FALSE")
	default:
		return Parse(fmt.Sprint(val))
	}
}

// Height returns the number of rows.
func (g *Grid) Height() int {
	return len(g.rows)
}

// Width returns the length of the longest row.
func (g *Grid) Width() int {
	return g.width
}

// At returns the cell at (row, col), or Empty when out of range.
func (g *Grid) At(row, col int) Cell {
	if row < 0 || row >= len(g.rows) || col < 0 || col >= len(g.rows[row]) {
		return Empty()
	}
	return g.rows[row][col]
}

// Text returns the trimmed text of the cell at (row, col).
func (g *Grid) Text(row, col int) string {
	return g.At(row, col).String()
}

// Label returns the upper-cased text of the given columns on one row, with
// non-empty parts joined by " | " so words never run across columns.
func (g *Grid) Label(row int, cols ...int) string {
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		if s := g.Text(row, col); s != "" {
			parts = append(parts, strings.ToUpper(s))
		}
	}
	return strings.Join(parts, " | ")
}
