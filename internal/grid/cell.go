package grid

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the variant held by a Cell.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is one grid value: Empty, Text or Number. The zero value is Empty.
type Cell struct {
	kind Kind
	text string
	num  float64
}

// Empty returns the empty cell.
func Empty() Cell {
	return Cell{}
}

// Text returns a text cell. Blank text yields Empty.
func Text(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return Cell{}
	}
	return Cell{kind: KindText, text: s}
}

// Number returns a numeric cell. NaN and infinities yield Empty.
func Number(f float64) Cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Cell{}
	}
	return Cell{kind: KindNumber, num: f}
}

// Parse classifies raw exported text: blank is Empty, a plain finite decimal
// is Number, anything else is Text. "12,345" stays Text; Float cleans it.
func Parse(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Cell{}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Cell{kind: KindNumber, num: f}
	}
	return Cell{kind: KindText, text: s}
}

// Kind returns the cell variant.
func (c Cell) Kind() Kind {
	return c.kind
}

// IsEmpty reports whether the cell holds nothing.
func (c Cell) IsEmpty() bool {
	return c.kind == KindEmpty
}

// String renders the cell as label text. Integral numbers print without a
// fractional part so a product code stored as 87 reads "87".
func (c Cell) String() string {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns the numeric value. Text cells go through ParseNumber.
func (c Cell) Float() (float64, bool) {
	switch c.kind {
	case KindNumber:
		return c.num, true
	case KindText:
		return ParseNumber(c.text)
	default:
		return 0, false
	}
}

// FloatPtr is Float as an optional value: nil when the cell is empty or
// does not parse.
func (c Cell) FloatPtr() *float64 {
	f, ok := c.Float()
	if !ok {
		return nil
	}
	return &f
}

// ParseNumber strips thousands separators and surrounding space and parses
// the rest as a decimal. Any failure reports false; it never panics.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
