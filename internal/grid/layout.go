package grid

// Layout names the fixed column/row contract of the published fuel sheet.
// Every component takes a Layout instead of hard-coding positions.
type Layout struct {
	HeaderRow       int // row holding the per-date header cells
	ValueColumn     int // site names, anchor labels and dateless settings
	SectionColumn   int // section labels (READINGS, ULLAGE, LOADS, ...)
	ProductColumn   int // product labels (87, 91 total, dsl, ...)
	FirstDateColumn int // first per-date numeric column
}

// DefaultLayout returns the layout of the published sheet: header row 0,
// values in column 1, section labels in 3, products in 4, dates from 6.
func DefaultLayout() Layout {
	return Layout{
		HeaderRow:       0,
		ValueColumn:     1,
		SectionColumn:   3,
		ProductColumn:   4,
		FirstDateColumn: 6,
	}
}
