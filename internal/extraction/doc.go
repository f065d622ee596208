// Package extraction locates sites and labeled sections inside a fuel sheet
// grid and turns them into long-format records.
//
// # Core Components
//
//   - keywords.go: label keyword sets (disjunction of phrases with exclusions)
//   - scanner.go: the bounded forward-window scanner shared by every section
//   - grammar.go: the declarative section grammar consumed by the scanner
//   - product.go: product/total classification and the product grouping fold
//   - dates.go: header row date indexing
//   - sites.go: site anchor location, name cleaning and the site report
//   - engine.go: per-section extractors and the whole-grid Extract entry point
//
// # Layout
//
// Every component reads positions from a grid.Layout instead of literal
// columns. The published sheet keeps dates in row 0 starting at column 6,
// site names and dateless values in column 1, section labels in column 3
// and product labels in column 4.
//
// # Failure Model
//
// Nothing in this package returns an error. A missing section yields no
// records and is reported as a domain.SectionAbsence, an unparseable cell
// yields a nil value, and a grid without site anchors yields an empty
// dataset.
//
// # Usage Example
//
//	engine := extraction.NewEngine(extraction.DefaultOptions())
//	dataset := engine.Extract(ctx, g)
//	if dataset.Empty() {
//	    // nothing to extract
//	}
package extraction
