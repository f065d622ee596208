package extraction

import (
	"fmt"

	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// DefaultRollingWindows are the rolling-average lengths, in days, looked up
// when none are configured.
var DefaultRollingWindows = []int{7, 30}

// RollingRule is the grammar entry of one rolling-average variant.
type RollingRule struct {
	Days int
	Rule
}

// Grammar maps every section type to the rule the scanner resolves.
type Grammar struct {
	Readings        Rule
	Loads           Rule
	TankSizes       Rule
	InvSettings     Rule
	SalesActual     Rule
	RollingAverages []RollingRule
}

// SiteAnchor matches the label directly below every site name.
var SiteAnchor = AnyOf("INV. SETTING", "INV SETTING")

// DefaultGrammar returns the section grammar of the published sheet for the
// given layout and rolling-average windows.
func DefaultGrammar(l grid.Layout, rollingDays []int) Grammar {
	ullage := Probe{
		Clauses: []Clause{In(AnyOf("ULLAGE"), l.SectionColumn)},
		Bound:   30,
	}

	g := Grammar{
		Readings: Rule{
			Section: domain.SectionReadings,
			Start: Probe{
				Clauses: []Clause{In(AnyOf("READINGS"), l.SectionColumn)},
				Bound:   20,
			},
			DataOffset: 1,
			Stop: Probe{
				Clauses: []Clause{In(AnyOf("ULLAGE", "LOADS", "CARRIER", "NOTES"), l.SectionColumn)},
				Bound:   15,
			},
			DefaultLength: 10,
		},
		Loads: Rule{
			Section: domain.SectionLoads,
			After:   &ullage,
			Start: Probe{
				Clauses: []Clause{In(AnyOf("LOADS"), l.SectionColumn)},
				Skip:    1,
				Bound:   20,
			},
			Stop: Probe{
				Clauses: []Clause{
					In(AnyOf("SALES", "CARRIER", "NOTES"), l.SectionColumn),
					In(AnyOf("SALES", "CARRIER"), l.ValueColumn),
				},
				Skip:  1,
				Bound: 15,
			},
			DefaultLength: 10,
		},
		TankSizes: Rule{
			Section: domain.SectionTankSizes,
			Start: Probe{
				Clauses: []Clause{In(AnyOf("TANK SIZE"), l.ValueColumn)},
				Bound:   40,
			},
			DataOffset: 1,
			Stop: Probe{
				Clauses: []Clause{
					In(AnyOf("SALES"), l.ValueColumn),
					In(AnyOf("SALES"), l.SectionColumn),
				},
				Bound: 19,
			},
			DefaultLength: 19,
		},
		InvSettings: Rule{
			Section: domain.SectionInvSettings,
			Start: Probe{
				Clauses: []Clause{In(SiteAnchor, l.ValueColumn)},
				Bound:   20,
			},
			DataOffset: 1,
			Stop: Probe{
				Clauses: []Clause{In(AnyOf("TANK SIZE"), l.ValueColumn)},
				Bound:   19,
			},
			DefaultLength: 19,
		},
		SalesActual: Rule{
			Section: domain.SectionSalesActual,
			Start: Probe{
				Clauses: []Clause{In(AllOf("SALES", "ACTUAL"), l.ValueColumn, l.SectionColumn)},
				Bound:   40,
			},
			Stop: Probe{
				Clauses: []Clause{In(AnyOf("READING"), l.ProductColumn)},
				Bound:   10,
			},
			DefaultLength: 10,
		},
	}

	for _, days := range rollingDays {
		if days <= 0 {
			continue
		}
		g.RollingAverages = append(g.RollingAverages, RollingRule{
			Days: days,
			Rule: rollingRule(l, days),
		})
	}
	return g
}

// rollingRule finds a label such as "7 DAY AVG" or "30-day average" in the
// value or section column. The label row may already carry product rows.
func rollingRule(l grid.Layout, days int) Rule {
	spaced := fmt.Sprintf("%d DAY", days)
	dashed := fmt.Sprintf("%d-DAY", days)
	start := AllOf(spaced, "AVG").
		Or(AllOf(spaced, "AVERAGE")).
		Or(AllOf(dashed, "AVG")).
		Or(AllOf(dashed, "AVERAGE"))

	return Rule{
		Section: domain.SectionRollingAverage,
		Start: Probe{
			Clauses: []Clause{In(start, l.ValueColumn, l.SectionColumn)},
			Bound:   40,
		},
		Stop: Probe{
			Clauses: []Clause{
				In(AnyOf("SALES", "NOTES", "CARRIER", "ULLAGE", "LOADS", "READINGS", "AVG"), l.ValueColumn, l.SectionColumn),
				In(AnyOf("READING"), l.ProductColumn),
			},
			Skip:  1,
			Bound: 12,
		},
		DefaultLength: 8,
	}
}
