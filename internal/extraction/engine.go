package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// TotalPolicy decides how a product's total row is reconciled with its
// individual tank rows in dateless sections.
type TotalPolicy int

const (
	// TotalFallback emits individual tanks only. A product with nothing but
	// a total row yields one tank 1 record flagged as total.
	TotalFallback TotalPolicy = iota
	// TotalAggregate emits individual tanks and, when present, the total
	// row as an extra tank 0 record.
	TotalAggregate
)

func (p TotalPolicy) String() string {
	switch p {
	case TotalAggregate:
		return "aggregate"
	default:
		return "fallback"
	}
}

// ParseTotalPolicy parses "fallback" or "aggregate". Empty means fallback.
func ParseTotalPolicy(s string) (TotalPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fallback":
		return TotalFallback, nil
	case "aggregate":
		return TotalAggregate, nil
	default:
		return TotalFallback, fmt.Errorf("unknown total policy %q", s)
	}
}

// Options configures an Engine.
type Options struct {
	Layout           grid.Layout
	Products         []string
	RollingWindows   []int
	DateRange        DateRange
	TankSizePolicy   TotalPolicy
	InvSettingPolicy TotalPolicy
	Now              func() time.Time
	Logger           *slog.Logger
}

// DefaultOptions returns options for the published sheet.
func DefaultOptions() Options {
	return Options{
		Layout:         grid.DefaultLayout(),
		Products:       DefaultProductSubstrings,
		RollingWindows: DefaultRollingWindows,
		Now:            time.Now,
	}
}

// Engine extracts every section of every site from a grid.
type Engine struct {
	layout           grid.Layout
	grammar          Grammar
	classifier       *ProductClassifier
	dateRange        DateRange
	tankSizePolicy   TotalPolicy
	invSettingPolicy TotalPolicy
	now              func() time.Time
	logger           *slog.Logger
}

// NewEngine builds an engine from opts.
func NewEngine(opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		layout:           opts.Layout,
		grammar:          DefaultGrammar(opts.Layout, opts.RollingWindows),
		classifier:       NewProductClassifier(opts.Products),
		dateRange:        opts.DateRange,
		tankSizePolicy:   opts.TankSizePolicy,
		invSettingPolicy: opts.InvSettingPolicy,
		now:              opts.Now,
		logger:           opts.Logger.With("component", "extraction"),
	}
}

// Grammar returns the section grammar the engine resolves.
func (e *Engine) Grammar() Grammar {
	return e.grammar
}

// Extract runs every extractor for every site in g. It never fails: absent
// sections are recorded in Dataset.Absences and a grid without sites
// yields an empty dataset.
func (e *Engine) Extract(ctx context.Context, g *grid.Grid) *domain.Dataset {
	start := time.Now()
	ds := &domain.Dataset{
		Dates: IndexDates(g, e.layout, e.now(), e.dateRange),
	}

	if len(ds.Dates) == 0 {
		e.logger.WarnContext(ctx, "no usable date columns in header row",
			"header_row", e.layout.HeaderRow,
			"first_column", e.layout.FirstDateColumn,
		)
	} else {
		e.logger.InfoContext(ctx, "indexed date columns",
			"count", len(ds.Dates),
			"first", ds.Dates[0].Date.Format("2006-01-02"),
			"last", ds.Dates[len(ds.Dates)-1].Date.Format("2006-01-02"),
		)
	}

	sites := LocateSites(g, e.layout)
	if len(sites) == 0 {
		e.logger.WarnContext(ctx, "no sites found in grid", "rows", g.Height())
		return ds
	}

	for _, site := range sites {
		info := InspectSite(g, e.layout, site)
		ds.Sites = append(ds.Sites, info)
		e.logger.DebugContext(ctx, "site located",
			"site", site.Name,
			"row", site.Row,
			"has_readings", info.HasReadings,
			"has_tank_sizes", info.HasTankSizes,
			"has_inv_settings", info.HasInvSettings,
		)

		absent := func(section domain.SectionType, days int) {
			ds.Absences = append(ds.Absences, domain.SectionAbsence{Site: site.Name, Section: section, Window: days})
			e.logger.WarnContext(ctx, "section not found", "site", site.Name, "section", string(section), "window_days", days)
		}

		if recs, ok := e.Readings(g, site, ds.Dates); ok {
			ds.Readings = append(ds.Readings, recs...)
		} else {
			absent(domain.SectionReadings, 0)
		}
		if recs, ok := e.Loads(g, site, ds.Dates); ok {
			ds.Loads = append(ds.Loads, recs...)
		} else {
			absent(domain.SectionLoads, 0)
		}
		if recs, ok := e.TankSizes(g, site); ok {
			ds.TankSizes = append(ds.TankSizes, recs...)
		} else {
			absent(domain.SectionTankSizes, 0)
		}
		if recs, ok := e.InvSettings(g, site); ok {
			ds.InvSettings = append(ds.InvSettings, recs...)
		} else {
			absent(domain.SectionInvSettings, 0)
		}
		if recs, ok := e.SalesActual(g, site, ds.Dates); ok {
			ds.SalesActual = append(ds.SalesActual, recs...)
		} else {
			absent(domain.SectionSalesActual, 0)
		}
		for _, rr := range e.grammar.RollingAverages {
			if recs, ok := e.RollingAverage(g, site, ds.Dates, rr); ok {
				ds.RollingAverages = append(ds.RollingAverages, recs...)
			} else {
				absent(domain.SectionRollingAverage, rr.Days)
			}
		}
	}

	e.logger.InfoContext(ctx, "extraction completed",
		"sites", len(ds.Sites),
		"readings", len(ds.Readings),
		"loads", len(ds.Loads),
		"tank_sizes", len(ds.TankSizes),
		"inv_settings", len(ds.InvSettings),
		"sales_actual", len(ds.SalesActual),
		"rolling_averages", len(ds.RollingAverages),
		"absences", len(ds.Absences),
		"duration", time.Since(start),
	)
	return ds
}

// Readings extracts one record per date and product from the READINGS
// section. Records are kept even when every value is blank. The second
// result is false when the section is absent.
func (e *Engine) Readings(g *grid.Grid, site domain.Site, dates []domain.DateColumn) ([]domain.SeriesRecord, bool) {
	return e.series(g, site, dates, e.grammar.Readings, 0, false)
}

// Loads extracts deliveries from the LOADS section below ULLAGE. Dates with
// no delivery for a product produce no record.
func (e *Engine) Loads(g *grid.Grid, site domain.Site, dates []domain.DateColumn) ([]domain.SeriesRecord, bool) {
	return e.series(g, site, dates, e.grammar.Loads, 0, true)
}

// RollingAverage extracts one rolling-average variant.
func (e *Engine) RollingAverage(g *grid.Grid, site domain.Site, dates []domain.DateColumn, rr RollingRule) ([]domain.SeriesRecord, bool) {
	return e.series(g, site, dates, rr.Rule, rr.Days, false)
}

func (e *Engine) series(g *grid.Grid, site domain.Site, dates []domain.DateColumn, rule Rule, days int, dropEmpty bool) ([]domain.SeriesRecord, bool) {
	w, ok := NewScanner(g).Window(site.Row, rule)
	if !ok {
		return nil, false
	}
	groups := GroupProducts(g, w, e.layout.ProductColumn, e.classifier, nil).Groups()

	var out []domain.SeriesRecord
	for _, dc := range dates {
		for _, pg := range groups {
			rec := domain.SeriesRecord{
				Section: rule.Section,
				Date:    dc.Date,
				Site:    site.Name,
				Product: pg.Product,
				Tanks:   make([]*float64, len(pg.TankRows)),
				Window:  days,
			}
			for i, row := range pg.TankRows {
				rec.Tanks[i] = g.At(row, dc.Column).FloatPtr()
			}
			if pg.HasTotal() {
				rec.Total = g.At(pg.TotalRow, dc.Column).FloatPtr()
			}
			if dropEmpty && !rec.HasValues() {
				continue
			}
			out = append(out, rec)
		}
	}
	return out, true
}

// TankSizes extracts tank capacities. Values live in the value column of
// each product row.
func (e *Engine) TankSizes(g *grid.Grid, site domain.Site) ([]domain.TankRecord, bool) {
	return e.settings(g, site, e.grammar.TankSizes, e.tankSizePolicy)
}

// InvSettings extracts desired inventory levels below the INV. SETTING label.
func (e *Engine) InvSettings(g *grid.Grid, site domain.Site) ([]domain.TankRecord, bool) {
	return e.settings(g, site, e.grammar.InvSettings, e.invSettingPolicy)
}

func (e *Engine) settings(g *grid.Grid, site domain.Site, rule Rule, policy TotalPolicy) ([]domain.TankRecord, bool) {
	w, ok := NewScanner(g).Window(site.Row, rule)
	if !ok {
		return nil, false
	}
	valueCol := e.layout.ValueColumn
	positive := func(row int) bool {
		v, ok := g.At(row, valueCol).Float()
		return ok && v > 0
	}
	groups := GroupProducts(g, w, e.layout.ProductColumn, e.classifier, positive).Groups()

	var out []domain.TankRecord
	for _, pg := range groups {
		for i, row := range pg.TankRows {
			v, _ := g.At(row, valueCol).Float()
			out = append(out, domain.TankRecord{
				Section:    rule.Section,
				Site:       site.Name,
				Product:    pg.Product,
				TankNumber: i + 1,
				Value:      v,
			})
		}
		if !pg.HasTotal() {
			continue
		}
		total, _ := g.At(pg.TotalRow, valueCol).Float()
		switch {
		case policy == TotalAggregate:
			out = append(out, domain.TankRecord{
				Section: rule.Section,
				Site:    site.Name,
				Product: pg.Product,
				Value:   total,
				IsTotal: true,
			})
		case len(pg.TankRows) == 0:
			out = append(out, domain.TankRecord{
				Section:    rule.Section,
				Site:       site.Name,
				Product:    pg.Product,
				TankNumber: 1,
				Value:      total,
				IsTotal:    true,
			})
		}
	}
	return out, true
}

// SalesActual extracts actual sales per date and product row. Tank rows
// carry their ordinal, total rows tank 0. Blank cells produce no record.
func (e *Engine) SalesActual(g *grid.Grid, site domain.Site, dates []domain.DateColumn) ([]domain.SalesRecord, bool) {
	w, ok := NewScanner(g).Window(site.Row, e.grammar.SalesActual)
	if !ok {
		return nil, false
	}
	groups := GroupProducts(g, w, e.layout.ProductColumn, e.classifier, nil).Groups()

	var out []domain.SalesRecord
	for _, dc := range dates {
		for _, pg := range groups {
			for i, row := range pg.TankRows {
				if v, ok := g.At(row, dc.Column).Float(); ok {
					out = append(out, domain.SalesRecord{
						Date:       dc.Date,
						Site:       site.Name,
						Product:    pg.Product,
						TankNumber: i + 1,
						Value:      v,
					})
				}
			}
			if !pg.HasTotal() {
				continue
			}
			if v, ok := g.At(pg.TotalRow, dc.Column).Float(); ok {
				out = append(out, domain.SalesRecord{
					Date:    dc.Date,
					Site:    site.Name,
					Product: pg.Product,
					Value:   v,
					IsTotal: true,
				})
			}
		}
	}
	return out, true
}
