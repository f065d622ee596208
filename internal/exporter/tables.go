package exporter

import (
	"fmt"
	"sort"

	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// Output table names, also used as CSV file stems and sheet names.
const (
	TableReadings        = "fuel_readings"
	TableLoads           = "fuel_loads"
	TableTankSizes       = "tank_sizes"
	TableInvSettings     = "inv_settings"
	TableSalesActual     = "sales_actual"
	TableRollingAverages = "rolling_averages"
)

// Table is one output record set: headers plus rows of typed cells (nil,
// string, float64, *float64, int, bool or time.Time).
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// Tables converts every non-empty record set of ds.
func Tables(ds *domain.Dataset) []Table {
	if ds == nil {
		return nil
	}
	var out []Table
	add := func(t Table) {
		if len(t.Rows) > 0 {
			out = append(out, t)
		}
	}
	add(seriesTable(TableReadings, ds.Readings, "Reading", "Total_Reading", false))
	add(seriesTable(TableLoads, ds.Loads, "Load", "Load_Total", false))
	add(settingsTable(TableTankSizes, ds.TankSizes, "Tank_Size"))
	add(settingsTable(TableInvSettings, ds.InvSettings, "Desired_Level"))
	add(salesTable(ds.SalesActual))
	add(seriesTable(TableRollingAverages, ds.RollingAverages, "Average", "Total_Average", true))
	return out
}

// seriesTable lays out dated per-tank series. Tank columns run to the
// largest tank count in the set; the total column appears only when some
// record has a total.
func seriesTable(name string, recs []domain.SeriesRecord, valueLabel, totalLabel string, withWindow bool) Table {
	t := Table{Name: name}
	if len(recs) == 0 {
		return t
	}

	sorted := append([]domain.SeriesRecord(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if withWindow && a.Window != b.Window {
			return a.Window < b.Window
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Site != b.Site {
			return a.Site < b.Site
		}
		return a.Product < b.Product
	})

	maxTanks, hasTotal := 0, false
	for _, r := range sorted {
		if len(r.Tanks) > maxTanks {
			maxTanks = len(r.Tanks)
		}
		if r.Total != nil {
			hasTotal = true
		}
	}

	if withWindow {
		t.Headers = append(t.Headers, "Window_Days")
	}
	t.Headers = append(t.Headers, "Date", "Site", "Product")
	for n := 1; n <= maxTanks; n++ {
		t.Headers = append(t.Headers, fmt.Sprintf("Tank_%d_%s", n, valueLabel))
	}
	if hasTotal {
		t.Headers = append(t.Headers, totalLabel)
	}

	for _, r := range sorted {
		row := make([]interface{}, 0, len(t.Headers))
		if withWindow {
			row = append(row, r.Window)
		}
		row = append(row, r.Date, r.Site, r.Product)
		for n := 1; n <= maxTanks; n++ {
			row = append(row, r.Tank(n))
		}
		if hasTotal {
			row = append(row, r.Total)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func settingsTable(name string, recs []domain.TankRecord, valueLabel string) Table {
	t := Table{
		Name:    name,
		Headers: []string{"Site", "Product", "Tank_Number", valueLabel, "Is_Total"},
	}

	sorted := append([]domain.TankRecord(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Site != b.Site {
			return a.Site < b.Site
		}
		if a.Product != b.Product {
			return a.Product < b.Product
		}
		return a.TankNumber < b.TankNumber
	})

	for _, r := range sorted {
		t.Rows = append(t.Rows, []interface{}{r.Site, r.Product, r.TankNumber, r.Value, r.IsTotal})
	}
	return t
}

func salesTable(recs []domain.SalesRecord) Table {
	t := Table{
		Name:    TableSalesActual,
		Headers: []string{"Date", "Site", "Product", "Tank_Number", "Sales_Actual", "Is_Total"},
	}

	sorted := append([]domain.SalesRecord(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Site != b.Site {
			return a.Site < b.Site
		}
		if a.Product != b.Product {
			return a.Product < b.Product
		}
		return a.TankNumber < b.TankNumber
	})

	for _, r := range sorted {
		t.Rows = append(t.Rows, []interface{}{r.Date, r.Site, r.Product, r.TankNumber, r.Value, r.IsTotal})
	}
	return t
}
