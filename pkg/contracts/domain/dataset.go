package domain

import (
	"time"
)

// SectionAbsence records a section whose start label was not found for a site.
type SectionAbsence struct {
	Site    string      `json:"site"`
	Section SectionType `json:"section"`
	Window  int         `json:"window_days,omitempty"`
}

// Dataset is everything extracted from one grid snapshot.
type Dataset struct {
	Sites           []SiteInfo       `json:"sites"`
	Dates           []DateColumn     `json:"dates"`
	Readings        []SeriesRecord   `json:"readings"`
	Loads           []SeriesRecord   `json:"loads"`
	RollingAverages []SeriesRecord   `json:"rolling_averages"`
	TankSizes       []TankRecord     `json:"tank_sizes"`
	InvSettings     []TankRecord     `json:"inv_settings"`
	SalesActual     []SalesRecord    `json:"sales_actual"`
	Absences        []SectionAbsence `json:"absences,omitempty"`
}

// Empty reports the "nothing to extract" outcome: no site anchors were found.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Sites) == 0
}

// Counts returns the number of records per section type.
func (d *Dataset) Counts() map[SectionType]int {
	counts := make(map[SectionType]int, len(AllSections))
	if d == nil {
		return counts
	}
	counts[SectionReadings] = len(d.Readings)
	counts[SectionLoads] = len(d.Loads)
	counts[SectionTankSizes] = len(d.TankSizes)
	counts[SectionInvSettings] = len(d.InvSettings)
	counts[SectionSalesActual] = len(d.SalesActual)
	counts[SectionRollingAverage] = len(d.RollingAverages)
	return counts
}

// SiteNames returns site display names in row order.
func (d *Dataset) SiteNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.Sites))
	for _, s := range d.Sites {
		names = append(names, s.Name)
	}
	return names
}

// RunSummary describes one fetch → extract → export run.
type RunSummary struct {
	ID         string              `json:"id" db:"id" validate:"required,uuid"`
	Source     string              `json:"source" db:"source"`
	StartedAt  time.Time           `json:"started_at" db:"started_at"`
	FinishedAt time.Time           `json:"finished_at" db:"finished_at"`
	Sites      []string            `json:"sites" db:"-"`
	Dates      int                 `json:"dates" db:"dates"`
	Counts     map[SectionType]int `json:"counts" db:"-"`
	Absences   int                 `json:"absences" db:"absences"`
	Files      []string            `json:"files,omitempty" db:"-"`
	Empty      bool                `json:"empty" db:"empty"`
}

// Duration returns the wall time of the run.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// TotalRecords sums the per-section counts.
func (s RunSummary) TotalRecords() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}
