package domain

import (
	"time"
)

// SectionType identifies a labeled block of rows inside a site.
type SectionType string

const (
	SectionReadings       SectionType = "readings"
	SectionLoads          SectionType = "loads"
	SectionTankSizes      SectionType = "tank_sizes"
	SectionInvSettings    SectionType = "inv_settings"
	SectionSalesActual    SectionType = "sales_actual"
	SectionRollingAverage SectionType = "rolling_average"
)

// AllSections lists every section type in extraction order.
var AllSections = []SectionType{
	SectionReadings,
	SectionLoads,
	SectionTankSizes,
	SectionInvSettings,
	SectionSalesActual,
	SectionRollingAverage,
}

// Site is one physical location block in the sheet. Row is the row holding
// the display name, directly above the INV. SETTING label.
type Site struct {
	Row  int    `json:"row" validate:"min=0"`
	Name string `json:"name" validate:"required"`
}

// SiteInfo reports which sections were seen near a site's anchor row.
type SiteInfo struct {
	Site
	HasReadings    bool `json:"has_readings"`
	HasTankSizes   bool `json:"has_tank_sizes"`
	HasInvSettings bool `json:"has_inv_settings"`
}

// Complete reports whether all three core sections were found.
func (s SiteInfo) Complete() bool {
	return s.HasReadings && s.HasTankSizes && s.HasInvSettings
}

// DateColumn pairs a grid column with the calendar date in its header cell.
type DateColumn struct {
	Column int       `json:"column" validate:"min=0"`
	Date   time.Time `json:"date" validate:"required"`
}

// SeriesRecord holds one product's values for one date: readings, loads or
// rolling averages. Tanks[i] is tank i+1; nil marks a blank or unparseable cell.
type SeriesRecord struct {
	Section SectionType `json:"section" db:"section"`
	Date    time.Time   `json:"date" db:"date" validate:"required"`
	Site    string      `json:"site" db:"site" validate:"required"`
	Product string      `json:"product" db:"product" validate:"required"`
	Tanks   []*float64  `json:"tanks" db:"-"`
	Total   *float64    `json:"total,omitempty" db:"-"`
	Window  int         `json:"window_days,omitempty" db:"window_days"` // rolling averages only
}

// Tank returns the value of the 1-based tank n, or nil when absent.
func (r SeriesRecord) Tank(n int) *float64 {
	if n < 1 || n > len(r.Tanks) {
		return nil
	}
	return r.Tanks[n-1]
}

// HasValues reports whether any tank or the total carries a value.
func (r SeriesRecord) HasValues() bool {
	if r.Total != nil {
		return true
	}
	for _, v := range r.Tanks {
		if v != nil {
			return true
		}
	}
	return false
}

// TankRecord is a dateless per-tank setting: a tank capacity or a desired
// inventory level. TankNumber 0 marks an aggregate total row.
type TankRecord struct {
	Section    SectionType `json:"section" db:"section"`
	Site       string      `json:"site" db:"site" validate:"required"`
	Product    string      `json:"product" db:"product" validate:"required"`
	TankNumber int         `json:"tank_number" db:"tank_number" validate:"min=0"`
	Value      float64     `json:"value" db:"value" validate:"gt=0"`
	IsTotal    bool        `json:"is_total" db:"is_total"`
}

// SalesRecord is one product row's actual sales on one date.
type SalesRecord struct {
	Date       time.Time `json:"date" db:"date" validate:"required"`
	Site       string    `json:"site" db:"site" validate:"required"`
	Product    string    `json:"product" db:"product" validate:"required"`
	TankNumber int       `json:"tank_number" db:"tank_number" validate:"min=0"`
	Value      float64   `json:"value" db:"value"`
	IsTotal    bool      `json:"is_total" db:"is_total"`
}
