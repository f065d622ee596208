package extraction

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsamautomation/fuel-data-cleaner/internal/shared/testutil"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// TestExtractReadingsEndToEnd covers the smallest complete sheet: one site,
// one readings block and one date column.
func TestExtractReadingsEndToEnd(t *testing.T) {
	g := newSheet(16, 7).
		set(0, 6, "Sep-01-25").
		set(10, 1, "Site A").
		set(11, 1, "INV. SETTING").
		set(12, 3, "READINGS").
		set(13, 4, "87").set(13, 6, "100").
		set(14, 4, "88").set(14, 6, "200").
		grid()

	ds := NewEngine(testOptions()).Extract(context.Background(), g)
	require.False(t, ds.Empty())
	require.Len(t, ds.Readings, 2)

	want := []struct {
		product string
		value   float64
	}{
		{"87", 100},
		{"88", 200},
	}
	for i, w := range want {
		rec := ds.Readings[i]
		assert.Equal(t, domain.SectionReadings, rec.Section)
		assert.Equal(t, date(2025, time.September, 1), rec.Date)
		assert.Equal(t, "Site A", rec.Site)
		assert.Equal(t, w.product, rec.Product)
		require.Len(t, rec.Tanks, 1)
		require.NotNil(t, rec.Tank(1))
		assert.Equal(t, w.value, *rec.Tank(1))
		assert.Nil(t, rec.Total)
	}
}

func TestExtractEmptyGrid(t *testing.T) {
	g := newSheet(5, 8).set(0, 6, "Sep-01-25").grid()

	ds := NewEngine(testOptions()).Extract(context.Background(), g)
	assert.True(t, ds.Empty())
	assert.Len(t, ds.Dates, 1)
	assert.Empty(t, ds.Readings)
	assert.Empty(t, ds.Absences)
}

func TestExtractFullSite(t *testing.T) {
	ds := NewEngine(testOptions()).Extract(context.Background(), siteFixture())

	require.Len(t, ds.Sites, 1)
	assert.Equal(t, "OLD Morongo", ds.Sites[0].Name)
	assert.True(t, ds.Sites[0].Complete())
	assert.Len(t, ds.Dates, 2)

	assert.Equal(t, map[domain.SectionType]int{
		domain.SectionReadings:       4,
		domain.SectionLoads:          1,
		domain.SectionTankSizes:      3,
		domain.SectionInvSettings:    3,
		domain.SectionSalesActual:    3,
		domain.SectionRollingAverage: 4,
	}, ds.Counts())

	assert.Equal(t, []domain.SectionAbsence{
		{Site: "OLD Morongo", Section: domain.SectionRollingAverage, Window: 30},
	}, ds.Absences)
}

func TestEngineReadings(t *testing.T) {
	e := NewEngine(testOptions())
	g := siteFixture()
	site := LocateSites(g, e.layout)[0]
	dates := IndexDates(g, e.layout, fixtureToday, DateRange{})

	recs, ok := e.Readings(g, site, dates)
	require.True(t, ok)
	require.Len(t, recs, 4)

	first := recs[0]
	assert.Equal(t, "87", first.Product)
	assert.Equal(t, []*float64{ptr(1234), ptr(2000)}, first.Tanks)

	second := recs[1]
	assert.Equal(t, "91", second.Product)
	assert.Equal(t, []*float64{ptr(500)}, second.Tanks)

	blank := recs[2]
	assert.Equal(t, date(2025, time.September, 2), blank.Date)
	assert.Equal(t, []*float64{nil, nil}, blank.Tanks, "blank and unparseable cells are nil")
	assert.False(t, blank.HasValues())
}

func TestEngineLoads(t *testing.T) {
	e := NewEngine(testOptions())
	g := siteFixture()
	site := LocateSites(g, e.layout)[0]
	dates := IndexDates(g, e.layout, fixtureToday, DateRange{})

	recs, ok := e.Loads(g, site, dates)
	require.True(t, ok)
	require.Len(t, recs, 1, "days without deliveries are dropped")
	assert.Equal(t, date(2025, time.September, 2), recs[0].Date)
	assert.Equal(t, "87", recs[0].Product)
	assert.Equal(t, []*float64{ptr(8500)}, recs[0].Tanks)
}

func TestEngineSettingsPolicies(t *testing.T) {
	g := siteFixture()

	t.Run("fallback", func(t *testing.T) {
		e := NewEngine(testOptions())
		site := LocateSites(g, e.layout)[0]

		sizes, ok := e.TankSizes(g, site)
		require.True(t, ok)
		assert.Equal(t, []domain.TankRecord{
			{Section: domain.SectionTankSizes, Site: "OLD Morongo", Product: "87", TankNumber: 1, Value: 10000},
			{Section: domain.SectionTankSizes, Site: "OLD Morongo", Product: "87", TankNumber: 2, Value: 10000},
			{Section: domain.SectionTankSizes, Site: "OLD Morongo", Product: "91", TankNumber: 1, Value: 12000},
		}, sizes)

		inv, ok := e.InvSettings(g, site)
		require.True(t, ok)
		assert.Equal(t, []domain.TankRecord{
			{Section: domain.SectionInvSettings, Site: "OLD Morongo", Product: "87", TankNumber: 1, Value: 8000},
			{Section: domain.SectionInvSettings, Site: "OLD Morongo", Product: "87", TankNumber: 2, Value: 6000},
			{Section: domain.SectionInvSettings, Site: "OLD Morongo", Product: "dsl", TankNumber: 1, Value: 5000, IsTotal: true},
		}, inv)
	})

	t.Run("aggregate", func(t *testing.T) {
		opts := testOptions()
		opts.TankSizePolicy = TotalAggregate
		opts.InvSettingPolicy = TotalAggregate
		e := NewEngine(opts)
		site := LocateSites(g, e.layout)[0]

		sizes, ok := e.TankSizes(g, site)
		require.True(t, ok)
		require.Len(t, sizes, 4)
		assert.Equal(t, domain.TankRecord{
			Section: domain.SectionTankSizes, Site: "OLD Morongo", Product: "87", TankNumber: 0, Value: 20000, IsTotal: true,
		}, sizes[2])

		inv, ok := e.InvSettings(g, site)
		require.True(t, ok)
		require.Len(t, inv, 4)
		assert.Equal(t, domain.TankRecord{
			Section: domain.SectionInvSettings, Site: "OLD Morongo", Product: "dsl", TankNumber: 0, Value: 5000, IsTotal: true,
		}, inv[3])
	})
}

func TestEngineSalesActual(t *testing.T) {
	e := NewEngine(testOptions())
	g := siteFixture()
	site := LocateSites(g, e.layout)[0]
	dates := IndexDates(g, e.layout, fixtureToday, DateRange{})

	recs, ok := e.SalesActual(g, site, dates)
	require.True(t, ok)
	assert.Equal(t, []domain.SalesRecord{
		{Date: date(2025, time.September, 1), Site: "OLD Morongo", Product: "87", TankNumber: 1, Value: 300},
		{Date: date(2025, time.September, 1), Site: "OLD Morongo", Product: "87", TankNumber: 0, Value: 600, IsTotal: true},
		{Date: date(2025, time.September, 2), Site: "OLD Morongo", Product: "87", TankNumber: 1, Value: 310},
	}, recs)
}

func TestEngineRollingAverage(t *testing.T) {
	e := NewEngine(testOptions())
	g := siteFixture()
	site := LocateSites(g, e.layout)[0]
	dates := IndexDates(g, e.layout, fixtureToday, DateRange{})

	rules := e.Grammar().RollingAverages
	require.Len(t, rules, 2)
	assert.Equal(t, 7, rules[0].Days)

	recs, ok := e.RollingAverage(g, site, dates, rules[0])
	require.True(t, ok)
	require.Len(t, recs, 4)
	assert.Equal(t, 7, recs[0].Window)
	assert.Equal(t, "87", recs[0].Product)
	assert.Equal(t, []*float64{ptr(250)}, recs[0].Tanks)
	assert.Equal(t, "91", recs[1].Product)
	assert.Equal(t, []*float64{ptr(40)}, recs[1].Tanks)

	_, ok = e.RollingAverage(g, site, dates, rules[1])
	assert.False(t, ok)
}

func TestEngineMissingSections(t *testing.T) {
	g := newSheet(6, 8).
		set(0, 6, "Sep-01-25").
		set(1, 1, "Lonely").
		set(2, 1, "INV SETTING").
		grid()

	opts := testOptions()
	logger, logs := testutil.NewTestLogger(t)
	opts.Logger = logger

	ds := NewEngine(opts).Extract(context.Background(), g)
	require.Len(t, ds.Sites, 1)
	assert.Empty(t, ds.Readings)
	assert.Empty(t, ds.InvSettings, "settings section found but holds no products")

	absent := make(map[domain.SectionType]int)
	for _, a := range ds.Absences {
		absent[a.Section]++
	}
	assert.Equal(t, map[domain.SectionType]int{
		domain.SectionReadings:       1,
		domain.SectionLoads:          1,
		domain.SectionTankSizes:      1,
		domain.SectionSalesActual:    1,
		domain.SectionRollingAverage: 2,
	}, absent)
	assert.Equal(t, len(ds.Absences), logs.Count(slog.LevelWarn, "section not found"))
	testutil.AssertLogAttr(t, logs, "site", "Lonely")
}

func TestParseTotalPolicy(t *testing.T) {
	p, err := ParseTotalPolicy("")
	require.NoError(t, err)
	assert.Equal(t, TotalFallback, p)

	p, err = ParseTotalPolicy(" Aggregate ")
	require.NoError(t, err)
	assert.Equal(t, TotalAggregate, p)
	assert.Equal(t, "aggregate", p.String())

	_, err = ParseTotalPolicy("both")
	assert.Error(t, err)
}
