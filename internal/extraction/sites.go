package extraction

import (
	"regexp"
	"strings"

	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// inspectRows is how far below a site row InspectSite looks for sections.
const inspectRows = 40

var (
	leadingOrdinal     = regexp.MustCompile(`(?i)^[\d\s]+[a-z]?\s+`)
	trailingSeparators = regexp.MustCompile(`[\s|\-]+$`)
)

var (
	readingsLabel = AnyOf("READINGS").Without("AM READING")
	tankSizeLabel = AnyOf("TANK SIZE")
)

// CleanSiteName strips leading ordinal tokens ("1a OLD Morongo" becomes
// "OLD Morongo"), trailing separators and repeated whitespace.
func CleanSiteName(raw string) string {
	name := strings.TrimSpace(raw)
	name = leadingOrdinal.ReplaceAllString(name, "")
	name = trailingSeparators.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

// LocateSites returns one site per INV. SETTING label in the value column,
// named by the cell directly above it. Sites whose cleaned name was
// already seen are skipped.
func LocateSites(g *grid.Grid, l grid.Layout) []domain.Site {
	var sites []domain.Site
	seen := make(map[string]bool)
	for row := 1; row < g.Height(); row++ {
		if !SiteAnchor.Match(g.Text(row, l.ValueColumn)) {
			continue
		}
		siteRow := row - 1
		name := CleanSiteName(g.Text(siteRow, l.ValueColumn))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		sites = append(sites, domain.Site{Row: siteRow, Name: name})
	}
	return sites
}

// InspectSite reports which core sections appear within 40 rows of the
// site row, looking at the value and section columns one cell at a time.
func InspectSite(g *grid.Grid, l grid.Layout, site domain.Site) domain.SiteInfo {
	info := domain.SiteInfo{Site: site}
	for row := site.Row; row < site.Row+inspectRows && row < g.Height(); row++ {
		for _, col := range []int{l.ValueColumn, l.SectionColumn} {
			text := g.Text(row, col)
			if readingsLabel.Match(text) {
				info.HasReadings = true
			}
			if tankSizeLabel.Match(text) {
				info.HasTankSizes = true
			}
			if SiteAnchor.Match(text) {
				info.HasInvSettings = true
			}
		}
	}
	return info
}
