package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SiteSheetCSV is a published-CSV export with one site, two dates, a tank
// size, an inventory setting and readings for two products. Loads, sales
// and rolling averages are absent.
const SiteSheetCSV = `,,,,,,Sep-01-25,Sep-02-25
,Site A,,,,,,
,INV. SETTING,,,,,,
,8000,,,87,,,
,TANK SIZE,,,,,,
,10000,,,87,,,
,,,READINGS,,,,
,,,,87,,"1,234",1100
,,,,91,,500,
,,,NOTES,,,,
,,,,,,,
,,,,,,,
`

// NoSitesCSV has a date header but nothing anchoring a site.
const NoSitesCSV = ",,,,,,Sep-01-25\n,,,,,,\n"

// WriteSheet writes content to name inside a fresh temp dir and returns the
// path.
func WriteSheet(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write sheet fixture: %v", err)
	}
	return path
}
