package config

import (
	"time"

	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts"
)

// Application constants
const (
	AppName    = "Fuel Data Cleaner"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable (FUEL_SOURCE_URL, ...).
	EnvPrefix = "FUEL"
	// ConfigFileEnv names the variable pointing at an optional YAML file.
	ConfigFileEnv     = "FUEL_CONFIG_FILE"
	DefaultConfigFile = "fuel-config.yaml"

	// Published CSV export of the fuel sheet
	DefaultSheetURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vRpva-TXUaQR_6tJoXX2vnSN2ertC5GNxAgssqmXvIhqHBNrscDxSxtiSWbCiiHqAoSHb3SzXDQw_VX/pub?gid=1048590026&single=true&output=csv"

	// Fetch
	DefaultFetchTimeout  = 30 * time.Second
	DefaultFetchAttempts = 3
	DefaultRetryDelay    = 5 * time.Second

	// Output
	DefaultOutputDir    = "."
	DefaultWorkbookName = "fuel_data.xlsx"

	// Run history
	DefaultStorePath    = "data/fuel_runs.db"
	DefaultHistoryLimit = 50

	// Server
	DefaultPort            = 8080
	DefaultRateLimit       = 5 // requests per second
	DefaultBurstSize       = 10
	DefaultRunTimeout      = 5 * time.Minute
	DefaultShutdownTimeout = 30 * time.Second

	// Logging
	DefaultLogFile = "logs/fuel.log"
)

// Source kinds
const (
	SourceHTTP   = "http"
	SourceSheets = "sheets"
	SourceFile   = "file"
)

// Output formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)
