package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/vsamautomation/fuel-data-cleaner/internal/errors"
	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
)

// DateLayout is the format of the extraction date range bounds.
const DateLayout = "2006-01-02"

// Config represents the complete application configuration.
// Environment keys are derived from field names (split_words) rather than
// explicit envconfig tags: envconfig falls back to the bare tag name when the
// prefixed key is unset, so a tag such as PATH would read the shell's $PATH.
type Config struct {
	Source     SourceConfig     `yaml:"source" split_words:"true"`
	Layout     LayoutConfig     `yaml:"layout" split_words:"true"`
	Extraction ExtractionConfig `yaml:"extraction" split_words:"true"`
	Output     OutputConfig     `yaml:"output" split_words:"true"`
	Store      StoreConfig      `yaml:"store" split_words:"true"`
	Server     ServerConfig     `yaml:"server" split_words:"true"`
	Logging    LoggingConfig    `yaml:"logging" split_words:"true"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" split_words:"true"`
}

// SourceConfig describes where the grid is fetched from
type SourceConfig struct {
	Kind            string        `yaml:"kind" split_words:"true" validate:"oneof=http sheets file"`
	URL             string        `yaml:"url" split_words:"true"`
	FilePath        string        `yaml:"file_path" split_words:"true"`
	Format          string        `yaml:"format" split_words:"true" validate:"oneof=auto csv xlsx"`
	Sheet           string        `yaml:"sheet" split_words:"true"` // xlsx worksheet name
	SpreadsheetID   string        `yaml:"spreadsheet_id" split_words:"true"`
	Range           string        `yaml:"range" split_words:"true"`
	CredentialsFile string        `yaml:"credentials_file" split_words:"true"`
	APIKey          string        `yaml:"api_key" split_words:"true"`
	Endpoint        string        `yaml:"endpoint" split_words:"true"`
	Timeout         time.Duration `yaml:"timeout" split_words:"true" validate:"gt=0"`
	Attempts        int           `yaml:"attempts" split_words:"true" validate:"min=1,max=10"`
	RetryDelay      time.Duration `yaml:"retry_delay" split_words:"true" validate:"min=0"`
}

// LayoutConfig mirrors grid.Layout
type LayoutConfig struct {
	HeaderRow       int `yaml:"header_row" split_words:"true" validate:"min=0"`
	ValueColumn     int `yaml:"value_column" split_words:"true" validate:"min=0"`
	SectionColumn   int `yaml:"section_column" split_words:"true" validate:"min=0"`
	ProductColumn   int `yaml:"product_column" split_words:"true" validate:"min=0"`
	FirstDateColumn int `yaml:"first_date_column" split_words:"true" validate:"min=0"`
}

// ExtractionConfig tunes the extraction engine
type ExtractionConfig struct {
	Products         []string `yaml:"products" split_words:"true" validate:"dive,required"`
	RollingWindows   []int    `yaml:"rolling_windows" split_words:"true" validate:"dive,min=1,max=366"`
	DateFrom         string   `yaml:"date_from" split_words:"true"`
	DateTo           string   `yaml:"date_to" split_words:"true"`
	TankSizePolicy   string   `yaml:"tank_size_policy" split_words:"true" validate:"oneof=fallback aggregate"`
	InvSettingPolicy string   `yaml:"inv_setting_policy" split_words:"true" validate:"oneof=fallback aggregate"`
}

// OutputConfig controls which files a run writes
type OutputConfig struct {
	Dir          string   `yaml:"dir" split_words:"true" validate:"required"`
	Formats      []string `yaml:"formats" split_words:"true" validate:"min=1,dive,oneof=csv xlsx"`
	BOM          bool     `yaml:"bom" split_words:"true"`
	WorkbookName string   `yaml:"workbook_name" split_words:"true"`
}

// StoreConfig contains run history storage configuration
type StoreConfig struct {
	Enabled      bool   `yaml:"enabled" split_words:"true"`
	Path         string `yaml:"path" split_words:"true"`
	HistoryLimit int    `yaml:"history_limit" split_words:"true" validate:"min=1"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" split_words:"true" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" split_words:"true"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" split_words:"true"`
	RunTimeout      time.Duration   `yaml:"run_timeout" split_words:"true" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" split_words:"true"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true" validate:"gte=0"`
	Burst   int     `yaml:"burst" split_words:"true" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" split_words:"true" validate:"oneof=json text"`
	Output      string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" split_words:"true"`
	Development bool   `yaml:"development" split_words:"true"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" split_words:"true" validate:"required"`
	MetricsEnabled bool   `yaml:"metrics_enabled" split_words:"true"`
	TracingEnabled bool   `yaml:"tracing_enabled" split_words:"true"`
	TraceExporter  string `yaml:"trace_exporter" split_words:"true" validate:"oneof=stdout none"`
}

// Default returns the configuration used when neither a file nor the
// environment says otherwise.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:       SourceHTTP,
			URL:        DefaultSheetURL,
			Format:     "auto",
			Timeout:    DefaultFetchTimeout,
			Attempts:   DefaultFetchAttempts,
			RetryDelay: DefaultRetryDelay,
		},
		Layout: layoutConfigFrom(grid.DefaultLayout()),
		Extraction: ExtractionConfig{
			Products:         []string{"87", "88", "91", "dsl", "racing", "red"},
			RollingWindows:   []int{7, 30},
			TankSizePolicy:   "fallback",
			InvSettingPolicy: "fallback",
		},
		Output: OutputConfig{
			Dir:          DefaultOutputDir,
			Formats:      []string{FormatCSV},
			BOM:          true,
			WorkbookName: DefaultWorkbookName,
		},
		Store: StoreConfig{
			Enabled:      false,
			Path:         DefaultStorePath,
			HistoryLimit: DefaultHistoryLimit,
		},
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    DefaultRunTimeout + 15*time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: DefaultShutdownTimeout,
			RunTimeout:      DefaultRunTimeout,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "fuel-data-cleaner",
			MetricsEnabled: true,
			TracingEnabled: false,
			TraceExporter:  "stdout",
		},
	}
}

// Load loads configuration from the file named by FUEL_CONFIG_FILE (or
// fuel-config.yaml when present) and then from FUEL_* environment variables.
func Load() (*Config, error) {
	path := os.Getenv(ConfigFileEnv)
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", path)
		}
	}

	// Environment wins over the file; unset variables leave values alone.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) normalize() {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	c.Source.Format = strings.ToLower(strings.TrimSpace(c.Source.Format))
	if c.Source.Format == "" {
		c.Source.Format = "auto"
	}
	for i, f := range c.Output.Formats {
		c.Output.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	c.Extraction.TankSizePolicy = strings.ToLower(strings.TrimSpace(c.Extraction.TankSizePolicy))
	c.Extraction.InvSettingPolicy = strings.ToLower(strings.TrimSpace(c.Extraction.InvSettingPolicy))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	switch c.Source.Kind {
	case SourceHTTP:
		u, err := url.Parse(c.Source.URL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return apperrors.NewConfigError("source url must be an absolute http(s) url", err).
				WithContext("url", c.Source.URL)
		}
	case SourceSheets:
		if c.Source.SpreadsheetID == "" {
			return apperrors.NewConfigError("sheets source requires spreadsheet_id", nil)
		}
	case SourceFile:
		if c.Source.FilePath == "" {
			return apperrors.NewConfigError("file source requires file_path", nil)
		}
	}

	if _, _, err := c.Extraction.Dates(); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return apperrors.NewConfigError("log file path required for file output", nil)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return apperrors.NewConfigError("store path required when store is enabled", nil)
	}
	return nil
}

// Layout converts the layout section to a grid.Layout.
func (l LayoutConfig) Layout() grid.Layout {
	return grid.Layout{
		HeaderRow:       l.HeaderRow,
		ValueColumn:     l.ValueColumn,
		SectionColumn:   l.SectionColumn,
		ProductColumn:   l.ProductColumn,
		FirstDateColumn: l.FirstDateColumn,
	}
}

func layoutConfigFrom(l grid.Layout) LayoutConfig {
	return LayoutConfig{
		HeaderRow:       l.HeaderRow,
		ValueColumn:     l.ValueColumn,
		SectionColumn:   l.SectionColumn,
		ProductColumn:   l.ProductColumn,
		FirstDateColumn: l.FirstDateColumn,
	}
}

// Dates parses the optional inclusive date range. Zero times mean unbounded.
func (e ExtractionConfig) Dates() (from, to time.Time, err error) {
	if e.DateFrom != "" {
		if from, err = time.Parse(DateLayout, e.DateFrom); err != nil {
			return from, to, apperrors.NewConfigError("invalid date_from", err).WithContext("value", e.DateFrom)
		}
	}
	if e.DateTo != "" {
		if to, err = time.Parse(DateLayout, e.DateTo); err != nil {
			return from, to, apperrors.NewConfigError("invalid date_to", err).WithContext("value", e.DateTo)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, apperrors.NewConfigError(fmt.Sprintf("date_to %s is before date_from %s", e.DateTo, e.DateFrom), nil)
	}
	return from, to, nil
}

// WantsFormat reports whether the output formats include f.
func (o OutputConfig) WantsFormat(f string) bool {
	for _, have := range o.Formats {
		if have == f {
			return true
		}
	}
	return false
}

// Address returns the listen address for the HTTP server.
func (s ServerConfig) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}
