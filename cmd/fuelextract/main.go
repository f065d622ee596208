package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vsamautomation/fuel-data-cleaner/internal/app"
	"github.com/vsamautomation/fuel-data-cleaner/internal/config"
	"github.com/vsamautomation/fuel-data-cleaner/internal/infrastructure"
	"github.com/vsamautomation/fuel-data-cleaner/internal/services"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// cliFlags holds the command line overrides. Empty values keep whatever the
// config file and FUEL_* environment set.
type cliFlags struct {
	configFile string
	output     string
	source     string
	url        string
	file       string
	sheet      string
	formats    string
	from       string
	to         string
	history    bool
	version    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("fuelextract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configFile, "config", os.Getenv(config.ConfigFileEnv), "YAML config file")
	fs.StringVar(&f.output, "output", "", "directory the output files are written to")
	fs.StringVar(&f.source, "source", "", "grid source: http | sheets | file")
	fs.StringVar(&f.url, "url", "", "published CSV url (http source)")
	fs.StringVar(&f.file, "file", "", "local csv or xlsx export (file source)")
	fs.StringVar(&f.sheet, "sheet", "", "worksheet name for xlsx input")
	fs.StringVar(&f.formats, "format", "", "comma separated output formats: csv,xlsx")
	fs.StringVar(&f.from, "from", "", "first date to extract (YYYY-MM-DD)")
	fs.StringVar(&f.to, "to", "", "last date to extract (YYYY-MM-DD)")
	fs.BoolVar(&f.history, "history", false, "record the run in the run history store")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return f, nil
}

// apply overlays the flags onto cfg and revalidates it.
func (f *cliFlags) apply(cfg *config.Config) error {
	if f.output != "" {
		cfg.Output.Dir = f.output
	}
	if f.file != "" {
		cfg.Source.FilePath = f.file
		if f.source == "" {
			cfg.Source.Kind = config.SourceFile
		}
	}
	if f.url != "" {
		cfg.Source.URL = f.url
		if f.source == "" {
			cfg.Source.Kind = config.SourceHTTP
		}
	}
	if f.source != "" {
		cfg.Source.Kind = strings.ToLower(f.source)
	}
	if f.sheet != "" {
		cfg.Source.Sheet = f.sheet
	}
	if f.formats != "" {
		cfg.Output.Formats = nil
		for _, format := range strings.Split(f.formats, ",") {
			if format = strings.ToLower(strings.TrimSpace(format)); format != "" {
				cfg.Output.Formats = append(cfg.Output.Formats, format)
			}
		}
	}
	if f.from != "" {
		cfg.Extraction.DateFrom = f.from
	}
	if f.to != "" {
		cfg.Extraction.DateTo = f.to
	}
	if f.history {
		cfg.Store.Enabled = true
	}
	return cfg.Validate()
}

func run(args []string, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if flags.version {
		fmt.Println(contracts.GetFullVersionString())
		return exitOK
	}

	cfg, err := config.LoadFrom(flags.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitFailed
	}
	if err := flags.apply(cfg); err != nil {
		fmt.Fprintf(stderr, "invalid options: %v\n", err)
		return exitUsage
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}

	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return extract(ctx, cfg, logger)
}

func extract(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	// Metrics have no scrape endpoint in a one-shot process.
	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	otelCfg.EnableMetrics = false
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry", slog.String("error", err.Error()))
		return exitFailed
	}
	defer func() {
		if err := providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if err := config.EnsureDir(cfg.Output.Dir); err != nil {
		logger.Error("Cannot create output directory",
			slog.String("path", cfg.Output.Dir),
			slog.String("error", err.Error()))
		return exitFailed
	}

	svc, runStore, err := app.BuildExtractionService(ctx, cfg, logger, nil, nil)
	if err != nil {
		logger.Error("Failed to initialize extraction", slog.String("error", err.Error()))
		return exitFailed
	}
	if runStore != nil {
		defer runStore.Close()
	}

	logger.InfoContext(ctx, "Starting fuel extraction",
		slog.String("source", svc.Source()),
		slog.String("output_dir", cfg.Output.Dir),
		slog.Any("formats", cfg.Output.Formats))

	result, err := svc.Run(ctx, services.RunOptions{})
	if err != nil {
		if ctx.Err() != nil {
			infrastructure.WithError(logger, err).Warn("Extraction interrupted")
		} else {
			infrastructure.WithError(logger, err).Error("Extraction failed")
		}
		return exitFailed
	}

	summary := result.Summary
	if summary.Empty {
		logger.Warn("Nothing to extract: no sites found in the sheet",
			slog.String("run_id", summary.ID))
		return exitOK
	}

	for _, file := range summary.Files {
		fmt.Println(file)
	}
	logger.InfoContext(ctx, "Extraction complete",
		slog.String("run_id", summary.ID),
		slog.Int("sites", len(summary.Sites)),
		slog.Int("dates", summary.Dates),
		slog.Int("records", summary.TotalRecords()),
		slog.Int("absences", summary.Absences),
		slog.Int("files", len(summary.Files)))
	return exitOK
}
