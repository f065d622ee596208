package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts"
)

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunTracker reports whether an extraction is in progress.
type RunTracker interface {
	Running() bool
	Source() string
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	outputDir string
	store     Pinger
	runs      RunTracker
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. store and runs may be nil.
func NewHealthService(version, outputDir string, store Pinger, runs RunTracker, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("output_dir", outputDir),
		slog.Bool("store", store != nil))

	return &HealthService{
		version:   version,
		outputDir: outputDir,
		store:     store,
		runs:      runs,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["store"] = hs.checkStoreHealth(ctx)
	status.Services["output"] = hs.checkOutputHealth()
	status.Services["extraction"] = hs.checkExtractionHealth()

	for name, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status == "not_ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "ReadinessCheck: service not ready",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	build := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      hs.version,
		"build_time":   build.BuildTime,
		"git_commit":   build.GitCommit,
		"data_format":  build.DataFormat,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkStoreHealth(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "disabled", Message: "run history is disabled"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := hs.store.Ping(ctx); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Store error: %v", err),
		}
	}
	return ServiceHealth{Status: "ready", Message: "Run store is healthy"}
}

// checkOutputHealth checks that the output directory is usable. A missing
// directory is fine; it is created by the first run.
func (hs *HealthService) checkOutputHealth() ServiceHealth {
	info, err := os.Stat(hs.outputDir)
	if os.IsNotExist(err) {
		return ServiceHealth{Status: "ready", Message: "Output directory will be created on first run"}
	}
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Cannot stat output directory: %v", err)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Output path is not a directory: %s", hs.outputDir)}
	}
	return ServiceHealth{Status: "ready", Message: "Output directory is available"}
}

func (hs *HealthService) checkExtractionHealth() ServiceHealth {
	if hs.runs == nil {
		return ServiceHealth{Status: "not_ready", Message: "extraction service not initialized"}
	}
	if hs.runs.Running() {
		return ServiceHealth{Status: "ready", Message: "Extraction in progress from " + hs.runs.Source()}
	}
	return ServiceHealth{Status: "ready", Message: "Extraction idle"}
}
