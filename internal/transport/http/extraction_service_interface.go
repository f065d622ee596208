package http

import (
	"context"

	"github.com/vsamautomation/fuel-data-cleaner/internal/services"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// ExtractionServiceInterface defines the interface for the extraction service
type ExtractionServiceInterface interface {
	Run(ctx context.Context, opts services.RunOptions) (*services.Result, error)
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
	GetRun(ctx context.Context, id string) (*domain.RunSummary, error)
}
