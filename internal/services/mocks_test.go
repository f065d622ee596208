package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// MockFetcher is a mock for fetcher.Fetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context) (*grid.Grid, error) {
	args := m.Called(ctx)
	g, _ := args.Get(0).(*grid.Grid)
	return g, args.Error(1)
}

func (m *MockFetcher) Source() string {
	return "mock:sheet"
}

// MockRunStore is a mock for store.RunStore
type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) SaveRun(ctx context.Context, run domain.RunSummary) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunStore) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]domain.RunSummary)
	return runs, args.Error(1)
}

func (m *MockRunStore) GetRun(ctx context.Context, id string) (*domain.RunSummary, error) {
	args := m.Called(ctx, id)
	run, _ := args.Get(0).(*domain.RunSummary)
	return run, args.Error(1)
}

func (m *MockRunStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRunStore) Close() error {
	return nil
}
