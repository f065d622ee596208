package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vsamautomation/fuel-data-cleaner/internal/config"
	apperrors "github.com/vsamautomation/fuel-data-cleaner/internal/errors"
	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
	"github.com/vsamautomation/fuel-data-cleaner/internal/store"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNow = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

// siteGrid is one site with two dates, settings and readings.
func siteGrid() *grid.Grid {
	rows := make([][]string, 16)
	for i := range rows {
		rows[i] = make([]string, 8)
	}
	set := func(r, c int, v string) { rows[r][c] = v }

	set(0, 6, "Sep-01-25")
	set(0, 7, "Sep-02-25")
	set(1, 1, "Site A")
	set(2, 1, "INV. SETTING")
	set(3, 1, "8000")
	set(3, 4, "87")
	set(4, 1, "TANK SIZE")
	set(5, 1, "10000")
	set(5, 4, "87")
	set(6, 3, "READINGS")
	set(7, 4, "87")
	set(7, 6, "1,234")
	set(7, 7, "1100")
	set(8, 4, "91")
	set(8, 6, "500")
	set(9, 3, "NOTES")
	return grid.FromStrings(rows)
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Formats = []string{"csv"}
	return cfg
}

func newTestService(t *testing.T, f *MockFetcher, st *MockRunStore) *ExtractionService {
	t.Helper()
	var runs store.RunStore
	if st != nil {
		runs = st
	}
	svc, err := NewExtractionService(testConfig(t), f, runs, nil, discardLogger())
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow }
	svc.newID = func() string { return "run-1" }
	return svc
}

func TestNewExtractionServiceRequiresDependencies(t *testing.T) {
	_, err := NewExtractionService(nil, &MockFetcher{}, nil, nil, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	_, err = NewExtractionService(config.Default(), nil, nil, nil, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestRunExtractsExportsAndStores(t *testing.T) {
	f := &MockFetcher{}
	f.On("Fetch", mock.Anything).Return(siteGrid(), nil).Once()

	st := &MockRunStore{}
	var saved domain.RunSummary
	st.On("SaveRun", mock.Anything, mock.AnythingOfType("domain.RunSummary")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.RunSummary) }).
		Return(nil).Once()

	svc := newTestService(t, f, st)
	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	summary := result.Summary
	assert.Equal(t, "run-1", summary.ID)
	assert.Equal(t, "mock:sheet", summary.Source)
	assert.Equal(t, []string{"Site A"}, summary.Sites)
	assert.Equal(t, 2, summary.Dates)
	assert.False(t, summary.Empty)
	assert.Equal(t, 4, summary.Counts[domain.SectionReadings])
	assert.Equal(t, 1, summary.Counts[domain.SectionTankSizes])
	assert.Equal(t, 1, summary.Counts[domain.SectionInvSettings])
	assert.NotEmpty(t, summary.Files)
	for _, file := range summary.Files {
		_, err := os.Stat(file)
		assert.NoError(t, err, file)
	}
	assert.Contains(t, summary.Files, filepath.Join(svc.cfg.Output.Dir, "fuel_readings.csv"))

	require.NotNil(t, result.Dataset)
	assert.Len(t, result.Dataset.Readings, 4)

	assert.Equal(t, summary.ID, saved.ID)
	assert.Equal(t, summary.Files, saved.Files)
	assert.False(t, svc.Running())
	f.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestRunDateOverride(t *testing.T) {
	f := &MockFetcher{}
	f.On("Fetch", mock.Anything).Return(siteGrid(), nil)

	svc := newTestService(t, f, nil)
	result, err := svc.Run(context.Background(), RunOptions{
		DateFrom: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Dates)
	for _, r := range result.Dataset.Readings {
		assert.Equal(t, 2, r.Date.Day())
	}
}

func TestRunRejectsInvertedDateRange(t *testing.T) {
	f := &MockFetcher{}
	svc := newTestService(t, f, nil)

	_, err := svc.Run(context.Background(), RunOptions{
		DateFrom: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	f.AssertNotCalled(t, "Fetch", mock.Anything)
}

func TestRunEmptyGrid(t *testing.T) {
	f := &MockFetcher{}
	f.On("Fetch", mock.Anything).Return(grid.FromStrings([][]string{{"", "nothing here"}}), nil)

	st := &MockRunStore{}
	st.On("SaveRun", mock.Anything, mock.MatchedBy(func(r domain.RunSummary) bool { return r.Empty })).Return(nil)

	svc := newTestService(t, f, st)
	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.True(t, result.Summary.Empty)
	assert.Empty(t, result.Summary.Files)

	entries, err := os.ReadDir(svc.cfg.Output.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	st.AssertExpectations(t)
}

func TestRunFetchFailure(t *testing.T) {
	fetchErr := apperrors.NewNetworkError("failed to fetch grid", errors.New("503")).WithContext("attempts", 3)
	f := &MockFetcher{}
	f.On("Fetch", mock.Anything).Return(nil, fetchErr)

	st := &MockRunStore{}
	svc := newTestService(t, f, st)

	_, err := svc.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
	st.AssertNotCalled(t, "SaveRun", mock.Anything, mock.Anything)
	assert.False(t, svc.Running())
}

func TestRunStoreFailure(t *testing.T) {
	f := &MockFetcher{}
	f.On("Fetch", mock.Anything).Return(siteGrid(), nil)
	st := &MockRunStore{}
	st.On("SaveRun", mock.Anything, mock.Anything).Return(apperrors.NewStorageError("disk full", nil))

	svc := newTestService(t, f, st)
	_, err := svc.Run(context.Background(), RunOptions{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestRunRejectsOverlap(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	f := &MockFetcher{}
	f.On("Fetch", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(grid.FromStrings(nil), nil).Once()

	svc := newTestService(t, f, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background(), RunOptions{})
		done <- err
	}()

	<-started
	assert.True(t, svc.Running())
	_, err := svc.Run(context.Background(), RunOptions{})
	assert.True(t, IsRunInProgress(err))

	close(release)
	require.NoError(t, <-done)
	assert.False(t, svc.Running())
}

func TestListAndGetRuns(t *testing.T) {
	st := &MockRunStore{}
	runs := []domain.RunSummary{{ID: "b"}, {ID: "a"}}
	st.On("ListRuns", mock.Anything, config.DefaultHistoryLimit).Return(runs, nil)
	st.On("ListRuns", mock.Anything, 5).Return(nil, nil)
	st.On("GetRun", mock.Anything, "a").Return(&runs[1], nil)
	st.On("GetRun", mock.Anything, "zzz").Return(nil, apperrors.NewNotFoundError("extraction run"))

	svc := newTestService(t, &MockFetcher{}, st)
	ctx := context.Background()

	got, err := svc.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, runs, got)

	got, err = svc.ListRuns(ctx, 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	run, err := svc.GetRun(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", run.ID)

	_, err = svc.GetRun(ctx, "zzz")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestHistoryDisabled(t *testing.T) {
	svc := newTestService(t, &MockFetcher{}, nil)

	_, err := svc.ListRuns(context.Background(), 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = svc.GetRun(context.Background(), "x")
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}
