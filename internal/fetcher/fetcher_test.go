package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/googleapi"

	"github.com/vsamautomation/fuel-data-cleaner/internal/config"
	apperrors "github.com/vsamautomation/fuel-data-cleaner/internal/errors"
	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
)

const sampleCSV = ",,,,,,Sep-01-25\n,Site A\n,INV. SETTING,,,87,,\"1,000\"\n"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func retryOpts(attempts int) RetryOptions {
	return RetryOptions{Attempts: attempts, Delay: time.Millisecond, Logger: quietLogger()}
}

func TestHTTPFetcherCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/pub?output=csv", "auto", "", srv.Client())
	g, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, g.Height())
	assert.Equal(t, "Site A", g.Text(1, 1))
	v, ok := g.At(2, 6).Float()
	require.True(t, ok)
	assert.Equal(t, 1000.0, v)
	assert.Equal(t, srv.URL+"/pub", f.Source())
}

func TestHTTPFetcherXLSXByContentType(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetCellValue(sheet, "B2", "Site A"))
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	g, err := NewHTTPFetcher(srv.URL, "auto", "", srv.Client()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Site A", g.Text(1, 1))
}

func TestRetrierRetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	r := NewRetrier(NewHTTPFetcher(srv.URL, "csv", "", srv.Client()), retryOpts(3))
	g, err := r.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, g.Height())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetrierGivesUpAfterAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := NewRetrier(NewHTTPFetcher(srv.URL, "csv", "", srv.Client()), retryOpts(3))
	_, err := r.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeNetwork, appErr.Type)
	assert.Equal(t, 3, appErr.Context["attempts"])
	assert.Equal(t, http.StatusTooManyRequests, appErr.Context["status"])
}

func TestRetrierDoesNotRetryPermanentStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewRetrier(NewHTTPFetcher(srv.URL, "csv", "", srv.Client()), retryOpts(3))
	_, err := r.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
}

func TestRetrierTimeoutIsTransient(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	opts := retryOpts(2)
	opts.Timeout = 50 * time.Millisecond
	r := NewRetrier(NewHTTPFetcher(srv.URL, "csv", "", srv.Client()), opts)

	g, err := r.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, g.Height())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRetrierStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	opts := retryOpts(5)
	opts.Delay = time.Hour
	r := NewRetrier(NewHTTPFetcher(srv.URL, "csv", "", srv.Client()), opts)

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := r.Fetch(ctx)
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not stop after cancellation")
	}
}

func TestParseErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, "not a workbook")
	}))
	defer srv.Close()

	r := NewRetrier(NewHTTPFetcher(srv.URL, "xlsx", "", srv.Client()), retryOpts(3))
	_, err := r.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"503", &StatusError{Code: 503, Status: "503 Service Unavailable"}, true},
		{"429", &StatusError{Code: 429}, true},
		{"403", &StatusError{Code: 403}, false},
		{"googleapi 500", &googleapi.Error{Code: 500}, true},
		{"googleapi 404", &googleapi.Error{Code: 404}, false},
		{"wrapped eof", fmt.Errorf("read: %w", io.ErrUnexpectedEOF), true},
		{"parsing", apperrors.NewParsingError("bad", nil), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "sheet.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0644))

	g, err := NewFileFetcher(csvPath, "auto", "").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sep-01-25", g.Text(0, 6))

	xlsxPath := filepath.Join(dir, "sheet.xlsx")
	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "B2", "Site B"))
	require.NoError(t, wb.SaveAs(xlsxPath))
	require.NoError(t, wb.Close())

	g, err = NewFileFetcher(xlsxPath, "auto", "").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Site B", g.Text(1, 1))

	_, err = NewFileFetcher(filepath.Join(dir, "missing.csv"), "auto", "").Fetch(context.Background())
	assert.Error(t, err)
}

func TestSheetsFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/values/"):
			assert.Equal(t, "FORMATTED_VALUE", r.URL.Query().Get("valueRenderOption"))
			assert.True(t, strings.HasSuffix(r.URL.Path, "/values/Fuel"), r.URL.Path)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"range":          "Fuel!A1:G3",
				"majorDimension": "ROWS",
				"values": [][]interface{}{
					{"", "", "", "", "", "", "Sep-01-25"},
					{"", "Site A"},
					{"", "INV. SETTING", "", "", "87", "", "1,000"},
				},
			})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"sheets": []map[string]interface{}{
					{"properties": map[string]interface{}{"title": "Fuel"}},
				},
			})
		}
	}))
	defer srv.Close()

	f, err := NewSheetsFetcher(context.Background(), SheetsOptions{
		SpreadsheetID: "abc123",
		Endpoint:      srv.URL + "/",
	})
	require.NoError(t, err)
	assert.Equal(t, "sheets:abc123", f.Source())

	g, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Site A", g.Text(1, 1))
	assert.Equal(t, grid.KindText, g.At(2, 6).Kind())
	v, ok := g.At(2, 6).Float()
	require.True(t, ok)
	assert.Equal(t, 1000.0, v)
}

func TestSheetsFetcherRequiresID(t *testing.T) {
	_, err := NewSheetsFetcher(context.Background(), SheetsOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestNewSelectsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	cfg := config.Default().Source
	cfg.Kind = config.SourceFile
	cfg.FilePath = path

	f, err := New(context.Background(), cfg, quietLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, "file:"+path, f.Source())

	g, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, g.Height())

	cfg.Kind = "ftp"
	_, err = New(context.Background(), cfg, quietLogger(), nil)
	assert.Error(t, err)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, "xlsx", formatFor("auto", "https://x/pub?gid=1&output=xlsx"))
	assert.Equal(t, "xlsx", formatFor("", "report.XLSX"))
	assert.Equal(t, "csv", formatFor("auto", "text/csv"))
	assert.Equal(t, "csv", formatFor("CSV", "report.xlsx"))
}
