package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type idleTracker struct{ running bool }

func (i idleTracker) Running() bool  { return i.running }
func (i idleTracker) Source() string { return "file:test.csv" }

func TestHealthCheck(t *testing.T) {
	hs := NewHealthService("1.2.0", t.TempDir(), nil, idleTracker{}, discardLogger())

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.0", status.Version)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	assert.Equal(t, "1.2.0", hs.Version()["version"])
	assert.Equal(t, "v1", hs.Version()["data_format"])
}

func TestReadinessCheck(t *testing.T) {
	t.Run("ready without store", func(t *testing.T) {
		hs := NewHealthService("v", filepath.Join(t.TempDir(), "later"), nil, idleTracker{}, discardLogger())
		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "ready", status.Status)
		assert.Equal(t, "disabled", status.Services["store"].(ServiceHealth).Status)
	})

	t.Run("store ping fails", func(t *testing.T) {
		st := &MockRunStore{}
		st.On("Ping", mock.Anything).Return(errors.New("database is locked"))

		hs := NewHealthService("v", t.TempDir(), st, idleTracker{}, discardLogger())
		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "not_ready", status.Status)
		assert.Contains(t, status.Services["store"].(ServiceHealth).Message, "database is locked")
	})

	t.Run("output path is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out")
		require.NoError(t, os.WriteFile(path, nil, 0644))

		hs := NewHealthService("v", path, nil, idleTracker{}, discardLogger())
		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "not_ready", status.Status)
	})

	t.Run("run in progress is ready", func(t *testing.T) {
		st := &MockRunStore{}
		st.On("Ping", mock.Anything).Return(nil)

		hs := NewHealthService("v", t.TempDir(), st, idleTracker{running: true}, discardLogger())
		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "ready", status.Status)
		assert.Contains(t, status.Services["extraction"].(ServiceHealth).Message, "in progress")
	})
}
