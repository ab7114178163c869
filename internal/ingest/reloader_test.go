package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumeview/plumeview/internal/forecast"
	"github.com/plumeview/plumeview/internal/ingest"
)

// sinkSpy records datasets handed to the reloader's sink.
type sinkSpy struct {
	mu       sync.Mutex
	datasets []*forecast.Dataset
}

func (s *sinkSpy) ReplaceDataset(ds *forecast.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets = append(s.datasets, ds)
}

func (s *sinkSpy) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.datasets)
}

func TestReloader_HandsNewDatasetsToSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.json")
	require.NoError(t, os.WriteFile(path, []byte(minimalDocument), 0o644))

	sink := &sinkSpy{}
	r := ingest.NewReloader(ingest.ReloaderConfig{
		Source:   path,
		Interval: 10 * time.Millisecond,
	}, nil, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	require.Eventually(t, func() bool {
		return sink.count() >= 2
	}, time.Second, 5*time.Millisecond)

	snap := r.MetricsSnapshot()
	assert.GreaterOrEqual(t, snap["total_reloads"].(int64), int64(2))
	assert.Equal(t, int64(0), snap["failed_reloads"])
	assert.Equal(t, "", snap["last_error"])
}

func TestReloader_FailureKeepsPreviousDataset(t *testing.T) {
	sink := &sinkSpy{}
	r := ingest.NewReloader(ingest.ReloaderConfig{
		Source:   filepath.Join(t.TempDir(), "missing.json"),
		Interval: 10 * time.Millisecond,
	}, nil, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	require.Eventually(t, func() bool {
		snap := r.MetricsSnapshot()
		return snap["failed_reloads"].(int64) >= 1
	}, time.Second, 5*time.Millisecond)

	assert.Zero(t, sink.count(), "failed reloads must not reach the sink")
	assert.NotEmpty(t, r.MetricsSnapshot()["last_error"])
}

func TestReloader_StopsOnContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.json")
	require.NoError(t, os.WriteFile(path, []byte(minimalDocument), 0o644))

	sink := &sinkSpy{}
	r := ingest.NewReloader(ingest.ReloaderConfig{
		Source:   path,
		Interval: 10 * time.Millisecond,
	}, nil, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reloader did not stop after cancel")
	}
}
