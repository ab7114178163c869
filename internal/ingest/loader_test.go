package ingest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumeview/plumeview/internal/forecast"
	"github.com/plumeview/plumeview/internal/ingest"
)

const minimalDocument = `{
	"metadata": {"num_timesteps": 1},
	"timesteps": [
		{
			"index": 0,
			"valid_time": "2024-01-15T06:00:00",
			"forecast_hour": 6,
			"pm25": {"data": [{"lat": 40, "lon": -105, "value": 8.1}], "statistics": {}},
			"wind": {"data": [], "statistics": {}},
			"precipitation": {"data": [], "statistics": {}},
			"temperature": {"data": [], "statistics": {}}
		}
	],
	"pollution_sources": {"sources": [], "metadata": {}}
}`

func fastClient() *ingest.Client {
	return ingest.NewClient(ingest.ClientConfig{
		Timeout:         2 * time.Second,
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	})
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.json")
	require.NoError(t, os.WriteFile(path, []byte(minimalDocument), 0o644))

	loader := ingest.NewLoader(nil)
	ds, err := loader.Load(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, ds.Timesteps, 1)
	assert.Equal(t, 8.1, ds.Timesteps[0].PM25.Data[0].Value)
}

func TestLoad_MissingFile(t *testing.T) {
	loader := ingest.NewLoader(nil)

	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))

	assert.Error(t, err)
}

func TestLoad_FromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(minimalDocument))
	}))
	defer srv.Close()

	loader := ingest.NewLoader(fastClient())
	ds, err := loader.Load(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Len(t, ds.Timesteps, 1)
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(minimalDocument))
	}))
	defer srv.Close()

	loader := ingest.NewLoader(fastClient())
	ds, err := loader.Load(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, ds.Timesteps, 1)
}

func TestFetch_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := fastClient()
	_, err := client.Fetch(context.Background(), srv.URL)

	assert.ErrorIs(t, err, ingest.ErrDocumentUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses must not be retried")
}

func TestFetch_ExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := fastClient()
	_, err := client.Fetch(context.Background(), srv.URL)

	assert.ErrorIs(t, err, ingest.ErrDocumentUnavailable)
}

func TestLoad_InvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timesteps": []}`), 0o644))

	loader := ingest.NewLoader(nil)
	_, err := loader.Load(context.Background(), path)

	assert.ErrorIs(t, err, forecast.ErrNoTimesteps)
}

func TestBreakerState_StartsClosed(t *testing.T) {
	loader := ingest.NewLoader(fastClient())
	assert.Equal(t, "closed", loader.BreakerState())
}
