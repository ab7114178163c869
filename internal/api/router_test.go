package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumeview/plumeview/internal/api"
	"github.com/plumeview/plumeview/internal/forecast"
	"github.com/plumeview/plumeview/internal/session"
	"github.com/plumeview/plumeview/internal/viz"
)

func testSamples(value float64) []forecast.Sample {
	return []forecast.Sample{
		{Lat: 10, Lon: 10, Value: value},
		{Lat: 10, Lon: 20, Value: value},
		{Lat: 0, Lon: 10, Value: value},
		{Lat: 0, Lon: 20, Value: value},
	}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	ds := &forecast.Dataset{
		Metadata: forecast.Metadata{NumTimesteps: 3, Source: "test"},
		PollutionSources: forecast.SourceSet{Sources: []forecast.Source{
			{Type: forecast.SourceFire, Lat: 5, Lon: 15, Confidence: 80, FRP: 10},
		}},
	}
	for i := 0; i < 3; i++ {
		ds.Timesteps = append(ds.Timesteps, forecast.Timestep{
			Index: i,
			PM25:  forecast.FieldSlice{Data: testSamples(float64(30 + i))},
			Wind: forecast.WindSlice{Data: []forecast.WindSample{
				{Lat: 10, Lon: 10, Speed: 6, Direction: 270},
			}},
			Temperature: forecast.FieldSlice{Data: testSamples(45)},
		})
	}

	sess := session.New(session.Config{
		Surface: viz.NewMemorySurface(3),
		Dataset: ds,
	})
	t.Cleanup(sess.Pause)

	return api.NewRouter(api.RouterConfig{
		Version: "test",
		Logger:  zerolog.Nop(),
		Session: sess,
		Status: func() map[string]interface{} {
			return map[string]interface{}{"breaker_state": "closed"}
		},
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("{}")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestRouter_HealthCheck(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, http.MethodGet, "/v1/ops/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestRouter_SystemStatus(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, http.MethodGet, "/v1/ops/status", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["timesteps"])
	assert.Equal(t, false, body["playing"])
	ingestStatus, ok := body["ingest"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "closed", ingestStatus["breaker_state"])
}

func TestRouter_ListLayers(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, http.MethodGet, "/v1/layers", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	layers, ok := body["layers"].([]interface{})
	require.True(t, ok)
	require.Len(t, layers, 5)
	first := layers[0].(map[string]interface{})
	assert.Equal(t, "pm25", first["name"])
	assert.Equal(t, true, first["visible"])
}

func TestRouter_GetOverlayPNG(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/layers/pm25/overlay.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Bounds-North"))
	// PNG magic bytes.
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestRouter_GetOverlayUnknownLayer(t *testing.T) {
	router := testRouter(t)

	rec, _ := doJSON(t, router, http.MethodGet, "/v1/layers/ozone/overlay.png", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_GetOverlayNoRaster(t *testing.T) {
	router := testRouter(t)

	// The test dataset has no precipitation samples.
	rec, _ := doJSON(t, router, http.MethodGet, "/v1/layers/precipitation/overlay.png", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_GetMarkers(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, http.MethodGet, "/v1/layers/wind/markers", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	markers, ok := body["markers"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, markers)
	m := markers[0].(map[string]interface{})
	assert.Contains(t, m["tooltip"], "from W")
}

func TestRouter_SetVisibility(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, http.MethodPut, "/v1/layers/pm25/visibility", `{"visible": false}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["visible"])

	// The hidden layer no longer serves an overlay.
	rec, _ = doJSON(t, router, http.MethodGet, "/v1/layers/pm25/overlay.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SetVisibilityUnknownLayer(t *testing.T) {
	router := testRouter(t)

	rec, _ := doJSON(t, router, http.MethodPut, "/v1/layers/ozone/visibility", `{"visible": false}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SetViewMode(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, http.MethodPut, "/v1/layers/sources/view-mode", `{"mode": "icons"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "icons", body["mode"])

	rec, body = doJSON(t, router, http.MethodPut, "/v1/layers/sources/view-mode", `{"mode": "hexagons"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestRouter_PlaybackFlow(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, http.MethodGet, "/v1/playback", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["current_index"])
	assert.Equal(t, float64(3), body["timesteps"])

	rec, body = doJSON(t, router, http.MethodPut, "/v1/playback/timestep", `{"index": 2}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["current_index"])

	// Out-of-range seeks leave the state untouched.
	rec, body = doJSON(t, router, http.MethodPut, "/v1/playback/timestep", `{"index": 9}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["current_index"])

	rec, body = doJSON(t, router, http.MethodPost, "/v1/playback/previous", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["current_index"])

	rec, body = doJSON(t, router, http.MethodPost, "/v1/playback/next", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["current_index"])
}

func TestRouter_PlayPause(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/v1/playback/play", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["playing"])

	rec, body = doJSON(t, router, http.MethodPost, "/v1/playback/pause", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["playing"])
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", nil)
	req.Header.Set("X-Request-ID", "req_test123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req_test123", rec.Header().Get("X-Request-ID"))
}

func TestRouter_InvalidJSONBody(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, http.MethodPut, "/v1/playback/timestep", `{"index": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["error"])
}
