package forecast_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumeview/plumeview/internal/forecast"
)

const sampleDocument = `{
	"metadata": {
		"num_timesteps": 2,
		"forecast_reference_time": "2024-01-15T00:00:00",
		"source": "unified-pipeline"
	},
	"timesteps": [
		{
			"index": 0,
			"valid_time": "2024-01-15T06:00:00",
			"forecast_hour": 6,
			"pm25": {
				"data": [
					{"lat": 40.0, "lon": -105.0, "value": 12.5},
					{"lat": 40.0, "lon": -104.5, "value": null}
				],
				"statistics": {"min": 12.5, "max": 12.5}
			},
			"wind": {
				"data": [
					{"lat": 40.0, "lon": -105.0, "speed": 4.2, "direction": 270}
				],
				"statistics": {}
			},
			"precipitation": {"data": [], "statistics": {}},
			"temperature": {
				"data": [{"lat": 40.0, "lon": -105.0, "value": 48.0}],
				"statistics": {}
			}
		},
		{
			"index": 1,
			"valid_time": "2024-01-15T07:00:00Z",
			"forecast_hour": 7,
			"pm25": {"data": [], "statistics": {}},
			"wind": {"data": [], "statistics": {}},
			"precipitation": {"data": [], "statistics": {}},
			"temperature": {"data": [], "statistics": {}}
		}
	],
	"pollution_sources": {
		"sources": [
			{"type": "fire", "lat": 39.5, "lon": -104.8, "confidence": 85, "frp": 12.3, "brightness": 330.1},
			{"type": "power_plant", "lat": 39.8, "lon": -105.1, "name": "Valmont", "capacity_mw": 186, "fuel_type": "coal"}
		],
		"metadata": {"fire_count": 1, "power_plant_count": 1}
	}
}`

func TestDecode_FullDocument(t *testing.T) {
	ds, err := forecast.Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	require.Len(t, ds.Timesteps, 2)
	assert.Equal(t, 2, ds.Metadata.NumTimesteps)

	ts := ds.Timesteps[0]
	assert.Equal(t, 6, ts.ForecastHour)
	assert.Equal(t, 2024, ts.ValidTime.Year())
	assert.Equal(t, 6, ts.ValidTime.Hour())

	require.Len(t, ts.PM25.Data, 2)
	assert.Equal(t, 12.5, ts.PM25.Data[0].Value)
	assert.True(t, ts.PM25.Data[0].HasValue())
	assert.True(t, math.IsNaN(ts.PM25.Data[1].Value), "null value must decode to NaN")
	assert.False(t, ts.PM25.Data[1].HasValue())

	require.Len(t, ts.Wind.Data, 1)
	assert.Equal(t, 270.0, ts.Wind.Data[0].Direction)

	require.Len(t, ds.PollutionSources.Sources, 2)
	fire := ds.PollutionSources.Sources[0]
	assert.Equal(t, forecast.SourceFire, fire.Type)
	assert.Equal(t, 85.0, fire.Confidence)
	plant := ds.PollutionSources.Sources[1]
	assert.Equal(t, forecast.SourcePowerPlant, plant.Type)
	assert.Equal(t, "Valmont", plant.Name)
	assert.Equal(t, 186.0, plant.CapacityMW)
}

func TestDecode_AcceptsZoneSuffixedTimestamps(t *testing.T) {
	ds, err := forecast.Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, 7, ds.Timesteps[1].ValidTime.Hour())
}

func TestDecode_NoTimesteps(t *testing.T) {
	doc := `{"metadata": {"num_timesteps": 0}, "timesteps": [], "pollution_sources": {"sources": []}}`

	_, err := forecast.Decode(strings.NewReader(doc))
	assert.ErrorIs(t, err, forecast.ErrNoTimesteps)
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := forecast.Decode(strings.NewReader(`{"timesteps": [`))
	assert.Error(t, err)
}

func TestValidate_RejectsOutOfRangeCoordinates(t *testing.T) {
	tests := []struct {
		name string
		ds   forecast.Dataset
	}{
		{
			name: "latitude beyond pole",
			ds: forecast.Dataset{Timesteps: []forecast.Timestep{{
				PM25: forecast.FieldSlice{Data: []forecast.Sample{{Lat: 91, Lon: 0, Value: 1}}},
			}}},
		},
		{
			name: "longitude beyond antimeridian",
			ds: forecast.Dataset{Timesteps: []forecast.Timestep{{
				Wind: forecast.WindSlice{Data: []forecast.WindSample{{Lat: 0, Lon: -181}}},
			}}},
		},
		{
			name: "source off the map",
			ds: forecast.Dataset{
				Timesteps: []forecast.Timestep{{}},
				PollutionSources: forecast.SourceSet{
					Sources: []forecast.Source{{Type: forecast.SourceFire, Lat: -95, Lon: 0}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ds.Validate()
			assert.ErrorIs(t, err, forecast.ErrInvalidSample)
		})
	}
}

func TestValidate_NaNValuesAreLegal(t *testing.T) {
	ds := forecast.Dataset{Timesteps: []forecast.Timestep{{
		PM25: forecast.FieldSlice{Data: []forecast.Sample{{Lat: 40, Lon: -105, Value: math.NaN()}}},
	}}}

	assert.NoError(t, ds.Validate())
}
