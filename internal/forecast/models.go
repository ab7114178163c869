// Package forecast defines the unified forecast document produced by the
// data backend and consumed by the rendering pipeline.
package forecast

import (
	"encoding/json"
	"math"
	"time"
)

// Phenomenon identifies one renderable forecast field.
type Phenomenon string

const (
	PhenomenonPM25          Phenomenon = "pm25"
	PhenomenonWind          Phenomenon = "wind"
	PhenomenonPrecipitation Phenomenon = "precipitation"
	PhenomenonTemperature   Phenomenon = "temperature"
	PhenomenonSources       Phenomenon = "sources"
)

// Sample is a single scalar observation on the forecast grid.
// A missing value decodes to NaN, which always means "no data" and is
// never treated as zero.
type Sample struct {
	Lat   float64
	Lon   float64
	Value float64
}

// HasValue reports whether the sample carries real data.
func (s Sample) HasValue() bool {
	return !math.IsNaN(s.Value)
}

// UnmarshalJSON decodes a sample, mapping a null or absent value to NaN.
func (s *Sample) UnmarshalJSON(b []byte) error {
	var raw struct {
		Lat   float64  `json:"lat"`
		Lon   float64  `json:"lon"`
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Lat = raw.Lat
	s.Lon = raw.Lon
	if raw.Value == nil {
		s.Value = math.NaN()
	} else {
		s.Value = *raw.Value
	}
	return nil
}

// WindSample is a single wind observation. Speed is in m/s, Direction is
// the meteorological direction in degrees (0 = from the north).
type WindSample struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Speed     float64 `json:"speed"`
	Direction float64 `json:"direction"`
}

// FieldSlice is one phenomenon's data for a single timestep.
type FieldSlice struct {
	Data       []Sample           `json:"data"`
	Statistics map[string]float64 `json:"statistics"`
}

// WindSlice is the wind field for a single timestep.
type WindSlice struct {
	Data       []WindSample       `json:"data"`
	Statistics map[string]float64 `json:"statistics"`
}

// Time wraps time.Time to accept the backend's timestamp encodings, which
// appear both with and without a zone suffix.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON parses a timestamp in any of the accepted layouts.
func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	var lastErr error
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// Timestep holds every phenomenon's slice for one forecast hour.
// Timesteps are decoded once at startup and immutable thereafter.
type Timestep struct {
	Index         int        `json:"index"`
	ValidTime     Time       `json:"valid_time"`
	ForecastHour  int        `json:"forecast_hour"`
	PM25          FieldSlice `json:"pm25"`
	Wind          WindSlice  `json:"wind"`
	Precipitation FieldSlice `json:"precipitation"`
	Temperature   FieldSlice `json:"temperature"`
}

// SourceType distinguishes pollution source kinds.
type SourceType string

const (
	SourceFire       SourceType = "fire"
	SourcePowerPlant SourceType = "power_plant"
)

// Source is a single pollution point source. Fires carry Confidence, FRP
// and Brightness; power plants carry Name, CapacityMW and FuelType.
type Source struct {
	Type       SourceType `json:"type"`
	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	Confidence float64    `json:"confidence,omitempty"`
	FRP        float64    `json:"frp,omitempty"`
	Brightness float64    `json:"brightness,omitempty"`
	Name       string     `json:"name,omitempty"`
	CapacityMW float64    `json:"capacity_mw,omitempty"`
	FuelType   string     `json:"fuel_type,omitempty"`
}

// SourcesMetadata summarizes the pollution source inventory.
type SourcesMetadata struct {
	FireCount       int `json:"fire_count"`
	PowerPlantCount int `json:"power_plant_count"`
}

// SourceSet is the full pollution source inventory. Unlike timestep fields
// it is not time-varying.
type SourceSet struct {
	Sources  []Source        `json:"sources"`
	Metadata SourcesMetadata `json:"metadata"`
}

// Metadata describes the forecast run the document was built from.
type Metadata struct {
	NumTimesteps          int    `json:"num_timesteps"`
	ForecastReferenceTime string `json:"forecast_reference_time,omitempty"`
	Source                string `json:"source,omitempty"`
}

// Dataset is the decoded unified forecast document.
type Dataset struct {
	Metadata         Metadata   `json:"metadata"`
	Timesteps        []Timestep `json:"timesteps"`
	PollutionSources SourceSet  `json:"pollution_sources"`
}
