package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Decoding errors.
var (
	ErrNoTimesteps   = errors.New("document contains no timesteps")
	ErrInvalidSample = errors.New("sample coordinates out of range")
)

// Decode reads and validates a unified forecast document. The rendering
// core assumes a structurally valid dataset, so validation happens here,
// before any timestep is handed out.
func Decode(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := json.NewDecoder(r)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode forecast document: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks the structural invariants the rendering core relies on.
// Missing values (NaN) are legal; out-of-range coordinates are not.
func (d *Dataset) Validate() error {
	if len(d.Timesteps) == 0 {
		return ErrNoTimesteps
	}
	for i := range d.Timesteps {
		ts := &d.Timesteps[i]
		for _, s := range ts.PM25.Data {
			if err := checkCoords(s.Lat, s.Lon); err != nil {
				return fmt.Errorf("timestep %d pm25: %w", i, err)
			}
		}
		for _, s := range ts.Precipitation.Data {
			if err := checkCoords(s.Lat, s.Lon); err != nil {
				return fmt.Errorf("timestep %d precipitation: %w", i, err)
			}
		}
		for _, s := range ts.Temperature.Data {
			if err := checkCoords(s.Lat, s.Lon); err != nil {
				return fmt.Errorf("timestep %d temperature: %w", i, err)
			}
		}
		for _, s := range ts.Wind.Data {
			if err := checkCoords(s.Lat, s.Lon); err != nil {
				return fmt.Errorf("timestep %d wind: %w", i, err)
			}
		}
	}
	for _, src := range d.PollutionSources.Sources {
		if err := checkCoords(src.Lat, src.Lon); err != nil {
			return fmt.Errorf("pollution source: %w", err)
		}
	}
	return nil
}

func checkCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidSample, lat, lon)
	}
	return nil
}
