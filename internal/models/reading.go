package models

import (
	"fmt"
	"sort"
	"time"
)

// Source tags where a reading came from.
type Source string

const (
	SourceTrident   Source = "trident"
	SourceManual    Source = "manual"
	SourceProbe     Source = "probe"
	SourceSynthetic Source = "synthetic"
)

// Reading represents one observation of a tank's water chemistry.
// Not every parameter needs to be present in every reading.
type Reading struct {
	TankID    string                `json:"tank_id"`
	Timestamp time.Time             `json:"timestamp"`
	Source    Source                `json:"source"`
	Values    map[Parameter]float64 `json:"values"`
}

// Value returns the reading's value for a parameter and whether it is present.
func (r *Reading) Value(p Parameter) (float64, bool) {
	v, ok := r.Values[p]
	return v, ok
}

// Clone returns a deep copy so stored readings cannot be mutated by callers.
func (r *Reading) Clone() Reading {
	out := *r
	out.Values = make(map[Parameter]float64, len(r.Values))
	for p, v := range r.Values {
		out.Values[p] = v
	}
	return out
}

// Validate checks a reading for physically impossible values.
// Unknown parameter keys are allowed; they classify as "unknown" downstream.
func (r *Reading) Validate() error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("reading: timestamp is required")
	}
	if len(r.Values) == 0 {
		return fmt.Errorf("reading: at least one parameter value is required")
	}
	for p, v := range r.Values {
		if err := validateValue(p, v); err != nil {
			return err
		}
	}
	return nil
}

// validateValue rejects values outside physical possibility for the
// registered parameters. Bounds are sanity limits, not quality bands.
func validateValue(p Parameter, v float64) error {
	var lo, hi float64
	switch p {
	case ParamAlkalinity:
		lo, hi = 0, 25 // dKH
	case ParamCalcium:
		lo, hi = 0, 1000 // mg/L
	case ParamMagnesium:
		lo, hi = 0, 3000 // mg/L
	case ParamPH:
		lo, hi = 0, 14
	case ParamSalinity:
		lo, hi = 0, 50 // ppt
	case ParamTemp:
		lo, hi = 0, 45 // °C
	case ParamNitrate:
		lo, hi = 0, 500 // ppm
	case ParamPhosphate:
		lo, hi = 0, 10 // ppm
	default:
		return nil
	}
	if v < lo || v > hi {
		return fmt.Errorf("reading: %s value %.3f outside plausible range [%.0f, %.0f]", p, v, lo, hi)
	}
	return nil
}

// SortReadingsAsc orders readings oldest-first. Consumers sort explicitly
// at every boundary instead of assuming an implicit order.
func SortReadingsAsc(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
}

// SortReadingsDesc orders readings newest-first.
func SortReadingsDesc(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.After(readings[j].Timestamp)
	})
}
