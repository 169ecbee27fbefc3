package assessment

import (
	"fmt"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// ValidationError reports a malformed configuration entry by name so the
// caller can see exactly which parameter or rule is broken.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("assessment: invalid %s: %s", e.Field, e.Reason)
}

// Band is one inclusive [Low, High] value range.
type Band struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Contains reports whether v falls inside the band, boundaries included.
func (b Band) Contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

// Span returns the band width.
func (b Band) Span() float64 {
	return b.High - b.Low
}

// ParameterRange holds the nested quality bands for one parameter.
// Optimal must sit inside watch, watch inside critical; values outside
// the critical band classify as danger.
type ParameterRange struct {
	Parameter models.Parameter `json:"parameter" yaml:"parameter"`
	Unit      string           `json:"unit" yaml:"unit"`
	Optimal   Band             `json:"optimal" yaml:"optimal"`
	Watch     Band             `json:"watch" yaml:"watch"`
	Critical  Band             `json:"critical" yaml:"critical"`
}

// Validate checks band ordering and nesting.
func (pr *ParameterRange) Validate() error {
	name := string(pr.Parameter)
	if name == "" {
		return &ValidationError{Field: "range", Reason: "parameter name is empty"}
	}
	for _, b := range []struct {
		label string
		band  Band
	}{
		{"optimal", pr.Optimal},
		{"watch", pr.Watch},
		{"critical", pr.Critical},
	} {
		if b.band.Low > b.band.High {
			return &ValidationError{
				Field:  name,
				Reason: fmt.Sprintf("%s band is inverted: low %.3f > high %.3f", b.label, b.band.Low, b.band.High),
			}
		}
	}
	if pr.Optimal.Low < pr.Watch.Low || pr.Optimal.High > pr.Watch.High {
		return &ValidationError{Field: name, Reason: "optimal band is not contained in watch band"}
	}
	if pr.Watch.Low < pr.Critical.Low || pr.Watch.High > pr.Critical.High {
		return &ValidationError{Field: name, Reason: "watch band is not contained in critical band"}
	}
	return nil
}

// RangeTable is the static per-parameter reference data. It is built once
// at startup and never mutated afterwards.
type RangeTable struct {
	ranges map[models.Parameter]ParameterRange
}

// NewRangeTable validates every entry eagerly and builds the table.
// Later entries for the same parameter override earlier ones.
func NewRangeTable(ranges []ParameterRange) (*RangeTable, error) {
	table := &RangeTable{ranges: make(map[models.Parameter]ParameterRange, len(ranges))}
	for i := range ranges {
		if err := ranges[i].Validate(); err != nil {
			return nil, err
		}
		table.ranges[ranges[i].Parameter] = ranges[i]
	}
	return table, nil
}

// Lookup returns the range entry for a parameter, if registered.
func (t *RangeTable) Lookup(p models.Parameter) (ParameterRange, bool) {
	pr, ok := t.ranges[p]
	return pr, ok
}

// Parameters returns the registered parameters in display order, with any
// extras (from custom configuration) appended.
func (t *RangeTable) Parameters() []models.Parameter {
	out := make([]models.Parameter, 0, len(t.ranges))
	seen := make(map[models.Parameter]bool, len(t.ranges))
	for _, p := range models.KnownParameters() {
		if _, ok := t.ranges[p]; ok {
			out = append(out, p)
			seen[p] = true
		}
	}
	for p := range t.ranges {
		if !seen[p] {
			out = append(out, p)
		}
	}
	return out
}

// All returns a copy of every registered range in Parameters() order.
func (t *RangeTable) All() []ParameterRange {
	params := t.Parameters()
	out := make([]ParameterRange, 0, len(params))
	for _, p := range params {
		out = append(out, t.ranges[p])
	}
	return out
}

// DefaultRanges returns the built-in reef chemistry reference bands.
func DefaultRanges() []ParameterRange {
	return []ParameterRange{
		{
			Parameter: models.ParamAlkalinity,
			Unit:      "dKH",
			Optimal:   Band{Low: 7.5, High: 9.0},
			Watch:     Band{Low: 7.2, High: 10.0},
			Critical:  Band{Low: 6.0, High: 12.0},
		},
		{
			Parameter: models.ParamCalcium,
			Unit:      "mg/L",
			Optimal:   Band{Low: 400, High: 460},
			Watch:     Band{Low: 380, High: 500},
			Critical:  Band{Low: 350, High: 550},
		},
		{
			Parameter: models.ParamMagnesium,
			Unit:      "mg/L",
			Optimal:   Band{Low: 1250, High: 1400},
			Watch:     Band{Low: 1150, High: 1500},
			Critical:  Band{Low: 1000, High: 1650},
		},
		{
			Parameter: models.ParamPH,
			Unit:      "pH",
			Optimal:   Band{Low: 7.9, High: 8.4},
			Watch:     Band{Low: 7.7, High: 8.5},
			Critical:  Band{Low: 7.4, High: 8.8},
		},
		{
			Parameter: models.ParamSalinity,
			Unit:      "ppt",
			Optimal:   Band{Low: 34, High: 36},
			Watch:     Band{Low: 32, High: 37},
			Critical:  Band{Low: 28, High: 40},
		},
		{
			Parameter: models.ParamTemp,
			Unit:      "°C",
			Optimal:   Band{Low: 24.5, High: 26.5},
			Watch:     Band{Low: 23.5, High: 27.5},
			Critical:  Band{Low: 20, High: 30},
		},
		{
			Parameter: models.ParamNitrate,
			Unit:      "ppm",
			Optimal:   Band{Low: 1, High: 10},
			Watch:     Band{Low: 0, High: 25},
			Critical:  Band{Low: 0, High: 50},
		},
		{
			Parameter: models.ParamPhosphate,
			Unit:      "ppm",
			Optimal:   Band{Low: 0.02, High: 0.1},
			Watch:     Band{Low: 0, High: 0.25},
			Critical:  Band{Low: 0, High: 0.5},
		},
	}
}

// DefaultRangeTable builds the table from the built-in bands. The
// defaults are static and validated by tests, so construction cannot fail.
func DefaultRangeTable() *RangeTable {
	table, err := NewRangeTable(DefaultRanges())
	if err != nil {
		panic(err)
	}
	return table
}
