package assessment

import (
	"math"
	"sort"
	"time"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// TrendAnalyzer computes per-parameter movement over a trailing window of
// readings. It is pure: every call works only on the series it is handed.
type TrendAnalyzer struct {
	table          *RangeTable
	windowSize     int     // most recent qualifying points considered
	stableFraction float64 // fraction of watch-band span per day treated as flat
	defaultEpsilon float64 // flat threshold for unregistered parameters
}

// NewTrendAnalyzer creates an analyzer using the given window size.
// A parameter is "stable" while its fitted slope stays below 1% of its
// watch-band span per day; steeper movement reports rising or falling.
func NewTrendAnalyzer(table *RangeTable, windowSize int) *TrendAnalyzer {
	if windowSize < 2 {
		windowSize = 2
	}
	return &TrendAnalyzer{
		table:          table,
		windowSize:     windowSize,
		stableFraction: 0.01,
		defaultEpsilon: 0.01,
	}
}

// Analyze fits a least-squares line through the most recent windowSize
// readings that carry the parameter and classifies the slope. Readings
// missing the parameter are skipped; fewer than 2 qualifying points
// reports insufficient-data rather than guessing.
func (ta *TrendAnalyzer) Analyze(p models.Parameter, series []models.Reading) models.TrendResult {
	type point struct {
		t time.Time
		v float64
	}

	points := make([]point, 0, len(series))
	for i := range series {
		if v, ok := series[i].Values[p]; ok {
			points = append(points, point{t: series[i].Timestamp, v: v})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].t.Before(points[j].t) })
	if len(points) > ta.windowSize {
		points = points[len(points)-ta.windowSize:]
	}

	if len(points) < 2 {
		return models.TrendResult{
			Parameter:  p,
			Direction:  models.TrendInsufficientData,
			WindowUsed: len(points),
		}
	}

	// Least-squares slope with x in days since the first point, so the
	// magnitude reads as value change per day regardless of sample rate.
	origin := points[0].t
	sumX, sumY, sumXY, sumX2 := 0.0, 0.0, 0.0, 0.0
	for _, pt := range points {
		x := pt.t.Sub(origin).Hours() / 24.0
		sumX += x
		sumY += pt.v
		sumXY += x * pt.v
		sumX2 += x * x
	}

	n := float64(len(points))
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		// All points share one timestamp; no slope can be fitted.
		return models.TrendResult{
			Parameter:  p,
			Direction:  models.TrendInsufficientData,
			WindowUsed: len(points),
		}
	}
	slope := (n*sumXY - sumX*sumY) / denom

	direction := models.TrendStable
	if math.Abs(slope) >= ta.flatThreshold(p) {
		if slope > 0 {
			direction = models.TrendRising
		} else {
			direction = models.TrendFalling
		}
	}

	return models.TrendResult{
		Parameter:  p,
		Direction:  direction,
		Magnitude:  math.Abs(slope),
		WindowUsed: len(points),
	}
}

// AnalyzeAll computes trends for every parameter present in the series,
// in display order with unregistered parameters sorted last.
func (ta *TrendAnalyzer) AnalyzeAll(series []models.Reading) []models.TrendResult {
	present := make(map[models.Parameter]bool)
	for i := range series {
		for p := range series[i].Values {
			present[p] = true
		}
	}

	ordered := make([]models.Parameter, 0, len(present))
	for _, p := range models.KnownParameters() {
		if present[p] {
			ordered = append(ordered, p)
			delete(present, p)
		}
	}
	extras := make([]models.Parameter, 0, len(present))
	for p := range present {
		extras = append(extras, p)
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	ordered = append(ordered, extras...)

	results := make([]models.TrendResult, 0, len(ordered))
	for _, p := range ordered {
		results = append(results, ta.Analyze(p, series))
	}
	return results
}

// flatThreshold derives the per-day slope below which a parameter counts
// as stable.
func (ta *TrendAnalyzer) flatThreshold(p models.Parameter) float64 {
	if pr, ok := ta.table.Lookup(p); ok {
		if t := pr.Watch.Span() * ta.stableFraction; t > 0 {
			return t
		}
	}
	return ta.defaultEpsilon
}
