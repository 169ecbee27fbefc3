package assessment

import (
	"testing"
	"time"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

func dailySeries(start time.Time, p models.Parameter, values []float64) []models.Reading {
	readings := make([]models.Reading, len(values))
	for i, v := range values {
		readings[i] = models.Reading{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Source:    models.SourceManual,
			Values:    map[models.Parameter]float64{p: v},
		}
	}
	return readings
}

func TestAnalyze_StrictDeclineReportsFalling(t *testing.T) {
	analyzer := NewTrendAnalyzer(DefaultRangeTable(), 7)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	series := dailySeries(start, models.ParamAlkalinity, []float64{8.4, 8.2, 8.0, 7.8, 7.6, 7.4, 7.2})
	result := analyzer.Analyze(models.ParamAlkalinity, series)

	if result.Direction != models.TrendFalling {
		t.Errorf("Expected falling, got %v", result.Direction)
	}
	if result.Magnitude <= 0 {
		t.Errorf("Expected positive magnitude, got %v", result.Magnitude)
	}
	if result.WindowUsed != 7 {
		t.Errorf("Expected window of 7, got %d", result.WindowUsed)
	}
}

func TestAnalyze_RisingSeries(t *testing.T) {
	analyzer := NewTrendAnalyzer(DefaultRangeTable(), 7)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	series := dailySeries(start, models.ParamCalcium, []float64{440, 450, 462, 471, 480})
	result := analyzer.Analyze(models.ParamCalcium, series)

	if result.Direction != models.TrendRising {
		t.Errorf("Expected rising, got %v", result.Direction)
	}
	if result.Magnitude < 9 || result.Magnitude > 11 {
		t.Errorf("Expected magnitude near 10 per day, got %v", result.Magnitude)
	}
}

func TestAnalyze_SmallJitterIsStable(t *testing.T) {
	analyzer := NewTrendAnalyzer(DefaultRangeTable(), 7)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Alkalinity watch span is 2.8 dKH, so slopes under 0.028/day are flat.
	series := dailySeries(start, models.ParamAlkalinity, []float64{8.20, 8.21, 8.19, 8.20, 8.22, 8.20, 8.21})
	result := analyzer.Analyze(models.ParamAlkalinity, series)

	if result.Direction != models.TrendStable {
		t.Errorf("Expected stable, got %v (magnitude %v)", result.Direction, result.Magnitude)
	}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	analyzer := NewTrendAnalyzer(DefaultRangeTable(), 7)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if got := analyzer.Analyze(models.ParamAlkalinity, nil); got.Direction != models.TrendInsufficientData {
		t.Errorf("Expected insufficient-data for empty series, got %v", got.Direction)
	}

	one := dailySeries(start, models.ParamAlkalinity, []float64{8.2})
	if got := analyzer.Analyze(models.ParamAlkalinity, one); got.Direction != models.TrendInsufficientData {
		t.Errorf("Expected insufficient-data for single point, got %v", got.Direction)
	}
	if got := analyzer.Analyze(models.ParamAlkalinity, one); got.WindowUsed != 1 {
		t.Errorf("Expected window used 1, got %d", got.WindowUsed)
	}
}

func TestAnalyze_SkipsReadingsMissingParameter(t *testing.T) {
	analyzer := NewTrendAnalyzer(DefaultRangeTable(), 10)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	series := dailySeries(start, models.ParamAlkalinity, []float64{8.4, 8.1, 7.8, 7.5})
	// Interleave readings that carry only calcium; they must not count.
	series = append(series, models.Reading{
		Timestamp: start.Add(12 * time.Hour),
		Values:    map[models.Parameter]float64{models.ParamCalcium: 440},
	})

	result := analyzer.Analyze(models.ParamAlkalinity, series)
	if result.WindowUsed != 4 {
		t.Errorf("Expected 4 qualifying points, got %d", result.WindowUsed)
	}
	if result.Direction != models.TrendFalling {
		t.Errorf("Expected falling, got %v", result.Direction)
	}
}

func TestAnalyze_WindowLimitsToRecentPoints(t *testing.T) {
	analyzer := NewTrendAnalyzer(DefaultRangeTable(), 5)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Steep old decline followed by five flat days: only the flat tail
	// falls inside the window.
	values := []float64{9.8, 9.2, 8.6, 8.0, 8.0, 8.0, 8.0, 8.0, 8.0}
	series := dailySeries(start, models.ParamAlkalinity, values)

	result := analyzer.Analyze(models.ParamAlkalinity, series)
	if result.WindowUsed != 5 {
		t.Errorf("Expected window of 5, got %d", result.WindowUsed)
	}
	if result.Direction != models.TrendStable {
		t.Errorf("Expected stable over recent window, got %v", result.Direction)
	}
}

func TestAnalyze_UnorderedInputIsSortedFirst(t *testing.T) {
	analyzer := NewTrendAnalyzer(DefaultRangeTable(), 7)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	ordered := dailySeries(start, models.ParamAlkalinity, []float64{8.4, 8.1, 7.8, 7.5, 7.2})
	shuffled := []models.Reading{ordered[3], ordered[0], ordered[4], ordered[2], ordered[1]}

	result := analyzer.Analyze(models.ParamAlkalinity, shuffled)
	if result.Direction != models.TrendFalling {
		t.Errorf("Expected falling regardless of input order, got %v", result.Direction)
	}
}

func TestAnalyzeAll_CoversEveryPresentParameter(t *testing.T) {
	analyzer := NewTrendAnalyzer(DefaultRangeTable(), 7)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	series := []models.Reading{
		{
			Timestamp: start,
			Values:    map[models.Parameter]float64{models.ParamAlkalinity: 8.4, models.ParamCalcium: 440},
		},
		{
			Timestamp: start.Add(24 * time.Hour),
			Values:    map[models.Parameter]float64{models.ParamAlkalinity: 8.2, models.ParamCalcium: 445},
		},
	}

	results := analyzer.AnalyzeAll(series)
	if len(results) != 2 {
		t.Fatalf("Expected 2 trend results, got %d", len(results))
	}
	if results[0].Parameter != models.ParamAlkalinity || results[1].Parameter != models.ParamCalcium {
		t.Errorf("Expected display order alk, ca; got %v, %v", results[0].Parameter, results[1].Parameter)
	}
}
