package assessment

import (
	"time"

	"github.com/google/uuid"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// Assembler runs the full pipeline: classification, trend analysis, and
// diagnosis, packaged into one HealthReport. It owns no state beyond its
// configured sub-components, so one assembler serves concurrent requests.
type Assembler struct {
	table      *RangeTable
	classifier *Classifier
	trends     *TrendAnalyzer
	engine     *Engine
}

// NewAssembler wires the pipeline over a range table and rule set.
// trendWindow is the number of recent readings the trend fit considers.
func NewAssembler(table *RangeTable, rules RuleSet, trendWindow int) *Assembler {
	classifier := NewClassifier(table)
	return &Assembler{
		table:      table,
		classifier: classifier,
		trends:     NewTrendAnalyzer(table, trendWindow),
		engine:     NewEngine(classifier, rules),
	}
}

// Classifier exposes the classifier for hosts that only need tiers.
func (a *Assembler) Classifier() *Classifier {
	return a.classifier
}

// TrendAnalyzer exposes the trend analyzer for hosts that only need trends.
func (a *Assembler) TrendAnalyzer() *TrendAnalyzer {
	return a.trends
}

// RangeTable exposes the reference bands the pipeline classifies against.
func (a *Assembler) RangeTable() *RangeTable {
	return a.table
}

// Assemble produces the report for one tank: every parameter present in
// the current reading lands in exactly one TierResult, a TrendResult is
// attached wherever the history supports one, and the diagnosis is
// computed over both plus the event log. Trend results that would only
// say insufficient-data are left out of the report so the presentation
// layer's sole null case is "trend absent".
func (a *Assembler) Assemble(tankID string, current models.Reading, trailing []models.Reading, events []models.Event) models.HealthReport {
	series := make([]models.Reading, 0, len(trailing)+1)
	series = append(series, trailing...)
	series = append(series, current)
	models.SortReadingsAsc(series)

	tiers := a.classifier.ClassifyReading(current)

	allTrends := make([]models.TrendResult, 0, len(tiers))
	reportTrends := make([]models.TrendResult, 0, len(tiers))
	for _, tr := range tiers {
		trend := a.trends.Analyze(tr.Parameter, series)
		allTrends = append(allTrends, trend)
		if trend.Direction != models.TrendInsufficientData {
			reportTrends = append(reportTrends, trend)
		}
	}

	diagnosis := a.engine.Diagnose(current, trailing, allTrends, events)

	return models.HealthReport{
		ID:          uuid.NewString(),
		TankID:      tankID,
		GeneratedAt: time.Now().UTC(),
		Tiers:       tiers,
		Trends:      reportTrends,
		Diagnosis:   diagnosis,
	}
}
