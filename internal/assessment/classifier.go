package assessment

import (
	"sort"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// Classifier maps parameter values to quality tiers against a RangeTable.
type Classifier struct {
	table *RangeTable
}

// NewClassifier creates a classifier over the given range table.
func NewClassifier(table *RangeTable) *Classifier {
	return &Classifier{table: table}
}

// Classify maps a single value to its tier. The innermost band containing
// the value wins, so a value exactly on the optimal/watch boundary is
// optimal; values outside every band are danger. Unregistered parameters
// classify as unknown rather than failing.
func (c *Classifier) Classify(p models.Parameter, value float64) models.TierResult {
	pr, ok := c.table.Lookup(p)
	if !ok {
		return models.TierResult{Parameter: p, Tier: models.TierUnknown, Value: value}
	}

	tier := models.TierDanger
	switch {
	case pr.Optimal.Contains(value):
		tier = models.TierOptimal
	case pr.Watch.Contains(value):
		tier = models.TierWatch
	case pr.Critical.Contains(value):
		tier = models.TierCritical
	}

	return models.TierResult{Parameter: p, Tier: tier, Value: value, Unit: pr.Unit}
}

// ClassifyReading classifies every parameter present in the reading, in
// display order with unregistered parameters sorted last.
func (c *Classifier) ClassifyReading(r models.Reading) []models.TierResult {
	results := make([]models.TierResult, 0, len(r.Values))
	seen := make(map[models.Parameter]bool, len(r.Values))

	for _, p := range models.KnownParameters() {
		if v, ok := r.Values[p]; ok {
			results = append(results, c.Classify(p, v))
			seen[p] = true
		}
	}

	var extras []models.Parameter
	for p := range r.Values {
		if !seen[p] {
			extras = append(extras, p)
		}
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	for _, p := range extras {
		results = append(results, c.Classify(p, r.Values[p]))
	}

	return results
}

// side reports where a value sits relative to the optimal band:
// "low" below it, "high" above it, "" inside it or unregistered.
func (c *Classifier) side(p models.Parameter, value float64) Side {
	pr, ok := c.table.Lookup(p)
	if !ok {
		return SideAny
	}
	switch {
	case value < pr.Optimal.Low:
		return SideLow
	case value > pr.Optimal.High:
		return SideHigh
	default:
		return SideAny
	}
}
