package models

import (
	"time"
)

// Tier classifies a parameter value against its reference bands.
type Tier string

const (
	TierOptimal  Tier = "optimal"
	TierWatch    Tier = "watch"
	TierCritical Tier = "critical"
	TierDanger   Tier = "danger"
	TierUnknown  Tier = "unknown"
)

// TierResult is the classification of one parameter value.
type TierResult struct {
	Parameter Parameter `json:"parameter"`
	Tier      Tier      `json:"tier"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
}

// TrendDirection is the direction of a parameter's recent movement.
type TrendDirection string

const (
	TrendRising           TrendDirection = "rising"
	TrendFalling          TrendDirection = "falling"
	TrendStable           TrendDirection = "stable"
	TrendInsufficientData TrendDirection = "insufficient-data"
)

// TrendResult describes a parameter's movement over a trailing window.
// Magnitude is the absolute value change per day; Direction carries the sign.
type TrendResult struct {
	Parameter  Parameter      `json:"parameter"`
	Direction  TrendDirection `json:"direction"`
	Magnitude  float64        `json:"magnitude"`
	WindowUsed int            `json:"window_used"`
}

// Severity ranks how urgent a finding is.
type Severity string

const (
	SeverityInformational Severity = "informational"
	SeverityWatch         Severity = "watch"
	SeverityHigh          Severity = "high"
	SeverityCritical      Severity = "critical"
)

// Rank maps severity to a sortable weight, highest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityWatch:
		return 1
	case SeverityInformational:
		return 0
	default:
		return -1
	}
}

// Action is one recommended step, lower priority number first.
type Action struct {
	Priority    int    `json:"priority"`
	Description string `json:"description"`
}

// Finding is one diagnostic result: a primary cause, contributing factors,
// and the recommended actions, weighted by severity and confidence.
type Finding struct {
	ID           string      `json:"id"`
	RuleID       string      `json:"rule_id,omitempty"`
	Cause        string      `json:"cause"`
	Contributing []string    `json:"contributing,omitempty"`
	Severity     Severity    `json:"severity"`
	Confidence   float64     `json:"confidence"`
	Actions      []Action    `json:"actions,omitempty"`
	Parameters   []Parameter `json:"parameters,omitempty"`
}

// Clone returns a deep copy of the finding.
func (f Finding) Clone() Finding {
	out := f
	out.Contributing = append([]string(nil), f.Contributing...)
	out.Actions = append([]Action(nil), f.Actions...)
	out.Parameters = append([]Parameter(nil), f.Parameters...)
	return out
}

// Diagnosis is the ranked list of findings for one assessment,
// sorted by severity descending then confidence descending.
type Diagnosis struct {
	Findings []Finding `json:"findings"`
}

// HealthReport packages classification, trends, and diagnosis for one tank
// at one point in time, ready for the presentation layer.
type HealthReport struct {
	ID          string        `json:"id"`
	TankID      string        `json:"tank_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Tiers       []TierResult  `json:"tiers"`
	Trends      []TrendResult `json:"trends"`
	Diagnosis   Diagnosis     `json:"diagnosis"`
}

// Clone returns a deep copy of the report so stored reports cannot be
// mutated through slices handed to callers.
func (r HealthReport) Clone() HealthReport {
	out := r
	out.Tiers = append([]TierResult(nil), r.Tiers...)
	out.Trends = append([]TrendResult(nil), r.Trends...)
	if r.Diagnosis.Findings != nil {
		findings := make([]Finding, len(r.Diagnosis.Findings))
		for i, f := range r.Diagnosis.Findings {
			findings[i] = f.Clone()
		}
		out.Diagnosis.Findings = findings
	}
	return out
}

// TopFinding returns the highest-ranked finding, or false when the
// diagnosis is empty.
func (r *HealthReport) TopFinding() (Finding, bool) {
	if len(r.Diagnosis.Findings) == 0 {
		return Finding{}, false
	}
	return r.Diagnosis.Findings[0], true
}

// WorstTier returns the most severe tier present among the report's
// classified parameters, ignoring unknowns.
func (r *HealthReport) WorstTier() Tier {
	worst := TierOptimal
	rank := func(t Tier) int {
		switch t {
		case TierDanger:
			return 3
		case TierCritical:
			return 2
		case TierWatch:
			return 1
		default:
			return 0
		}
	}
	for _, tr := range r.Tiers {
		if tr.Tier == TierUnknown {
			continue
		}
		if rank(tr.Tier) > rank(worst) {
			worst = tr.Tier
		}
	}
	return worst
}
