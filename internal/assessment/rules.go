package assessment

import (
	"fmt"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// Side restricts a condition to values below or above the optimal band.
type Side string

const (
	SideAny  Side = ""
	SideLow  Side = "low"
	SideHigh Side = "high"
)

// TierCondition matches one parameter's current classification and,
// optionally, its trend and which side of optimal the value sits on.
type TierCondition struct {
	Parameter models.Parameter      `json:"parameter" yaml:"parameter"`
	AnyOf     []models.Tier         `json:"any_of,omitempty" yaml:"any_of,omitempty"`
	Trend     models.TrendDirection `json:"trend,omitempty" yaml:"trend,omitempty"`
	Side      Side                  `json:"side,omitempty" yaml:"side,omitempty"`
}

// EventCondition matches the most recent event of a category within the
// lookback window. Required conditions block the rule when absent;
// optional ones only strengthen a match.
type EventCondition struct {
	Category     models.EventCategory `json:"category" yaml:"category"`
	LookbackDays int                  `json:"lookback_days,omitempty" yaml:"lookback_days,omitempty"`
	Required     bool                 `json:"required,omitempty" yaml:"required,omitempty"`
}

// Rule couples preconditions with a finding template. Every parameter
// condition must hold simultaneously, so multi-parameter joint patterns
// are expressed the same way as single-parameter thresholds.
type Rule struct {
	ID             string          `json:"id" yaml:"id"`
	Cause          string          `json:"cause" yaml:"cause"`
	Severity       models.Severity `json:"severity" yaml:"severity"`
	BaseConfidence float64         `json:"base_confidence" yaml:"base_confidence"`
	Parameters     []TierCondition `json:"parameters" yaml:"parameters"`
	Event          *EventCondition `json:"event,omitempty" yaml:"event,omitempty"`
	Contributing   []string        `json:"contributing,omitempty" yaml:"contributing,omitempty"`
	Actions        []models.Action `json:"actions" yaml:"actions"`
}

// Validate checks a rule's template fields.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "rule", Reason: "id is empty"}
	}
	if r.Cause == "" {
		return &ValidationError{Field: r.ID, Reason: "cause is empty"}
	}
	if r.Severity.Rank() < 0 {
		return &ValidationError{Field: r.ID, Reason: fmt.Sprintf("unknown severity %q", r.Severity)}
	}
	if r.BaseConfidence <= 0 || r.BaseConfidence > 1 {
		return &ValidationError{Field: r.ID, Reason: fmt.Sprintf("base confidence %.2f outside (0, 1]", r.BaseConfidence)}
	}
	if len(r.Parameters) == 0 {
		return &ValidationError{Field: r.ID, Reason: "at least one parameter condition is required"}
	}
	for _, pc := range r.Parameters {
		if pc.Parameter == "" {
			return &ValidationError{Field: r.ID, Reason: "parameter condition with empty parameter"}
		}
		switch pc.Side {
		case SideAny, SideLow, SideHigh:
		default:
			return &ValidationError{Field: r.ID, Reason: fmt.Sprintf("unknown side %q", pc.Side)}
		}
	}
	if r.Event != nil && !r.Event.Category.IsValid() {
		return &ValidationError{Field: r.ID, Reason: fmt.Sprintf("unknown event category %q", r.Event.Category)}
	}
	return nil
}

// RuleSet is the diagnostic configuration: the rules plus the shared
// lookback and data-sufficiency defaults.
type RuleSet struct {
	LookbackDays int    `json:"lookback_days" yaml:"lookback_days"`
	MinTrailing  int    `json:"min_trailing" yaml:"min_trailing"`
	Rules        []Rule `json:"rules" yaml:"rules"`
}

// Validate checks every rule and the shared defaults.
func (rs *RuleSet) Validate() error {
	if rs.LookbackDays <= 0 {
		return &ValidationError{Field: "rule set", Reason: "lookback days must be positive"}
	}
	if rs.MinTrailing < 0 {
		return &ValidationError{Field: "rule set", Reason: "min trailing must be non-negative"}
	}
	seen := make(map[string]bool, len(rs.Rules))
	for i := range rs.Rules {
		if err := rs.Rules[i].Validate(); err != nil {
			return err
		}
		if seen[rs.Rules[i].ID] {
			return &ValidationError{Field: rs.Rules[i].ID, Reason: "duplicate rule id"}
		}
		seen[rs.Rules[i].ID] = true
	}
	return nil
}

// DefaultRuleSet returns the built-in diagnostic rules. Confidence values
// are starting points the engine adjusts for data sufficiency and event
// freshness.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		LookbackDays: 30,
		MinTrailing:  5,
		Rules: []Rule{
			{
				ID:             "alk-ca-imbalance",
				Cause:          "Active calcification imbalance: alkalinity is being consumed faster than it is replenished while calcium accumulates",
				Severity:       models.SeverityCritical,
				BaseConfidence: 0.9,
				Parameters: []TierCondition{
					{Parameter: models.ParamAlkalinity, AnyOf: []models.Tier{models.TierCritical, models.TierDanger}, Trend: models.TrendFalling, Side: SideLow},
					{Parameter: models.ParamCalcium, AnyOf: []models.Tier{models.TierWatch, models.TierCritical, models.TierDanger}, Trend: models.TrendRising, Side: SideHigh},
				},
				Event: &EventCondition{Category: models.EventDosingChange},
				Contributing: []string{
					"calcium climbing while alkalinity falls points at a two-part dosing mismatch",
				},
				Actions: []models.Action{
					{Priority: 1, Description: "Verify both dosing pump outputs against their set volumes"},
					{Priority: 2, Description: "Confirm alkalinity with a second test kit before correcting"},
					{Priority: 3, Description: "Raise alkalinity gradually, no more than 1.4 dKH per day"},
				},
			},
			{
				ID:             "alk-drop-after-dosing-change",
				Cause:          "Alkalinity declining since the recent dosing change",
				Severity:       models.SeverityHigh,
				BaseConfidence: 0.85,
				Parameters: []TierCondition{
					{Parameter: models.ParamAlkalinity, AnyOf: []models.Tier{models.TierWatch, models.TierCritical, models.TierDanger}, Trend: models.TrendFalling, Side: SideLow},
				},
				Event: &EventCondition{Category: models.EventDosingChange, Required: true},
				Actions: []models.Action{
					{Priority: 1, Description: "Review the dosing change against the tank's measured daily alkalinity demand"},
					{Priority: 2, Description: "Retest alkalinity in 24 hours to confirm the response"},
				},
			},
			{
				ID:             "alk-critical-low",
				Cause:          "Alkalinity critically low: coral calcification is starved of carbonate",
				Severity:       models.SeverityHigh,
				BaseConfidence: 0.7,
				Parameters: []TierCondition{
					{Parameter: models.ParamAlkalinity, AnyOf: []models.Tier{models.TierCritical, models.TierDanger}, Side: SideLow},
				},
				Actions: []models.Action{
					{Priority: 1, Description: "Dose a buffer to bring alkalinity back toward the optimal band"},
					{Priority: 2, Description: "Check the calcium reactor or doser for failure"},
				},
			},
			{
				ID:             "alk-critical-high",
				Cause:          "Alkalinity critically high: risk of burnt coral tips and precipitation",
				Severity:       models.SeverityHigh,
				BaseConfidence: 0.7,
				Parameters: []TierCondition{
					{Parameter: models.ParamAlkalinity, AnyOf: []models.Tier{models.TierCritical, models.TierDanger}, Side: SideHigh},
				},
				Actions: []models.Action{
					{Priority: 1, Description: "Suspend alkalinity dosing until levels drift back into range"},
					{Priority: 2, Description: "Inspect dosing equipment for a stuck pump or miscalibration"},
				},
			},
			{
				ID:             "ca-critical-low",
				Cause:          "Calcium critically low for stony coral growth",
				Severity:       models.SeverityHigh,
				BaseConfidence: 0.65,
				Parameters: []TierCondition{
					{Parameter: models.ParamCalcium, AnyOf: []models.Tier{models.TierCritical, models.TierDanger}, Side: SideLow},
				},
				Actions: []models.Action{
					{Priority: 1, Description: "Dose calcium chloride to rebuild the level over several days"},
					{Priority: 2, Description: "Check magnesium: low magnesium prevents calcium from holding"},
				},
			},
			{
				ID:             "mg-out-of-band",
				Cause:          "Magnesium outside its safe band, destabilizing alkalinity and calcium balance",
				Severity:       models.SeverityHigh,
				BaseConfidence: 0.6,
				Parameters: []TierCondition{
					{Parameter: models.ParamMagnesium, AnyOf: []models.Tier{models.TierCritical, models.TierDanger}},
				},
				Actions: []models.Action{
					{Priority: 1, Description: "Correct magnesium first; alkalinity and calcium will not hold until it is in range"},
				},
			},
			{
				ID:             "ph-alk-depression",
				Cause:          "Low pH with depressed alkalinity: carbonate buffering is being exhausted",
				Severity:       models.SeverityHigh,
				BaseConfidence: 0.75,
				Parameters: []TierCondition{
					{Parameter: models.ParamPH, AnyOf: []models.Tier{models.TierWatch, models.TierCritical, models.TierDanger}, Side: SideLow},
					{Parameter: models.ParamAlkalinity, AnyOf: []models.Tier{models.TierWatch, models.TierCritical, models.TierDanger}, Side: SideLow},
				},
				Contributing: []string{
					"accumulated CO2 in the room depresses tank pH and consumes buffer",
				},
				Actions: []models.Action{
					{Priority: 1, Description: "Increase surface agitation or run an air line from outside air"},
					{Priority: 2, Description: "Restore alkalinity to the optimal band to rebuild buffering"},
				},
			},
			{
				ID:             "salinity-excursion",
				Cause:          "Salinity outside the safe band",
				Severity:       models.SeverityHigh,
				BaseConfidence: 0.75,
				Parameters: []TierCondition{
					{Parameter: models.ParamSalinity, AnyOf: []models.Tier{models.TierCritical, models.TierDanger}},
				},
				Contributing: []string{
					"auto top-off failure or unnoticed evaporation is the usual driver",
				},
				Actions: []models.Action{
					{Priority: 1, Description: "Check the auto top-off reservoir and float switch"},
					{Priority: 2, Description: "Correct salinity slowly, under 1 ppt per day, toward 35 ppt"},
				},
			},
			{
				ID:             "temp-excursion",
				Cause:          "Temperature outside the safe band",
				Severity:       models.SeverityCritical,
				BaseConfidence: 0.85,
				Parameters: []TierCondition{
					{Parameter: models.ParamTemp, AnyOf: []models.Tier{models.TierCritical, models.TierDanger}},
				},
				Actions: []models.Action{
					{Priority: 1, Description: "Check heater and chiller operation immediately"},
					{Priority: 2, Description: "Float sealed ice bottles or add heating until equipment is fixed"},
				},
			},
			{
				ID:             "nutrient-loading",
				Cause:          "Nitrate and phosphate rising together: nutrient export is falling behind",
				Severity:       models.SeverityHigh,
				BaseConfidence: 0.7,
				Parameters: []TierCondition{
					{Parameter: models.ParamNitrate, AnyOf: []models.Tier{models.TierWatch, models.TierCritical, models.TierDanger}, Trend: models.TrendRising, Side: SideHigh},
					{Parameter: models.ParamPhosphate, AnyOf: []models.Tier{models.TierWatch, models.TierCritical, models.TierDanger}, Trend: models.TrendRising, Side: SideHigh},
				},
				Event: &EventCondition{Category: models.EventMaintenance},
				Contributing: []string{
					"overfeeding or a skipped water change commonly drives joint nutrient rise",
				},
				Actions: []models.Action{
					{Priority: 1, Description: "Perform a 10-15% water change"},
					{Priority: 2, Description: "Reduce feeding volume and inspect the skimmer"},
				},
			},
			{
				ID:             "no3-elevated",
				Cause:          "Nitrate drifting above the optimal band",
				Severity:       models.SeverityWatch,
				BaseConfidence: 0.6,
				Parameters: []TierCondition{
					{Parameter: models.ParamNitrate, AnyOf: []models.Tier{models.TierWatch, models.TierCritical, models.TierDanger}, Trend: models.TrendRising, Side: SideHigh},
				},
				Actions: []models.Action{
					{Priority: 1, Description: "Schedule a water change and review feeding amounts"},
				},
			},
			{
				ID:             "po4-depleted",
				Cause:          "Phosphate bottomed out: corals starve in ultra-low-nutrient water",
				Severity:       models.SeverityWatch,
				BaseConfidence: 0.6,
				Parameters: []TierCondition{
					{Parameter: models.ParamPhosphate, AnyOf: []models.Tier{models.TierWatch, models.TierCritical, models.TierDanger}, Side: SideLow},
				},
				Actions: []models.Action{
					{Priority: 1, Description: "Ease off GFO or carbon dosing and feed slightly more"},
				},
			},
			{
				ID:             "recovery-after-treatment",
				Cause:          "Alkalinity recovering following the recent corrective treatment",
				Severity:       models.SeverityInformational,
				BaseConfidence: 0.55,
				Parameters: []TierCondition{
					{Parameter: models.ParamAlkalinity, AnyOf: []models.Tier{models.TierWatch, models.TierCritical}, Trend: models.TrendRising, Side: SideLow},
				},
				Event: &EventCondition{Category: models.EventTreatment, Required: true, LookbackDays: 7},
				Actions: []models.Action{
					{Priority: 1, Description: "Keep the corrective dosing steady and retest daily until optimal"},
				},
			},
		},
	}
}
