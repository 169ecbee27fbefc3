package assessment

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

const (
	sparseTrailingPenalty = 0.8  // trailing history shorter than MinTrailing
	staleEventPenalty     = 0.85 // event in the outer third of its lookback window
	missingEventPenalty   = 0.9  // optional event condition with no matching event
	minConfidence         = 0.05
	maxConfidence         = 0.99
)

// RuleInsufficientData marks the informational finding emitted when the
// inputs cannot support a diagnosis.
const RuleInsufficientData = "insufficient-data"

// RuleAllWithinRange marks the informational finding emitted when every
// classified parameter sits in its optimal band and no rule matched.
const RuleAllWithinRange = "all-within-range"

// RuleOutOfOptimal marks the fallback finding emitted when parameters sit
// outside optimal but no specific rule matched.
const RuleOutOfOptimal = "out-of-optimal"

// Engine evaluates the diagnostic rule set over classified readings,
// trends, and the event log. It is stateless: each invocation
// reconstructs its view of the tank from the inputs alone, never from
// anything cached between calls.
type Engine struct {
	classifier *Classifier
	rules      RuleSet
}

// NewEngine creates an engine over a classifier and a validated rule set.
func NewEngine(classifier *Classifier, rules RuleSet) *Engine {
	return &Engine{classifier: classifier, rules: rules}
}

// Diagnose matches every rule against the current reading, its trailing
// context, the precomputed trends, and the event log. All matching rules
// contribute findings, sorted by severity then confidence descending.
// Sparse data degrades confidence instead of failing: an empty trailing
// window or a reading with no registered parameters yields an
// insufficient-data finding, never an error.
func (e *Engine) Diagnose(current models.Reading, trailing []models.Reading, trends []models.TrendResult, events []models.Event) models.Diagnosis {
	tierByParam := make(map[models.Parameter]models.TierResult)
	classified := 0
	for _, tr := range e.classifier.ClassifyReading(current) {
		tierByParam[tr.Parameter] = tr
		if tr.Tier != models.TierUnknown {
			classified++
		}
	}

	trendByParam := make(map[models.Parameter]models.TrendResult, len(trends))
	for _, tr := range trends {
		trendByParam[tr.Parameter] = tr
	}

	var findings []models.Finding
	if len(trailing) == 0 {
		findings = append(findings, e.insufficientData("no trailing history available, trend-based diagnosis is unavailable"))
	}
	if classified == 0 {
		findings = append(findings, e.insufficientData("no registered parameters present in the current reading"))
	}

	ruleMatches := 0
	for i := range e.rules.Rules {
		if finding, ok := e.evaluateRule(e.rules.Rules[i], current, tierByParam, trendByParam, events, len(trailing)); ok {
			findings = append(findings, finding)
			ruleMatches++
		}
	}

	if len(findings) == 0 {
		findings = append(findings, e.fallbackFinding(tierByParam))
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity.Rank() != findings[j].Severity.Rank() {
			return findings[i].Severity.Rank() > findings[j].Severity.Rank()
		}
		return findings[i].Confidence > findings[j].Confidence
	})

	return models.Diagnosis{Findings: findings}
}

// evaluateRule checks a single rule's preconditions. Every parameter
// condition must hold; a required event condition blocks the match when
// absent, an optional one only adjusts confidence.
func (e *Engine) evaluateRule(
	rule Rule,
	current models.Reading,
	tiers map[models.Parameter]models.TierResult,
	trends map[models.Parameter]models.TrendResult,
	events []models.Event,
	trailingCount int,
) (models.Finding, bool) {

	params := make([]models.Parameter, 0, len(rule.Parameters))
	for _, cond := range rule.Parameters {
		tr, ok := tiers[cond.Parameter]
		if !ok || tr.Tier == models.TierUnknown {
			return models.Finding{}, false
		}
		if len(cond.AnyOf) > 0 && !containsTier(cond.AnyOf, tr.Tier) {
			return models.Finding{}, false
		}
		if cond.Side != SideAny && e.classifier.side(cond.Parameter, tr.Value) != cond.Side {
			return models.Finding{}, false
		}
		if cond.Trend != "" {
			trend, ok := trends[cond.Parameter]
			if !ok || trend.Direction != cond.Trend {
				return models.Finding{}, false
			}
		}
		params = append(params, cond.Parameter)
	}

	confidence := rule.BaseConfidence
	contributing := append([]string{}, rule.Contributing...)

	if trailingCount < e.rules.MinTrailing {
		confidence *= sparseTrailingPenalty
		contributing = append(contributing, fmt.Sprintf("confidence reduced: only %d trailing readings available", trailingCount))
	}

	if rule.Event != nil {
		lookbackDays := rule.Event.LookbackDays
		if lookbackDays <= 0 {
			lookbackDays = e.rules.LookbackDays
		}
		lookback := time.Duration(lookbackDays) * 24 * time.Hour

		event, ok := latestEventWithin(events, rule.Event.Category, current.Timestamp, lookback)
		if !ok {
			if rule.Event.Required {
				return models.Finding{}, false
			}
			confidence *= missingEventPenalty
		} else {
			age := current.Timestamp.Sub(event.Timestamp)
			contributing = append(contributing, fmt.Sprintf("%s event %d days ago: %s", event.Category, int(age.Hours()/24), event.Title))
			if age > lookback*2/3 {
				confidence *= staleEventPenalty
				contributing = append(contributing, fmt.Sprintf("event is near the edge of the %d-day lookback window", lookbackDays))
			}
		}
	}

	actions := make([]models.Action, len(rule.Actions))
	copy(actions, rule.Actions)
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Priority < actions[j].Priority })

	return models.Finding{
		ID:           uuid.NewString(),
		RuleID:       rule.ID,
		Cause:        rule.Cause,
		Contributing: contributing,
		Severity:     rule.Severity,
		Confidence:   roundConfidence(confidence),
		Actions:      actions,
		Parameters:   params,
	}, true
}

// insufficientData builds the informational marker for inputs too sparse
// to diagnose.
func (e *Engine) insufficientData(reason string) models.Finding {
	return models.Finding{
		ID:         uuid.NewString(),
		RuleID:     RuleInsufficientData,
		Cause:      "Insufficient data for diagnosis: " + reason,
		Severity:   models.SeverityInformational,
		Confidence: 1.0,
		Actions: []models.Action{
			{Priority: 1, Description: "Record readings regularly so trends and diagnosis become available"},
		},
	}
}

// fallbackFinding covers the no-rule-matched cases so callers never see
// an empty diagnosis: all-optimal reports health, anything else names the
// parameters sitting outside their optimal bands.
func (e *Engine) fallbackFinding(tiers map[models.Parameter]models.TierResult) models.Finding {
	var outside []models.Parameter
	for _, p := range models.KnownParameters() {
		tr, ok := tiers[p]
		if !ok || tr.Tier == models.TierUnknown {
			continue
		}
		if tr.Tier != models.TierOptimal {
			outside = append(outside, p)
		}
	}

	if len(outside) == 0 {
		return models.Finding{
			ID:         uuid.NewString(),
			RuleID:     RuleAllWithinRange,
			Cause:      "All parameters within range",
			Severity:   models.SeverityInformational,
			Confidence: 1.0,
		}
	}

	names := make([]string, len(outside))
	for i, p := range outside {
		names[i] = string(p)
	}
	return models.Finding{
		ID:         uuid.NewString(),
		RuleID:     RuleOutOfOptimal,
		Cause:      fmt.Sprintf("Parameters outside their optimal bands: %s", strings.Join(names, ", ")),
		Severity:   models.SeverityWatch,
		Confidence: 0.5,
		Parameters: outside,
		Actions: []models.Action{
			{Priority: 1, Description: "Retest the listed parameters and watch the next readings for movement"},
		},
	}
}

// latestEventWithin finds the most recent event of a category at or
// before the reference time and inside the lookback window. Events after
// the reference time never count: diagnosing a historical reading must
// only see what had already happened.
func latestEventWithin(events []models.Event, category models.EventCategory, ref time.Time, lookback time.Duration) (models.Event, bool) {
	var best models.Event
	found := false
	for i := range events {
		ev := events[i]
		if ev.Category != category || ev.Timestamp.After(ref) {
			continue
		}
		if ref.Sub(ev.Timestamp) > lookback {
			continue
		}
		if !found || ev.Timestamp.After(best.Timestamp) {
			best = ev
			found = true
		}
	}
	return best, found
}

func containsTier(tiers []models.Tier, t models.Tier) bool {
	for _, candidate := range tiers {
		if candidate == t {
			return true
		}
	}
	return false
}

func roundConfidence(v float64) float64 {
	if v < minConfidence {
		v = minConfidence
	}
	if v > maxConfidence {
		v = maxConfidence
	}
	return math.Round(v*100) / 100
}
