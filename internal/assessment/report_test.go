package assessment

import (
	"strings"
	"testing"
	"time"

	"github.com/reefwatch/reefwatch_backend/internal/models"
	"github.com/reefwatch/reefwatch_backend/internal/narrative"
)

func TestAssemble_EveryCurrentParameterGetsExactlyOneTier(t *testing.T) {
	assembler := NewAssembler(DefaultRangeTable(), DefaultRuleSet(), 7)
	ts := time.Date(2025, 6, 27, 12, 0, 0, 0, time.UTC)

	current := models.Reading{
		Timestamp: ts,
		Source:    models.SourceManual,
		Values: map[models.Parameter]float64{
			models.ParamAlkalinity:        8.2,
			models.ParamCalcium:           440,
			models.ParamSalinity:          35,
			models.Parameter("strontium"): 8.0,
		},
	}

	report := assembler.Assemble("tank-1", current, nil, nil)

	if len(report.Tiers) != len(current.Values) {
		t.Fatalf("Expected %d tier results, got %d", len(current.Values), len(report.Tiers))
	}
	seen := make(map[models.Parameter]int)
	for _, tr := range report.Tiers {
		seen[tr.Parameter]++
	}
	for p := range current.Values {
		if seen[p] != 1 {
			t.Errorf("Expected parameter %s in exactly one tier result, got %d", p, seen[p])
		}
	}
	if report.ID == "" || report.TankID != "tank-1" {
		t.Errorf("Expected report identity to be set, got id=%q tank=%q", report.ID, report.TankID)
	}
}

func TestAssemble_NoHistoryMeansNoTrendsAndInsufficientData(t *testing.T) {
	assembler := NewAssembler(DefaultRangeTable(), DefaultRuleSet(), 7)
	ts := time.Date(2025, 6, 27, 12, 0, 0, 0, time.UTC)

	current := models.Reading{
		Timestamp: ts,
		Values:    map[models.Parameter]float64{models.ParamAlkalinity: 8.2},
	}

	report := assembler.Assemble("tank-1", current, nil, nil)

	if len(report.Trends) != 0 {
		t.Errorf("Expected no trend results without history, got %+v", report.Trends)
	}
	found := false
	for _, f := range report.Diagnosis.Findings {
		if f.RuleID == RuleInsufficientData {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected insufficient-data finding, got %+v", report.Diagnosis.Findings)
	}
}

func TestAssemble_TrendAttachedWhenHistoryAllows(t *testing.T) {
	assembler := NewAssembler(DefaultRangeTable(), DefaultRuleSet(), 7)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	trailing := dailySeries(start, models.ParamAlkalinity, []float64{8.4, 8.3, 8.2})
	current := models.Reading{
		Timestamp: start.Add(3 * 24 * time.Hour),
		Values: map[models.Parameter]float64{
			models.ParamAlkalinity: 8.1,
			models.ParamCalcium:    440, // no calcium history: trend stays absent
		},
	}

	report := assembler.Assemble("tank-1", current, trailing, nil)

	if len(report.Trends) != 1 {
		t.Fatalf("Expected exactly one trend result, got %+v", report.Trends)
	}
	if report.Trends[0].Parameter != models.ParamAlkalinity {
		t.Errorf("Expected alkalinity trend, got %v", report.Trends[0].Parameter)
	}
}

// The full 30-day demo arc: alkalinity slides 8.2 to 7.0 dKH between days
// 5 and 27 while calcium climbs 440 to 510 mg/L, with the dosing change
// logged on day 5. Diagnosing the day-27 reading must surface the joint
// imbalance as the top finding, tied back to the logged event.
func TestAssemble_DemoCrashScenarioEndToEnd(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	series := narrative.DemoGenerator().Generate(start, narrative.DemoWindowDays, narrative.DemoSeed)
	if len(series) != narrative.DemoWindowDays {
		t.Fatalf("Expected %d readings, got %d", narrative.DemoWindowDays, len(series))
	}

	current := series[27]
	trailing := series[:27]
	events := narrative.DemoEvents("tank-1", start)

	assembler := NewAssembler(DefaultRangeTable(), DefaultRuleSet(), 10)
	report := assembler.Assemble("tank-1", current, trailing, events)

	var alkTier models.TierResult
	for _, tr := range report.Tiers {
		if tr.Parameter == models.ParamAlkalinity {
			alkTier = tr
		}
	}
	if alkTier.Tier != models.TierCritical && alkTier.Tier != models.TierDanger {
		t.Errorf("Expected day-27 alkalinity in critical or danger, got %v (value %.3f)", alkTier.Tier, alkTier.Value)
	}

	var alkTrend, caTrend models.TrendResult
	for _, tr := range report.Trends {
		switch tr.Parameter {
		case models.ParamAlkalinity:
			alkTrend = tr
		case models.ParamCalcium:
			caTrend = tr
		}
	}
	if alkTrend.Direction != models.TrendFalling {
		t.Errorf("Expected alkalinity falling, got %v (magnitude %.4f)", alkTrend.Direction, alkTrend.Magnitude)
	}
	if alkTrend.Magnitude <= 0 {
		t.Errorf("Expected positive falling magnitude, got %v", alkTrend.Magnitude)
	}
	if caTrend.Direction != models.TrendRising {
		t.Errorf("Expected calcium rising, got %v", caTrend.Direction)
	}

	top, ok := report.TopFinding()
	if !ok {
		t.Fatalf("Expected a diagnosis, got none")
	}
	if top.RuleID != "alk-ca-imbalance" {
		t.Errorf("Expected the joint imbalance rule on top, got %v (%+v)", top.RuleID, top)
	}
	if top.Severity != models.SeverityCritical {
		t.Errorf("Expected critical severity, got %v", top.Severity)
	}

	cause := strings.ToLower(top.Cause)
	if !strings.Contains(cause, "alkalinity") || !strings.Contains(cause, "calcium") {
		t.Errorf("Expected top finding to reference both parameters, got %q", top.Cause)
	}

	eventReferenced := false
	for _, c := range top.Contributing {
		if strings.Contains(c, "dosing-change") || strings.Contains(c, "Switched two-part dosing schedule") {
			eventReferenced = true
		}
	}
	if !eventReferenced {
		t.Errorf("Expected top finding to reference the day-5 dosing event, got %v", top.Contributing)
	}

	if len(top.Actions) == 0 {
		t.Errorf("Expected recommended actions on the top finding")
	}
	for i := 1; i < len(top.Actions); i++ {
		if top.Actions[i].Priority < top.Actions[i-1].Priority {
			t.Errorf("Expected actions ordered by priority")
		}
	}
}

// Late in the demo baseline everything is optimal and no events match:
// the diagnosis must be exactly one informational finding.
func TestAssemble_DemoBaselineIsHealthy(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := narrative.DemoGenerator().Generate(start, narrative.DemoWindowDays, narrative.DemoSeed)

	current := series[4]
	trailing := series[:4]

	assembler := NewAssembler(DefaultRangeTable(), DefaultRuleSet(), 10)
	report := assembler.Assemble("tank-1", current, trailing, nil)

	for _, tr := range report.Tiers {
		if tr.Tier != models.TierOptimal {
			t.Errorf("Expected %s optimal during baseline, got %v (value %.3f)", tr.Parameter, tr.Tier, tr.Value)
		}
	}
	if len(report.Diagnosis.Findings) != 1 {
		t.Fatalf("Expected exactly one finding, got %+v", report.Diagnosis.Findings)
	}
	if report.Diagnosis.Findings[0].RuleID != RuleAllWithinRange {
		t.Errorf("Expected all-within-range, got %v", report.Diagnosis.Findings[0].RuleID)
	}
}
