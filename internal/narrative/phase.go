package narrative

import (
	"fmt"
	"sort"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// ValidationError reports a malformed phase table entry by phase name.
type ValidationError struct {
	Phase  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("narrative: invalid phase %q: %s", e.Phase, e.Reason)
}

// Curve names the interpolation rule a trajectory applies between its
// endpoints.
type Curve string

const (
	CurveConstant Curve = "constant"
	CurveLinear   Curve = "linear"
	// CurveSmooth is a smoothstep S-curve that eases in and out, used for
	// recovery arcs that start and end gently.
	CurveSmooth Curve = "smooth"
)

// Trajectory is one parameter's scripted path through a phase, plus the
// symmetric noise amplitude layered on top of the deterministic target.
type Trajectory struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Curve Curve   `json:"curve" yaml:"curve"`
	Noise float64 `json:"noise" yaml:"noise"`
}

// at computes the deterministic target at phase-local fraction t in [0, 1].
func (tr Trajectory) at(t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	switch tr.Curve {
	case CurveLinear:
		return tr.Start + (tr.End-tr.Start)*t
	case CurveSmooth:
		s := t * t * (3 - 2*t)
		return tr.Start + (tr.End-tr.Start)*s
	default:
		return tr.Start
	}
}

// Phase is one contiguous [StartDay, EndDay) slice of a narrative with a
// target trajectory per synthesized parameter.
type Phase struct {
	Name     string                           `json:"name" yaml:"name"`
	StartDay int                              `json:"start_day" yaml:"start_day"`
	EndDay   int                              `json:"end_day" yaml:"end_day"`
	Targets  map[models.Parameter]Trajectory `json:"targets" yaml:"targets"`
}

// parameters returns the phase's synthesized parameters in display order
// with extras sorted last. Fixed ordering keeps noise draws reproducible
// for a given seed.
func (p *Phase) parameters() []models.Parameter {
	out := make([]models.Parameter, 0, len(p.Targets))
	seen := make(map[models.Parameter]bool, len(p.Targets))
	for _, known := range models.KnownParameters() {
		if _, ok := p.Targets[known]; ok {
			out = append(out, known)
			seen[known] = true
		}
	}
	var extras []models.Parameter
	for param := range p.Targets {
		if !seen[param] {
			extras = append(extras, param)
		}
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	return append(out, extras...)
}

// validate checks a single phase in isolation.
func (p *Phase) validate() error {
	if p.Name == "" {
		return &ValidationError{Phase: "(unnamed)", Reason: "name is empty"}
	}
	if p.StartDay < 0 {
		return &ValidationError{Phase: p.Name, Reason: fmt.Sprintf("start day %d is negative", p.StartDay)}
	}
	if p.EndDay <= p.StartDay {
		return &ValidationError{Phase: p.Name, Reason: fmt.Sprintf("day range [%d, %d) is empty or inverted", p.StartDay, p.EndDay)}
	}
	if len(p.Targets) == 0 {
		return &ValidationError{Phase: p.Name, Reason: "no target trajectories"}
	}
	for param, traj := range p.Targets {
		switch traj.Curve {
		case CurveConstant, CurveLinear, CurveSmooth:
		default:
			return &ValidationError{Phase: p.Name, Reason: fmt.Sprintf("parameter %s has unknown curve %q", param, traj.Curve)}
		}
		if traj.Noise < 0 {
			return &ValidationError{Phase: p.Name, Reason: fmt.Sprintf("parameter %s has negative noise amplitude", param)}
		}
	}
	return nil
}

// validatePhases checks that the table tiles [0, coverage) exactly:
// sorted, starting at day zero, each phase beginning where the previous
// one ends. Returns the phases sorted by start day.
func validatePhases(phases []Phase) ([]Phase, error) {
	if len(phases) == 0 {
		return nil, &ValidationError{Phase: "(table)", Reason: "at least one phase is required"}
	}
	sorted := make([]Phase, len(phases))
	copy(sorted, phases)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartDay < sorted[j].StartDay })

	for i := range sorted {
		if err := sorted[i].validate(); err != nil {
			return nil, err
		}
	}
	if sorted[0].StartDay != 0 {
		return nil, &ValidationError{Phase: sorted[0].Name, Reason: fmt.Sprintf("coverage must start at day 0, got %d", sorted[0].StartDay)}
	}
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.StartDay < prev.EndDay {
			return nil, &ValidationError{Phase: cur.Name, Reason: fmt.Sprintf("overlaps %q: starts day %d before it ends day %d", prev.Name, cur.StartDay, prev.EndDay)}
		}
		if cur.StartDay > prev.EndDay {
			return nil, &ValidationError{Phase: cur.Name, Reason: fmt.Sprintf("gap after %q: days [%d, %d) are uncovered", prev.Name, prev.EndDay, cur.StartDay)}
		}
	}
	return sorted, nil
}
