package narrative

import (
	"time"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// DemoWindowDays is the length of the built-in demo narrative.
const DemoWindowDays = 30

// DemoSeed reproduces the demo series exactly across runs.
const DemoSeed int64 = 42

// DemoPhases scripts the built-in 30-day crash and recovery arc: five
// quiet baseline days, then a three-week alkalinity slide with calcium
// climbing in mirror (the signature of a two-part dosing mismatch), then
// a short corrected recovery. The exact constants are example
// configuration; hosts can load a different scenario from file.
func DemoPhases() []Phase {
	stable := func(value, noise float64) Trajectory {
		return Trajectory{Start: value, End: value, Curve: CurveConstant, Noise: noise}
	}

	return []Phase{
		{
			Name:     "baseline",
			StartDay: 0,
			EndDay:   5,
			Targets: map[models.Parameter]Trajectory{
				models.ParamAlkalinity: stable(8.2, 0.06),
				models.ParamCalcium:    stable(440, 4),
				models.ParamMagnesium:  stable(1320, 10),
				models.ParamPH:         stable(8.15, 0.03),
				models.ParamSalinity:   stable(35, 0.15),
				models.ParamTemp:       stable(25.5, 0.15),
				models.ParamNitrate:    stable(5, 0.6),
				models.ParamPhosphate:  stable(0.06, 0.008),
			},
		},
		{
			Name:     "decline",
			StartDay: 5,
			EndDay:   27,
			Targets: map[models.Parameter]Trajectory{
				models.ParamAlkalinity: {Start: 8.2, End: 7.0, Curve: CurveLinear, Noise: 0.06},
				models.ParamCalcium:    {Start: 440, End: 510, Curve: CurveLinear, Noise: 4},
				models.ParamMagnesium:  stable(1320, 10),
				models.ParamPH:         {Start: 8.15, End: 8.0, Curve: CurveLinear, Noise: 0.03},
				models.ParamSalinity:   stable(35, 0.15),
				models.ParamTemp:       stable(25.5, 0.15),
				models.ParamNitrate:    stable(5, 0.6),
				models.ParamPhosphate:  stable(0.06, 0.008),
			},
		},
		{
			Name:     "recovery",
			StartDay: 27,
			EndDay:   30,
			Targets: map[models.Parameter]Trajectory{
				models.ParamAlkalinity: {Start: 7.0, End: 7.9, Curve: CurveSmooth, Noise: 0.05},
				models.ParamCalcium:    {Start: 510, End: 465, Curve: CurveSmooth, Noise: 4},
				models.ParamMagnesium:  stable(1320, 10),
				models.ParamPH:         {Start: 8.0, End: 8.1, Curve: CurveSmooth, Noise: 0.03},
				models.ParamSalinity:   stable(35, 0.15),
				models.ParamTemp:       stable(25.5, 0.15),
				models.ParamNitrate:    stable(5, 0.6),
				models.ParamPhosphate:  stable(0.06, 0.008),
			},
		},
	}
}

// DemoEvents returns the operator log that accompanies the demo arc:
// the dosing change that starts the slide and the correction that ends
// it. Timestamps are offsets from the same start the series uses.
func DemoEvents(tankID string, start time.Time) []models.Event {
	return []models.Event{
		models.NewEvent(
			tankID,
			start.Add(5*24*time.Hour),
			models.EventDosingChange,
			"Switched two-part dosing schedule",
			"Reduced the alkalinity component to save solution; calcium dose left unchanged",
		),
		models.NewEvent(
			tankID,
			start.Add(27*24*time.Hour),
			models.EventTreatment,
			"Corrected two-part dosing and added buffer",
			"Restored alkalinity component to the measured daily demand and dosed buffer to begin recovery",
		),
	}
}

// DemoGenerator builds a generator over the demo phases. The table is
// static and covered by tests, so construction cannot fail.
func DemoGenerator() *Generator {
	g, err := NewGenerator(DemoPhases())
	if err != nil {
		panic(err)
	}
	return g
}
