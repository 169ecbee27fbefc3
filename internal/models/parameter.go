package models

// Parameter identifies one monitored water-chemistry channel.
// The set is closed: readings may carry unknown keys, but only
// registered parameters participate in classification and diagnosis.
type Parameter string

const (
	ParamAlkalinity Parameter = "alk"
	ParamCalcium    Parameter = "ca"
	ParamMagnesium  Parameter = "mg"
	ParamPH         Parameter = "ph"
	ParamSalinity   Parameter = "salinity"
	ParamTemp       Parameter = "temp"
	ParamNitrate    Parameter = "no3"
	ParamPhosphate  Parameter = "po4"
)

// KnownParameters returns every registered parameter in display order.
func KnownParameters() []Parameter {
	return []Parameter{
		ParamAlkalinity,
		ParamCalcium,
		ParamMagnesium,
		ParamPH,
		ParamSalinity,
		ParamTemp,
		ParamNitrate,
		ParamPhosphate,
	}
}

// IsKnown reports whether p is a registered parameter.
func (p Parameter) IsKnown() bool {
	switch p {
	case ParamAlkalinity, ParamCalcium, ParamMagnesium, ParamPH,
		ParamSalinity, ParamTemp, ParamNitrate, ParamPhosphate:
		return true
	}
	return false
}

// DisplayName returns the human-readable name for a parameter.
func (p Parameter) DisplayName() string {
	switch p {
	case ParamAlkalinity:
		return "Alkalinity"
	case ParamCalcium:
		return "Calcium"
	case ParamMagnesium:
		return "Magnesium"
	case ParamPH:
		return "pH"
	case ParamSalinity:
		return "Salinity"
	case ParamTemp:
		return "Temperature"
	case ParamNitrate:
		return "Nitrate"
	case ParamPhosphate:
		return "Phosphate"
	default:
		return string(p)
	}
}
