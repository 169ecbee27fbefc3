package models

// Canonical units per parameter: alk dKH, ca/mg mg/L, salinity ppt,
// temp °C, no3/po4 ppm. Probes and manual entry sometimes report salinity
// as specific gravity and temperature in Fahrenheit; these helpers bring
// such values onto the canonical scale before storage.

// PPTFromSpecificGravity converts a hydrometer-style specific gravity
// to salinity in ppt. Linear approximation near seawater density at 25°C
// (SG 1.0264 ≈ 35 ppt).
func PPTFromSpecificGravity(sg float64) float64 {
	return (sg - 1.0) * 1326.0
}

// SpecificGravityFromPPT is the inverse of PPTFromSpecificGravity.
func SpecificGravityFromPPT(ppt float64) float64 {
	return 1.0 + ppt/1326.0
}

// CelsiusFromFahrenheit converts °F to °C.
func CelsiusFromFahrenheit(f float64) float64 {
	return (f - 32.0) * 5.0 / 9.0
}

// FahrenheitFromCelsius converts °C to °F.
func FahrenheitFromCelsius(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

// DKHFromMeqL converts alkalinity from meq/L to dKH.
func DKHFromMeqL(meq float64) float64 {
	return meq * 2.8
}

// MeqLFromDKH converts alkalinity from dKH to meq/L.
func MeqLFromDKH(dkh float64) float64 {
	return dkh / 2.8
}

// NormalizeValue converts a raw incoming value to the parameter's
// canonical unit when the raw value is unambiguously in another common
// unit. Salinity below 1.5 can only be specific gravity (seawater ppt is
// ~30-40); temperature above 45 can only be Fahrenheit for a living tank.
func NormalizeValue(p Parameter, v float64) float64 {
	switch p {
	case ParamSalinity:
		if v < 1.5 {
			return PPTFromSpecificGravity(v)
		}
	case ParamTemp:
		if v > 45 {
			return CelsiusFromFahrenheit(v)
		}
	}
	return v
}
