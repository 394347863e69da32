// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kinetics

import (
	"math"
	"strings"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Ionic strength bounds (M) outside which activity is reduced.
const (
	lowIonicStrength  = 0.05
	highIonicStrength = 0.5
)

// Storage reference conditions for half-life values in the enzyme table.
const (
	storageTemperature = 4.0
	neutralPH          = 7.0
)

// MichaelisMenten returns v = Vmax*S / (Km + S), or 0 when the denominator
// is not positive.
func MichaelisMenten(vmax, km, s float64) float64 {
	if km+s <= 0 {
		return 0
	}
	return vmax * s / (km + s)
}

// TemperatureFactor scales activity for temperature t against the optimum.
// At or below the optimum it follows Q10 scaling; above it, thermal
// deactivation decays exponentially, so the factor strictly decreases with
// every degree past the optimum.
func TemperatureFactor(t, optimum float64, cfg types.KineticsConfig) float64 {
	cfg = withDefaults(cfg)
	if t <= optimum {
		return math.Pow(cfg.Q10, (t-optimum)/10)
	}
	return math.Exp(-(t - optimum) / cfg.DeactivationScale)
}

// PHFactor is a Gaussian in pH centered on the optimum.
func PHFactor(ph, optimum, width float64) float64 {
	if width <= 0 {
		width = types.DefaultPipelineConfig().Kinetics.PHWidth
	}
	z := (ph - optimum) / width
	return math.Exp(-0.5 * z * z)
}

// IonicFactor reduces activity in very dilute or very concentrated salt.
func IonicFactor(ionicStrength float64) float64 {
	switch {
	case ionicStrength < lowIonicStrength:
		return 0.7
	case ionicStrength > highIonicStrength:
		return 0.8
	}
	return 1.0
}

// DegradationRate returns the first-order inactivation constant (1/h) for an
// enzyme whose storage half-life at 4 °C and neutral pH is halfLife. The rate
// doubles every 10 °C and grows linearly with distance from neutral pH.
func DegradationRate(halfLife, phSensitivity, temperature, ph float64) float64 {
	base := math.Ln2 / halfLife
	tf := math.Pow(2, (temperature-storageTemperature)/10)
	pf := 1 + phSensitivity*math.Abs(ph-neutralPH)
	return base * tf * pf
}

// StabilityClass labels a predicted half-life in hours.
func StabilityClass(halfLifeHours float64) string {
	switch {
	case halfLifeHours > 168:
		return "very_stable"
	case halfLifeHours > 72:
		return "stable"
	case halfLifeHours > 24:
		return "moderately_stable"
	case halfLifeHours > 6:
		return "unstable"
	}
	return "very_unstable"
}

// Inhibition types.
const (
	Competitive    = "competitive"
	NonCompetitive = "non_competitive"
	Uncompetitive  = "uncompetitive"
)

type inhibitorClass struct {
	ki  float64
	typ string
}

// inhibitorClasses holds the baseline Ki (mM) and mode per toxin category.
var inhibitorClasses = map[string]inhibitorClass{
	"heavy_metals":  {ki: 0.01, typ: Competitive},
	"phenolic":      {ki: 0.5, typ: NonCompetitive},
	"organic_acids": {ki: 2.0, typ: Competitive},
	"salts":         {ki: 10.0, typ: Uncompetitive},
}

const defaultInhibitorCategory = "phenolic"

// Inhibit evaluates how toxin inhibits enzyme at a detected level in ppb,
// given the enzyme's effective Vmax and Km and substrate concentration s.
// A toxin with no detected level contributes a zero concentration and a zero
// fraction but still reports its Ki and mode.
func Inhibit(enzyme string, toxin types.ToxinProfile, detectedPPB, vmax, km, s float64) types.Inhibition {
	category := toxin.InhibitorCategory
	class, ok := inhibitorClasses[category]
	if !ok {
		category = defaultInhibitorCategory
		class = inhibitorClasses[category]
	}

	ki := class.ki
	switch {
	case strings.Contains(enzyme, "amylase") && category == "phenolic":
		ki *= 0.5
	case strings.Contains(enzyme, "protease") && category == "heavy_metals":
		ki *= 0.2
	}

	var conc float64
	if detectedPPB > 0 && toxin.MolecularWeight > 0 {
		conc = detectedPPB / (toxin.MolecularWeight * 1000)
	}
	alpha := 1 + conc/ki

	appVmax, appKm := vmax, km
	switch class.typ {
	case Competitive:
		appKm = km * alpha
	case NonCompetitive:
		appVmax = vmax / alpha
	case Uncompetitive:
		appVmax = vmax / alpha
		appKm = km / alpha
	}

	inh := types.Inhibition{
		Toxin:      types.NormalizeName(toxin.Name),
		Category:   category,
		Ki:         ki,
		Type:       class.typ,
		ApparentKm: appKm,
	}
	if v := MichaelisMenten(vmax, km, s); v > 0 {
		inh.Fraction = math.Max(0, 1-MichaelisMenten(appVmax, appKm, s)/v)
	}
	return inh
}
