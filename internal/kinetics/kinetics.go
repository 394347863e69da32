// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kinetics evaluates closed-form enzyme kinetics for the enzymes in
// a sample: Michaelis-Menten rates corrected for temperature, pH, and ionic
// strength, toxin inhibition, and residual activity after processing.
package kinetics

import (
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Catalog is the subset of the reference catalog the kinetics stage reads.
type Catalog interface {
	Enzyme(name string) (types.EnzymeRecord, bool)
	Protein(name string) (types.ProteinRecord, bool)
	Toxin(name string) (types.ToxinProfile, bool)
}

// StatusNoEnzymes labels a run whose sample names no enzymes.
const StatusNoEnzymes = "no_enzymes"

// minPHFactor keeps the effective Km finite far from the pH optimum.
const minPHFactor = 1e-6

// Constants applied to an enzyme missing from the reference tables.
var defaultEnzyme = types.EnzymeRecord{
	Substrates: []types.SubstrateConstants{
		{Substrate: "generic_substrate", Km: 1.0, Vmax: 20.0, Kcat: 500.0},
	},
	OptimalPH:          7.0,
	OptimalTemperature: 37.0,
	HalfLifeHours:      48.0,
	PHSensitivity:      0.05,
}

// Output is the kinetics stage's detail block and metrics.
type Output struct {
	Analyses []types.KineticsAnalysis
	Result   types.StageResult
}

// Analyze evaluates every enzyme in the sample in order. An enzyme absent
// from the reference tables is computed from default constants and flagged
// degraded. Analyze is a pure function of its arguments.
func Analyze(sample types.FoodSample, cat Catalog, cfg types.KineticsConfig) Output {
	cfg = withDefaults(cfg)
	res := types.NewStageResult(types.StageKinetics)
	out := Output{}

	for _, name := range sample.Proteins {
		key := types.NormalizeName(name)
		if !IsEnzyme(key, cat) {
			continue
		}
		a, notes := analyzeEnzyme(key, sample, cat, cfg)
		for _, n := range notes {
			res.Notef("%s", n)
		}
		out.Analyses = append(out.Analyses, a)
		setEnzymeMetrics(&res, a)
	}

	res.Set("enzyme_count", types.Number(float64(len(out.Analyses))))
	if len(out.Analyses) == 0 {
		res.Set("status", types.Label(StatusNoEnzymes))
		res.Set("mean_residual_activity", types.Number(0))
		res.Set("mean_relative_activity", types.Number(0))
		out.Result = res
		return out
	}

	var residual, relative float64
	degraded := false
	for _, a := range out.Analyses {
		residual += a.ResidualActivity
		relative += a.RelativeActivity
		degraded = degraded || a.Degraded
	}
	n := float64(len(out.Analyses))
	res.Set("status", types.Label("analyzed"))
	res.Set("mean_residual_activity", mark(types.Number(residual/n), degraded))
	res.Set("mean_relative_activity", mark(types.Number(relative/n), degraded))
	out.Result = res
	return out
}

// IsEnzyme reports whether a normalized protein name denotes an enzyme: it
// is in the enzyme table, its catalog category is enzyme, or its name ends
// in "ase" or mentions "enzyme".
func IsEnzyme(name string, cat Catalog) bool {
	if _, ok := cat.Enzyme(name); ok {
		return true
	}
	if p, ok := cat.Protein(name); ok && p.Category == "enzyme" {
		return true
	}
	return strings.HasSuffix(name, "ase") || strings.Contains(name, "enzyme")
}

func analyzeEnzyme(name string, sample types.FoodSample, cat Catalog, cfg types.KineticsConfig) (types.KineticsAnalysis, []string) {
	var notes []string
	rec, found := cat.Enzyme(name)
	if !found {
		rec = defaultEnzyme
		notes = append(notes, fmt.Sprintf("enzyme %s not in reference tables; using default constants", name))
	}
	sub, ok := substrateFor(rec, sample.Proteins)
	degraded := !found
	if !ok {
		sub = defaultEnzyme.Substrates[0]
		degraded = true
		notes = append(notes, fmt.Sprintf("enzyme %s has no substrate constants; using defaults", name))
	}
	if rec.HalfLifeHours <= 0 {
		rec.HalfLifeHours = defaultEnzyme.HalfLifeHours
		degraded = true
		notes = append(notes, fmt.Sprintf("enzyme %s has no half-life; using %.0f h", name, rec.HalfLifeHours))
	}

	c := sample.Conditions
	tf := TemperatureFactor(c.Temperature, rec.OptimalTemperature, cfg)
	pf := PHFactor(c.PH, rec.OptimalPH, cfg.PHWidth)
	inf := IonicFactor(c.IonicStrength)

	a := types.KineticsAnalysis{
		Enzyme:            name,
		Substrate:         sub.Substrate,
		Found:             found,
		Km:                sub.Km,
		Vmax:              sub.Vmax,
		Kcat:              sub.Kcat,
		EffectiveKm:       sub.Km / math.Max(pf, minPHFactor),
		EffectiveVmax:     sub.Vmax * tf * pf * inf,
		EffectiveKcat:     sub.Kcat * tf * inf,
		TemperatureFactor: tf,
		PHFactor:          pf,
		IonicFactor:       inf,
		Degraded:          degraded,
	}

	s := cfg.SubstrateConcentration
	a.Rate = MichaelisMenten(a.EffectiveVmax, a.EffectiveKm, s)
	if optimum := MichaelisMenten(sub.Vmax, sub.Km, s); optimum > 0 {
		a.RelativeActivity = a.Rate / optimum
	}

	k := DegradationRate(rec.HalfLifeHours, rec.PHSensitivity, c.Temperature, c.PH)
	a.ResidualActivity = math.Exp(-k * c.DurationMinutes / 60)
	a.HalfLifeHours = math.Ln2 / k
	a.StabilityClass = StabilityClass(a.HalfLifeHours)

	for _, toxin := range sample.SuspectedToxins {
		profile, ok := cat.Toxin(toxin)
		if !ok {
			notes = append(notes, fmt.Sprintf("toxin %s has no profile; inhibition of %s not assessed", types.NormalizeName(toxin), name))
			continue
		}
		detected := sample.DetectedLevels[types.NormalizeName(toxin)]
		a.Inhibitions = append(a.Inhibitions, Inhibit(name, profile, detected, a.EffectiveVmax, a.EffectiveKm, s))
	}

	return a, notes
}

// substrateFor prefers a substrate the sample itself contains (a protease
// acting on casein) and otherwise returns the enzyme's primary substrate.
func substrateFor(rec types.EnzymeRecord, proteins []string) (types.SubstrateConstants, bool) {
	for _, p := range proteins {
		key := types.NormalizeName(p)
		for _, s := range rec.Substrates {
			if types.NormalizeName(s.Substrate) == key {
				return s, true
			}
		}
	}
	return rec.PrimarySubstrate()
}

func setEnzymeMetrics(res *types.StageResult, a types.KineticsAnalysis) {
	res.Set(a.Enzyme+".rate", mark(types.Number(a.Rate), a.Degraded))
	res.Set(a.Enzyme+".relative_activity", mark(types.Number(a.RelativeActivity), a.Degraded))
	res.Set(a.Enzyme+".temperature_factor", types.Number(a.TemperatureFactor))
	res.Set(a.Enzyme+".residual_activity", mark(types.Number(a.ResidualActivity), a.Degraded))
	res.Set(a.Enzyme+".stability_class", mark(types.Label(a.StabilityClass), a.Degraded))
}

func mark(m types.Metric, degraded bool) types.Metric {
	if degraded {
		return m.AsDegraded()
	}
	return m
}

func withDefaults(cfg types.KineticsConfig) types.KineticsConfig {
	d := types.DefaultPipelineConfig().Kinetics
	if cfg.Q10 <= 0 {
		cfg.Q10 = d.Q10
	}
	if cfg.DeactivationScale <= 0 {
		cfg.DeactivationScale = d.DeactivationScale
	}
	if cfg.PHWidth <= 0 {
		cfg.PHWidth = d.PHWidth
	}
	if cfg.SubstrateConcentration <= 0 {
		cfg.SubstrateConcentration = d.SubstrateConcentration
	}
	return cfg
}
