// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package interaction

import (
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Interaction classes.
const (
	ClassStrongHydrophobic = "strong_hydrophobic_binding"
	ClassCompetitive       = "competitive_inhibition"
	ClassAllosteric        = "allosteric_binding"
	ClassStrong            = "strong_binding"
	ClassModerate          = "moderate_binding"
	ClassWeak              = "weak_binding"
	ClassUnknown           = "unknown"
)

// Contact types as reported by binding-site tables and docking tools.
const (
	contactHydrophobic   = "hydrophobic"
	contactElectrostatic = "electrostatic"
	contactHydrogenBond  = "hydrogen_bond"
)

// contactType folds free-form contact names (hydrogen_bonding, H-bond,
// ionic) onto the three contact types, or "" when none applies.
func contactType(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "hydrophob"):
		return contactHydrophobic
	case strings.Contains(s, "electro"), strings.Contains(s, "ionic"):
		return contactElectrostatic
	case strings.Contains(s, "hydrogen"), strings.Contains(s, "h-bond"):
		return contactHydrogenBond
	}
	return ""
}

// Classify labels a binding affinity. Strong binders are split by contact
// type; weaker binders are labelled by affinity alone.
func Classify(affinity float64, contact string, cfg types.InteractionConfig) string {
	strong, moderate := thresholds(cfg)
	switch {
	case affinity < strong:
		switch contactType(contact) {
		case contactElectrostatic:
			return ClassCompetitive
		case contactHydrogenBond:
			return ClassAllosteric
		case contactHydrophobic:
			return ClassStrongHydrophobic
		}
		return ClassStrong
	case affinity < moderate:
		return ClassModerate
	}
	return ClassWeak
}

func thresholds(cfg types.InteractionConfig) (strong, moderate float64) {
	d := types.DefaultPipelineConfig().Interaction
	strong, moderate = cfg.StrongAffinity, cfg.ModerateAffinity
	if strong == 0 {
		strong = d.StrongAffinity
	}
	if moderate == 0 {
		moderate = d.ModerateAffinity
	}
	return strong, moderate
}

// SiteAffinity scores a toxin in a tabulated pocket from the pocket volume
// and the toxin's size, lipophilicity, and hydrogen-bonding capacity.
func SiteAffinity(site types.BindingSite, toxin types.ToxinProfile) float64 {
	a := -2.0 - site.Volume/100
	if toxin.MolecularWeight > 300 {
		a += (toxin.MolecularWeight - 300) / 1000
	}

	hbonds := float64(toxin.HBondDonors + toxin.HBondAcceptors)
	switch contactType(site.Type) {
	case contactHydrophobic:
		a -= 0.5 * toxin.LogP
		a -= 0.1 * hbonds
	case contactElectrostatic:
		a += 0.2 * toxin.LogP
		a -= 0.1 * hbonds
	case contactHydrogenBond:
		a -= 0.3 * math.Abs(toxin.LogP-2)
		a -= 0.3 * hbonds
	default:
		a -= 0.3 * math.Abs(toxin.LogP-2)
		a -= 0.1 * hbonds
	}
	return a
}

// ToxinPotency maps an oral LD50 in mg/kg to a 0-1 potency. An unknown LD50
// maps to the middle of the scale.
func ToxinPotency(ld50 float64) float64 {
	switch {
	case ld50 <= 0:
		return 0.5
	case ld50 <= 0.01:
		return 1.0
	case ld50 <= 1:
		return 0.8
	case ld50 <= 100:
		return 0.6
	case ld50 <= 1000:
		return 0.4
	}
	return 0.2
}

// ProteinVulnerability rates how exposed a protein is to toxin binding from
// its category, size, and charge, in [0, 1].
func ProteinVulnerability(p types.ProteinAnalysis) float64 {
	v := 0.5
	switch p.Category {
	case "enzyme":
		v += 0.2
	case "dairy":
		v += 0.1
	}
	switch {
	case p.MolecularWeight > 100000:
		v += 0.2
	case p.MolecularWeight > 50000:
		v += 0.1
	}
	if p.IsoelectricPoint < 4 || p.IsoelectricPoint > 10 {
		v += 0.1
	}
	return math.Min(1, v)
}

// RiskLabel buckets a pair risk score.
func RiskLabel(score float64) string {
	switch {
	case score > 0.7:
		return "high"
	case score > 0.4:
		return "medium"
	}
	return "low"
}

// EstimatedAffinity converts a pair risk score into a binding affinity when
// no docking result, documented binding, or binding site is available.
func EstimatedAffinity(risk float64) float64 {
	return -(2 + 6*risk)
}

// StructuralChangesFor estimates secondary-structure perturbation from the
// binding affinity, the protein's stability score, and processing stress.
func StructuralChangesFor(affinity, stability float64, c types.ProcessingConditions) types.StructuralChanges {
	base := math.Min(math.Abs(affinity)*2, 25)
	stabilityFactor := math.Max(0.5, (10-stability)/10)
	tempStress := math.Max(0, (c.Temperature-40)/60)
	phStress := math.Abs(c.PH-7) / 3

	sc := types.StructuralChanges{
		HelixLoss:    base * stabilityFactor * (1 + tempStress),
		SheetChange:  base * 0.7 * stabilityFactor,
		CoilIncrease: base * 0.5,
	}
	if c.PH < 5 || c.PH > 9 {
		sc.HelixLoss += phStress * 5
		sc.SheetChange += phStress * 3
	}
	sc.Overall = (sc.HelixLoss + sc.SheetChange + sc.CoilIncrease) / 3
	return sc
}

// ToxicityEnhancement is the factor by which binding to a food protein may
// raise a toxin's effect, in [1, 10].
func ToxicityEnhancement(affinity, ld50 float64) float64 {
	binding := 1 + (math.Abs(affinity)-3)/10
	potency := 1.2
	switch {
	case ld50 > 0 && ld50 < 1:
		potency = 2.0
	case ld50 > 0 && ld50 < 10:
		potency = 1.5
	}
	return math.Max(1, math.Min(10, binding*potency*1.5))
}

// DockingConfidence combines pose agreement, mean pose confidence, and
// whether the best affinity is physically plausible.
func DockingConfidence(poses []Pose, best float64) float64 {
	if len(poses) == 0 {
		return 0
	}
	var sum, confSum float64
	for _, p := range poses {
		sum += p.Affinity
		confSum += p.Confidence
	}
	n := float64(len(poses))
	mean := sum / n
	var sq float64
	for _, p := range poses {
		sq += (p.Affinity - mean) * (p.Affinity - mean)
	}
	std := math.Sqrt(sq / n)

	consistency := math.Max(0.3, 1-std/3)
	reasonable := 0.6
	if best >= -10 && best <= -1 {
		reasonable = 0.9
	}
	return consistency*0.4 + (confSum/n)*0.4 + reasonable*0.2
}

// EnvironmentalEffects describes how the processing conditions shift the
// interaction.
func EnvironmentalEffects(c types.ProcessingConditions) []string {
	var effects []string
	switch {
	case c.Temperature > 70:
		effects = append(effects, fmt.Sprintf("high temperature (%.0f °C) may partially unfold the protein and expose buried binding sites", c.Temperature))
	case c.Temperature < 5:
		effects = append(effects, fmt.Sprintf("low temperature (%.0f °C) slows binding kinetics", c.Temperature))
	}
	switch {
	case c.PH < 4:
		effects = append(effects, fmt.Sprintf("acidic pH (%.1f) alters charge-dependent binding", c.PH))
	case c.PH > 10:
		effects = append(effects, fmt.Sprintf("alkaline pH (%.1f) alters charge-dependent binding", c.PH))
	}
	switch {
	case c.IonicStrength > 0.5:
		effects = append(effects, "high ionic strength screens electrostatic interactions")
	case c.IonicStrength < 0.05:
		effects = append(effects, "low ionic strength strengthens electrostatic interactions")
	}
	return effects
}
