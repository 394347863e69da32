// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package protein

import (
	"math"
	"strings"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

const waterMass = 18.015

// aminoAcidMass holds free amino-acid masses in Da.
var aminoAcidMass = map[rune]float64{
	'A': 89.09, 'R': 174.20, 'N': 132.12, 'D': 133.10, 'C': 121.15,
	'E': 147.13, 'Q': 146.15, 'G': 75.07, 'H': 155.16, 'I': 131.17,
	'L': 131.17, 'K': 146.19, 'M': 149.21, 'F': 165.19, 'P': 115.13,
	'S': 105.09, 'T': 119.12, 'W': 204.23, 'Y': 181.19, 'V': 117.15,
}

const unknownResidueMass = 110.0

// kyteDoolittle is the Kyte-Doolittle hydropathy scale.
var kyteDoolittle = map[rune]float64{
	'A': 1.8, 'R': -4.5, 'N': -3.5, 'D': -3.5, 'C': 2.5,
	'E': -3.5, 'Q': -3.5, 'G': -0.4, 'H': -3.2, 'I': 4.5,
	'L': 3.8, 'K': -3.9, 'M': 1.9, 'F': 2.8, 'P': -1.6,
	'S': -0.8, 'T': -0.7, 'W': -0.9, 'Y': -1.3, 'V': 4.2,
}

// CleanSequence upper-cases seq and drops whitespace and anything that is
// not a letter.
func CleanSequence(seq string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(seq) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MolecularWeight sums residue masses, removing one water per peptide bond.
func MolecularWeight(seq string) float64 {
	if seq == "" {
		return 0
	}
	var w float64
	n := 0
	for _, r := range seq {
		m, ok := aminoAcidMass[r]
		if !ok {
			m = unknownResidueMass
		}
		w += m
		n++
	}
	return w - float64(n-1)*waterMass
}

// IsoelectricPoint estimates pI from the balance of basic (R, H, K) and
// acidic (D, E) residues around neutral.
func IsoelectricPoint(seq string) float64 {
	n := len(seq)
	if n == 0 {
		return 7.0
	}
	basic := strings.Count(seq, "R") + strings.Count(seq, "H") + strings.Count(seq, "K")
	acidic := strings.Count(seq, "D") + strings.Count(seq, "E")
	return 7.0 + float64(basic-acidic)/float64(n)*4.0
}

// Hydrophobicity is the mean Kyte-Doolittle value over the sequence.
func Hydrophobicity(seq string) float64 {
	if seq == "" {
		return 0
	}
	var total float64
	n := 0
	for _, r := range seq {
		total += kyteDoolittle[r]
		n++
	}
	return total / float64(n)
}

// SecondaryStructure assigns each residue a helix (H), strand (E), or coil
// (C) propensity.
func SecondaryStructure(seq string) string {
	var b strings.Builder
	b.Grow(len(seq))
	for _, r := range seq {
		switch r {
		case 'A', 'E', 'L', 'K', 'R':
			b.WriteByte('H')
		case 'V', 'I', 'F', 'Y':
			b.WriteByte('E')
		default:
			b.WriteByte('C')
		}
	}
	return b.String()
}

// Stability scores a protein from 0 to 10 under the processing conditions.
// Extreme pH and heat lower the score; disulfide-capable cysteines and
// proline content raise it.
func Stability(seq string, c types.ProcessingConditions) float64 {
	score := 7.0

	switch {
	case c.PH < 4 || c.PH > 10:
		score -= 2
	case c.PH < 5 || c.PH > 9:
		score -= 1
	}

	switch {
	case c.Temperature > 80:
		score -= 3
	case c.Temperature > 60:
		score -= 1.5
	}

	if strings.Count(seq, "C") >= 2 {
		score += 0.5
	}
	if len(seq) > 0 {
		score += float64(strings.Count(seq, "P")) / float64(len(seq)) * 2
	}

	return math.Max(0, math.Min(10, score))
}

// Processing sensitivity keys.
const (
	SensTemperature = "temperature"
	SensPH          = "ph"
	SensIonic       = "ionic_strength"
	SensOxidation   = "oxidation"
	SensEnzymatic   = "enzymatic_degradation"
)

// ProcessingSensitivity rates how strongly each processing factor affects
// the protein, each in [0, 1].
func ProcessingSensitivity(seq string, c types.ProcessingConditions) map[string]float64 {
	s := map[string]float64{
		SensTemperature: 0.3,
		SensPH:          0.2,
		SensIonic:       0.1,
		SensOxidation:   0.15,
		SensEnzymatic:   0.25,
	}

	if strings.ContainsRune(seq, 'C') {
		s[SensOxidation] += 0.2
	}
	if float64(strings.Count(seq, "R")+strings.Count(seq, "K")) > float64(len(seq))*0.1 {
		s[SensPH] += 0.1
	}
	if strings.ContainsRune(seq, 'M') {
		s[SensOxidation] += 0.1
	}
	if math.Abs(c.PH-7) > 2 {
		s[SensPH] += 0.2
	}
	if c.Temperature > 60 {
		s[SensTemperature] += 0.3
	}

	for k, v := range s {
		s[k] = math.Min(1, v)
	}
	return s
}
