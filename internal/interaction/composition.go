// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package interaction

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/internal/reference"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// PairRisk is one cell of a composition risk matrix.
type PairRisk struct {
	Protein   string  `json:"protein"`
	Toxin     string  `json:"toxin"`
	RiskLevel string  `json:"risk_level"`
	RiskScore float64 `json:"risk_score"`

	Confidence        float64 `json:"confidence"`
	LiteratureSupport bool    `json:"literature_support"`

	// BindingAffinity is the documented affinity in kcal/mol, set only when
	// LiteratureSupport is true.
	BindingAffinity float64 `json:"binding_affinity,omitempty"`
	Reference       string  `json:"reference,omitempty"`
}

// RegionCoverage reports how many of a composition's toxins a region
// regulates.
type RegionCoverage struct {
	Region    string   `json:"region"`
	Regulated []string `json:"regulated"`
	Coverage  float64  `json:"coverage"`
}

// CompositionReport is the risk overview of one food category: the proteins
// and toxins relevant to it, every pair's risk, and regulatory coverage.
type CompositionReport struct {
	Category   string           `json:"category"`
	Proteins   []string         `json:"relevant_proteins"`
	Toxins     []string         `json:"relevant_toxins"`
	Matrix     []PairRisk       `json:"risk_matrix"`
	HighRisk   []PairRisk       `json:"high_risk_interactions"`
	Regulatory []RegionCoverage `json:"regulatory_coverage"`
}

// Composition builds the risk overview of category from the catalog alone,
// without running the pipeline. Documented bindings take precedence over
// the potency and vulnerability estimate when labelling a pair. Rows are in
// catalog order.
func Composition(cat *reference.Catalog, category string) (CompositionReport, error) {
	food := strings.ToLower(strings.TrimSpace(category))
	if food == "" {
		return CompositionReport{}, errors.WithHint(errors.New("food category is required"),
			"categories are matched by keyword, e.g. dairy, wheat_flour, processed_meat, seafood")
	}

	data := cat.Data()
	report := CompositionReport{
		Category:   category,
		Proteins:   []string{},
		Toxins:     []string{},
		Matrix:     []PairRisk{},
		HighRisk:   []PairRisk{},
		Regulatory: []RegionCoverage{},
	}

	var proteins []types.ProteinRecord
	for _, p := range data.Proteins {
		if proteinRelevant(p.Category, food) {
			proteins = append(proteins, p)
			report.Proteins = append(report.Proteins, p.Name)
		}
	}
	var toxins []types.ToxinProfile
	for _, t := range data.Toxins {
		if toxinRelevant(t.Type, food) {
			toxins = append(toxins, t)
			report.Toxins = append(report.Toxins, t.Name)
		}
	}

	for _, p := range proteins {
		vulnerability := ProteinVulnerability(types.ProteinAnalysis{
			Name:             p.Name,
			Found:            true,
			Category:         p.Category,
			MolecularWeight:  p.MolecularWeight,
			IsoelectricPoint: p.IsoelectricPoint,
		})
		for _, t := range toxins {
			pr := pairRisk(cat, p.Name, t, vulnerability)
			report.Matrix = append(report.Matrix, pr)
			if pr.RiskLevel == "high" {
				report.HighRisk = append(report.HighRisk, pr)
			}
		}
	}

	for _, region := range cat.Regions() {
		var regulated []string
		for _, t := range toxins {
			if _, ok := cat.Limit(region, t.Name); ok {
				regulated = append(regulated, t.Name)
			}
		}
		if len(regulated) == 0 {
			continue
		}
		report.Regulatory = append(report.Regulatory, RegionCoverage{
			Region:    region,
			Regulated: regulated,
			Coverage:  float64(len(regulated)) / float64(len(toxins)),
		})
	}
	return report, nil
}

func pairRisk(cat *reference.Catalog, protein string, t types.ToxinProfile, vulnerability float64) PairRisk {
	score := (ToxinPotency(t.LD50) + vulnerability) / 2
	pr := PairRisk{
		Protein:    protein,
		Toxin:      t.Name,
		RiskLevel:  RiskLabel(score),
		RiskScore:  score,
		Confidence: estimatedConfidence,
	}
	if known, ok := cat.KnownInteraction(protein, t.Name); ok {
		pr.RiskLevel = knownRiskLabel(known.BindingAffinity)
		pr.Confidence = knownConfidence
		pr.LiteratureSupport = true
		pr.BindingAffinity = known.BindingAffinity
		pr.Reference = known.Reference
	}
	return pr
}

// knownRiskLabel buckets a documented binding affinity.
func knownRiskLabel(affinity float64) string {
	switch a := math.Abs(affinity); {
	case a > 7:
		return "high"
	case a > 5:
		return "medium"
	}
	return "low"
}

// proteinRelevant reports whether proteins of a reference category occur in
// food. Enzymes occur in every food.
func proteinRelevant(category, food string) bool {
	switch category {
	case "enzyme":
		return true
	case "dairy":
		return containsAny(food, "dairy", "milk", "cheese")
	case "meat":
		return containsAny(food, "meat")
	case "grain":
		return containsAny(food, "wheat", "grain", "cereal", "flour")
	}
	return false
}

// toxinRelevant reports whether toxins of a type are plausible contaminants
// of food. Bacterial toxins apply to every food.
func toxinRelevant(kind, food string) bool {
	switch kind {
	case "bacterial":
		return true
	case "mycotoxin":
		return containsAny(food, "grain", "cereal", "corn", "wheat", "flour", "dairy", "milk", "nuts")
	case "plant":
		return containsAny(food, "vegetable", "fruit", "plant", "potato")
	case "marine":
		return containsAny(food, "fish", "seafood", "marine", "shellfish")
	case "chemical":
		return containsAny(food, "processed", "fried", "baked", "heated")
	}
	return false
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
