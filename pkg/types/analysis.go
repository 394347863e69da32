// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Finding is one piece of context gathered by the research stage.
type Finding struct {
	// Subject is the normalized protein or toxin name the finding is about.
	Subject string `json:"subject" yaml:"subject"`

	// Source names the backend that produced it (catalog, literature, pubmed).
	Source string `json:"source" yaml:"source"`

	// Title is a short heading (an article title or a catalog field).
	Title string `json:"title" yaml:"title"`

	// Text is the finding body.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// URL links to the original record when one exists.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// ResearchOutput is the research stage's detail block.
type ResearchOutput struct {
	Findings []Finding `json:"findings" yaml:"findings"`

	// Sources lists the backends that answered, in query order.
	Sources []string `json:"sources" yaml:"sources"`

	// Errors lists backend failures as "name: message".
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ProteinAnalysis is the protein stage's per-protein detail.
type ProteinAnalysis struct {
	Name string `json:"name" yaml:"name"`

	// Found is false when the protein was absent from the reference tables.
	Found bool `json:"found" yaml:"found"`

	Category         string  `json:"category,omitempty" yaml:"category,omitempty"`
	MolecularWeight  float64 `json:"molecular_weight" yaml:"molecular_weight"`
	IsoelectricPoint float64 `json:"isoelectric_point" yaml:"isoelectric_point"`

	// Hydrophobicity is the mean Kyte-Doolittle value over the sequence.
	Hydrophobicity float64 `json:"hydrophobicity" yaml:"hydrophobicity"`

	// Stability is a 0-10 score under the sample's processing conditions.
	Stability float64 `json:"stability" yaml:"stability"`

	// Confidence is the structure predictor's mean pLDDT scaled to [0, 1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Predictor names the structure source (container, esmatlas, default).
	Predictor string `json:"predictor" yaml:"predictor"`

	// SecondaryStructure is the per-residue H/E/C propensity string.
	SecondaryStructure string `json:"secondary_structure,omitempty" yaml:"secondary_structure,omitempty"`

	// ProcessingSensitivity maps a process (temperature, ph, oxidation, ...)
	// to a sensitivity in [0, 1].
	ProcessingSensitivity map[string]float64 `json:"processing_sensitivity,omitempty" yaml:"processing_sensitivity,omitempty"`

	Degraded bool     `json:"degraded" yaml:"degraded"`
	Notes    []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// StructuralChanges estimates the percentage of a protein's secondary
// structure perturbed by a bound toxin.
type StructuralChanges struct {
	HelixLoss    float64 `json:"alpha_helix_loss" yaml:"alpha_helix_loss"`
	SheetChange  float64 `json:"beta_sheet_change" yaml:"beta_sheet_change"`
	CoilIncrease float64 `json:"random_coil_increase" yaml:"random_coil_increase"`
	Overall      float64 `json:"overall_change" yaml:"overall_change"`
}

// InteractionAnalysis is the interaction stage's per-pair detail.
type InteractionAnalysis struct {
	Protein string `json:"protein" yaml:"protein"`
	Toxin   string `json:"toxin" yaml:"toxin"`

	// BindingAffinity is in kcal/mol; more negative binds tighter.
	BindingAffinity float64 `json:"binding_affinity" yaml:"binding_affinity"`

	// InteractionClass is the qualitative label.
	InteractionClass string `json:"interaction_class" yaml:"interaction_class"`

	// Source is docking, known, estimated, or default.
	Source string `json:"source" yaml:"source"`

	BindingSite string `json:"binding_site,omitempty" yaml:"binding_site,omitempty"`
	Reference   string `json:"reference,omitempty" yaml:"reference,omitempty"`

	StructuralChanges StructuralChanges `json:"structural_changes" yaml:"structural_changes"`

	// ToxicityEnhancement is a multiplier in [1, 10].
	ToxicityEnhancement float64 `json:"toxicity_enhancement" yaml:"toxicity_enhancement"`

	// RiskLevel is low, medium, or high for this pair.
	RiskLevel string `json:"risk_level" yaml:"risk_level"`

	// RiskScore is (toxin potency + protein vulnerability) / 2.
	RiskScore float64 `json:"risk_score" yaml:"risk_score"`

	Confidence           float64  `json:"confidence" yaml:"confidence"`
	EnvironmentalEffects []string `json:"environmental_effects,omitempty" yaml:"environmental_effects,omitempty"`
	Degraded             bool     `json:"degraded" yaml:"degraded"`
}

// InteractionBlock is the interaction stage's detail block. Status is
// "analyzed" or "no_toxins_screened".
type InteractionBlock struct {
	Status    string                `json:"status" yaml:"status"`
	Pairs     []InteractionAnalysis `json:"pairs" yaml:"pairs"`
	MaxRisk   float64               `json:"max_risk" yaml:"max_risk"`
	Strongest string                `json:"strongest_pair,omitempty" yaml:"strongest_pair,omitempty"`
}

// Inhibition describes how a suspected toxin inhibits an enzyme.
type Inhibition struct {
	Toxin    string  `json:"toxin" yaml:"toxin"`
	Category string  `json:"category" yaml:"category"`
	Ki       float64 `json:"ki_mM" yaml:"ki_mM"`
	Type     string  `json:"type" yaml:"type"`

	// ApparentKm is Km corrected for the inhibitor at the substrate concentration.
	ApparentKm float64 `json:"apparent_km" yaml:"apparent_km"`

	// Fraction is the fractional rate loss in [0, 1].
	Fraction float64 `json:"fraction_inhibited" yaml:"fraction_inhibited"`
}

// KineticsAnalysis is the kinetics stage's per-enzyme detail.
type KineticsAnalysis struct {
	Enzyme    string `json:"enzyme" yaml:"enzyme"`
	Substrate string `json:"substrate" yaml:"substrate"`
	Found     bool   `json:"found" yaml:"found"`

	Km   float64 `json:"km_mM" yaml:"km_mM"`
	Vmax float64 `json:"vmax" yaml:"vmax"`
	Kcat float64 `json:"kcat" yaml:"kcat"`

	EffectiveKm   float64 `json:"effective_km_mM" yaml:"effective_km_mM"`
	EffectiveVmax float64 `json:"effective_vmax" yaml:"effective_vmax"`
	EffectiveKcat float64 `json:"effective_kcat" yaml:"effective_kcat"`

	TemperatureFactor float64 `json:"temperature_factor" yaml:"temperature_factor"`
	PHFactor          float64 `json:"ph_factor" yaml:"ph_factor"`
	IonicFactor       float64 `json:"ionic_factor" yaml:"ionic_factor"`

	// Rate is the Michaelis-Menten velocity at the configured substrate
	// concentration under the processing conditions.
	Rate float64 `json:"rate" yaml:"rate"`

	// RelativeActivity is Rate divided by the rate at optimum conditions.
	RelativeActivity float64 `json:"relative_activity" yaml:"relative_activity"`

	HalfLifeHours    float64 `json:"half_life_hours" yaml:"half_life_hours"`
	ResidualActivity float64 `json:"residual_activity" yaml:"residual_activity"`
	StabilityClass   string  `json:"stability_class" yaml:"stability_class"`

	Inhibitions []Inhibition `json:"inhibitions,omitempty" yaml:"inhibitions,omitempty"`
	Degraded    bool         `json:"degraded" yaml:"degraded"`
}

// ComponentRisks are the unweighted risk components of the safety score,
// each on a 0-10 scale.
type ComponentRisks struct {
	Interaction float64 `json:"interaction" yaml:"interaction"`
	Stability   float64 `json:"stability" yaml:"stability"`
	Regulatory  float64 `json:"regulatory" yaml:"regulatory"`
	Kinetics    float64 `json:"kinetics" yaml:"kinetics"`
}

// ComplianceStatus classifies a detected level against a limit.
type ComplianceStatus string

const (
	ComplianceOK        ComplianceStatus = "compliant"
	ComplianceWarning   ComplianceStatus = "warning"
	ComplianceViolation ComplianceStatus = "violation"
	ComplianceNoLimit   ComplianceStatus = "no_limit"
)

// ComplianceEntry is one compound checked against one limit.
type ComplianceEntry struct {
	Compound       string           `json:"compound" yaml:"compound"`
	DetectedPPB    float64          `json:"detected_ppb" yaml:"detected_ppb"`
	LimitPPB       float64          `json:"limit_ppb" yaml:"limit_ppb"`
	PercentOfLimit float64          `json:"percent_of_limit" yaml:"percent_of_limit"`
	Status         ComplianceStatus `json:"status" yaml:"status"`
	Regulation     string           `json:"regulation,omitempty" yaml:"regulation,omitempty"`
}

// ComplianceReport summarizes regulatory compliance for one region.
// OverallStatus is fully_compliant, compliant_with_warnings, non_compliant,
// or not_assessed.
type ComplianceReport struct {
	Region        string            `json:"region" yaml:"region"`
	OverallStatus string            `json:"overall_status" yaml:"overall_status"`
	Entries       []ComplianceEntry `json:"entries" yaml:"entries"`
	Violations    int               `json:"violations" yaml:"violations"`
	Warnings      int               `json:"warnings" yaml:"warnings"`
}

// ControlPoint is a HACCP critical control point.
type ControlPoint struct {
	ID               string `json:"id" yaml:"id"`
	Hazard           string `json:"hazard" yaml:"hazard"`
	Step             string `json:"step" yaml:"step"`
	CriticalLimit    string `json:"critical_limit" yaml:"critical_limit"`
	Monitoring       string `json:"monitoring" yaml:"monitoring"`
	CorrectiveAction string `json:"corrective_action" yaml:"corrective_action"`

	// Status is compliant, non_compliant, or requires_testing.
	Status string `json:"status" yaml:"status"`
}

// Priority orders recommendations; lower rank sorts first.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Rank returns 0 for CRITICAL through 3 for LOW, and 4 for unknown values.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Recommendation is one prioritized action.
type Recommendation struct {
	Priority  Priority `json:"priority" yaml:"priority"`
	Category  string   `json:"category" yaml:"category"`
	Action    string   `json:"action" yaml:"action"`
	Rationale string   `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// SafetyAssessment is the safety stage's detail block.
type SafetyAssessment struct {
	Score      float64        `json:"safety_score" yaml:"safety_score"`
	RiskLevel  RiskLevel      `json:"risk_level" yaml:"risk_level"`
	Components ComponentRisks `json:"component_risks" yaml:"component_risks"`

	// WeightedRisk is the weighted component sum subtracted from 10.
	WeightedRisk float64 `json:"weighted_risk" yaml:"weighted_risk"`

	Confidence      float64          `json:"confidence" yaml:"confidence"`
	Compliance      ComplianceReport `json:"regulatory_compliance" yaml:"regulatory_compliance"`
	ControlPoints   []ControlPoint   `json:"critical_control_points" yaml:"critical_control_points"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
}
