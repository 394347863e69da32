// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"sort"
	"time"
)

// StageName identifies one step of the analysis pipeline.
type StageName string

const (
	StageResearch    StageName = "research"
	StageProtein     StageName = "protein_analysis"
	StageInteraction StageName = "interaction"
	StageKinetics    StageName = "enzyme_kinetics"
	StageSafety      StageName = "safety_assessment"
	StageReporting   StageName = "reporting"
)

// Stages lists the pipeline stages in execution order.
var Stages = []StageName{
	StageResearch,
	StageProtein,
	StageInteraction,
	StageKinetics,
	StageSafety,
	StageReporting,
}

// Metric is one named output of a stage: either a number or a label.
type Metric struct {
	// Value holds a numeric metric. Nil for categorical metrics.
	Value *float64 `json:"value,omitempty" yaml:"value,omitempty"`

	// Label holds a categorical metric.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Degraded is set when the metric was computed from a documented
	// default because data or a tool was unavailable.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// Number returns a numeric metric.
func Number(v float64) Metric {
	return Metric{Value: &v}
}

// Label returns a categorical metric.
func Label(s string) Metric {
	return Metric{Label: s}
}

// AsDegraded returns a copy of m flagged as degraded.
func (m Metric) AsDegraded() Metric {
	m.Degraded = true
	return m
}

// Float returns the numeric value and whether the metric is numeric.
func (m Metric) Float() (float64, bool) {
	if m.Value == nil {
		return 0, false
	}
	return *m.Value, true
}

// String renders the metric for table output.
func (m Metric) String() string {
	s := m.Label
	if m.Value != nil {
		s = fmt.Sprintf("%.4g", *m.Value)
	}
	if m.Degraded {
		s += " (degraded)"
	}
	return s
}

// StageResult is the flat metric mapping produced by one stage.
type StageResult struct {
	// Stage names the producing stage.
	Stage StageName `json:"stage" yaml:"stage"`

	// Metrics maps metric name to value.
	Metrics map[string]Metric `json:"metrics" yaml:"metrics"`

	// Degraded is true when any metric is degraded.
	Degraded bool `json:"degraded" yaml:"degraded"`

	// Notes records substitutions and tool failures in order.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewStageResult returns an empty result for stage.
func NewStageResult(stage StageName) StageResult {
	return StageResult{Stage: stage, Metrics: make(map[string]Metric)}
}

// Set records a metric, keeping Degraded in sync.
func (r *StageResult) Set(name string, m Metric) {
	if r.Metrics == nil {
		r.Metrics = make(map[string]Metric)
	}
	r.Metrics[name] = m
	if m.Degraded {
		r.Degraded = true
	}
}

// Notef appends a formatted note.
func (r *StageResult) Notef(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// DegradedMetrics returns the sorted names of degraded metrics.
func (r StageResult) DegradedMetrics() []string {
	var names []string
	for name, m := range r.Metrics {
		if m.Degraded {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy so a merged result never aliases the original.
func (r StageResult) Clone() StageResult {
	out := StageResult{
		Stage:    r.Stage,
		Metrics:  make(map[string]Metric, len(r.Metrics)),
		Degraded: r.Degraded,
		Notes:    append([]string(nil), r.Notes...),
	}
	for k, m := range r.Metrics {
		if m.Value != nil {
			v := *m.Value
			m.Value = &v
		}
		out.Metrics[k] = m
	}
	return out
}

// RiskLevel is the discrete label assigned to a safety score.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevels lists every valid label from least to most severe.
var RiskLevels = []RiskLevel{RiskSafe, RiskLow, RiskModerate, RiskHigh, RiskCritical}

// Valid reports whether l is one of RiskLevels.
func (l RiskLevel) Valid() bool {
	for _, v := range RiskLevels {
		if l == v {
			return true
		}
	}
	return false
}

// SampleInfo echoes the analyzed sample in the report.
type SampleInfo struct {
	ID              string               `json:"id" yaml:"id"`
	Name            string               `json:"name" yaml:"name"`
	Category        string               `json:"category" yaml:"category"`
	Proteins        []string             `json:"proteins" yaml:"proteins"`
	SuspectedToxins []string             `json:"suspected_toxins" yaml:"suspected_toxins"`
	Conditions      ProcessingConditions `json:"processing_conditions" yaml:"processing_conditions"`
	Origin          string               `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// ExecutiveSummary is the headline of a report.
type ExecutiveSummary struct {
	// SafetyScore is in [0, 10]; higher is safer.
	SafetyScore float64 `json:"safety_score" yaml:"safety_score"`

	// RiskLevel is the label the score maps to.
	RiskLevel RiskLevel `json:"risk_level" yaml:"risk_level"`

	// KeyFindings are short human-readable statements.
	KeyFindings []string `json:"key_findings" yaml:"key_findings"`

	// Confidence is in [0, 1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Degraded is set when any stage substituted a default.
	Degraded bool `json:"degraded" yaml:"degraded"`
}

// ReportDetails holds the typed per-stage detail blocks.
type ReportDetails struct {
	Research     ResearchOutput     `json:"research" yaml:"research"`
	Proteins     []ProteinAnalysis  `json:"protein_analysis" yaml:"protein_analysis"`
	Interactions InteractionBlock   `json:"interaction_analysis" yaml:"interaction_analysis"`
	Kinetics     []KineticsAnalysis `json:"enzyme_kinetics" yaml:"enzyme_kinetics"`
	Safety       SafetyAssessment   `json:"safety_assessment" yaml:"safety_assessment"`
}

// SafetyReport is the terminal aggregate of a run. It is read-only once
// assembled.
type SafetyReport struct {
	// RunID is a UUID assigned when the run starts.
	RunID string `json:"run_id" yaml:"run_id"`

	// GeneratedAt is the assembly time.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	SampleInfo       SampleInfo       `json:"sample_info" yaml:"sample_info"`
	ExecutiveSummary ExecutiveSummary `json:"executive_summary" yaml:"executive_summary"`

	// Stages holds every stage's metrics keyed by stage name.
	Stages map[StageName]StageResult `json:"stages" yaml:"stages"`

	Details         ReportDetails    `json:"detailed_results" yaml:"detailed_results"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
	ControlPoints   []ControlPoint   `json:"critical_control_points" yaml:"critical_control_points"`
	Compliance      ComplianceReport `json:"regulatory_compliance" yaml:"regulatory_compliance"`
	NextSteps       []string         `json:"next_steps" yaml:"next_steps"`

	// Narrative is free text from the narrator.
	Narrative string `json:"narrative,omitempty" yaml:"narrative,omitempty"`
}
