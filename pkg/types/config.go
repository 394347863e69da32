// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "foodsafety-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds 429/503 retries for a single request (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ResearchConfig holds settings for the research stage.
type ResearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// EnablePubMed controls whether NCBI E-utilities are queried.
	EnablePubMed bool `json:"enable_pubmed" yaml:"enable_pubmed" mapstructure:"enable_pubmed"`

	// PubMedAPIKey raises the NCBI rate limit from 3 to 10 requests/s.
	PubMedAPIKey string `json:"pubmed_api_key,omitempty" yaml:"pubmed_api_key,omitempty" mapstructure:"pubmed_api_key"`

	// PubMedEmail identifies the tool operator to NCBI.
	PubMedEmail string `json:"pubmed_email,omitempty" yaml:"pubmed_email,omitempty" mapstructure:"pubmed_email"`

	// MaxArticles caps PubMed results per subject (default 3).
	MaxArticles int `json:"max_articles" yaml:"max_articles" mapstructure:"max_articles"`

	// LiteratureLimit caps literature-index hits per subject (default 5).
	LiteratureLimit int `json:"literature_limit" yaml:"literature_limit" mapstructure:"literature_limit"`
}

// PredictorKind selects the structure-prediction collaborator.
type PredictorKind string

const (
	PredictorNone      PredictorKind = "none"
	PredictorContainer PredictorKind = "container"
	PredictorESMAtlas  PredictorKind = "esmatlas"
)

// ProteinConfig holds settings for the protein analysis stage.
type ProteinConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Predictor selects none, container, or esmatlas.
	Predictor PredictorKind `json:"predictor" yaml:"predictor" mapstructure:"predictor"`

	// Image is the container image for the container predictor. It reads a
	// FASTA record on stdin and writes PDB on stdout.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// ESMAtlasURL is the folding endpoint for the esmatlas predictor.
	ESMAtlasURL string `json:"esmatlas_url" yaml:"esmatlas_url" mapstructure:"esmatlas_url"`

	// MaxSequenceLength skips prediction for longer sequences (default 400).
	MaxSequenceLength int `json:"max_sequence_length" yaml:"max_sequence_length" mapstructure:"max_sequence_length"`
}

// DockingKind selects the molecular-docking collaborator.
type DockingKind string

const (
	DockingNone      DockingKind = "none"
	DockingContainer DockingKind = "container"
)

// InteractionConfig holds settings for the interaction stage.
type InteractionConfig struct {
	// Docking selects none or container.
	Docking DockingKind `json:"docking" yaml:"docking" mapstructure:"docking"`

	// Image is the docking container image. It reads a JSON request on
	// stdin and writes a JSON pose list on stdout.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// StrongAffinity is the kcal/mol threshold below which binding is
	// classified as strong (default -7).
	StrongAffinity float64 `json:"strong_affinity" yaml:"strong_affinity" mapstructure:"strong_affinity"`

	// ModerateAffinity is the kcal/mol threshold below which binding is
	// classified as moderate (default -4).
	ModerateAffinity float64 `json:"moderate_affinity" yaml:"moderate_affinity" mapstructure:"moderate_affinity"`
}

// KineticsConfig holds the constants of the closed-form kinetics model.
type KineticsConfig struct {
	// Q10 is the rate multiplier per 10 °C below the optimum (default 2.5).
	Q10 float64 `json:"q10" yaml:"q10" mapstructure:"q10"`

	// DeactivationScale is the e-folding width in °C of thermal
	// deactivation above the optimum (default 10).
	DeactivationScale float64 `json:"deactivation_scale" yaml:"deactivation_scale" mapstructure:"deactivation_scale"`

	// PHWidth is the standard deviation of the Gaussian pH factor (default 1.5).
	PHWidth float64 `json:"ph_width" yaml:"ph_width" mapstructure:"ph_width"`

	// SubstrateConcentration is [S] in mM (default 1.0).
	SubstrateConcentration float64 `json:"substrate_concentration" yaml:"substrate_concentration" mapstructure:"substrate_concentration"`
}

// ScoringWeights weight each component risk in the safety score.
type ScoringWeights struct {
	Interaction float64 `json:"interaction" yaml:"interaction" mapstructure:"interaction"`
	Stability   float64 `json:"stability" yaml:"stability" mapstructure:"stability"`
	Regulatory  float64 `json:"regulatory" yaml:"regulatory" mapstructure:"regulatory"`
	Kinetics    float64 `json:"kinetics" yaml:"kinetics" mapstructure:"kinetics"`
}

// RiskThreshold maps scores at or above MinScore to Level.
type RiskThreshold struct {
	MinScore float64   `json:"min_score" yaml:"min_score" mapstructure:"min_score"`
	Level    RiskLevel `json:"level" yaml:"level" mapstructure:"level"`
}

// SafetyConfig holds settings for the safety assessment stage.
type SafetyConfig struct {
	Weights ScoringWeights `json:"weights" yaml:"weights" mapstructure:"weights"`

	// Thresholds are checked in descending MinScore order; a score below
	// every threshold is critical.
	Thresholds []RiskThreshold `json:"thresholds" yaml:"thresholds" mapstructure:"thresholds"`

	// Region selects the regulatory limits: us_fda, eu_efsa, or
	// codex_alimentarius (default eu_efsa).
	Region string `json:"region" yaml:"region" mapstructure:"region"`

	// WarningFraction flags detected levels above this fraction of the
	// limit (default 0.8).
	WarningFraction float64 `json:"warning_fraction" yaml:"warning_fraction" mapstructure:"warning_fraction"`
}

// Validate rejects thresholds whose label is outside RiskLevels or whose
// MinScore is not finite, and weights that are negative or not finite. The
// returned error wraps ErrInvalidConfig.
func (c SafetyConfig) Validate() error {
	var problems []string
	for i, t := range c.Thresholds {
		if !t.Level.Valid() {
			problems = append(problems, fmt.Sprintf("thresholds[%d]: unknown level %q", i, t.Level))
		}
		if math.IsNaN(t.MinScore) || math.IsInf(t.MinScore, 0) {
			problems = append(problems, fmt.Sprintf("thresholds[%d]: min_score must be a finite number", i))
		}
	}
	for name, w := range map[string]float64{
		"interaction": c.Weights.Interaction,
		"stability":   c.Weights.Stability,
		"regulatory":  c.Weights.Regulatory,
		"kinetics":    c.Weights.Kinetics,
	} {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			problems = append(problems, fmt.Sprintf("weights.%s must be a finite non-negative number", name))
		}
	}
	if math.IsNaN(c.WarningFraction) || c.WarningFraction < 0 {
		problems = append(problems, "warning_fraction must not be negative")
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)

	levels := make([]string, len(RiskLevels))
	for i, l := range RiskLevels {
		levels[i] = string(l)
	}
	err := errors.Wrap(ErrInvalidConfig, "safety: "+strings.Join(problems, "; "))
	return errors.WithHintf(err, "threshold levels must be one of: %s", strings.Join(levels, ", "))
}

// NarratorKind selects the narrative collaborator.
type NarratorKind string

const (
	NarratorTemplate NarratorKind = "template"
	NarratorOpenAI   NarratorKind = "openai"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "deepseek-r1:latest").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// NarrativeConfig holds settings for the reporting stage's narrator.
type NarrativeConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects template or openai.
	Provider NarratorKind `json:"provider" yaml:"provider" mapstructure:"provider"`

	// BaseURL points the OpenAI-compatible client at another server,
	// e.g. "http://localhost:11434/v1" for Ollama.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Temperature is the sampling temperature (default 0.2).
	Temperature float32 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
}

// ReferenceConfig locates the reference tables and literature index.
type ReferenceConfig struct {
	// Dir overlays reference.yaml and the flat CSV tables on top of the
	// embedded defaults. Empty uses the defaults only.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// IndexPath is the SQLite literature index. Empty disables the index.
	IndexPath string `json:"index_path" yaml:"index_path" mapstructure:"index_path"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// PipelineConfig groups all stage configurations. It is passed explicitly
// to the pipeline entry point.
type PipelineConfig struct {
	Research    ResearchConfig    `json:"research" yaml:"research" mapstructure:"research"`
	Protein     ProteinConfig     `json:"protein" yaml:"protein" mapstructure:"protein"`
	Interaction InteractionConfig `json:"interaction" yaml:"interaction" mapstructure:"interaction"`
	Kinetics    KineticsConfig    `json:"kinetics" yaml:"kinetics" mapstructure:"kinetics"`
	Safety      SafetyConfig      `json:"safety" yaml:"safety" mapstructure:"safety"`
	Narrative   NarrativeConfig   `json:"narrative" yaml:"narrative" mapstructure:"narrative"`
	Reference   ReferenceConfig   `json:"reference" yaml:"reference" mapstructure:"reference"`
	Server      ServerConfig      `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultThresholds are the score-to-label rules used when none are configured.
func DefaultThresholds() []RiskThreshold {
	return []RiskThreshold{
		{MinScore: 8, Level: RiskSafe},
		{MinScore: 6, Level: RiskLow},
		{MinScore: 4, Level: RiskModerate},
		{MinScore: 2, Level: RiskHigh},
	}
}

// DefaultPipelineConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultPipelineConfig() PipelineConfig {
	httpCfg := HTTPConfig{
		Timeout:    30 * time.Second,
		UserAgent:  "foodsafety-engine/0.1",
		MaxRetries: 3,
	}
	return PipelineConfig{
		Research: ResearchConfig{
			HTTPConfig:      httpCfg,
			MaxArticles:     3,
			LiteratureLimit: 5,
		},
		Protein: ProteinConfig{
			HTTPConfig:        httpCfg,
			Predictor:         PredictorNone,
			ESMAtlasURL:       "https://api.esmatlas.com/foldSequence/v1/pdb/",
			MaxSequenceLength: 400,
		},
		Interaction: InteractionConfig{
			Docking:          DockingNone,
			StrongAffinity:   -7,
			ModerateAffinity: -4,
		},
		Kinetics: KineticsConfig{
			Q10:                    2.5,
			DeactivationScale:      10,
			PHWidth:                1.5,
			SubstrateConcentration: 1.0,
		},
		Safety: SafetyConfig{
			Weights:         ScoringWeights{Interaction: 1, Stability: 1, Regulatory: 1, Kinetics: 0.5},
			Thresholds:      DefaultThresholds(),
			Region:          "eu_efsa",
			WarningFraction: 0.8,
		},
		Narrative: NarrativeConfig{
			AIConfig:    AIConfig{Model: "deepseek-r1:latest", MaxRetries: 3},
			Provider:    NarratorTemplate,
			Temperature: 0.2,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}
