// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data model shared by the pipeline stages, the CLI,
// and the HTTP API.
package types

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// DefaultIonicStrength is applied when a sample omits ionic strength (M).
const DefaultIonicStrength = 0.15

const (
	minTemperature = -80.0
	maxTemperature = 300.0
)

// ProcessingConditions describes the environment a sample undergoes.
type ProcessingConditions struct {
	// Temperature is the processing temperature in degrees Celsius.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// PH is the acidity of the matrix (0-14).
	PH float64 `json:"ph" yaml:"ph"`

	// DurationMinutes is how long the sample is held at Temperature.
	DurationMinutes float64 `json:"duration_minutes" yaml:"duration_minutes"`

	// IonicStrength is the ionic strength of the matrix in mol/L.
	IonicStrength float64 `json:"ionic_strength" yaml:"ionic_strength"`
}

// FoodSample is the sole input to a pipeline run.
type FoodSample struct {
	// ID identifies the sample (e.g. a lot or batch number).
	ID string `json:"id" yaml:"id"`

	// Name is the display name (e.g. "Fresh Dairy Milk").
	Name string `json:"name" yaml:"name"`

	// Category is a food category tag (dairy, grain, meat, ...).
	Category string `json:"category" yaml:"category"`

	// Proteins lists protein names in analysis order.
	Proteins []string `json:"proteins" yaml:"proteins"`

	// SuspectedToxins lists toxin names in analysis order. May be empty.
	SuspectedToxins []string `json:"suspected_toxins,omitempty" yaml:"suspected_toxins,omitempty"`

	// Conditions holds the processing environment.
	Conditions ProcessingConditions `json:"processing_conditions" yaml:"processing_conditions"`

	// Origin is an optional free-text provenance field.
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`

	// DetectedLevels maps toxin name to a measured concentration in ppb.
	// Used for regulatory compliance checks.
	DetectedLevels map[string]float64 `json:"detected_levels,omitempty" yaml:"detected_levels,omitempty"`
}

// Validate rejects samples that cannot be analyzed. The returned error
// wraps ErrMalformedSample.
func (s FoodSample) Validate() error {
	var problems []string
	if strings.TrimSpace(s.ID) == "" {
		problems = append(problems, "id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(s.Category) == "" {
		problems = append(problems, "category is required")
	}
	if len(s.Proteins) == 0 {
		problems = append(problems, "at least one protein is required")
	}
	for i, p := range s.Proteins {
		if strings.TrimSpace(p) == "" {
			problems = append(problems, fmt.Sprintf("proteins[%d] is blank", i))
		}
	}
	for i, t := range s.SuspectedToxins {
		if strings.TrimSpace(t) == "" {
			problems = append(problems, fmt.Sprintf("suspected_toxins[%d] is blank", i))
		}
	}

	c := s.Conditions
	switch {
	case math.IsNaN(c.PH):
		problems = append(problems, "ph is not a number")
	case c.PH < 0 || c.PH > 14:
		problems = append(problems, fmt.Sprintf("ph %.2f outside [0, 14]", c.PH))
	}
	switch {
	case math.IsNaN(c.Temperature):
		problems = append(problems, "temperature is not a number")
	case c.Temperature < minTemperature || c.Temperature > maxTemperature:
		problems = append(problems, fmt.Sprintf("temperature %.1f outside [%.0f, %.0f]", c.Temperature, minTemperature, maxTemperature))
	}
	switch {
	case !isFinite(c.DurationMinutes):
		problems = append(problems, "duration_minutes must be a finite number")
	case c.DurationMinutes < 0:
		problems = append(problems, "duration_minutes must not be negative")
	}
	switch {
	case !isFinite(c.IonicStrength):
		problems = append(problems, "ionic_strength must be a finite number")
	case c.IonicStrength < 0:
		problems = append(problems, "ionic_strength must not be negative")
	}
	for name, level := range s.DetectedLevels {
		switch {
		case !isFinite(level):
			problems = append(problems, fmt.Sprintf("detected level for %s must be a finite number", name))
		case level < 0:
			problems = append(problems, fmt.Sprintf("detected level for %s is negative", name))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	err := errors.Wrap(ErrMalformedSample, strings.Join(problems, "; "))
	return errors.WithHint(err, "a sample needs id, name, category, one or more proteins, and processing conditions within physical range")
}

// WithDefaults returns a copy of the sample with documented defaults filled
// in and slices copied so the caller's sample is never shared with a run.
func (s FoodSample) WithDefaults() FoodSample {
	out := s
	out.Proteins = append([]string(nil), s.Proteins...)
	out.SuspectedToxins = append([]string(nil), s.SuspectedToxins...)
	if s.DetectedLevels != nil {
		out.DetectedLevels = make(map[string]float64, len(s.DetectedLevels))
		for k, v := range s.DetectedLevels {
			out.DetectedLevels[NormalizeName(k)] = v
		}
	}
	if out.Conditions.IonicStrength == 0 {
		out.Conditions.IonicStrength = DefaultIonicStrength
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NormalizeName folds a protein, toxin, or enzyme name to the key form used
// by the reference tables: lower case with spaces and hyphens as underscores.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	return n
}

// SamplePresets are the built-in demonstration samples.
var SamplePresets = map[string]FoodSample{
	"dairy_milk": {
		ID:              "DM-001",
		Name:            "Fresh Dairy Milk",
		Category:        "dairy",
		Proteins:        []string{"casein", "whey_protein", "lysozyme"},
		SuspectedToxins: []string{"aflatoxin_b1"},
		Conditions:      ProcessingConditions{Temperature: 85, PH: 6.5, DurationMinutes: 30, IonicStrength: 0.15},
		Origin:          "local dairy",
	},
	"wheat_flour": {
		ID:              "WF-001",
		Name:            "Whole Wheat Flour",
		Category:        "grain",
		Proteins:        []string{"gluten", "amylase"},
		SuspectedToxins: []string{"deoxynivalenol", "ochratoxin_a"},
		Conditions:      ProcessingConditions{Temperature: 25, PH: 6.0, DurationMinutes: 1440, IonicStrength: 0.05},
		Origin:          "mill storage",
	},
	"chicken_meat": {
		ID:              "CM-001",
		Name:            "Chicken Breast",
		Category:        "meat",
		Proteins:        []string{"albumin", "myosin"},
		SuspectedToxins: []string{"ochratoxin_a"},
		Conditions:      ProcessingConditions{Temperature: 74, PH: 6.2, DurationMinutes: 20, IonicStrength: 0.2},
		Origin:          "poultry processor",
	},
}
