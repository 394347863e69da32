// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kinetics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/foodsafety-engine/internal/reference"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

func testCatalog(t *testing.T) *reference.Catalog {
	t.Helper()
	cat, err := reference.Load("")
	require.NoError(t, err)
	return cat
}

func defaultConfig() types.KineticsConfig {
	return types.DefaultPipelineConfig().Kinetics
}

func sampleWith(proteins []string, toxins []string, c types.ProcessingConditions) types.FoodSample {
	return types.FoodSample{
		ID:              "T-1",
		Name:            "test",
		Category:        "grain",
		Proteins:        proteins,
		SuspectedToxins: toxins,
		Conditions:      c,
	}.WithDefaults()
}

func TestMichaelisMenten(t *testing.T) {
	assert.InDelta(t, 5.0, MichaelisMenten(10, 1, 1), 1e-9)
	assert.InDelta(t, 0.0, MichaelisMenten(10, 0, 0), 1e-9)
	assert.Less(t, MichaelisMenten(10, 1, 100), 10.0)
}

func TestTemperatureFactorStrictlyDecreasesAboveOptimum(t *testing.T) {
	cfg := defaultConfig()
	prev := TemperatureFactor(55, 55, cfg)
	assert.InDelta(t, 1.0, prev, 1e-12)
	for temp := 55.5; temp <= 150; temp += 0.5 {
		f := TemperatureFactor(temp, 55, cfg)
		require.Less(t, f, prev, "factor at %.1f", temp)
		prev = f
	}
}

func TestTemperatureFactorQ10BelowOptimum(t *testing.T) {
	cfg := defaultConfig()
	assert.InDelta(t, 1/cfg.Q10, TemperatureFactor(27, 37, cfg), 1e-9)
	assert.Less(t, TemperatureFactor(4, 37, cfg), TemperatureFactor(30, 37, cfg))
}

func TestPHFactor(t *testing.T) {
	assert.InDelta(t, 1.0, PHFactor(7, 7, 1.5), 1e-12)
	assert.InDelta(t, math.Exp(-0.5), PHFactor(8.5, 7, 1.5), 1e-12)
	assert.InDelta(t, PHFactor(5.5, 7, 1.5), PHFactor(8.5, 7, 1.5), 1e-12)
}

func TestIonicFactor(t *testing.T) {
	assert.Equal(t, 0.7, IonicFactor(0.01))
	assert.Equal(t, 1.0, IonicFactor(0.15))
	assert.Equal(t, 0.8, IonicFactor(1.0))
}

func TestDegradationRate(t *testing.T) {
	// At storage conditions the rate equals ln2 / half-life.
	assert.InDelta(t, math.Ln2/48, DegradationRate(48, 0.1, 4, 7), 1e-12)
	// Ten degrees warmer doubles it.
	assert.InDelta(t, 2*math.Ln2/48, DegradationRate(48, 0.1, 14, 7), 1e-12)
	// One pH unit away adds ph_sensitivity.
	assert.InDelta(t, 1.1*math.Ln2/48, DegradationRate(48, 0.1, 4, 8), 1e-12)
}

func TestStabilityClass(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{200, "very_stable"},
		{100, "stable"},
		{48, "moderately_stable"},
		{12, "unstable"},
		{1, "very_unstable"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StabilityClass(tt.hours), "hours %.0f", tt.hours)
	}
}

func TestIsEnzyme(t *testing.T) {
	cat := testCatalog(t)
	assert.True(t, IsEnzyme("amylase", cat))
	assert.True(t, IsEnzyme("lysozyme", cat))
	assert.True(t, IsEnzyme("pepsin", cat), "catalog category enzyme")
	assert.True(t, IsEnzyme("polyphenol_oxidase", cat))
	assert.True(t, IsEnzyme("browning_enzyme", cat))
	assert.False(t, IsEnzyme("casein", cat))
	assert.False(t, IsEnzyme("gluten", cat))
}

func TestAnalyzeKnownEnzyme(t *testing.T) {
	cat := testCatalog(t)
	s := sampleWith([]string{"gluten", "amylase"}, nil,
		types.ProcessingConditions{Temperature: 55, PH: 6.8, DurationMinutes: 60, IonicStrength: 0.15})

	out := Analyze(s, cat, defaultConfig())
	require.Len(t, out.Analyses, 1)
	a := out.Analyses[0]
	assert.Equal(t, "amylase", a.Enzyme)
	assert.Equal(t, "starch", a.Substrate)
	assert.True(t, a.Found)
	assert.False(t, a.Degraded)
	assert.InDelta(t, 1.0, a.TemperatureFactor, 1e-12)
	assert.InDelta(t, 1.0, a.PHFactor, 1e-12)
	assert.InDelta(t, 1.0, a.RelativeActivity, 1e-9)
	assert.Greater(t, a.ResidualActivity, 0.0)
	assert.Less(t, a.ResidualActivity, 1.0)

	assert.False(t, out.Result.Degraded)
	n, ok := out.Result.Metrics["enzyme_count"].Float()
	require.True(t, ok)
	assert.Equal(t, 1.0, n)
	assert.Equal(t, "analyzed", out.Result.Metrics["status"].Label)
}

func TestAnalyzePrefersSubstrateInSample(t *testing.T) {
	cat := testCatalog(t)
	s := sampleWith([]string{"protease", "albumin"}, nil,
		types.ProcessingConditions{Temperature: 20, PH: 7})
	out := Analyze(s, cat, defaultConfig())
	require.Len(t, out.Analyses, 1)
	assert.Equal(t, "albumin", out.Analyses[0].Substrate)
}

func TestAnalyzeRateStrictlyDecreasesAboveOptimum(t *testing.T) {
	cat := testCatalog(t)
	prev := math.Inf(1)
	for temp := 56.0; temp <= 120; temp += 2 {
		s := sampleWith([]string{"amylase"}, nil,
			types.ProcessingConditions{Temperature: temp, PH: 6.8, IonicStrength: 0.15})
		rate := Analyze(s, cat, defaultConfig()).Analyses[0].Rate
		require.Less(t, rate, prev, "rate at %.0f °C", temp)
		prev = rate
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	cat := testCatalog(t)
	s := sampleWith([]string{"amylase", "lipase"}, []string{"aflatoxin_b1"},
		types.ProcessingConditions{Temperature: 72, PH: 6.5, DurationMinutes: 15, IonicStrength: 0.2})
	s.DetectedLevels = map[string]float64{"aflatoxin_b1": 3}

	first := Analyze(s, cat, defaultConfig())
	second := Analyze(s, cat, defaultConfig())
	assert.Equal(t, first, second)
}

func TestAnalyzeUnknownEnzymeIsDegraded(t *testing.T) {
	cat := testCatalog(t)
	s := sampleWith([]string{"polyphenol_oxidase"}, nil,
		types.ProcessingConditions{Temperature: 37, PH: 7, DurationMinutes: 10})

	out := Analyze(s, cat, defaultConfig())
	require.Len(t, out.Analyses, 1)
	a := out.Analyses[0]
	assert.False(t, a.Found)
	assert.True(t, a.Degraded)
	assert.Equal(t, 1.0, a.Km)
	assert.Equal(t, 20.0, a.Vmax)
	assert.True(t, out.Result.Degraded)
	assert.Contains(t, out.Result.DegradedMetrics(), "polyphenol_oxidase.rate")
	require.NotEmpty(t, out.Result.Notes)
}

func TestAnalyzeNoEnzymes(t *testing.T) {
	cat := testCatalog(t)
	s := sampleWith([]string{"casein"}, []string{"aflatoxin_b1"},
		types.ProcessingConditions{Temperature: 72, PH: 6.5})

	out := Analyze(s, cat, defaultConfig())
	assert.Empty(t, out.Analyses)
	assert.Equal(t, StatusNoEnzymes, out.Result.Metrics["status"].Label)
	v, ok := out.Result.Metrics["mean_residual_activity"].Float()
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
	assert.False(t, out.Result.Degraded)
}

func TestInhibit(t *testing.T) {
	cat := testCatalog(t)
	aflatoxin, ok := cat.Toxin("aflatoxin_b1")
	require.True(t, ok)
	acrylamide, ok := cat.Toxin("acrylamide")
	require.True(t, ok)
	saxitoxin, ok := cat.Toxin("saxitoxin")
	require.True(t, ok)

	t.Run("phenolic on amylase halves Ki", func(t *testing.T) {
		inh := Inhibit("amylase", aflatoxin, 20, 45, 2.5, 1)
		assert.Equal(t, NonCompetitive, inh.Type)
		assert.InDelta(t, 0.25, inh.Ki, 1e-12)
		assert.InDelta(t, 2.5, inh.ApparentKm, 1e-12)
		assert.Greater(t, inh.Fraction, 0.0)
	})

	t.Run("competitive raises apparent Km", func(t *testing.T) {
		inh := Inhibit("lipase", acrylamide, 100000, 35, 0.5, 1)
		assert.Equal(t, Competitive, inh.Type)
		assert.Greater(t, inh.ApparentKm, 0.5)
		assert.Greater(t, inh.Fraction, 0.0)
	})

	t.Run("uncompetitive lowers apparent Km", func(t *testing.T) {
		inh := Inhibit("lipase", saxitoxin, 1e7, 35, 0.5, 1)
		assert.Equal(t, Uncompetitive, inh.Type)
		assert.Less(t, inh.ApparentKm, 0.5)
	})

	t.Run("no detected level means no inhibition", func(t *testing.T) {
		inh := Inhibit("amylase", aflatoxin, 0, 45, 2.5, 1)
		assert.Equal(t, 0.0, inh.Fraction)
	})

	t.Run("unknown category defaults to phenolic", func(t *testing.T) {
		inh := Inhibit("lipase", types.ToxinProfile{Name: "mystery", MolecularWeight: 300}, 10, 35, 0.5, 1)
		assert.Equal(t, "phenolic", inh.Category)
		assert.Equal(t, NonCompetitive, inh.Type)
	})
}
