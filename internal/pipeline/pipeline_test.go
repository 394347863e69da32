// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/foodsafety-engine/internal/interaction"
	"github.com/pdiddy/foodsafety-engine/internal/reference"
	"github.com/pdiddy/foodsafety-engine/internal/research"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

type recorder struct {
	mu     sync.Mutex
	stages []types.StageName
	runs   int
}

func (r *recorder) StageCompleted(stage types.StageName, _ time.Duration, _ types.StageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *recorder) RunCompleted(*types.SafetyReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
}

var fixedNow = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }

func caseinSample() types.FoodSample {
	return types.FoodSample{
		ID:              "T-001",
		Name:            "Pasteurized Milk",
		Category:        "dairy",
		Proteins:        []string{"casein"},
		SuspectedToxins: []string{"aflatoxin_b1"},
		Conditions:      types.ProcessingConditions{Temperature: 72, PH: 6.5, DurationMinutes: 15},
	}
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	cat, err := reference.Load("")
	require.NoError(t, err)
	return Deps{
		Catalog:  cat,
		Backends: []research.Backend{&research.CatalogBackend{Tables: cat, Region: "eu_efsa"}},
		Now:      fixedNow,
	}
}

func TestRunCaseinAflatoxin(t *testing.T) {
	obs := &recorder{}
	deps := testDeps(t)
	deps.Observer = obs

	r, err := Run(context.Background(), caseinSample(), types.DefaultPipelineConfig(), deps)
	require.NoError(t, err)

	s := r.ExecutiveSummary
	assert.GreaterOrEqual(t, s.SafetyScore, 0.0)
	assert.LessOrEqual(t, s.SafetyScore, 10.0)
	assert.True(t, s.RiskLevel.Valid())
	assert.NotEmpty(t, s.KeyFindings)
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, fixedNow(), r.GeneratedAt)

	require.Len(t, r.Details.Interactions.Pairs, 1)
	pair := r.Details.Interactions.Pairs[0]
	assert.Equal(t, "casein", pair.Protein)
	assert.Equal(t, "aflatoxin_b1", pair.Toxin)
	assert.Less(t, pair.BindingAffinity, 0.0)

	for _, st := range types.Stages {
		assert.Contains(t, r.Stages, st)
	}
	score := r.Stages[types.StageSafety].Metrics["safety_score"]
	v, ok := score.Float()
	require.True(t, ok)
	assert.Equal(t, s.SafetyScore, v)

	assert.Equal(t, types.Stages, obs.stages)
	assert.Equal(t, 1, obs.runs)
	assert.NotEmpty(t, r.Narrative)
	assert.Equal(t, 0.15, r.SampleInfo.Conditions.IonicStrength)
}

func TestRunNoToxins(t *testing.T) {
	sample := caseinSample()
	sample.SuspectedToxins = nil

	r, err := Run(context.Background(), sample, types.DefaultPipelineConfig(), testDeps(t))
	require.NoError(t, err)

	block := r.Details.Interactions
	assert.Equal(t, interaction.StatusNoToxins, block.Status)
	assert.Empty(t, block.Pairs)
	assert.Equal(t, 0.0, block.MaxRisk)

	m := r.Stages[types.StageInteraction].Metrics
	count, _ := m["interaction_count"].Float()
	assert.Equal(t, 0.0, count)
	assert.Equal(t, interaction.StatusNoToxins, m["status"].Label)
	assert.True(t, r.ExecutiveSummary.RiskLevel.Valid())
}

func TestRunUnknownProteinIsDegraded(t *testing.T) {
	sample := caseinSample()
	sample.Proteins = []string{"unobtainium"}
	sample.SuspectedToxins = []string{"mystery_toxin"}

	r, err := Run(context.Background(), sample, types.DefaultPipelineConfig(), testDeps(t))
	require.NoError(t, err)

	assert.True(t, r.ExecutiveSummary.Degraded)
	assert.True(t, r.Stages[types.StageProtein].Degraded)
	assert.True(t, r.Stages[types.StageInteraction].Degraded)
	assert.True(t, r.ExecutiveSummary.RiskLevel.Valid())
}

func TestRunMalformedSample(t *testing.T) {
	sample := caseinSample()
	sample.Conditions.PH = 15

	obs := &recorder{}
	deps := testDeps(t)
	deps.Observer = obs

	_, err := Run(context.Background(), sample, types.DefaultPipelineConfig(), deps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedSample))
	assert.Empty(t, obs.stages)
}

func TestRunRejectsNaNConditions(t *testing.T) {
	sample := caseinSample()
	sample.Proteins = []string{"casein", "amylase"}
	sample.Conditions.Temperature = math.NaN()

	obs := &recorder{}
	deps := testDeps(t)
	deps.Observer = obs

	_, err := Run(context.Background(), sample, types.DefaultPipelineConfig(), deps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedSample))
	assert.Empty(t, obs.stages)
}

func TestRunRejectsUnknownRiskLabel(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.Safety.Thresholds = []types.RiskThreshold{{MinScore: 0, Level: "fine"}}

	obs := &recorder{}
	deps := testDeps(t)
	deps.Observer = obs

	_, err := Run(context.Background(), caseinSample(), cfg, deps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidConfig))
	assert.Empty(t, obs.stages)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, caseinSample(), types.DefaultPipelineConfig(), testDeps(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunDeterministic(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	a, err := Run(context.Background(), caseinSample(), cfg, testDeps(t))
	require.NoError(t, err)
	b, err := Run(context.Background(), caseinSample(), cfg, testDeps(t))
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.ExecutiveSummary, b.ExecutiveSummary)
	assert.Equal(t, a.Recommendations, b.Recommendations)
	assert.Equal(t, a.Narrative, b.Narrative)
}

func TestRunDefaultsCatalog(t *testing.T) {
	r, err := Run(context.Background(), caseinSample(), types.DefaultPipelineConfig(), Deps{})
	require.NoError(t, err)
	assert.True(t, r.ExecutiveSummary.RiskLevel.Valid())
	assert.Empty(t, r.Details.Research.Sources)
}

func TestRunDoesNotMutateSample(t *testing.T) {
	sample := caseinSample()
	sample.DetectedLevels = map[string]float64{"Aflatoxin B1": 1.5}

	_, err := Run(context.Background(), sample, types.DefaultPipelineConfig(), testDeps(t))
	require.NoError(t, err)
	assert.Equal(t, 0.0, sample.Conditions.IonicStrength)
	assert.Contains(t, sample.DetectedLevels, "Aflatoxin B1")
}

func TestNewDeps(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.Reference.IndexPath = filepath.Join(t.TempDir(), "index", "literature.db")
	cfg.Research.EnablePubMed = true

	deps, closeFn, err := NewDeps(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	require.Len(t, deps.Backends, 3)
	assert.Equal(t, research.SourceCatalog, deps.Backends[0].Name())
	assert.Equal(t, research.SourceLiterature, deps.Backends[1].Name())
	assert.Equal(t, research.SourcePubMed, deps.Backends[2].Name())
	assert.NotNil(t, deps.Catalog)
	assert.Nil(t, deps.Predictor)
	assert.Nil(t, deps.Docker)
	assert.Equal(t, "template", deps.Narrator.Name())
}

func TestNewDepsBadReferenceDir(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.Reference.Dir = filepath.Join(t.TempDir(), "missing")

	_, closeFn, err := NewDeps(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading reference tables")
	assert.NoError(t, closeFn())
}
