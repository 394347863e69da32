// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the analysis stages of one food sample in order
// and assembles the safety report. Stages run sequentially on the caller's
// goroutine; the pipeline adds no timeouts and never retries a stage.
package pipeline

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/foodsafety-engine/internal/interaction"
	"github.com/pdiddy/foodsafety-engine/internal/kinetics"
	"github.com/pdiddy/foodsafety-engine/internal/logging"
	"github.com/pdiddy/foodsafety-engine/internal/narrative"
	"github.com/pdiddy/foodsafety-engine/internal/protein"
	"github.com/pdiddy/foodsafety-engine/internal/reference"
	"github.com/pdiddy/foodsafety-engine/internal/report"
	"github.com/pdiddy/foodsafety-engine/internal/research"
	"github.com/pdiddy/foodsafety-engine/internal/safety"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Observer is notified as a run progresses. Implementations must be safe
// for concurrent runs.
type Observer interface {
	StageCompleted(stage types.StageName, elapsed time.Duration, result types.StageResult)
	RunCompleted(r *types.SafetyReport)
}

// Deps are the collaborators a run uses. Nil collaborators are allowed:
// no research backends means an empty research block, a nil predictor or
// docker means documented defaults, and a nil narrator means the template.
type Deps struct {
	Catalog   *reference.Catalog
	Backends  []research.Backend
	Predictor protein.Predictor
	Docker    interaction.Docker
	Narrator  narrative.Narrator
	Observer  Observer

	// Now returns the report timestamp. Nil uses time.Now.
	Now func() time.Time
}

// Run validates sample and runs every stage. The only errors are a
// malformed sample (wrapping types.ErrMalformedSample), a catalog that
// cannot be loaded, and cancellation of ctx between stages. Missing data and
// unavailable tools are absorbed into degraded metrics.
func Run(ctx context.Context, sample types.FoodSample, cfg types.PipelineConfig, deps Deps) (*types.SafetyReport, error) {
	if err := sample.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Safety.Validate(); err != nil {
		return nil, err
	}
	sample = sample.WithDefaults()

	cat := deps.Catalog
	if cat == nil {
		var err error
		if cat, err = reference.Load(""); err != nil {
			return nil, errors.Wrap(err, "loading default reference tables")
		}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	runID := uuid.NewString()
	log := logging.Logger.With(logging.FieldRunID, runID, logging.FieldSampleID, sample.ID)
	log.Infow("run started",
		"proteins", len(sample.Proteins),
		"toxins", len(sample.SuspectedToxins),
	)

	r := &runner{ctx: ctx, log: log, observer: deps.Observer}

	var res research.Output
	if err := r.stage(types.StageResearch, func() types.StageResult {
		res = research.Run(ctx, sample, cat, deps.Backends)
		return res.Result
	}); err != nil {
		return nil, err
	}

	var prot protein.Output
	if err := r.stage(types.StageProtein, func() types.StageResult {
		prot = protein.Analyze(ctx, sample, cat, deps.Predictor, cfg.Protein)
		return prot.Result
	}); err != nil {
		return nil, err
	}

	var inter interaction.Output
	if err := r.stage(types.StageInteraction, func() types.StageResult {
		inter = interaction.Analyze(ctx, sample, prot.Analyses, cat, deps.Docker, cfg.Interaction)
		return inter.Result
	}); err != nil {
		return nil, err
	}

	var kin kinetics.Output
	if err := r.stage(types.StageKinetics, func() types.StageResult {
		kin = kinetics.Analyze(sample, cat, cfg.Kinetics)
		return kin.Result
	}); err != nil {
		return nil, err
	}

	var safe safety.Output
	if err := r.stage(types.StageSafety, func() types.StageResult {
		safe = safety.Assess(sample, safety.Inputs{
			Proteins:     prot.Analyses,
			Interactions: inter.Block,
			Kinetics:     kin.Analyses,
		}, cat, cfg.Safety)
		return safe.Result
	}); err != nil {
		return nil, err
	}

	var rep report.Output
	if err := r.stage(types.StageReporting, func() types.StageResult {
		rep = report.Assemble(ctx, runID, sample, report.Inputs{
			Research:     res.Research,
			Proteins:     prot.Analyses,
			Interactions: inter.Block,
			Kinetics:     kin.Analyses,
			Safety:       safe.Assessment,
			Stages:       r.results,
		}, deps.Narrator, now())
		return rep.Result
	}); err != nil {
		return nil, err
	}

	log.Infow("run completed",
		"safety_score", rep.Report.ExecutiveSummary.SafetyScore,
		"risk_level", rep.Report.ExecutiveSummary.RiskLevel,
		logging.FieldDegraded, rep.Report.ExecutiveSummary.Degraded,
	)
	if deps.Observer != nil {
		deps.Observer.RunCompleted(rep.Report)
	}
	return rep.Report, nil
}

// runner times and logs stages and collects their results in order.
type runner struct {
	ctx      context.Context
	log      *zap.SugaredLogger
	observer Observer
	results  []types.StageResult
}

func (r *runner) stage(name types.StageName, fn func() types.StageResult) error {
	if err := r.ctx.Err(); err != nil {
		return errors.Wrapf(err, "run canceled before %s", name)
	}

	log := r.log.With(logging.FieldStage, string(name))
	log.Debugw("stage started")

	start := time.Now()
	result := fn()
	elapsed := time.Since(start)

	fields := []any{
		logging.FieldDurationMS, elapsed.Milliseconds(),
		logging.FieldDegraded, result.Degraded,
	}
	if result.Degraded {
		fields = append(fields, "degraded_metrics", result.DegradedMetrics())
	}
	log.Infow("stage completed", fields...)
	for _, n := range result.Notes {
		log.Debugw("stage note", "note", n)
	}

	r.results = append(r.results, result)
	if r.observer != nil {
		r.observer.StageCompleted(name, elapsed, result)
	}
	return nil
}
