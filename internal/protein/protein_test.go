// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package protein

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/foodsafety-engine/internal/reference"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// --- test helpers ---

func pdbWithBFactors(bs ...float64) string {
	var b strings.Builder
	for i, bf := range bs {
		fmt.Fprintf(&b, "ATOM  %5d  N   ALA A%4d    %8.3f%8.3f%8.3f%6.2f%6.2f           N\n", 2*i+1, i+1, 0.0, 0.0, 0.0, 1.0, 0.0)
		fmt.Fprintf(&b, "ATOM  %5d  CA  ALA A%4d    %8.3f%8.3f%8.3f%6.2f%6.2f           C\n", 2*i+2, i+1, 1.0, 1.0, 1.0, 1.0, bf)
	}
	b.WriteString("END\n")
	return b.String()
}

type fakePredictor struct {
	conf  float64
	err   error
	calls []string
}

func (f *fakePredictor) Name() string { return "fake" }

func (f *fakePredictor) Predict(_ context.Context, name, _ string) (Structure, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return Structure{}, f.err
	}
	return Structure{Confidence: f.conf, Residues: 10}, nil
}

type fakeRuntime struct {
	stdout   string
	err      error
	imageErr error
	checked  []string
	stdin    string
}

func (r *fakeRuntime) Name() string                   { return "docker" }
func (r *fakeRuntime) Available(context.Context) bool { return true }
func (r *fakeRuntime) ImageExists(_ context.Context, image string) error {
	r.checked = append(r.checked, image)
	return r.imageErr
}
func (r *fakeRuntime) Run(_ context.Context, _ string, _ []string, stdin io.Reader, stdout io.Writer) error {
	data, _ := io.ReadAll(stdin)
	r.stdin = string(data)
	if r.err != nil {
		return r.err
	}
	_, err := io.WriteString(stdout, r.stdout)
	return err
}

func testCatalog(t *testing.T) *reference.Catalog {
	t.Helper()
	cat, err := reference.Load("")
	require.NoError(t, err)
	return cat
}

func mildConditions() types.ProcessingConditions {
	return types.ProcessingConditions{Temperature: 25, PH: 7, DurationMinutes: 10, IonicStrength: 0.15}
}

// --- properties ---

func TestCleanSequence(t *testing.T) {
	assert.Equal(t, "MKLLV", CleanSequence(" mk ll\nv1* "))
}

func TestMolecularWeight(t *testing.T) {
	assert.Equal(t, 0.0, MolecularWeight(""))
	assert.InDelta(t, 89.09, MolecularWeight("A"), 1e-9)
	assert.InDelta(t, 89.09+75.07-waterMass, MolecularWeight("AG"), 1e-9)
	assert.InDelta(t, unknownResidueMass, MolecularWeight("X"), 1e-9)
}

func TestIsoelectricPoint(t *testing.T) {
	assert.Equal(t, 7.0, IsoelectricPoint(""))
	assert.InDelta(t, 11.0, IsoelectricPoint("KKKK"), 1e-9)
	assert.InDelta(t, 3.0, IsoelectricPoint("DDEE"), 1e-9)
	assert.InDelta(t, 7.0, IsoelectricPoint("KD"), 1e-9)
}

func TestHydrophobicity(t *testing.T) {
	assert.Equal(t, 0.0, Hydrophobicity(""))
	assert.InDelta(t, 4.5, Hydrophobicity("II"), 1e-9)
	assert.InDelta(t, (4.5-4.5)/2, Hydrophobicity("IR"), 1e-9)
}

func TestSecondaryStructure(t *testing.T) {
	assert.Equal(t, "HHECC", SecondaryStructure("AKVGP"))
}

func TestStability(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		c    types.ProcessingConditions
		want float64
	}{
		{name: "mild", seq: "AAAA", c: mildConditions(), want: 7},
		{name: "acidic", seq: "AAAA", c: types.ProcessingConditions{Temperature: 25, PH: 3.5}, want: 5},
		{name: "mildly acidic", seq: "AAAA", c: types.ProcessingConditions{Temperature: 25, PH: 4.6}, want: 6},
		{name: "pasteurized", seq: "AAAA", c: types.ProcessingConditions{Temperature: 72, PH: 6.5}, want: 5.5},
		{name: "boiled", seq: "AAAA", c: types.ProcessingConditions{Temperature: 100, PH: 7}, want: 4},
		{name: "disulfides and proline", seq: "CCPP", c: mildConditions(), want: 8.5},
		{name: "harsh", seq: "A", c: types.ProcessingConditions{Temperature: 250, PH: 1}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Stability(tt.seq, tt.c), 1e-9)
		})
	}
}

func TestProcessingSensitivity(t *testing.T) {
	s := ProcessingSensitivity("CMKR", types.ProcessingConditions{Temperature: 90, PH: 3})
	assert.InDelta(t, 0.6, s[SensTemperature], 1e-9)
	assert.InDelta(t, 0.5, s[SensPH], 1e-9)
	assert.InDelta(t, 0.45, s[SensOxidation], 1e-9)
	for k, v := range s {
		assert.LessOrEqual(t, v, 1.0, k)
		assert.GreaterOrEqual(t, v, 0.0, k)
	}
}

// --- predictors ---

func TestParsePLDDT(t *testing.T) {
	t.Run("0-100 scale", func(t *testing.T) {
		conf, n, err := ParsePLDDT(pdbWithBFactors(80, 90))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.InDelta(t, 0.85, conf, 1e-9)
	})
	t.Run("0-1 scale", func(t *testing.T) {
		conf, _, err := ParsePLDDT(pdbWithBFactors(0.7, 0.9))
		require.NoError(t, err)
		assert.InDelta(t, 0.8, conf, 1e-9)
	})
	t.Run("no CA atoms", func(t *testing.T) {
		_, _, err := ParsePLDDT("HEADER nothing here\nEND\n")
		assert.Error(t, err)
	})
}

func TestESMAtlasPredictor(t *testing.T) {
	var gotBody, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		gotUA = r.Header.Get("User-Agent")
		io.WriteString(w, pdbWithBFactors(70, 80, 90))
	}))
	defer ts.Close()

	cfg := types.DefaultPipelineConfig().Protein
	cfg.ESMAtlasURL = ts.URL
	p := NewESMAtlasPredictor(cfg)

	s, err := p.Predict(context.Background(), "casein", "MKLL")
	require.NoError(t, err)
	assert.Equal(t, "MKLL", gotBody)
	assert.Equal(t, cfg.UserAgent, gotUA)
	assert.Equal(t, 3, s.Residues)
	assert.InDelta(t, 0.8, s.Confidence, 1e-9)
	assert.Equal(t, "esmatlas", p.Name())
}

func TestESMAtlasPredictorServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	cfg := types.DefaultPipelineConfig().Protein
	cfg.ESMAtlasURL = ts.URL
	_, err := NewESMAtlasPredictor(cfg).Predict(context.Background(), "casein", "MKLL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrToolUnavailable))
}

func TestContainerPredictor(t *testing.T) {
	rt := &fakeRuntime{stdout: pdbWithBFactors(60, 80)}
	p := NewContainerPredictor(rt, "esmfold:latest")

	s, err := p.Predict(context.Background(), "casein", "MKLL")
	require.NoError(t, err)
	assert.Equal(t, ">casein\nMKLL\n", rt.stdin)
	assert.InDelta(t, 0.7, s.Confidence, 1e-9)
}

func TestContainerPredictorFailures(t *testing.T) {
	_, err := NewContainerPredictor(&fakeRuntime{}, "").Predict(context.Background(), "casein", "MKLL")
	assert.True(t, errors.Is(err, types.ErrToolUnavailable), "no image")

	_, err = NewContainerPredictor(&fakeRuntime{err: errors.New("exit 1")}, "esmfold").Predict(context.Background(), "casein", "MKLL")
	assert.True(t, errors.Is(err, types.ErrToolUnavailable), "run failure")

	_, err = NewContainerPredictor(&fakeRuntime{stdout: "garbage"}, "esmfold").Predict(context.Background(), "casein", "MKLL")
	assert.Error(t, err, "unparseable output")
}

func TestNewPredictorNone(t *testing.T) {
	assert.Nil(t, NewPredictor(context.Background(), types.DefaultPipelineConfig().Protein))
}

func TestUnavailable(t *testing.T) {
	p := Unavailable("container", errors.New("no runtime"))
	assert.Equal(t, "container", p.Name())
	_, err := p.Predict(context.Background(), "casein", "MKLL")
	assert.True(t, errors.Is(err, types.ErrToolUnavailable))
}

// --- stage ---

func TestAnalyzeWithPredictor(t *testing.T) {
	cat := testCatalog(t)
	pred := &fakePredictor{conf: 0.9}
	sample := types.FoodSample{Proteins: []string{"Casein", "whey protein"}, Conditions: mildConditions()}

	out := Analyze(context.Background(), sample, cat, pred, types.DefaultPipelineConfig().Protein)
	require.Len(t, out.Analyses, 2)
	assert.Equal(t, []string{"casein", "whey_protein"}, pred.calls)

	casein := out.Analyses[0]
	assert.True(t, casein.Found)
	assert.Equal(t, 24000.0, casein.MolecularWeight)
	assert.Equal(t, 4.6, casein.IsoelectricPoint)
	assert.Equal(t, 0.9, casein.Confidence)
	assert.Equal(t, "fake", casein.Predictor)
	assert.False(t, casein.Degraded)
	assert.NotEmpty(t, casein.SecondaryStructure)

	assert.False(t, out.Result.Degraded)
	v, ok := out.Result.Metrics["casein.confidence"].Float()
	require.True(t, ok)
	assert.Equal(t, 0.9, v)
	v, ok = out.Result.Metrics["protein_count"].Float()
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestAnalyzeMissingProteinIsDegraded(t *testing.T) {
	cat := testCatalog(t)
	sample := types.FoodSample{Proteins: []string{"unobtainium"}, Conditions: mildConditions()}

	out := Analyze(context.Background(), sample, cat, &fakePredictor{conf: 0.9}, types.DefaultPipelineConfig().Protein)
	require.Len(t, out.Analyses, 1)
	a := out.Analyses[0]
	assert.False(t, a.Found)
	assert.True(t, a.Degraded)
	assert.Equal(t, DefaultMolecularWeight, a.MolecularWeight)
	assert.Equal(t, DefaultIsoelectricPoint, a.IsoelectricPoint)
	assert.Equal(t, DefaultConfidence, a.Confidence)

	assert.True(t, out.Result.Degraded)
	degraded := out.Result.DegradedMetrics()
	assert.Contains(t, degraded, "unobtainium.molecular_weight")
	assert.Contains(t, degraded, "unobtainium.confidence")
	assert.NotEmpty(t, out.Result.Notes)
}

func TestAnalyzePredictorFailureIsDegraded(t *testing.T) {
	cat := testCatalog(t)
	pred := &fakePredictor{err: errors.Mark(errors.New("connection refused"), types.ErrToolUnavailable)}
	sample := types.FoodSample{Proteins: []string{"casein"}, Conditions: mildConditions()}

	out := Analyze(context.Background(), sample, cat, pred, types.DefaultPipelineConfig().Protein)
	a := out.Analyses[0]
	assert.True(t, a.Found)
	assert.True(t, a.Degraded)
	assert.Equal(t, PredictorDefault, a.Predictor)
	assert.Equal(t, []string{"casein.confidence", "mean_confidence"}, out.Result.DegradedMetrics())
	require.Len(t, out.Result.Notes, 1)
	assert.Contains(t, out.Result.Notes[0], "structure predictor unavailable")
}

func TestAnalyzeSkipsLongSequences(t *testing.T) {
	cat := testCatalog(t)
	pred := &fakePredictor{conf: 0.9}
	cfg := types.DefaultPipelineConfig().Protein
	cfg.MaxSequenceLength = 10
	sample := types.FoodSample{Proteins: []string{"casein"}, Conditions: mildConditions()}

	out := Analyze(context.Background(), sample, cat, pred, cfg)
	assert.Empty(t, pred.calls)
	assert.True(t, out.Analyses[0].Degraded)
}

func TestAnalyzeNilPredictor(t *testing.T) {
	cat := testCatalog(t)
	sample := types.FoodSample{Proteins: []string{"casein"}, Conditions: mildConditions()}

	out := Analyze(context.Background(), sample, cat, nil, types.DefaultPipelineConfig().Protein)
	assert.Equal(t, DefaultConfidence, out.Analyses[0].Confidence)
	assert.True(t, out.Result.Metrics["casein.confidence"].Degraded)
	assert.False(t, out.Result.Metrics["casein.stability"].Degraded)
}

func TestCheckedContainerPredictor(t *testing.T) {
	ctx := context.Background()

	rt := &fakeRuntime{stdout: pdbWithBFactors(80)}
	p := checkedContainerPredictor(ctx, rt, "esmfold:latest")
	assert.IsType(t, &ContainerPredictor{}, p)
	assert.Equal(t, []string{"esmfold:latest"}, rt.checked)

	missing := &fakeRuntime{imageErr: errors.New("image esmfold:latest not found in docker")}
	p = checkedContainerPredictor(ctx, missing, "esmfold:latest")
	assert.Equal(t, string(types.PredictorContainer), p.Name())
	_, err := p.Predict(ctx, "casein", "MKLL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrToolUnavailable))
	assert.Contains(t, err.Error(), "not found")

	p = checkedContainerPredictor(ctx, &fakeRuntime{}, "")
	_, err = p.Predict(ctx, "casein", "MKLL")
	assert.True(t, errors.Is(err, types.ErrToolUnavailable))
}
