// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package protein

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/internal/container"
	"github.com/pdiddy/foodsafety-engine/internal/httputil"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// maxPDBBytes bounds a predicted structure read from a tool.
const maxPDBBytes = 32 << 20

// Structure is a predicted structure and its mean per-residue confidence.
type Structure struct {
	// PDB is the predicted structure in PDB format.
	PDB string

	// Confidence is the mean pLDDT of CA atoms scaled to [0, 1].
	Confidence float64

	// Residues is the number of CA atoms read.
	Residues int
}

// Predictor folds a sequence. Implementations wrap an external structure
// prediction model and are treated as opaque.
type Predictor interface {
	// Name identifies the predictor in reports (container, esmatlas).
	Name() string

	// Predict returns the structure of sequence. Errors wrap
	// types.ErrToolUnavailable when the model could not be reached.
	Predict(ctx context.Context, name, sequence string) (Structure, error)
}

// NewPredictor builds the predictor selected by cfg. It returns nil for
// PredictorNone. A container predictor with no usable runtime is returned as
// an unavailable predictor so the stage can record the reason per protein.
func NewPredictor(ctx context.Context, cfg types.ProteinConfig) Predictor {
	switch cfg.Predictor {
	case types.PredictorContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return Unavailable(string(types.PredictorContainer), err)
		}
		return checkedContainerPredictor(ctx, rt, cfg.Image)
	case types.PredictorESMAtlas:
		return NewESMAtlasPredictor(cfg)
	}
	return nil
}

// checkedContainerPredictor confirms the image once. A missing image yields
// an unavailable predictor rather than a failed run per protein.
func checkedContainerPredictor(ctx context.Context, rt container.Runtime, image string) Predictor {
	name := string(types.PredictorContainer)
	if image == "" {
		return Unavailable(name, errors.New("no predictor image configured"))
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return Unavailable(name, err)
	}
	return NewContainerPredictor(rt, image)
}

// ContainerPredictor runs a folding image that reads one FASTA record on
// stdin and writes PDB on stdout.
type ContainerPredictor struct {
	runtime container.Runtime
	image   string
}

// NewContainerPredictor returns a predictor that runs image on rt.
func NewContainerPredictor(rt container.Runtime, image string) *ContainerPredictor {
	return &ContainerPredictor{runtime: rt, image: image}
}

// Name implements Predictor.
func (p *ContainerPredictor) Name() string { return string(types.PredictorContainer) }

// Predict implements Predictor.
func (p *ContainerPredictor) Predict(ctx context.Context, name, sequence string) (Structure, error) {
	if p.image == "" {
		return Structure{}, errors.Wrap(types.ErrToolUnavailable, "no predictor image configured")
	}
	stdin := strings.NewReader(fmt.Sprintf(">%s\n%s\n", name, sequence))
	var stdout bytes.Buffer
	if err := p.runtime.Run(ctx, p.image, nil, stdin, &stdout); err != nil {
		return Structure{}, errors.Mark(errors.Wrapf(err, "predicting %s", name), types.ErrToolUnavailable)
	}
	return parseStructure(stdout.String())
}

// ESMAtlasPredictor posts sequences to an ESM Atlas compatible folding
// endpoint and reads PDB from the response body.
type ESMAtlasPredictor struct {
	client     *http.Client
	url        string
	userAgent  string
	maxRetries int
}

// NewESMAtlasPredictor returns a predictor for cfg.ESMAtlasURL.
func NewESMAtlasPredictor(cfg types.ProteinConfig) *ESMAtlasPredictor {
	return &ESMAtlasPredictor{
		client:     httputil.NewClient(cfg.HTTPConfig),
		url:        cfg.ESMAtlasURL,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// Name implements Predictor.
func (p *ESMAtlasPredictor) Name() string { return string(types.PredictorESMAtlas) }

// Predict implements Predictor.
func (p *ESMAtlasPredictor) Predict(ctx context.Context, name, sequence string) (Structure, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, strings.NewReader(sequence))
	if err != nil {
		return Structure{}, errors.Wrap(err, "building folding request")
	}
	req.Header.Set("Content-Type", "text/plain")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, p.client, req, p.maxRetries)
	if err != nil {
		return Structure{}, errors.Mark(errors.Wrapf(err, "folding %s", name), types.ErrToolUnavailable)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return Structure{}, errors.Mark(errors.Wrapf(err, "folding %s", name), types.ErrToolUnavailable)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPDBBytes))
	if err != nil {
		return Structure{}, errors.Mark(errors.Wrapf(err, "reading structure for %s", name), types.ErrToolUnavailable)
	}
	return parseStructure(string(body))
}

type unavailable struct {
	name string
	err  error
}

// Unavailable returns a predictor that fails every call with err. It stands
// in for a configured predictor whose tool could not be set up.
func Unavailable(name string, err error) Predictor {
	return unavailable{name: name, err: err}
}

func (u unavailable) Name() string { return u.name }

func (u unavailable) Predict(context.Context, string, string) (Structure, error) {
	return Structure{}, errors.Mark(u.err, types.ErrToolUnavailable)
}

func parseStructure(pdb string) (Structure, error) {
	conf, n, err := ParsePLDDT(pdb)
	if err != nil {
		return Structure{}, errors.Mark(err, types.ErrToolUnavailable)
	}
	return Structure{PDB: pdb, Confidence: conf, Residues: n}, nil
}

// ParsePLDDT returns the mean B-factor of CA atoms in a PDB document and the
// number of CA atoms. Folding models store pLDDT in the B-factor column,
// either as 0-100 or 0-1; the mean is returned scaled to [0, 1].
func ParsePLDDT(pdb string) (float64, int, error) {
	var (
		sum float64
		n   int
	)
	sc := bufio.NewScanner(strings.NewReader(pdb))
	sc.Buffer(make([]byte, 0, 256), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "ATOM") || len(line) < 66 {
			continue
		}
		if strings.TrimSpace(line[12:16]) != "CA" {
			continue
		}
		b, err := strconv.ParseFloat(strings.TrimSpace(line[60:66]), 64)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "parsing B-factor in %q", line)
		}
		sum += b
		n++
	}
	if err := sc.Err(); err != nil {
		return 0, 0, errors.Wrap(err, "reading PDB")
	}
	if n == 0 {
		return 0, 0, errors.New("structure has no CA atoms")
	}
	mean := sum / float64(n)
	if mean > 1 {
		mean /= 100
	}
	return mean, n, nil
}
