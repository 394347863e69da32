// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// Formats lists the accepted output formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatText}

// ParseFormat accepts json, yaml (or yml), and text, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", errors.Newf("unknown output format %q (want json, yaml, or text)", s)
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *types.SafetyReport, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(r), "encoding report as JSON")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return errors.Wrap(err, "encoding report as YAML")
		}
		return errors.Wrap(enc.Close(), "flushing YAML report")
	case FormatText:
		return renderText(w, r)
	}
	return errors.Newf("unknown output format %q", format)
}

func renderText(w io.Writer, r *types.SafetyReport) error {
	ew := &errWriter{w: w}
	s := r.ExecutiveSummary

	ew.printf("FOOD SAFETY REPORT  %s (%s)\n", r.SampleInfo.Name, r.SampleInfo.ID)
	ew.printf("Run %s  generated %s\n\n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	ew.printf("Safety score: %.2f/10  Risk level: %s  Confidence: %.2f", s.SafetyScore, strings.ToUpper(string(s.RiskLevel)), s.Confidence)
	if s.Degraded {
		ew.printf("  (degraded)")
	}
	ew.printf("\n\nKey findings:\n")
	for _, f := range s.KeyFindings {
		ew.printf("  - %s\n", f)
	}

	ew.printf("\n%-20s  %-32s  %s\n", "STAGE", "METRIC", "VALUE")
	for _, stage := range types.Stages {
		res, ok := r.Stages[stage]
		if !ok {
			continue
		}
		names := make([]string, 0, len(res.Metrics))
		for name := range res.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ew.printf("%-20s  %-32s  %s\n", stage, name, res.Metrics[name])
		}
	}

	if len(r.Recommendations) > 0 {
		ew.printf("\nRecommendations:\n")
		for _, rec := range r.Recommendations {
			ew.printf("  [%-8s] %s: %s\n", rec.Priority, rec.Category, rec.Action)
		}
	}

	if len(r.ControlPoints) > 0 {
		ew.printf("\n%-12s  %-18s  %s\n", "CCP", "STATUS", "HAZARD")
		for _, cp := range r.ControlPoints {
			ew.printf("%-12s  %-18s  %s\n", cp.ID, cp.Status, cp.Hazard)
		}
	}

	ew.printf("\nRegulatory compliance (%s): %s\n", r.Compliance.Region, r.Compliance.OverallStatus)
	for _, e := range r.Compliance.Entries {
		ew.printf("  %-16s  %8.3g ppb  limit %8.3g ppb  %s\n", e.Compound, e.DetectedPPB, e.LimitPPB, e.Status)
	}

	ew.printf("\nNext steps:\n")
	for _, step := range r.NextSteps {
		ew.printf("  - %s\n", step)
	}

	if r.Narrative != "" {
		ew.printf("\n%s\n", r.Narrative)
	}
	return ew.err
}

// errWriter keeps the first write error so a long run of Fprintf calls can
// be checked once.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
