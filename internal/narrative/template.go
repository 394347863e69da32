// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package narrative

import (
	"context"
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

const summaryTemplate = `This analysis of {{.SampleInfo.Name}} ({{.SampleInfo.ID}}) examined {{len .Details.Proteins}} protein(s) and {{len .Details.Interactions.Pairs}} potential toxin interaction(s).

OVERALL ASSESSMENT: {{upper (print .ExecutiveSummary.RiskLevel)}} RISK (safety score {{printf "%.2f" .ExecutiveSummary.SafetyScore}}/10, confidence {{printf "%.2f" .ExecutiveSummary.Confidence}})

KEY FINDINGS:
{{range .ExecutiveSummary.KeyFindings}}- {{.}}
{{end}}
ACTIONS:
{{range actions .ExecutiveSummary.RiskLevel}}- {{.}}
{{end}}{{if .ExecutiveSummary.Degraded}}
Some results were computed from documented defaults because reference data or an external tool was unavailable; see the degraded metrics of each stage.
{{end}}`

var summary = template.Must(template.New("summary").Funcs(template.FuncMap{
	"upper":   strings.ToUpper,
	"actions": actionsFor,
}).Parse(summaryTemplate))

// Template renders the narrative from a fixed text template. It needs no
// network access and never fails on a well-formed report.
type Template struct{}

// Name returns the narrator identifier.
func (Template) Name() string { return string(types.NarratorTemplate) }

// Narrate implements Narrator.
func (Template) Narrate(_ context.Context, r *types.SafetyReport) (string, error) {
	var b strings.Builder
	if err := summary.Execute(&b, r); err != nil {
		return "", errors.Wrap(err, "rendering narrative template")
	}
	return strings.TrimSpace(b.String()), nil
}

func actionsFor(level types.RiskLevel) []string {
	switch level {
	case types.RiskHigh, types.RiskCritical:
		return []string{
			"Immediate process review and safety intervention required",
			"Enhanced monitoring and testing protocols",
			"Regulatory notification may be necessary",
		}
	case types.RiskModerate:
		return []string{
			"Process optimization recommended",
			"Increased monitoring frequency",
			"Staff training on identified risks",
		}
	}
	return []string{
		"Continue current safety protocols",
		"Regular monitoring as scheduled",
		"Document practices for replication",
	}
}
