// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package safety

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Recommendation triggers.
const (
	interactionRiskAlert = 3.0
	stabilityRiskAlert   = 2.0
	residualActivityHigh = 0.5
)

// Recommendations derives prioritized actions from an assessment. The result
// is sorted CRITICAL first; ties keep insertion order.
func Recommendations(sample types.FoodSample, a types.SafetyAssessment, kinetics []types.KineticsAnalysis) []types.Recommendation {
	var out []types.Recommendation
	add := func(p types.Priority, category, action, rationale string) {
		out = append(out, types.Recommendation{Priority: p, Category: category, Action: action, Rationale: rationale})
	}

	if a.RiskLevel == types.RiskHigh || a.RiskLevel == types.RiskCritical {
		add(types.PriorityCritical, "Immediate Action Required",
			"Review and modify processing parameters before release",
			fmt.Sprintf("safety score %.2f indicates %s risk", a.Score, a.RiskLevel))
	}

	for _, e := range a.Compliance.Entries {
		if e.Status != types.ComplianceViolation {
			continue
		}
		add(types.PriorityCritical, "Regulatory Compliance",
			fmt.Sprintf("Reject or reprocess the lot: %s exceeds the %s limit", e.Compound, a.Compliance.Region),
			fmt.Sprintf("detected %.3g ppb against a limit of %.3g ppb", e.DetectedPPB, e.LimitPPB))
	}

	if a.Components.Interaction > interactionRiskAlert {
		add(types.PriorityHigh, "Toxin Mitigation",
			"Implement toxin reduction strategies during processing",
			fmt.Sprintf("interaction risk %.2f/10", a.Components.Interaction))
	}

	if a.Components.Stability > stabilityRiskAlert {
		c := sample.Conditions
		add(types.PriorityMedium, "Processing Optimization",
			fmt.Sprintf("Consider reducing temperature from %.1f °C or adjusting pH from %.1f to maintain protein stability", c.Temperature, c.PH),
			fmt.Sprintf("protein stability risk %.2f/10", a.Components.Stability))
	}

	for _, k := range kinetics {
		if k.ResidualActivity > residualActivityHigh {
			add(types.PriorityMedium, "Enzyme Control",
				fmt.Sprintf("Extend heat treatment to inactivate residual %s activity", k.Enzyme),
				fmt.Sprintf("%.0f%% of %s activity survives processing", k.ResidualActivity*100, k.Enzyme))
		}
	}

	category := strings.ToLower(sample.Category)
	switch {
	case strings.Contains(category, "dairy"):
		add(types.PriorityMedium, "Dairy Safety",
			"Implement enhanced mycotoxin monitoring of feed and milk",
			"dairy proteins are vulnerable to aflatoxin binding")
	case strings.Contains(category, "grain"), strings.Contains(category, "cereal"):
		add(types.PriorityHigh, "Grain Safety",
			"Implement pre-harvest and post-harvest mycotoxin control",
			"grain products are susceptible to multiple mycotoxins")
	}

	add(types.PriorityMedium, "Monitoring & Testing",
		"Establish a routine toxin monitoring program",
		"proactive detection of contamination")
	add(types.PriorityLow, "Training",
		"Train staff on food safety hazards and controls",
		"human factors in food safety management")
	add(types.PriorityMedium, "Documentation",
		"Update the HACCP plan with molecular interaction data",
		"incorporate the interaction analysis into the hazard analysis")

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() < out[j].Priority.Rank()
	})
	return out
}
