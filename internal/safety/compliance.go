// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package safety

import (
	"sort"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Overall compliance statuses.
const (
	FullyCompliant        = "fully_compliant"
	CompliantWithWarnings = "compliant_with_warnings"
	NonCompliant          = "non_compliant"
	NotAssessed           = "not_assessed"
)

// categoryLimits are stricter limits for particular food categories. They
// apply in every region and win over the regional table.
var categoryLimits = map[string]map[string]float64{
	"infant_food": {"aflatoxin_b1": 0.1, "ochratoxin_a": 0.5},
	"dairy":       {"aflatoxin_m1": 0.5},
}

// Compliance checks each detected level in the sample against the
// configured region's limits. Compounds are reported in name order.
func Compliance(sample types.FoodSample, cat Catalog, cfg types.SafetyConfig) types.ComplianceReport {
	cfg = withDefaults(cfg)
	report := types.ComplianceReport{Region: cfg.Region, Entries: []types.ComplianceEntry{}}

	compounds := make([]string, 0, len(sample.DetectedLevels))
	levels := make(map[string]float64, len(sample.DetectedLevels))
	for name, ppb := range sample.DetectedLevels {
		n := types.NormalizeName(name)
		compounds = append(compounds, n)
		levels[n] = ppb
	}
	sort.Strings(compounds)

	assessed := 0
	for _, compound := range compounds {
		e := types.ComplianceEntry{Compound: compound, DetectedPPB: levels[compound]}
		limit, regulation, ok := limitFor(sample.Category, compound, cfg.Region, cat)
		if !ok {
			e.Status = types.ComplianceNoLimit
			report.Entries = append(report.Entries, e)
			continue
		}
		assessed++
		e.LimitPPB = limit
		e.Regulation = regulation
		e.Status = Classify(e.DetectedPPB, limit, cfg.WarningFraction)
		if limit > 0 {
			e.PercentOfLimit = e.DetectedPPB / limit * 100
		}
		switch e.Status {
		case types.ComplianceViolation:
			report.Violations++
		case types.ComplianceWarning:
			report.Warnings++
		}
		report.Entries = append(report.Entries, e)
	}

	switch {
	case assessed == 0:
		report.OverallStatus = NotAssessed
	case report.Violations > 0:
		report.OverallStatus = NonCompliant
	case report.Warnings > 0:
		report.OverallStatus = CompliantWithWarnings
	default:
		report.OverallStatus = FullyCompliant
	}
	return report
}

// Classify compares a detected level to a limit. Levels above
// warningFraction of the limit are warnings; levels above the limit are
// violations.
func Classify(detected, limit, warningFraction float64) types.ComplianceStatus {
	switch {
	case detected > limit:
		return types.ComplianceViolation
	case detected > limit*warningFraction:
		return types.ComplianceWarning
	}
	return types.ComplianceOK
}

func limitFor(category, compound, region string, cat Catalog) (float64, string, bool) {
	if l, ok := categoryLimits[types.NormalizeName(category)][compound]; ok {
		return l, category + " limit", true
	}
	if l, ok := cat.Limit(region, compound); ok {
		return l.Limit, l.Regulation, true
	}
	return 0, "", false
}
