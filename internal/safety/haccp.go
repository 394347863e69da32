// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package safety

import (
	"fmt"
	"strings"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Control point statuses.
const (
	CCPCompliant       = "compliant"
	CCPNonCompliant    = "non_compliant"
	CCPRequiresTesting = "requires_testing"
)

// HACCP limits.
const (
	heatTreatmentAbove = 60.0
	heatTreatmentLimit = 70.0
	acidFoodPH         = 4.6
)

var (
	driedCategories    = []string{"dried", "dehydrated", "powder"}
	packagedCategories = []string{"processed", "packaged"}
)

// ControlPoints identifies the HACCP critical control points for the sample:
// heat treatment above 60 °C, pH control for acid foods, water activity for
// dried products, one chemical control per suspected toxin, and metal
// detection for processed or packaged products.
func ControlPoints(sample types.FoodSample, compliance types.ComplianceReport) []types.ControlPoint {
	c := sample.Conditions
	category := strings.ToLower(sample.Category)
	out := []types.ControlPoint{}

	if c.Temperature > heatTreatmentAbove {
		status := CCPNonCompliant
		if c.Temperature >= heatTreatmentLimit {
			status = CCPCompliant
		}
		out = append(out, types.ControlPoint{
			ID:               "CCP-1",
			Hazard:           "Pathogenic microorganisms",
			Step:             fmt.Sprintf("Heat treatment at %.1f °C", c.Temperature),
			CriticalLimit:    ">= 70 °C for 2 minutes or equivalent",
			Monitoring:       "Continuous temperature monitoring",
			CorrectiveAction: "Increase temperature or extend hold time",
			Status:           status,
		})
	}

	if c.PH < acidFoodPH {
		out = append(out, types.ControlPoint{
			ID:               "CCP-2",
			Hazard:           "Clostridium botulinum growth",
			Step:             fmt.Sprintf("pH control at %.1f", c.PH),
			CriticalLimit:    "<= 4.6",
			Monitoring:       "pH measurement every batch",
			CorrectiveAction: "Adjust acid levels",
			Status:           CCPCompliant,
		})
	}

	if containsAny(category, driedCategories) {
		out = append(out, types.ControlPoint{
			ID:               "CCP-3",
			Hazard:           "Mold growth and mycotoxins",
			Step:             "Water activity",
			CriticalLimit:    "<= 0.85 aw",
			Monitoring:       "Water activity measurement",
			CorrectiveAction: "Additional drying",
			Status:           CCPRequiresTesting,
		})
	}

	statuses := make(map[string]types.ComplianceStatus, len(compliance.Entries))
	for _, e := range compliance.Entries {
		statuses[e.Compound] = e.Status
	}
	for _, raw := range sample.SuspectedToxins {
		toxin := types.NormalizeName(raw)
		status := CCPRequiresTesting
		switch statuses[toxin] {
		case types.ComplianceViolation:
			status = CCPNonCompliant
		case types.ComplianceOK, types.ComplianceWarning:
			status = CCPCompliant
		}
		out = append(out, types.ControlPoint{
			ID:               fmt.Sprintf("CCP-CHEM-%d", len(out)+1),
			Hazard:           toxin,
			Step:             "Raw material and finished product testing",
			CriticalLimit:    "Below regulatory limits",
			Monitoring:       "Periodic testing",
			CorrectiveAction: "Reject or reprocess batch",
			Status:           status,
		})
	}

	if containsAny(category, packagedCategories) {
		out = append(out, types.ControlPoint{
			ID:               "CCP-METAL",
			Hazard:           "Physical contamination",
			Step:             "Metal detection",
			CriticalLimit:    "No metal particles > 2 mm",
			Monitoring:       "Metal detector on production line",
			CorrectiveAction: "Remove contaminated product",
			Status:           CCPCompliant,
		})
	}

	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
