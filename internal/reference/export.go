// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reference

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// CSVKinds lists the table kinds WriteCSV accepts.
var CSVKinds = []string{KindToxins, KindProteins, KindEnzymes, KindRegulations, KindInteractions}

// WriteCSV writes rows, as returned by Catalog.Table, as CSV with a header
// row. Toxin, protein, and enzyme exports use the column names the
// reference directory loader reads, so an export can be edited and dropped
// back in as an overlay. Enzymes are written one row per substrate.
func WriteCSV(w io.Writer, rows any) error {
	cw := csv.NewWriter(w)
	switch rs := rows.(type) {
	case []types.ToxinProfile:
		_ = cw.Write([]string{"name", "type", "ld50_mg_kg", "regulatory_limit_ppb", "molecular_weight",
			"logp", "hbond_donors", "hbond_acceptors", "smiles", "mechanism", "inhibitor_category"})
		for _, t := range rs {
			_ = cw.Write([]string{t.Name, t.Type, num(t.LD50), num(t.RegulatoryLimit), num(t.MolecularWeight),
				num(t.LogP), strconv.Itoa(t.HBondDonors), strconv.Itoa(t.HBondAcceptors), t.SMILES, t.Mechanism, t.InhibitorCategory})
		}
	case []types.ProteinRecord:
		_ = cw.Write([]string{"name", "category", "molecular_weight", "isoelectric_point", "function", "sequence"})
		for _, p := range rs {
			_ = cw.Write([]string{p.Name, p.Category, num(p.MolecularWeight), num(p.IsoelectricPoint), p.Function, p.Sequence})
		}
	case []types.EnzymeRecord:
		_ = cw.Write([]string{"name", "optimal_ph", "optimal_temperature", "half_life_hours", "ph_sensitivity",
			"substrate", "km_mm", "vmax", "kcat"})
		for _, e := range rs {
			head := []string{e.Name, num(e.OptimalPH), num(e.OptimalTemperature), num(e.HalfLifeHours), num(e.PHSensitivity)}
			if len(e.Substrates) == 0 {
				_ = cw.Write(append(head, "", "", "", ""))
				continue
			}
			for _, s := range e.Substrates {
				_ = cw.Write(append(append([]string(nil), head...), s.Substrate, num(s.Km), num(s.Vmax), num(s.Kcat)))
			}
		}
	case []types.RegulatoryLimit:
		_ = cw.Write([]string{"region", "compound", "limit", "unit", "regulation"})
		for _, l := range rs {
			_ = cw.Write([]string{l.Region, l.Compound, num(l.Limit), l.Unit, l.Regulation})
		}
	case []types.KnownInteraction:
		_ = cw.Write([]string{"protein", "toxin", "binding_affinity", "interaction_type", "binding_site", "reference"})
		for _, i := range rs {
			_ = cw.Write([]string{i.Protein, i.Toxin, num(i.BindingAffinity), i.InteractionType, i.BindingSite, i.Reference})
		}
	default:
		return errors.WithHintf(errors.Newf("no CSV form for %T", rows),
			"CSV export supports: %s", strings.Join(CSVKinds, ", "))
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "writing CSV")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
