// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Finding sources.
const (
	SourceCatalog    = "catalog"
	SourceLiterature = "literature"
	SourcePubMed     = "pubmed"
)

// ReferenceTables is the subset of the reference catalog read by
// CatalogBackend.
type ReferenceTables interface {
	Catalog
	Limit(region, compound string) (types.RegulatoryLimit, bool)
	KnownInteraction(protein, toxin string) (types.KnownInteraction, bool)
}

// CatalogBackend turns reference-table rows into findings: toxin mechanism
// and toxicity, regulatory limits, protein function, and documented
// protein-toxin bindings.
type CatalogBackend struct {
	Tables ReferenceTables

	// Region selects the regulatory limits reported.
	Region string
}

// Name returns the backend identifier.
func (b *CatalogBackend) Name() string { return SourceCatalog }

// Research implements Backend. It never fails; subjects absent from the
// tables yield no findings.
func (b *CatalogBackend) Research(_ context.Context, s Subjects) ([]types.Finding, error) {
	var out []types.Finding

	for _, name := range s.Toxins {
		t, ok := b.Tables.Toxin(name)
		if !ok {
			continue
		}
		if t.Mechanism != "" {
			out = append(out, catalogFinding(name, "Mechanism of toxicity", t.Mechanism))
		}
		tox := fmt.Sprintf("%s %s with oral LD50 %g mg/kg", t.Name, t.Type, t.LD50)
		if len(t.Targets) > 0 {
			tox += "; targets " + strings.Join(t.Targets, ", ")
		}
		out = append(out, catalogFinding(name, "Toxicity profile", tox))

		if l, ok := b.Tables.Limit(b.Region, name); ok {
			text := fmt.Sprintf("%g %s", l.Limit, l.Unit)
			if l.Regulation != "" {
				text += " under " + l.Regulation
			}
			out = append(out, catalogFinding(name, "Regulatory limit ("+b.Region+")", text))
		}
	}

	for _, name := range s.Proteins {
		p, ok := b.Tables.Protein(name)
		if !ok {
			continue
		}
		text := fmt.Sprintf("%s protein, %.0f Da, pI %.1f", p.Category, p.MolecularWeight, p.IsoelectricPoint)
		if p.Function != "" {
			text = p.Function + "; " + text
		}
		out = append(out, catalogFinding(name, "Protein profile", text))

		for _, toxin := range s.Toxins {
			ki, ok := b.Tables.KnownInteraction(name, toxin)
			if !ok {
				continue
			}
			text := fmt.Sprintf("%s binds %s at %.1f kcal/mol (%s)", toxin, name, ki.BindingAffinity, ki.InteractionType)
			if ki.BindingSite != "" {
				text += " at " + ki.BindingSite
			}
			if ki.Reference != "" {
				text += ", " + ki.Reference
			}
			out = append(out, catalogFinding(name, "Documented binding of "+toxin, text))
		}
	}

	return out, nil
}

func catalogFinding(subject, title, text string) types.Finding {
	return types.Finding{Subject: subject, Source: SourceCatalog, Title: title, Text: text}
}
