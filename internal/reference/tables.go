// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reference

import "github.com/pdiddy/foodsafety-engine/pkg/types"

// Table kinds accepted by Catalog.Table.
const (
	KindToxins       = "toxins"
	KindProteins     = "proteins"
	KindEnzymes      = "enzymes"
	KindRegulations  = "regulations"
	KindInteractions = "interactions"
	KindBindingSites = "binding_sites"
	KindLiterature   = "literature"
)

// Kinds lists the table kinds in display order.
var Kinds = []string{
	KindToxins,
	KindProteins,
	KindEnzymes,
	KindRegulations,
	KindInteractions,
	KindBindingSites,
	KindLiterature,
}

// Table returns the rows of one table by kind. The slice is the catalog's
// own and must not be modified.
func (c *Catalog) Table(kind string) (any, bool) {
	d := c.data
	switch types.NormalizeName(kind) {
	case KindToxins:
		return d.Toxins, true
	case KindProteins:
		return d.Proteins, true
	case KindEnzymes:
		return d.Enzymes, true
	case KindRegulations, "limits":
		return d.Regulations, true
	case KindInteractions:
		return d.Interactions, true
	case KindBindingSites:
		return d.BindingSites, true
	case KindLiterature, "notes":
		return d.Literature, true
	}
	return nil, false
}
