// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reference

// Stats summarizes the size and spread of a catalog.
type Stats struct {
	Proteins          int            `json:"total_proteins" yaml:"total_proteins"`
	Toxins            int            `json:"total_toxins" yaml:"total_toxins"`
	Enzymes           int            `json:"total_enzymes" yaml:"total_enzymes"`
	ProteinCategories map[string]int `json:"protein_categories" yaml:"protein_categories"`
	ToxinTypes        map[string]int `json:"toxin_types" yaml:"toxin_types"`
	Regions           []string       `json:"regulatory_regions" yaml:"regulatory_regions"`
	KnownInteractions int            `json:"total_known_interactions" yaml:"total_known_interactions"`
	LiteratureNotes   int            `json:"literature_notes" yaml:"literature_notes"`
}

// Stats counts proteins by category and toxins by type. Rows with an empty
// category or type are counted under "unspecified".
func (c *Catalog) Stats() Stats {
	d := c.data
	s := Stats{
		Proteins:          len(d.Proteins),
		Toxins:            len(d.Toxins),
		Enzymes:           len(d.Enzymes),
		ProteinCategories: make(map[string]int),
		ToxinTypes:        make(map[string]int),
		Regions:           c.Regions(),
		KnownInteractions: len(d.Interactions),
		LiteratureNotes:   len(d.Literature),
	}
	for _, p := range d.Proteins {
		s.ProteinCategories[orUnspecified(p.Category)]++
	}
	for _, t := range d.Toxins {
		s.ToxinTypes[orUnspecified(t.Type)]++
	}
	return s
}

func orUnspecified(s string) string {
	if s == "" {
		return "unspecified"
	}
	return s
}
