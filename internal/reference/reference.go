// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reference loads the read-only lookup tables: toxins, food proteins,
// enzyme kinetic constants, regulatory limits, and known interactions.
package reference

import (
	_ "embed"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// overlayFile is the YAML overlay read from a reference directory.
const overlayFile = "reference.yaml"

// Defaults returns the built-in reference tables.
func Defaults() (types.ReferenceData, error) {
	var data types.ReferenceData
	if err := yaml.Unmarshal(defaultsYAML, &data); err != nil {
		return types.ReferenceData{}, errors.Wrap(err, "parsing embedded reference tables")
	}
	return data, nil
}

// Load returns a catalog built from the defaults overlaid by dir. The overlay
// reads dir/reference.yaml and the flat CSV tables; either may be absent.
// An empty dir loads the defaults only.
func Load(dir string) (*Catalog, error) {
	data, err := Defaults()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return New(data), nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading reference directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf("reference path %s is not a directory", dir)
	}

	raw, err := os.ReadFile(filepath.Join(dir, overlayFile))
	switch {
	case err == nil:
		var overlay types.ReferenceData
		if err := yaml.Unmarshal(raw, &overlay); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", filepath.Join(dir, overlayFile))
		}
		data = Merge(data, overlay)
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "reading %s", filepath.Join(dir, overlayFile))
	}

	tables, err := loadCSVTables(dir)
	if err != nil {
		return nil, err
	}
	data = Merge(data, tables)

	return New(data), nil
}

// Merge overlays rows of overlay onto base. Rows with the same key replace
// the base row in place; new rows are appended. Binding sites are replaced
// per protein.
func Merge(base, overlay types.ReferenceData) types.ReferenceData {
	out := types.ReferenceData{
		Toxins:       mergeRows(base.Toxins, overlay.Toxins, func(t types.ToxinProfile) string { return types.NormalizeName(t.Name) }),
		Proteins:     mergeRows(base.Proteins, overlay.Proteins, func(p types.ProteinRecord) string { return types.NormalizeName(p.Name) }),
		Enzymes:      mergeRows(base.Enzymes, overlay.Enzymes, func(e types.EnzymeRecord) string { return types.NormalizeName(e.Name) }),
		Regulations:  mergeRows(base.Regulations, overlay.Regulations, func(r types.RegulatoryLimit) string { return r.Region + "/" + types.NormalizeName(r.Compound) }),
		Interactions: mergeRows(base.Interactions, overlay.Interactions, func(i types.KnownInteraction) string { return pairKey(i.Protein, i.Toxin) }),
		Literature:   mergeRows(base.Literature, overlay.Literature, func(n types.LiteratureNote) string { return n.ID }),
	}

	replaced := make(map[string]bool)
	for _, s := range overlay.BindingSites {
		replaced[types.NormalizeName(s.Protein)] = true
	}
	for _, s := range base.BindingSites {
		if !replaced[types.NormalizeName(s.Protein)] {
			out.BindingSites = append(out.BindingSites, s)
		}
	}
	out.BindingSites = append(out.BindingSites, overlay.BindingSites...)

	return out
}

func mergeRows[T any](base, overlay []T, key func(T) string) []T {
	out := append([]T(nil), base...)
	index := make(map[string]int, len(out))
	for i, row := range out {
		index[key(row)] = i
	}
	for _, row := range overlay {
		k := key(row)
		if i, ok := index[k]; ok {
			out[i] = row
			continue
		}
		index[k] = len(out)
		out = append(out, row)
	}
	return out
}

func pairKey(protein, toxin string) string {
	return types.NormalizeName(protein) + "|" + types.NormalizeName(toxin)
}

// Catalog is an immutable set of lookup maps keyed by normalized name. It is
// safe for concurrent use.
type Catalog struct {
	data         types.ReferenceData
	toxins       map[string]types.ToxinProfile
	proteins     map[string]types.ProteinRecord
	enzymes      map[string]types.EnzymeRecord
	regulations  map[string]map[string]types.RegulatoryLimit
	interactions map[string]types.KnownInteraction
	sites        map[string][]types.BindingSite
}

// New indexes data into a catalog.
func New(data types.ReferenceData) *Catalog {
	c := &Catalog{
		data:         data,
		toxins:       make(map[string]types.ToxinProfile, len(data.Toxins)),
		proteins:     make(map[string]types.ProteinRecord, len(data.Proteins)),
		enzymes:      make(map[string]types.EnzymeRecord, len(data.Enzymes)),
		regulations:  make(map[string]map[string]types.RegulatoryLimit),
		interactions: make(map[string]types.KnownInteraction, len(data.Interactions)),
		sites:        make(map[string][]types.BindingSite),
	}
	for _, t := range data.Toxins {
		c.toxins[types.NormalizeName(t.Name)] = t
	}
	for _, p := range data.Proteins {
		c.proteins[types.NormalizeName(p.Name)] = p
	}
	for _, e := range data.Enzymes {
		c.enzymes[types.NormalizeName(e.Name)] = e
	}
	for _, r := range data.Regulations {
		if c.regulations[r.Region] == nil {
			c.regulations[r.Region] = make(map[string]types.RegulatoryLimit)
		}
		c.regulations[r.Region][types.NormalizeName(r.Compound)] = r
	}
	for _, i := range data.Interactions {
		c.interactions[pairKey(i.Protein, i.Toxin)] = i
	}
	for _, s := range data.BindingSites {
		key := types.NormalizeName(s.Protein)
		c.sites[key] = append(c.sites[key], s)
	}
	return c
}

// Data returns the merged tables the catalog was built from.
func (c *Catalog) Data() types.ReferenceData {
	return c.data
}

// Toxin looks up a toxin profile by name.
func (c *Catalog) Toxin(name string) (types.ToxinProfile, bool) {
	t, ok := c.toxins[types.NormalizeName(name)]
	return t, ok
}

// Protein looks up a food protein by name.
func (c *Catalog) Protein(name string) (types.ProteinRecord, bool) {
	p, ok := c.proteins[types.NormalizeName(name)]
	return p, ok
}

// Enzyme looks up enzyme kinetic constants by name.
func (c *Catalog) Enzyme(name string) (types.EnzymeRecord, bool) {
	e, ok := c.enzymes[types.NormalizeName(name)]
	return e, ok
}

// Limit returns the regulatory limit for compound in region. Aflatoxin
// compounds fall back to the region's aflatoxin_total limit.
func (c *Catalog) Limit(region, compound string) (types.RegulatoryLimit, bool) {
	limits := c.regulations[region]
	key := types.NormalizeName(compound)
	if l, ok := limits[key]; ok {
		return l, true
	}
	if strings.HasPrefix(key, "aflatoxin_") {
		l, ok := limits["aflatoxin_total"]
		return l, ok
	}
	return types.RegulatoryLimit{}, false
}

// Regions returns the regions with at least one limit, sorted.
func (c *Catalog) Regions() []string {
	regions := make([]string, 0, len(c.regulations))
	for r := range c.regulations {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}

// KnownInteraction returns the documented binding of toxin to protein.
func (c *Catalog) KnownInteraction(protein, toxin string) (types.KnownInteraction, bool) {
	i, ok := c.interactions[pairKey(protein, toxin)]
	return i, ok
}

// BindingSites returns the tabulated pockets of a protein.
func (c *Catalog) BindingSites(protein string) []types.BindingSite {
	return c.sites[types.NormalizeName(protein)]
}

// Notes returns the curated literature plus one generated note per toxin
// mechanism and protein function, ready for indexing.
func (c *Catalog) Notes() []types.LiteratureNote {
	notes := append([]types.LiteratureNote(nil), c.data.Literature...)
	for _, t := range c.data.Toxins {
		if t.Mechanism == "" {
			continue
		}
		notes = append(notes, types.LiteratureNote{
			ID:      "toxin-" + types.NormalizeName(t.Name),
			Subject: types.NormalizeName(t.Name),
			Title:   "Mechanism of " + t.Name,
			Text:    t.Mechanism,
			Source:  "catalog",
			Tags:    []string{"toxin", t.Type},
		})
	}
	for _, p := range c.data.Proteins {
		if p.Function == "" {
			continue
		}
		notes = append(notes, types.LiteratureNote{
			ID:      "protein-" + types.NormalizeName(p.Name),
			Subject: types.NormalizeName(p.Name),
			Title:   "Function of " + p.Name,
			Text:    p.Function,
			Source:  "catalog",
			Tags:    []string{"protein", p.Category},
		})
	}
	return notes
}
