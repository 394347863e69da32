// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ToxinProfile is one row of the toxin reference table.
type ToxinProfile struct {
	// Name is the normalized key (e.g. "aflatoxin_b1").
	Name string `json:"name" yaml:"name"`

	// Type is mycotoxin, bacterial, plant, chemical, or marine.
	Type string `json:"type" yaml:"type"`

	// LD50 is the oral median lethal dose in mg/kg body weight.
	LD50 float64 `json:"ld50_mg_kg" yaml:"ld50_mg_kg"`

	// RegulatoryLimit is the reference limit in ppb used when no
	// region-specific limit is available.
	RegulatoryLimit float64 `json:"regulatory_limit_ppb" yaml:"regulatory_limit_ppb"`

	// MolecularWeight is in g/mol.
	MolecularWeight float64 `json:"molecular_weight" yaml:"molecular_weight"`

	SMILES         string  `json:"smiles,omitempty" yaml:"smiles,omitempty"`
	LogP           float64 `json:"logp" yaml:"logp"`
	HBondDonors    int     `json:"hbond_donors" yaml:"hbond_donors"`
	HBondAcceptors int     `json:"hbond_acceptors" yaml:"hbond_acceptors"`

	// Mechanism is a one-line description of the mode of toxicity.
	Mechanism string `json:"mechanism,omitempty" yaml:"mechanism,omitempty"`

	// Targets lists the primary molecular targets.
	Targets []string `json:"targets,omitempty" yaml:"targets,omitempty"`

	// InhibitorCategory groups the toxin for enzyme inhibition
	// (heavy_metals, phenolic, organic_acids, salts).
	InhibitorCategory string `json:"inhibitor_category,omitempty" yaml:"inhibitor_category,omitempty"`
}

// ProteinRecord is one row of the food-protein reference table.
type ProteinRecord struct {
	Name string `json:"name" yaml:"name"`

	// MolecularWeight is in Da.
	MolecularWeight float64 `json:"molecular_weight" yaml:"molecular_weight"`

	IsoelectricPoint float64 `json:"isoelectric_point" yaml:"isoelectric_point"`

	// Category is dairy, grain, meat, enzyme, ...
	Category string `json:"category" yaml:"category"`

	// Sequence is a one-letter amino-acid sequence, possibly abbreviated.
	Sequence string `json:"sequence,omitempty" yaml:"sequence,omitempty"`

	Function string `json:"function,omitempty" yaml:"function,omitempty"`
}

// SubstrateConstants are the Michaelis-Menten constants of one
// enzyme-substrate pair.
type SubstrateConstants struct {
	Substrate string `json:"substrate" yaml:"substrate"`

	// Km is in mM.
	Km float64 `json:"km_mM" yaml:"km_mM"`

	// Vmax is in µmol/min/mg.
	Vmax float64 `json:"vmax" yaml:"vmax"`

	// Kcat is in 1/s.
	Kcat float64 `json:"kcat" yaml:"kcat"`
}

// EnzymeRecord is one row of the enzyme kinetics reference table.
type EnzymeRecord struct {
	Name string `json:"name" yaml:"name"`

	// Substrates are ordered; the first is the primary substrate.
	Substrates []SubstrateConstants `json:"substrates" yaml:"substrates"`

	OptimalPH          float64  `json:"optimal_ph" yaml:"optimal_ph"`
	OptimalTemperature float64  `json:"optimal_temperature" yaml:"optimal_temperature"`
	MolecularWeight    float64  `json:"molecular_weight,omitempty" yaml:"molecular_weight,omitempty"`
	Cofactors          []string `json:"cofactors,omitempty" yaml:"cofactors,omitempty"`

	// HalfLifeHours is the storage half-life at 4 °C and neutral pH.
	HalfLifeHours float64 `json:"half_life_hours" yaml:"half_life_hours"`

	// PHSensitivity scales the degradation rate per pH unit away from neutral.
	PHSensitivity float64 `json:"ph_sensitivity" yaml:"ph_sensitivity"`
}

// PrimarySubstrate returns the first substrate's constants.
func (e EnzymeRecord) PrimarySubstrate() (SubstrateConstants, bool) {
	if len(e.Substrates) == 0 {
		return SubstrateConstants{}, false
	}
	return e.Substrates[0], true
}

// RegulatoryLimit is a maximum permitted level for one compound in one
// region.
type RegulatoryLimit struct {
	// Region is us_fda, eu_efsa, or codex_alimentarius.
	Region   string  `json:"region" yaml:"region"`
	Compound string  `json:"compound" yaml:"compound"`
	Limit    float64 `json:"limit" yaml:"limit"`

	// Unit is ppb unless stated otherwise.
	Unit       string `json:"unit" yaml:"unit"`
	Regulation string `json:"regulation,omitempty" yaml:"regulation,omitempty"`
}

// KnownInteraction is a literature-documented protein-toxin binding.
type KnownInteraction struct {
	Protein         string  `json:"protein" yaml:"protein"`
	Toxin           string  `json:"toxin" yaml:"toxin"`
	BindingAffinity float64 `json:"binding_affinity" yaml:"binding_affinity"`
	InteractionType string  `json:"interaction_type" yaml:"interaction_type"`
	BindingSite     string  `json:"binding_site,omitempty" yaml:"binding_site,omitempty"`
	Reference       string  `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// BindingSite is a tabulated pocket on a food protein used to score
// docking poses when no docking tool is configured.
type BindingSite struct {
	Protein  string `json:"protein" yaml:"protein"`
	Residues []int  `json:"residues" yaml:"residues"`

	// Type is hydrophobic, electrostatic, or hydrogen_bond.
	Type string `json:"type" yaml:"type"`

	// Volume is the pocket volume in cubic angstroms.
	Volume float64 `json:"volume" yaml:"volume"`
}

// LiteratureNote is a curated text snippet indexed for the research stage.
type LiteratureNote struct {
	ID      string   `json:"id" yaml:"id"`
	Subject string   `json:"subject" yaml:"subject"`
	Title   string   `json:"title" yaml:"title"`
	Text    string   `json:"text" yaml:"text"`
	Source  string   `json:"source,omitempty" yaml:"source,omitempty"`
	URL     string   `json:"url,omitempty" yaml:"url,omitempty"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ReferenceData is the complete set of read-only lookup tables.
type ReferenceData struct {
	Toxins       []ToxinProfile     `json:"toxins" yaml:"toxins"`
	Proteins     []ProteinRecord    `json:"proteins" yaml:"proteins"`
	Enzymes      []EnzymeRecord     `json:"enzymes" yaml:"enzymes"`
	Regulations  []RegulatoryLimit  `json:"regulations" yaml:"regulations"`
	Interactions []KnownInteraction `json:"interactions" yaml:"interactions"`
	BindingSites []BindingSite      `json:"binding_sites" yaml:"binding_sites"`
	Literature   []LiteratureNote   `json:"literature" yaml:"literature"`
}
