// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reference

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Flat table file names inside a reference directory.
const (
	toxinsCSV   = "toxins.csv"
	proteinsCSV = "proteins.csv"
	enzymesCSV  = "enzymes.csv"
)

// csvRow gives header-addressed access to one record.
type csvRow struct {
	file   string
	line   int
	header map[string]int
	fields []string
}

func (r csvRow) str(col string) string {
	i, ok := r.header[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r csvRow) float(col string) (float64, error) {
	s := r.str(col)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%s line %d: column %s", r.file, r.line, col)
	}
	return v, nil
}

func (r csvRow) int(col string) (int, error) {
	v, err := r.float(col)
	return int(v), err
}

// readCSV calls fn for each data row of dir/name. A missing file is not an
// error. The first row is the header; columns are matched by name.
func readCSV(dir, name string, fn func(csvRow) error) error {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.Comment = '#'

	head, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "reading header of %s", path)
	}
	header := make(map[string]int, len(head))
	for i, h := range head {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := header["name"]; !ok {
		return errors.WithHint(
			errors.Newf("%s has no name column", path),
			"the first row must be a header naming each column",
		)
	}

	for line := 2; ; line++ {
		fields, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		if err := fn(csvRow{file: name, line: line, header: header, fields: fields}); err != nil {
			return err
		}
	}
}

// loadCSVTables reads the flat toxin, protein, and enzyme tables. Enzyme
// rows sharing a name contribute one substrate each, in file order.
func loadCSVTables(dir string) (types.ReferenceData, error) {
	var data types.ReferenceData

	err := readCSV(dir, toxinsCSV, func(r csvRow) error {
		t := types.ToxinProfile{
			Name:              types.NormalizeName(r.str("name")),
			Type:              r.str("type"),
			SMILES:            r.str("smiles"),
			Mechanism:         r.str("mechanism"),
			InhibitorCategory: r.str("inhibitor_category"),
		}
		var err error
		if t.LD50, err = r.float("ld50_mg_kg"); err != nil {
			return err
		}
		if t.RegulatoryLimit, err = r.float("regulatory_limit_ppb"); err != nil {
			return err
		}
		if t.MolecularWeight, err = r.float("molecular_weight"); err != nil {
			return err
		}
		if t.LogP, err = r.float("logp"); err != nil {
			return err
		}
		if t.HBondDonors, err = r.int("hbond_donors"); err != nil {
			return err
		}
		if t.HBondAcceptors, err = r.int("hbond_acceptors"); err != nil {
			return err
		}
		data.Toxins = append(data.Toxins, t)
		return nil
	})
	if err != nil {
		return types.ReferenceData{}, err
	}

	err = readCSV(dir, proteinsCSV, func(r csvRow) error {
		p := types.ProteinRecord{
			Name:     types.NormalizeName(r.str("name")),
			Category: r.str("category"),
			Sequence: r.str("sequence"),
			Function: r.str("function"),
		}
		var err error
		if p.MolecularWeight, err = r.float("molecular_weight"); err != nil {
			return err
		}
		if p.IsoelectricPoint, err = r.float("isoelectric_point"); err != nil {
			return err
		}
		data.Proteins = append(data.Proteins, p)
		return nil
	})
	if err != nil {
		return types.ReferenceData{}, err
	}

	byName := make(map[string]int)
	err = readCSV(dir, enzymesCSV, func(r csvRow) error {
		name := types.NormalizeName(r.str("name"))
		sub := types.SubstrateConstants{Substrate: r.str("substrate")}
		var err error
		if sub.Km, err = r.float("km_mm"); err != nil {
			return err
		}
		if sub.Vmax, err = r.float("vmax"); err != nil {
			return err
		}
		if sub.Kcat, err = r.float("kcat"); err != nil {
			return err
		}

		i, seen := byName[name]
		if !seen {
			e := types.EnzymeRecord{Name: name}
			if e.OptimalPH, err = r.float("optimal_ph"); err != nil {
				return err
			}
			if e.OptimalTemperature, err = r.float("optimal_temperature"); err != nil {
				return err
			}
			if e.HalfLifeHours, err = r.float("half_life_hours"); err != nil {
				return err
			}
			if e.PHSensitivity, err = r.float("ph_sensitivity"); err != nil {
				return err
			}
			i = len(data.Enzymes)
			byName[name] = i
			data.Enzymes = append(data.Enzymes, e)
		}
		if sub.Substrate != "" {
			data.Enzymes[i].Substrates = append(data.Enzymes[i].Substrates, sub)
		}
		return nil
	})
	if err != nil {
		return types.ReferenceData{}, err
	}

	return data, nil
}
