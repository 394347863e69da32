// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pdiddy/foodsafety-engine/internal/interaction"
	"github.com/pdiddy/foodsafety-engine/internal/literature"
	"github.com/pdiddy/foodsafety-engine/internal/reference"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

const defaultIndexPath = "data/literature.db"

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the reference tables and manage the literature index",
	Long: `Catalog shows the reference tables (toxins, proteins, enzymes,
regulations, interactions, binding sites, literature), summarizes them by
food category, and maintains the SQLite literature index the research
stage queries.`,
}

// --- show subcommand ---

var catalogShowCmd = &cobra.Command{
	Use:   "show [kind]",
	Short: "Print a reference table",
	Long: `Show prints one reference table after the reference directory overlay
is applied. Without a kind it lists the table kinds and regulatory regions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogShow,
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := reference.Load(cfg.Reference.Dir)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	csvOutput, _ := cmd.Flags().GetBool("csv")
	if jsonOutput && csvOutput {
		return errors.New("--json and --csv are mutually exclusive")
	}

	if len(args) == 0 {
		fmt.Printf("Kinds:   %s\n", strings.Join(reference.Kinds, ", "))
		fmt.Printf("Regions: %s\n", strings.Join(cat.Regions(), ", "))
		return nil
	}

	rows, ok := cat.Table(args[0])
	if !ok {
		return errors.WithHintf(errors.Newf("unknown catalog kind %q", args[0]),
			"valid kinds: %s", strings.Join(reference.Kinds, ", "))
	}
	switch {
	case jsonOutput:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case csvOutput:
		return reference.WriteCSV(os.Stdout, rows)
	}
	printTable(rows)
	return nil
}

func printTable(rows any) {
	switch rs := rows.(type) {
	case []types.ToxinProfile:
		fmt.Printf("%-22s  %-14s  %10s  %10s  %s\n", "Name", "Type", "LD50", "Limit ppb", "Mechanism")
		fmt.Println(strings.Repeat("-", 100))
		for _, t := range rs {
			fmt.Printf("%-22s  %-14s  %10.3g  %10.3g  %s\n", t.Name, t.Type, t.LD50, t.RegulatoryLimit, truncate(t.Mechanism, 40))
		}
	case []types.ProteinRecord:
		fmt.Printf("%-18s  %-16s  %10s  %5s  %s\n", "Name", "Category", "MW (Da)", "pI", "Function")
		fmt.Println(strings.Repeat("-", 100))
		for _, p := range rs {
			fmt.Printf("%-18s  %-16s  %10.0f  %5.2f  %s\n", p.Name, p.Category, p.MolecularWeight, p.IsoelectricPoint, truncate(p.Function, 40))
		}
	case []types.EnzymeRecord:
		fmt.Printf("%-18s  %-6s  %-8s  %-10s  %s\n", "Name", "pH", "T (°C)", "t½ (h)", "Substrates")
		fmt.Println(strings.Repeat("-", 100))
		for _, e := range rs {
			subs := make([]string, 0, len(e.Substrates))
			for _, s := range e.Substrates {
				subs = append(subs, s.Substrate)
			}
			fmt.Printf("%-18s  %-6.1f  %-8.0f  %-10.1f  %s\n", e.Name, e.OptimalPH, e.OptimalTemperature, e.HalfLifeHours, strings.Join(subs, ", "))
		}
	case []types.RegulatoryLimit:
		fmt.Printf("%-20s  %-18s  %8s  %-6s  %s\n", "Region", "Compound", "Limit", "Unit", "Regulation")
		fmt.Println(strings.Repeat("-", 100))
		for _, l := range rs {
			fmt.Printf("%-20s  %-18s  %8.3g  %-6s  %s\n", l.Region, l.Compound, l.Limit, l.Unit, l.Regulation)
		}
	case []types.KnownInteraction:
		fmt.Printf("%-16s  %-16s  %8s  %-22s  %s\n", "Protein", "Toxin", "kcal/mol", "Type", "Site")
		fmt.Println(strings.Repeat("-", 100))
		for _, i := range rs {
			fmt.Printf("%-16s  %-16s  %8.2f  %-22s  %s\n", i.Protein, i.Toxin, i.BindingAffinity, i.InteractionType, i.BindingSite)
		}
	case []types.BindingSite:
		fmt.Printf("%-16s  %-16s  %8s  %s\n", "Protein", "Type", "Volume", "Residues")
		fmt.Println(strings.Repeat("-", 80))
		for _, s := range rs {
			fmt.Printf("%-16s  %-16s  %8.0f  %v\n", s.Protein, s.Type, s.Volume, s.Residues)
		}
	case []types.LiteratureNote:
		fmt.Printf("%-24s  %-16s  %s\n", "ID", "Subject", "Title")
		fmt.Println(strings.Repeat("-", 100))
		for _, n := range rs {
			fmt.Printf("%-24s  %-16s  %s\n", n.ID, n.Subject, truncate(n.Title, 56))
		}
	}
}

// --- composition subcommand ---

var catalogCompositionCmd = &cobra.Command{
	Use:   "composition <category>",
	Short: "Rate every protein-toxin pair relevant to a food category",
	Long: `Composition selects the reference proteins and toxins relevant to a
food category (matched by keyword: dairy, wheat_flour, processed_meat,
seafood, ...), rates every pair from toxin potency and protein
vulnerability or a documented binding, and reports how many of the toxins
each region regulates. No pipeline stage runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogComposition,
}

func runCatalogComposition(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := reference.Load(cfg.Reference.Dir)
	if err != nil {
		return err
	}
	report, err := interaction.Composition(cat, args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printComposition(report)
	return nil
}

func printComposition(r interaction.CompositionReport) {
	fmt.Printf("Category: %s\n", r.Category)
	fmt.Printf("Proteins: %s\n", strings.Join(r.Proteins, ", "))
	fmt.Printf("Toxins:   %s\n\n", strings.Join(r.Toxins, ", "))

	fmt.Printf("%-16s  %-16s  %-6s  %5s  %5s  %s\n", "Protein", "Toxin", "Risk", "Score", "Conf", "Source")
	fmt.Println(strings.Repeat("-", 80))
	for _, p := range r.Matrix {
		source := "estimated"
		if p.LiteratureSupport {
			source = p.Reference
		}
		fmt.Printf("%-16s  %-16s  %-6s  %5.2f  %5.2f  %s\n", p.Protein, p.Toxin, p.RiskLevel, p.RiskScore, p.Confidence, source)
	}
	fmt.Printf("\n%d pairs, %d high risk\n", len(r.Matrix), len(r.HighRisk))

	if len(r.Regulatory) > 0 {
		fmt.Println("\nRegulatory coverage:")
		for _, c := range r.Regulatory {
			fmt.Printf("  %-20s  %3.0f%%  %s\n", c.Region, 100*c.Coverage, strings.Join(c.Regulated, ", "))
		}
	}
}

// --- stats subcommand ---

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the reference tables",
	Args:  cobra.NoArgs,
	RunE:  runCatalogStats,
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := reference.Load(cfg.Reference.Dir)
	if err != nil {
		return err
	}
	stats := cat.Stats()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Printf("Proteins:           %d  %s\n", stats.Proteins, formatCounts(stats.ProteinCategories))
	fmt.Printf("Toxins:             %d  %s\n", stats.Toxins, formatCounts(stats.ToxinTypes))
	fmt.Printf("Enzymes:            %d\n", stats.Enzymes)
	fmt.Printf("Known interactions: %d\n", stats.KnownInteractions)
	fmt.Printf("Literature notes:   %d\n", stats.LiteratureNotes)
	fmt.Printf("Regions:            %s\n", strings.Join(stats.Regions, ", "))
	return nil
}

// formatCounts renders counts as "(a 1, b 2)" with keys sorted.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", k, counts[k]))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// --- index subcommand ---

var catalogIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the SQLite literature index",
	Long: `Index writes the curated literature notes, plus one note per toxin
mechanism and protein function, into the SQLite literature index with
FTS5. Unchanged notes are skipped on subsequent runs.`,
	RunE: runCatalogIndex,
}

func runCatalogIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := reference.Load(cfg.Reference.Dir)
	if err != nil {
		return err
	}
	store, err := literature.NewStore(indexPath(cfg), 0)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Index(context.Background(), cat.Notes(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return errors.Newf("%d note(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- search subcommand ---

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Query the literature index",
	Long: `Search queries the literature index with FTS5 full-text search,
structured filters (--subject, --tag), or both.`,
	RunE: runCatalogSearch,
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := literature.NewStore(indexPath(cfg), 0)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return errors.New("query or filter required: provide a search query, --subject, or --tag")
	}
	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("%-4s  %-16s  %-50s  %s\n", "Rank", "Subject", "Title", "Source")
	fmt.Println(strings.Repeat("-", 100))
	for i, r := range results {
		fmt.Printf("%-4d  %-16s  %-50s  %s\n", i+1, truncate(r.Subject, 16), truncate(r.Title, 50), r.Source)
	}
	fmt.Printf("\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export the literature index to YAML or JSON",
	Long: `Export writes the literature index (or a filtered subset) to a file.
The YAML form can be pasted into the literature section of a reference
overlay.`,
	RunE: runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := literature.NewStore(indexPath(cfg), 0)
	if err != nil {
		return err
	}
	defer store.Close()

	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("output")
	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if out == "" {
			out = "literature-export.yaml"
		}
		err = store.ExportYAML(context.Background(), opts, out)
	case "json":
		if out == "" {
			out = "literature-export.json"
		}
		err = store.ExportJSON(context.Background(), opts, out)
	default:
		return errors.Newf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", out)
	return nil
}

// --- shared helpers ---

func indexPath(cfg types.PipelineConfig) string {
	if cfg.Reference.IndexPath != "" {
		return cfg.Reference.IndexPath
	}
	return defaultIndexPath
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) literature.QueryOptions {
	subject, _ := cmd.Flags().GetString("subject")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	limit, _ := cmd.Flags().GetInt("limit")
	return literature.QueryOptions{
		Query:      strings.Join(args, " "),
		Subject:    types.NormalizeName(subject),
		Tags:       tags,
		MaxResults: limit,
	}
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func init() {
	catalogShowCmd.Flags().Bool("json", false, "output as JSON")
	catalogShowCmd.Flags().Bool("csv", false, "output as CSV (toxins, proteins, enzymes, regulations, interactions)")
	catalogCompositionCmd.Flags().Bool("json", false, "output as JSON")
	catalogStatsCmd.Flags().Bool("json", false, "output as JSON")

	for _, c := range []*cobra.Command{catalogSearchCmd, catalogExportCmd} {
		c.Flags().String("subject", "", "filter by protein or toxin name")
		c.Flags().StringSlice("tag", nil, "filter by tag (repeatable, AND semantics)")
	}
	catalogSearchCmd.Flags().Int("limit", 0, "maximum results (default 20)")
	catalogSearchCmd.Flags().Bool("json", false, "output as JSON")
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	catalogExportCmd.Flags().StringP("output", "o", "", "output file")

	catalogCmd.AddCommand(catalogShowCmd, catalogCompositionCmd, catalogStatsCmd, catalogIndexCmd, catalogSearchCmd, catalogExportCmd)
	rootCmd.AddCommand(catalogCmd)
}
