// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/foodsafety-engine/internal/pipeline"
	"github.com/pdiddy/foodsafety-engine/internal/research"
)

var researchCmd = &cobra.Command{
	Use:   "research [sample-file]",
	Short: "Run only the research stage and print its findings",
	Long: `Research gathers context for the proteins and toxins of a sample from
the reference catalog, the literature index (when configured), and PubMed
(when enabled). The sample is given as for analyze.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	sample, err := sampleFromInput(cmd, args)
	if err != nil {
		return err
	}
	if err := sample.Validate(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if pubmed, _ := cmd.Flags().GetBool("pubmed"); pubmed {
		cfg.Research.EnablePubMed = true
	}

	ctx := context.Background()
	deps, closeDeps, err := pipeline.NewDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	out := research.Run(ctx, sample.WithDefaults(), deps.Catalog, deps.Backends)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("%-10s  %-16s  %s\n", "Source", "Subject", "Title")
	fmt.Println(strings.Repeat("-", 100))
	for _, f := range out.Research.Findings {
		fmt.Printf("%-10s  %-16s  %s\n", f.Source, truncate(f.Subject, 16), truncate(f.Title, 70))
	}
	fmt.Printf("\n%d findings from %s\n", len(out.Research.Findings), strings.Join(out.Research.Sources, ", "))
	for _, e := range out.Research.Errors {
		fmt.Fprintln(os.Stderr, "backend error:", e)
	}
	for _, n := range out.Result.Notes {
		fmt.Fprintln(os.Stderr, "note:", n)
	}
	return nil
}

func init() {
	f := researchCmd.Flags()
	f.String("preset", "", "built-in sample: "+strings.Join(presetNames(), ", "))
	f.String("id", "research", "sample id")
	f.String("name", "research", "sample name")
	f.String("category", "unspecified", "food category")
	f.String("origin", "", "sample provenance")
	f.StringSlice("proteins", nil, "protein names")
	f.StringSlice("toxins", nil, "suspected toxin names")
	f.Float64("temperature", 25, "processing temperature in °C")
	f.Float64("ph", 7, "matrix pH")
	f.Float64("duration", 0, "processing duration in minutes")
	f.Float64("ionic-strength", 0, "ionic strength in mol/L")
	f.StringToString("detected", nil, "measured toxin levels in ppb")
	f.Bool("pubmed", false, "query PubMed")
	f.Bool("json", false, "output as JSON")

	rootCmd.AddCommand(researchCmd)
}
