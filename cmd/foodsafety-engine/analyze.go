// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/foodsafety-engine/internal/pipeline"
	"github.com/pdiddy/foodsafety-engine/internal/report"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [sample-file]",
	Short: "Run the full pipeline on a food sample and print the report",
	Long: `Analyze reads a food sample from a YAML or JSON file, a built-in preset
(--preset), or flags, runs every pipeline stage, and writes the safety
report as text, JSON, or YAML.

Examples:
  foodsafety-engine analyze milk.yaml --format json
  foodsafety-engine analyze --preset dairy_milk
  foodsafety-engine analyze --id T-1 --name "Milk" --category dairy \
      --proteins casein --toxins aflatoxin_b1 --temperature 72 --ph 6.5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	sample, err := sampleFromInput(cmd, args)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	deps, closeDeps, err := pipeline.NewDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	r, err := pipeline.Run(ctx, sample, cfg, deps)
	if err != nil {
		return err
	}

	out, closeOut, err := outputWriter(mustString(cmd, "output"))
	if err != nil {
		return err
	}
	defer closeOut()
	return report.Render(out, r, format)
}

// sampleFromInput builds the sample from a file argument, a preset, or the
// sample flags, in that order of precedence.
func sampleFromInput(cmd *cobra.Command, args []string) (types.FoodSample, error) {
	if len(args) == 1 {
		return readSample(args[0])
	}
	if preset := mustString(cmd, "preset"); preset != "" {
		s, ok := types.SamplePresets[preset]
		if !ok {
			return types.FoodSample{}, errors.WithHintf(
				errors.Newf("unknown preset %q", preset),
				"available presets: %s", strings.Join(presetNames(), ", "),
			)
		}
		return s, nil
	}

	f := cmd.Flags()
	s := types.FoodSample{}
	s.ID, _ = f.GetString("id")
	s.Name, _ = f.GetString("name")
	s.Category, _ = f.GetString("category")
	s.Origin, _ = f.GetString("origin")
	s.Proteins, _ = f.GetStringSlice("proteins")
	s.SuspectedToxins, _ = f.GetStringSlice("toxins")
	s.Conditions.Temperature, _ = f.GetFloat64("temperature")
	s.Conditions.PH, _ = f.GetFloat64("ph")
	s.Conditions.DurationMinutes, _ = f.GetFloat64("duration")
	s.Conditions.IonicStrength, _ = f.GetFloat64("ionic-strength")
	levels, _ := f.GetStringToString("detected")
	if len(levels) > 0 {
		s.DetectedLevels = make(map[string]float64, len(levels))
		for k, v := range levels {
			var ppb float64
			if _, err := fmt.Sscanf(v, "%g", &ppb); err != nil {
				return s, errors.Wrapf(types.ErrMalformedSample, "detected level %s=%q is not a number", k, v)
			}
			s.DetectedLevels[k] = ppb
		}
	}
	return s, nil
}

// readSample decodes a YAML or JSON sample file. "-" reads stdin.
func readSample(path string) (types.FoodSample, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return types.FoodSample{}, errors.Wrapf(err, "reading sample %s", path)
	}

	var s types.FoodSample
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(types.ErrMalformedSample, "parsing %s: %v", path, err)
	}
	return s, nil
}

func presetNames() []string {
	names := make([]string, 0, len(types.SamplePresets))
	for name := range types.SamplePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func outputWriter(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "creating %s", path)
	}
	return f, f.Close, nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func init() {
	f := analyzeCmd.Flags()
	f.String("preset", "", "built-in sample: "+strings.Join(presetNames(), ", "))
	f.String("id", "", "sample id")
	f.String("name", "", "sample name")
	f.String("category", "", "food category (dairy, grain, meat, ...)")
	f.String("origin", "", "sample provenance")
	f.StringSlice("proteins", nil, "protein names, in analysis order")
	f.StringSlice("toxins", nil, "suspected toxin names")
	f.Float64("temperature", 25, "processing temperature in °C")
	f.Float64("ph", 7, "matrix pH")
	f.Float64("duration", 0, "processing duration in minutes")
	f.Float64("ionic-strength", 0, "ionic strength in mol/L (0 uses 0.15)")
	f.StringToString("detected", nil, "measured toxin levels in ppb, e.g. aflatoxin_b1=1.5")
	f.StringP("format", "f", "text", "output format: json, yaml, or text")
	f.StringP("output", "o", "", "write the report to a file instead of stdout")

	f.String("region", "", "regulatory region: us_fda, eu_efsa, or codex_alimentarius")
	f.String("narrator", "", "narrative provider: template or openai")
	f.String("predictor", "", "structure predictor: none, container, or esmatlas")
	f.String("docking", "", "docking backend: none or container")
	f.Bool("pubmed", false, "query PubMed during research")

	_ = viper.BindPFlag("safety.region", f.Lookup("region"))
	_ = viper.BindPFlag("narrative.provider", f.Lookup("narrator"))
	_ = viper.BindPFlag("protein.predictor", f.Lookup("predictor"))
	_ = viper.BindPFlag("interaction.docking", f.Lookup("docking"))
	_ = viper.BindPFlag("research.enable_pubmed", f.Lookup("pubmed"))

	rootCmd.AddCommand(analyzeCmd)
}
