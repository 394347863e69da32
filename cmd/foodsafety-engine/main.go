// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the foodsafety-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/foodsafety-engine/internal/logging"
	"github.com/pdiddy/foodsafety-engine/internal/secrets"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the foodsafety-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "foodsafety-engine",
	Short: "Molecular food safety analysis pipeline",
	Long: `foodsafety-engine analyzes a food sample description and produces a
safety report. A run researches the named proteins and toxins, predicts
protein properties, estimates protein-toxin binding, simulates enzyme
kinetics under the processing conditions, and scores the result against
regulatory limits and HACCP control points.

External tools (structure prediction, docking, LLM narrative) are optional;
when one is unavailable the affected metric falls back to a documented
default and is flagged degraded.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logJSON, _ := cmd.Flags().GetBool("log-json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		if err := logging.Initialize(logJSON, verbose); err != nil {
			return errors.Wrap(err, "initializing logger")
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logging.Logger.Debugw("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./foodsafety-engine.yaml or ~/.config/foodsafety-engine/foodsafety-engine.yaml)")
	pf.String("secrets-dir", ".secrets/", "directory of API key files (ncbi-api-key, openai-api-key)")
	pf.Bool("log-json", false, "write logs as JSON")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.String("reference-dir", "", "directory overlaying the built-in reference tables")
	pf.String("index", "", "SQLite literature index path")

	_ = viper.BindPFlag("reference.dir", pf.Lookup("reference-dir"))
	_ = viper.BindPFlag("reference.index_path", pf.Lookup("index"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("foodsafety-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "foodsafety-engine"))
		}
	}

	viper.SetEnvPrefix("FOODSAFETY_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := registerDefaults(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: registering config defaults:", err)
	}
	// Omitted from the marshaled defaults because they are empty.
	for _, key := range []string{"narrative.api_key", "narrative.base_url", "research.pubmed_api_key", "research.pubmed_email"} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// registerDefaults declares every key of the default pipeline config so
// that AutomaticEnv can override nested keys such as
// FOODSAFETY_ENGINE_SAFETY_REGION.
func registerDefaults() error {
	raw, err := yaml.Marshal(types.DefaultPipelineConfig())
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return err
	}
	setDefaults("", tree)
	return nil
}

func setDefaults(prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			setDefaults(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// loadConfig returns the pipeline configuration: defaults, then the config
// file, environment, and bound flags, then secrets for empty credentials.
func loadConfig() (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()
	// Slices come back through the registered defaults; decoding into the
	// default slices would keep their trailing elements.
	cfg.Safety.Thresholds = nil
	cfg.Server.AllowedOrigins = nil
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "parsing configuration")
	}
	if err := cfg.Safety.Validate(); err != nil {
		return cfg, err
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}
