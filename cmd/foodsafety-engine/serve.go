// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/foodsafety-engine/internal/metrics"
	"github.com/pdiddy/foodsafety-engine/internal/pipeline"
	"github.com/pdiddy/foodsafety-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis pipeline as a JSON HTTP API",
	Long: `Serve starts an HTTP server:

  POST /v1/analyses        FoodSample JSON in, SafetyReport JSON out
  GET  /v1/catalog         reference table kinds and regions
  GET  /v1/catalog/{kind}  one reference table
  GET  /v1/samples         built-in sample presets
  GET  /health             liveness
  GET  /metrics            Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, closeDeps, err := pipeline.NewDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	return server.New(cfg, deps, metrics.New()).ListenAndServe(ctx)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
