// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// presets are the built-in samples exercised by Presets.
var presets = []string{"dairy_milk", "wheat_flour", "chicken_meat"}

// Presets runs the full pipeline on every built-in sample and writes one
// JSON report per sample into reports/.
func Presets() error {
	mg.Deps(Init, Build)
	for _, p := range presets {
		out := filepath.Join("reports", p+".json")
		if err := sh.RunV(binPath, "analyze", "--preset", p, "--format", "json", "--output", out); err != nil {
			return fmt.Errorf("analyzing %s: %w", p, err)
		}
		fmt.Println("  ", out)
	}
	return nil
}

// Serve builds the CLI and starts the HTTP API on :8080.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "serve", "--addr", ":8080")
}
