// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Index builds the CLI and refreshes the SQLite literature index at
// data/literature.db from the built-in reference tables.
func Index() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "catalog", "index", "--index", "data/literature.db")
}
