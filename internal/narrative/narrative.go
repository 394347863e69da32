// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package narrative turns an assembled safety report into prose. The
// template narrator renders offline; the OpenAI narrator asks an
// OpenAI-compatible chat completion endpoint (OpenAI, Ollama, vLLM) to
// write the summary.
package narrative

import (
	"context"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Narrator writes the narrative section of a report. Implementations must
// not modify the report.
type Narrator interface {
	Name() string
	Narrate(ctx context.Context, r *types.SafetyReport) (string, error)
}

// New returns the narrator selected by cfg. Unknown providers fall back to
// the template narrator.
func New(cfg types.NarrativeConfig) Narrator {
	if cfg.Provider == types.NarratorOpenAI {
		return NewOpenAINarrator(cfg)
	}
	return Template{}
}
