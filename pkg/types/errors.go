// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "github.com/cockroachdb/errors"

// Sentinel errors for the three failure classes of a run. Wrap them with
// errors.Wrap to add context and check them with errors.Is.
var (
	// ErrMalformedSample rejects a sample before the pipeline starts.
	ErrMalformedSample = errors.New("malformed sample")

	// ErrMissingData marks a protein, toxin, or enzyme absent from the
	// reference tables. Stages absorb it into a degraded metric.
	ErrMissingData = errors.New("missing reference data")

	// ErrToolUnavailable marks an external predictor, docking tool, or
	// narrator that could not be reached. Stages absorb it into a degraded
	// metric.
	ErrToolUnavailable = errors.New("external tool unavailable")
)

// ErrInvalidConfig rejects a pipeline configuration before a run starts.
var ErrInvalidConfig = errors.New("invalid configuration")
