// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging holds the process-wide structured logger.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for structured log lines.
const (
	FieldRunID      = "run_id"
	FieldSampleID   = "sample_id"
	FieldStage      = "stage"
	FieldDurationMS = "duration_ms"
	FieldDegraded   = "degraded"
	FieldBackend    = "backend"
	FieldSubject    = "subject"
	FieldError      = "error"
	FieldStatus     = "status"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldAddress    = "address"
)

var (
	// Logger is the global logger. It is a no-op until Initialize runs.
	Logger *zap.SugaredLogger

	// JSONOutput records whether Initialize selected JSON encoding.
	JSONOutput bool
)

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger. Console output goes to stderr so
// that command output on stdout stays machine readable.
func Initialize(jsonOutput, verbose bool) error {
	JSONOutput = jsonOutput

	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	var (
		zapLogger *zap.Logger
		err       error
	)
	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		zapLogger, err = config.Build()
	} else {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapLogger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(os.Stderr),
			level,
		))
	}
	if err != nil {
		return err
	}

	Logger = zapLogger.Sugar()
	return nil
}

// Stage returns a child logger tagged with a run and stage.
func Stage(runID, stage string) *zap.SugaredLogger {
	return Logger.With(FieldRunID, runID, FieldStage, stage)
}
