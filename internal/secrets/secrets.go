// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files. Each
// file is one secret: the filename is the key name and the trimmed contents
// are the value.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/internal/logging"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// Recognized key files.
const (
	NCBIAPIKey   = "ncbi-api-key"
	NCBIEmail    = "ncbi-email"
	OpenAIAPIKey = "openai-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory yields an empty map. Unreadable files are
// logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrapf(err, "reading secrets directory %s", dir)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logging.Logger.Warnw("could not read secret", "name", name, logging.FieldError, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills empty credential fields of cfg from secrets. Values already
// set by the config file or environment win.
func Apply(cfg *types.PipelineConfig, secrets map[string]string) {
	fill := func(field *string, key string) {
		if *field == "" {
			*field = secrets[key]
		}
	}
	fill(&cfg.Research.PubMedAPIKey, NCBIAPIKey)
	fill(&cfg.Research.PubMedEmail, NCBIEmail)
	fill(&cfg.Narrative.APIKey, OpenAIAPIKey)
}
