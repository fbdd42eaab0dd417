// Package config loads the optional .cqliterc file that tweaks the
// REPL's startup banner and prompt. Absence of the file is not an
// error: every field has a sensible default.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the handful of REPL-facing settings a user may
// override from .cqliterc.
type Config struct {
	Prompt string `yaml:"prompt"`
	Banner string `yaml:"banner"`
}

// Default returns the built-in configuration used when no .cqliterc
// file is present or a field is left unset in one that is.
func Default() Config {
	return Config{
		Prompt: "cqlite > ",
		Banner: "cqlite",
	}
}

// Load reads path (typically ".cqliterc") and overlays it onto
// Default(). A missing file returns Default() unchanged; a present
// but malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %q", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: parse %q", path)
	}
	return cfg, nil
}
