// Package config loads typed configuration from the environment and from
// optional TOML override files.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into cfg using `env` struct tags.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadTOMLFile overlays the TOML document at path onto cfg. Keys present in
// the file replace the current values; absent keys leave them untouched.
// Unknown keys are an error so typos do not silently fall back to defaults.
func LoadTOMLFile(path string, cfg any) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("decode %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}
