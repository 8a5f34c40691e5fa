// Package config handles the optional bcdump.toml rc file with
// per-user defaults. CLI flags always win over config values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is a parsed bcdump.toml.
type Config struct {
	Disassembly Disassembly `toml:"disassembly"`
	Shell       Shell       `toml:"shell"`
}

// Disassembly configures disassembler defaults.
type Disassembly struct {
	Pretty bool `toml:"pretty"`
}

// Shell configures the interactive session.
type Shell struct {
	Prompt string `toml:"prompt"`
}

// Default returns the configuration used when no rc file exists.
func Default() *Config {
	return &Config{
		Disassembly: Disassembly{Pretty: true},
		Shell:       Shell{Prompt: "bcdump> "},
	}
}

// Load parses a bcdump.toml file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return c, nil
}

// Discover looks for bcdump.toml in the working directory, then under
// the user config directory. A missing file is not an error: the
// defaults are returned.
func Discover() (*Config, error) {
	candidates := []string{"bcdump.toml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "bcdump", "bcdump.toml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}
