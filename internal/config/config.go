// Package config loads the host's small TOML configuration file (§3.8),
// promoting github.com/BurntSushi/toml from an indirect dependency of the
// teacher (pulled in transitively by fyne's preferences storage) to a
// direct, exercised one.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds every host-configurable knob named in the specification.
type Config struct {
	SampleRate   uint32 `toml:"sample_rate"`
	DumpPath     string `toml:"dump_path"`
	LogLevel     string `toml:"log_level"`
	ReverbOnBoot bool   `toml:"reverb_on_boot"`
}

// Default returns the configuration a host runs with when no file is
// present: 44.1 kHz, no dump, info-level logging, reverb enabled.
func Default() Config {
	return Config{
		SampleRate:   44100,
		DumpPath:     "",
		LogLevel:     "info",
		ReverbOnBoot: true,
	}
}

// Load reads and parses the TOML file at path, starting from Default() so a
// file that only sets one field still gets sane values for the rest. A
// missing file is not an error; Load silently returns the defaults. A
// present but unparseable file returns a wrapped error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
