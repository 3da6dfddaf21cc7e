package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultCommand is the strip state applied at startup and whenever the
// config file changes. It is a flat TOML table, kept separate from the
// JSON command carried on the event bus.
type DefaultCommand struct {
	Enable    bool    `toml:"enable"`
	Frequency float64 `toml:"frequency"`
	Scale     float64 `toml:"scale"`
	Red       uint8   `toml:"red"`
	Green     uint8   `toml:"green"`
	Blue      uint8   `toml:"blue"`
}

// File holds the parts of the config file that can change at runtime.
type File struct {
	Logging map[string]string `toml:"logging"`
	Command *DefaultCommand   `toml:"command"`
}

// LoadFile reads the reloadable sections of the config file.
// A missing [command] table leaves Command nil.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}

	// Logging mixes strings with nested tables in some files, so decode it
	// leniently and keep only string values.
	var raw struct {
		Logging map[string]any  `toml:"logging"`
		Command *DefaultCommand `toml:"command"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return File{}, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	f := File{Command: raw.Command}
	if len(raw.Logging) > 0 {
		f.Logging = make(map[string]string, len(raw.Logging))
		for k, v := range raw.Logging {
			if s, ok := v.(string); ok {
				f.Logging[k] = s
			}
		}
	}
	return f, nil
}

// ModuleLevels returns the per-module entries of the logging table.
func (f File) ModuleLevels() map[string]string {
	levels := make(map[string]string)
	for k, v := range f.Logging {
		if k == "level" || k == "format" {
			continue
		}
		levels[k] = v
	}
	return levels
}
