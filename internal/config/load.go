package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadFile reads a TOML partial-settings file and merges it onto
// Defaults(). A missing or empty file yields Defaults() unchanged:
// "use the compiled-in defaults" rather than an error.
func LoadFile(path string) (Settings, error) {
	defaults := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return Settings{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var partial Settings
	if err := toml.Unmarshal(data, &partial); err != nil {
		return Settings{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return Merge(defaults, partial), nil
}
