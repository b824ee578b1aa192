package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileName is the configuration file name looked up in the search path.
const FileName = "tgapi.yaml"

// SearchPaths returns the candidate configuration files in lookup order:
// $XDG_CONFIG_HOME/tgapi/tgapi.yaml (or the OS user config dir), then
// ./tgapi.yaml.
func SearchPaths() []string {
	var paths []string
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if d, err := os.UserConfigDir(); err == nil {
			dir = d
		}
	}
	if dir != "" {
		paths = append(paths, filepath.Join(dir, "tgapi", FileName))
	}
	return append(paths, FileName)
}

// Resolve loads the configuration. An explicit path must exist. Without
// one, the first existing file from SearchPaths is used; when none exists
// the built-in defaults are returned with an empty path.
func Resolve(explicit string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		if err != nil {
			return nil, "", err
		}
		return cfg, explicit, nil
	}

	for _, p := range SearchPaths() {
		_, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("config: stat %s: %w", p, err)
		}
		cfg, err := Load(p)
		if err != nil {
			return nil, "", err
		}
		return cfg, p, nil
	}

	return Default(), "", nil
}
