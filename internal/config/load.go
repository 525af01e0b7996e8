package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded is the outcome of resolving and reading the config file. Warnings
// are non-fatal; Exists is false when the file was absent and defaults
// were used instead.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load reads the config at explicitPath, or at the XDG default when the
// path is empty. A missing file is not an error: defaults apply and a
// warning records the fallback.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	defaults := Default()
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		warning := Warning{Message: fmt.Sprintf("config file %q not found; using defaults", path)}
		return Loaded{Path: path, Config: defaults, Warnings: []Warning{warning}}, nil
	}
	if err != nil {
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, warnings, err := Parse(string(raw), defaults)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}

	return Loaded{Path: path, Config: cfg, Warnings: warnings, Exists: true}, nil
}
