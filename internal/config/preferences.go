package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/section-sniper/internal/enrollment"
)

// PreferencesFile is the on-disk form of the per-course section preferences:
//
//	version: 1
//	courses:
//	  "1372-1-1": [B, K]
type PreferencesFile struct {
	Version int                 `yaml:"version"`
	Courses map[string][]string `yaml:"courses"`
}

func LoadPreferences(path string) (enrollment.Preferences, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return enrollment.Preferences{}, err
	}
	return ParsePreferences(b)
}

func ParsePreferences(b []byte) (enrollment.Preferences, error) {
	var f PreferencesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return enrollment.Preferences{}, fmt.Errorf("parse preferences: %w", err)
	}
	if f.Version != 1 {
		return enrollment.Preferences{}, fmt.Errorf("unsupported preferences version: %d", f.Version)
	}
	return enrollment.NewPreferences(f.Courses), nil
}
