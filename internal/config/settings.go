package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the optional YAML settings file
type Settings struct {
	Timeout      time.Duration `yaml:"timeout"`
	RetryMax     *int          `yaml:"retry_max"`
	RetryWaitMin time.Duration `yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `yaml:"retry_wait_max"`
	ObjectType   string        `yaml:"object_type"`
	FormatNote   string        `yaml:"format_note"`
	HandlePrefix string        `yaml:"handle_prefix"`

	Environments map[Environment]Target `yaml:"environments"`
}

// Target holds per-environment connection defaults. Passwords belong in the
// environment, not here.
type Target struct {
	URL        string `yaml:"url"`
	Username   string `yaml:"username"`
	Repository int    `yaml:"repository"`
}

// LoadSettings reads a YAML settings file
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read settings file: %v", ErrConfig, err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: failed to parse settings file %s: %v", ErrConfig, path, err)
	}

	for env := range s.Environments {
		parsed, err := ParseEnvironment(string(env))
		if err != nil {
			return nil, fmt.Errorf("settings file %s: %w", path, err)
		}
		if parsed != env {
			return nil, fmt.Errorf("%w: settings file %s: environment keys must be lowercase, got %q", ErrConfig, path, env)
		}
	}

	return &s, nil
}

func (s Settings) apply(env Environment, cfg *Config) {
	as := &cfg.ArchivesSpace
	if s.Timeout > 0 {
		as.Timeout = s.Timeout
	}
	if s.RetryMax != nil {
		as.RetryMax = *s.RetryMax
	}
	if s.RetryWaitMin > 0 {
		as.RetryWaitMin = s.RetryWaitMin
	}
	if s.RetryWaitMax > 0 {
		as.RetryWaitMax = s.RetryWaitMax
	}

	cfg.Builder.ObjectType = s.ObjectType
	cfg.Builder.FormatNote = s.FormatNote
	cfg.Builder.HandlePrefix = s.HandlePrefix

	if t, ok := s.Environments[env]; ok {
		as.BaseURL = t.URL
		as.Username = t.Username
		as.Repository = t.Repository
	}
}
