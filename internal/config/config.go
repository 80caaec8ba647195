// Package config resolves the deployment target, credentials and submission
// tuning for a run. Values come from an optional YAML settings file and are
// overridden by environment variables (loaded from .env by the CLI).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/daobatch/internal/aspace"
	"github.com/lehigh-university-libraries/daobatch/internal/dao"
)

// ErrConfig is returned for any missing or invalid setting; it is fatal to a run
var ErrConfig = errors.New("invalid configuration")

// Environment is one of the named ArchivesSpace deployments
type Environment string

const (
	Local Environment = "local"
	Test  Environment = "test"
	Prod  Environment = "prod"
)

// Environments is the closed set of deployment targets
var Environments = []Environment{Local, Test, Prod}

// ParseEnvironment validates a target name
func ParseEnvironment(name string) (Environment, error) {
	for _, env := range Environments {
		if strings.EqualFold(name, string(env)) {
			return env, nil
		}
	}
	return "", fmt.Errorf("%w: unknown environment %q (expected one of local, test, prod)", ErrConfig, name)
}

func (e Environment) envPrefix() string {
	return "ASPACE_" + strings.ToUpper(string(e)) + "_"
}

const (
	DefaultTimeout      = 30 * time.Second
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = time.Second
	DefaultRetryWaitMax = 30 * time.Second
)

// Config is everything a run needs besides its input files
type Config struct {
	Environment   Environment
	ArchivesSpace aspace.Config
	Builder       dao.Options
}

// Load resolves the configuration for env. settingsPath may be empty, in
// which case DAOBATCH_CONFIG is consulted; a missing settings file is not an error
// unless it was named explicitly.
func Load(env Environment, settingsPath string) (*Config, error) {
	explicit := settingsPath != ""
	if !explicit {
		settingsPath = os.Getenv("DAOBATCH_CONFIG")
		explicit = settingsPath != ""
	}

	var settings Settings
	if explicit {
		s, err := LoadSettings(settingsPath)
		if err != nil {
			return nil, err
		}
		settings = *s
	}

	cfg := &Config{
		Environment: env,
		ArchivesSpace: aspace.Config{
			Timeout:      DefaultTimeout,
			RetryMax:     DefaultRetryMax,
			RetryWaitMin: DefaultRetryWaitMin,
			RetryWaitMax: DefaultRetryWaitMax,
		},
	}
	settings.apply(env, cfg)

	if err := applyEnv(env, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(env Environment, cfg *Config) error {
	prefix := env.envPrefix()
	as := &cfg.ArchivesSpace

	setString(&as.BaseURL, prefix+"URL")
	setString(&as.Username, prefix+"USERNAME")
	setString(&as.Password, prefix+"PASSWORD")
	setString(&cfg.Builder.HandlePrefix, "HANDLE_PREFIX")
	setString(&cfg.Builder.ObjectType, "DAOBATCH_OBJECT_TYPE")
	setString(&cfg.Builder.FormatNote, "DAOBATCH_FORMAT_NOTE")

	if err := setInt(&as.Repository, prefix+"REPOSITORY"); err != nil {
		return err
	}
	if err := setInt(&as.RetryMax, "DAOBATCH_RETRY_MAX"); err != nil {
		return err
	}
	if err := setDuration(&as.Timeout, "DAOBATCH_TIMEOUT"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer, got %q", ErrConfig, key, v)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s must be a duration, got %q", ErrConfig, key, v)
	}
	*dst = d
	return nil
}

// Validate checks that the target can be reached and the tuning is sane
func (c *Config) Validate() error {
	as := c.ArchivesSpace
	prefix := c.Environment.envPrefix()

	var problems []string
	if as.BaseURL == "" {
		problems = append(problems, prefix+"URL is not set")
	} else if u, err := url.Parse(as.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("%sURL %q is not an http(s) URL", prefix, as.BaseURL))
	}
	if as.Username == "" {
		problems = append(problems, prefix+"USERNAME is not set")
	}
	if as.Password == "" {
		problems = append(problems, prefix+"PASSWORD is not set")
	}
	if as.Repository <= 0 {
		problems = append(problems, prefix+"REPOSITORY must be a positive repository id")
	}
	if as.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if as.RetryMax < 0 {
		problems = append(problems, "retry_max must not be negative")
	}
	if as.RetryWaitMin > as.RetryWaitMax {
		problems = append(problems, "retry_wait_min must not exceed retry_wait_max")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w for %s: %s", ErrConfig, c.Environment, strings.Join(problems, "; "))
	}
	return nil
}
