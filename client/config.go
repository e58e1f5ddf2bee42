package client

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	claims "github.com/goliatone/go-claims"
)

// Duration is a time.Duration that unmarshals from the usual "30s" string
// form in YAML.
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// BreakerConfig tunes the circuit breaker guarding the claims service.
type BreakerConfig struct {
	// MaxFailures is how many consecutive failures trip the circuit.
	MaxFailures uint32 `yaml:"max_failures"`
	// Timeout is how long the circuit stays open before probing again.
	Timeout Duration `yaml:"timeout"`
	// HalfOpenMaxSuccesses is how many probe successes close the circuit.
	HalfOpenMaxSuccesses uint32 `yaml:"half_open_max_successes"`
}

// Config holds everything needed to talk to the claims service.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout Duration      `yaml:"timeout"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// DefaultConfig returns the baseline configuration; BaseURL still has to
// come from the file or the environment.
func DefaultConfig() Config {
	return Config{
		Timeout: Duration(30 * time.Second),
		Breaker: BreakerConfig{
			MaxFailures:          3,
			Timeout:              Duration(30 * time.Second),
			HalfOpenMaxSuccesses: 2,
		},
	}
}

// LoadConfig reads a YAML config file, layers environment overrides on top
// and validates the result. An empty path skips the file and resolves from
// defaults plus environment only.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, claims.CloneError(claims.ErrUnknown, "read config file", err, map[string]any{
				"path": path,
			})
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, claims.CloneError(claims.ErrUnknown, "parse config file", err, map[string]any{
				"path": path,
			})
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv layers CLAIMS_* environment variables over the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("CLAIMS_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CLAIMS_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("CLAIMS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = Duration(d)
		}
	}
}

// Validate checks the resolved configuration is usable.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return claims.CloneError(claims.ErrUnknown, "base_url is required", nil, nil)
	}
	if c.Timeout <= 0 {
		return claims.CloneError(claims.ErrUnknown, "timeout must be positive", nil, nil)
	}
	return nil
}
