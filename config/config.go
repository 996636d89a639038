// Package config loads the settings of the cj command.
//
// Settings come from defaults, then an optional YAML file, then CJ_* environment
// variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	journey "github.com/etnz/cryptojourney"
	"gopkg.in/yaml.v3"
)

type Config struct {
	StoreDir     string        `yaml:"store_dir" env:"CJ_STORE_DIR"`
	RedisAddr    string        `yaml:"redis_addr" env:"CJ_REDIS_ADDR"`
	RedisPrefix  string        `yaml:"redis_prefix" env:"CJ_REDIS_PREFIX"`
	APIBase      string        `yaml:"api_base" env:"CJ_API_BASE"`
	RateAPI      string        `yaml:"rate_api" env:"CJ_RATE_API"`
	Timeout      time.Duration `yaml:"timeout" env:"CJ_TIMEOUT"`
	Backoff      time.Duration `yaml:"backoff" env:"CJ_BACKOFF"`
	MaxAttempts  int           `yaml:"max_attempts" env:"CJ_MAX_ATTEMPTS"`
	SyncInterval time.Duration `yaml:"sync_interval" env:"CJ_SYNC_INTERVAL"`
	FocusDelay   time.Duration `yaml:"focus_delay" env:"CJ_FOCUS_DELAY"`
	// Offline disables the exchange rate lookup.
	Offline bool `yaml:"offline" env:"CJ_OFFLINE"`
	// Token and GistID override the stored credential for the session.
	Token  string `yaml:"token" env:"CJ_TOKEN"`
	GistID string `yaml:"gist_id" env:"CJ_GIST_ID"`
}

// Default returns the built-in settings.
func Default() Config {
	dir := ".cryptojourney"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".local", "share", "cryptojourney")
	}
	return Config{
		StoreDir:     dir,
		RedisPrefix:  "cj:",
		APIBase:      "https://api.github.com",
		RateAPI:      "https://api.exchangerate-api.com/v4/latest/USD",
		Timeout:      10 * time.Second,
		Backoff:      time.Second,
		MaxAttempts:  2,
		SyncInterval: time.Minute,
		FocusDelay:   time.Second,
	}
}

// DefaultPath returns where the configuration file is looked for when none is
// given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cryptojourney", "config.yaml")
}

// Load returns the settings, reading the file at path. An empty path means
// DefaultPath, which may not exist.
func Load(path string) (Config, error) {
	cfg := Default()
	optional := path == ""
	if optional {
		path = DefaultPath()
	}
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && optional:
		case err != nil:
			return cfg, fmt.Errorf("cannot read config file: %w", err)
		default:
			if err := Decode(bytes.NewReader(content), &cfg); err != nil {
				return cfg, fmt.Errorf("config file %q: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: environment: %w", journey.ErrValidation, err)
	}
	return cfg, cfg.Validate()
}

// Decode reads YAML settings from r over cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", journey.ErrParse, err)
	}
	return nil
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	var errs []error
	if c.StoreDir == "" && c.RedisAddr == "" {
		errs = append(errs, errors.New("store_dir or redis_addr is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %v", c.Timeout))
	}
	if c.Backoff < 0 {
		errs = append(errs, fmt.Errorf("backoff cannot be negative, got %v", c.Backoff))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts))
	}
	if c.SyncInterval <= 0 {
		errs = append(errs, fmt.Errorf("sync_interval must be positive, got %v", c.SyncInterval))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", journey.ErrValidation, err)
	}
	return nil
}

// Credential returns the credential set in the settings, possibly empty.
func (c Config) Credential() journey.Credential {
	return journey.Credential{Token: c.Token, RemoteID: c.GistID}
}

// Encode writes cfg as YAML to w.
func (c Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("cannot encode config: %w", err)
	}
	return enc.Close()
}
