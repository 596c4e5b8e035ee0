// Package config loads and validates the daemon's two-section INI file plus
// its environment variable overlay at startup. Every other package receives
// typed values — nothing reads the ini.File outside this package, and the
// only environment reads elsewhere are the ENV, DEBUG and LOG_STDOUT logging
// knobs cmd/schedulerd reads before Load runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/ini.v1"
)

// Config is the fully-parsed, validated application configuration.
type Config struct {
	// ── [General] ─────────────────────────────────────────────────────────────
	Port         uint16
	PostInterval time.Duration
	DryRun       bool
	Debug        bool

	// ── [RedditAPI] ───────────────────────────────────────────────────────────
	Username     string
	Password     string
	ClientID     string
	ClientSecret string

	// ── Environment overlay ───────────────────────────────────────────────────
	LogStdout bool
	DBPath    string
}

// Load resolves the config file from the search path, parses its two
// sections, and applies the environment variable overlay from spec.md §6.
// Missing file or missing required key is a fatal bootstrap error (spec.md
// §7 taxonomy #5): Load returns a non-nil error and the caller is expected
// to log it and exit non-zero, never to run with a partial config.
func Load() (*Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %q: %w", path, err)
	}

	c := &Config{}
	if err := c.parseGeneral(f); err != nil {
		return nil, err
	}
	if err := c.parseRedditAPI(f); err != nil {
		return nil, err
	}
	c.applyEnvOverlay()

	return c, nil
}

// resolveConfigPath implements the search order from spec.md §6:
// $CONFIG_PATH, then $HOME/.config/reddit-scheduler/config.ini.
func resolveConfigPath() (string, error) {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "reddit-scheduler", "config.ini"), nil
}

func (c *Config) parseGeneral(f *ini.File) error {
	sec, err := f.GetSection("General")
	if err != nil {
		return fmt.Errorf("config: missing [General] section: %w", err)
	}

	port, err := sec.Key("Port").Uint()
	if err != nil || port == 0 || port > 65535 {
		return fmt.Errorf("config: General.Port is required and must be a uint16")
	}
	c.Port = uint16(port)

	interval, err := sec.Key("PostInterval").Float64()
	if err != nil || interval <= 0 {
		return fmt.Errorf("config: General.PostInterval is required and must be a positive number of seconds")
	}
	c.PostInterval = time.Duration(interval * float64(time.Second))

	dryRun, err := sec.Key("DryRun").Bool()
	if err != nil {
		return fmt.Errorf("config: General.DryRun is required and must be a bool")
	}
	c.DryRun = dryRun

	// Debug is optional; absent means false.
	c.Debug, _ = sec.Key("Debug").Bool()

	return nil
}

func (c *Config) parseRedditAPI(f *ini.File) error {
	sec, err := f.GetSection("RedditAPI")
	if err != nil {
		return fmt.Errorf("config: missing [RedditAPI] section: %w", err)
	}

	required := map[string]*string{
		"Username":     &c.Username,
		"Password":     &c.Password,
		"ClientId":     &c.ClientID,
		"ClientSecret": &c.ClientSecret,
	}

	var errs []error
	for key, dst := range required {
		val := sec.Key(key).String()
		if val == "" {
			errs = append(errs, fmt.Errorf("config: RedditAPI.%s is required", key))
			continue
		}
		*dst = val
	}
	return errors.Join(errs...)
}

// applyEnvOverlay applies the environment variables from spec.md §6. DEBUG
// and DRY_RUN are logical ORs with the file values — either source can turn
// a setting on, neither can turn it off.
func (c *Config) applyEnvOverlay() {
	if getEnvAsBool("DEBUG", false) {
		c.Debug = true
	}
	if getEnvAsBool("DRY_RUN", false) {
		c.DryRun = true
	}
	c.LogStdout = getEnvAsBool("LOG_STDOUT", false)

	if path := os.Getenv("DB_PATH"); path != "" {
		c.DBPath = path
	} else if home, err := os.UserHomeDir(); err == nil {
		c.DBPath = filepath.Join(home, ".config", "reddit-scheduler", "database.sqlite")
	}
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
