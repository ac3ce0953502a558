// Package config loads client configuration from a TOML file with
// environment-variable overrides. Everything has a working default so the
// app runs with no config file at all.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full client configuration.
type Config struct {
	// APIURL is the base URL of the banking backend.
	APIURL string `toml:"api_url"`
	// SocketURL is the websocket endpoint of the assistant service.
	SocketURL string `toml:"socket_url"`

	Session SessionConfig `toml:"session"`
	Log     LogConfig     `toml:"log"`
}

// SessionConfig tunes the session lifecycle.
type SessionConfig struct {
	// InactivitySecs is the inactivity timeout in seconds.
	InactivitySecs int `toml:"inactivity_secs"`
}

// LogConfig tunes diagnostic logging. Logging is off unless File is set;
// a TUI cannot share its terminal with log output.
type LogConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// Default returns the built-in configuration, aimed at a local backend.
func Default() Config {
	return Config{
		APIURL:    "http://localhost:3000",
		SocketURL: "ws://localhost:3000/ws/chat",
		Session: SessionConfig{
			InactivitySecs: 120,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config.DefaultPath: %w", err)
	}
	return filepath.Join(dir, "teller", "config.toml"), nil
}

// Load reads path (or the default location when path is empty), layering
// file values over Default and environment variables over both. A missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config.Load: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// InactivityWindow returns the session timeout as a duration.
func (c Config) InactivityWindow() time.Duration {
	return time.Duration(c.Session.InactivitySecs) * time.Second
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELLER_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("TELLER_SOCKET_URL"); v != "" {
		c.SocketURL = v
	}
	if v := os.Getenv("TELLER_INACTIVITY_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Session.InactivitySecs = secs
		}
	}
	if v := os.Getenv("TELLER_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("TELLER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c Config) validate() error {
	if err := checkURL(c.APIURL, "http", "https"); err != nil {
		return fmt.Errorf("config: api_url: %w", err)
	}
	if err := checkURL(c.SocketURL, "ws", "wss"); err != nil {
		return fmt.Errorf("config: socket_url: %w", err)
	}
	if c.Session.InactivitySecs <= 0 {
		return fmt.Errorf("config: session.inactivity_secs must be positive, got %d", c.Session.InactivitySecs)
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return fmt.Errorf("URL %q has no host", raw)
			}
			return nil
		}
	}
	return fmt.Errorf("URL %q must use one of %v", raw, schemes)
}
