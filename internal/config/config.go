// Package config holds the operator client settings stored at
// ~/.config/maprix/config.json. Every getter resolves
// env > config.json > default.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultServerURL  = "http://localhost:5000"
	defaultGPSTimeout = 10 * time.Second
	configFileName    = "config.json"
)

// Locator kinds.
const (
	LocatorFixed = "fixed"
	LocatorGPSD  = "gpsd"
)

// Config is the persisted client configuration.
type Config struct {
	ServerURL  string   `json:"server_url,omitempty"`
	Offline    *bool    `json:"offline,omitempty"`
	Locator    string   `json:"locator,omitempty"`
	GPSDAddr   string   `json:"gpsd_addr,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	GPSTimeout string   `json:"gps_timeout,omitempty"`
	LogLevel   string   `json:"log_level,omitempty"`
}

// Dir returns the config directory, creating it if necessary.
// MAPRIX_CONFIG_DIR overrides ~/.config/maprix.
func Dir() (string, error) {
	dir := os.Getenv("MAPRIX_CONFIG_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "maprix")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads config.json. A missing file yields an empty Config.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configFileName, err)
	}
	return &cfg, nil
}

// Save writes config.json atomically (temp file + rename).
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, configFileName))
}

func loadOrEmpty() *Config {
	cfg, err := Load()
	if err != nil {
		slog.Debug("config: load failed", "err", err)
		return &Config{}
	}
	return cfg
}

// parseBoolEnv returns nil if env not set, pointer to bool if set.
func parseBoolEnv(envKey string) *bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(envKey)))
	switch v {
	case "1", "true", "yes", "on":
		b := true
		return &b
	case "0", "false", "no", "off":
		b := false
		return &b
	}
	return nil
}

// GetServerURL returns the backend base URL.
// Priority: MAPRIX_SERVER_URL env > config.json > default.
func GetServerURL() string {
	if v := os.Getenv("MAPRIX_SERVER_URL"); v != "" {
		return v
	}
	if cfg := loadOrEmpty(); cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// IsOffline reports whether the connectivity monitor is pinned offline.
// Priority: MAPRIX_OFFLINE env > config.json > false.
func IsOffline() bool {
	if v := parseBoolEnv("MAPRIX_OFFLINE"); v != nil {
		return *v
	}
	if cfg := loadOrEmpty(); cfg.Offline != nil {
		return *cfg.Offline
	}
	return false
}

// GetGPSTimeout returns the bound on one position acquisition.
// Priority: MAPRIX_GPS_TIMEOUT env > config.json > 10s.
func GetGPSTimeout() time.Duration {
	if v := os.Getenv("MAPRIX_GPS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	if cfg := loadOrEmpty(); cfg.GPSTimeout != "" {
		if d, err := time.ParseDuration(cfg.GPSTimeout); err == nil && d > 0 {
			return d
		}
	}
	return defaultGPSTimeout
}

// GetLogLevel returns the client log level.
// Priority: MAPRIX_LOG_LEVEL env > config.json > warn.
func GetLogLevel() slog.Level {
	v := os.Getenv("MAPRIX_LOG_LEVEL")
	if v == "" {
		v = loadOrEmpty().LogLevel
	}
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// LocatorSettings describes how captures acquire a position.
type LocatorSettings struct {
	Kind      string
	GPSDAddr  string
	Latitude  float64
	Longitude float64
}

// GetLocator returns the configured locator.
// Priority: MAPRIX_LOCATOR / MAPRIX_GPSD_ADDR env > config.json > fixed at 0,0.
func GetLocator() LocatorSettings {
	cfg := loadOrEmpty()
	ls := LocatorSettings{Kind: LocatorFixed, GPSDAddr: cfg.GPSDAddr}
	if cfg.Locator != "" {
		ls.Kind = cfg.Locator
	}
	if v := os.Getenv("MAPRIX_LOCATOR"); v != "" {
		ls.Kind = v
	}
	if v := os.Getenv("MAPRIX_GPSD_ADDR"); v != "" {
		ls.GPSDAddr = v
	}
	if cfg.Latitude != nil {
		ls.Latitude = *cfg.Latitude
	}
	if cfg.Longitude != nil {
		ls.Longitude = *cfg.Longitude
	}
	return ls
}

type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

func floatField(p func(*Config) **float64) field {
	return field{
		get: func(c *Config) string {
			if v := *p(c); v != nil {
				return strconv.FormatFloat(*v, 'f', -1, 64)
			}
			return ""
		},
		set: func(c *Config, s string) error {
			if s == "" {
				*p(c) = nil
				return nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*p(c) = &f
			return nil
		},
	}
}

var fields = map[string]field{
	"server_url": {
		get: func(c *Config) string { return c.ServerURL },
		set: func(c *Config, s string) error { c.ServerURL = s; return nil },
	},
	"offline": {
		get: func(c *Config) string {
			if c.Offline == nil {
				return ""
			}
			return strconv.FormatBool(*c.Offline)
		},
		set: func(c *Config, s string) error {
			if s == "" {
				c.Offline = nil
				return nil
			}
			b, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}
			c.Offline = &b
			return nil
		},
	},
	"locator": {
		get: func(c *Config) string { return c.Locator },
		set: func(c *Config, s string) error {
			if s != "" && s != LocatorFixed && s != LocatorGPSD {
				return fmt.Errorf("locator must be %q or %q", LocatorFixed, LocatorGPSD)
			}
			c.Locator = s
			return nil
		},
	},
	"gpsd_addr": {
		get: func(c *Config) string { return c.GPSDAddr },
		set: func(c *Config, s string) error { c.GPSDAddr = s; return nil },
	},
	"latitude":  floatField(func(c *Config) **float64 { return &c.Latitude }),
	"longitude": floatField(func(c *Config) **float64 { return &c.Longitude }),
	"gps_timeout": {
		get: func(c *Config) string { return c.GPSTimeout },
		set: func(c *Config, s string) error {
			if s != "" {
				if _, err := time.ParseDuration(s); err != nil {
					return err
				}
			}
			c.GPSTimeout = s
			return nil
		},
	},
	"log_level": {
		get: func(c *Config) string { return c.LogLevel },
		set: func(c *Config, s string) error { c.LogLevel = s; return nil },
	},
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the stored value of key ("" when unset).
func Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return f.get(cfg), nil
}

// Set stores value under key. An empty value unsets it.
func Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := f.set(cfg, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return Save(cfg)
}
