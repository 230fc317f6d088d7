// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of the defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/podium/internal/domain/assets"
	"github.com/okian/podium/internal/domain/schema"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RecordsURL locates the placement dataset: http(s) URL or local path.
	RecordsURL string `koanf:"records_url"`

	// AssetsURL locates the optional name→image dataset.
	AssetsURL string `koanf:"assets_url"`

	// RecordsFormat and AssetsFormat force a decoder (json, csv, xlsx, html).
	// Empty means detect from the extension or Content-Type.
	RecordsFormat string `koanf:"records_format"`
	AssetsFormat  string `koanf:"assets_format"`

	// Sheet picks the worksheet of xlsx sources; empty means the first one.
	Sheet string `koanf:"sheet"`

	// RefreshInterval sets how often datasets are reloaded; 0 disables it.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// FetchTimeout bounds each dataset fetch.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// UserAgent is sent with remote fetches.
	UserAgent string `koanf:"user_agent"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Aliases overrides header spellings per logical field
	// (season, position, competitor, team).
	Aliases map[string][]string `koanf:"aliases"`

	// AssetKeys overrides the name/URL spellings probed in asset records.
	AssetKeys AssetKeys `koanf:"asset_keys"`
}

// AssetKeys mirrors assets.Keys for configuration files.
type AssetKeys struct {
	Name      []string `koanf:"name"`
	URL       []string `koanf:"url"`
	ObjectURL []string `koanf:"object_url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		RecordsURL:          "data/placements.json",
		RefreshInterval:     5 * time.Minute,
		FetchTimeout:        30 * time.Second,
		UserAgent:           "podium/1.0",
		MaxLeaderboardLimit: 100,
		Aliases:             map[string][]string{},
	}
}

// AliasTable returns the default aliases with configured overrides applied.
func (c *Config) AliasTable() schema.AliasTable {
	return schema.DefaultAliases().Merge(c.Aliases)
}

// Keys returns the asset key lists, defaults filled in.
func (c *Config) Keys() assets.Keys {
	return assets.Keys{
		Name:      c.AssetKeys.Name,
		URL:       c.AssetKeys.URL,
		ObjectURL: c.AssetKeys.ObjectURL,
	}.WithDefaults()
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.RecordsURL) == "":
		return fmt.Errorf("%w: records_url must not be empty", ErrInvalidConfig)
	case c.RefreshInterval < 0:
		return fmt.Errorf("%w: refresh_interval must not be negative", ErrInvalidConfig)
	case c.FetchTimeout <= 0:
		return fmt.Errorf("%w: fetch_timeout must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be at least 1", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	for name := range c.Aliases {
		if !knownField(name) {
			return fmt.Errorf("%w: unknown alias field %q", ErrInvalidConfig, name)
		}
	}
	return nil
}

func knownField(name string) bool {
	for _, f := range schema.Fields {
		if string(f) == name {
			return true
		}
	}
	return false
}
