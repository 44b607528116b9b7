// Package config provides configuration loading and management for xsdgraph.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/xsdgraph/graph"
)

// Resolution modes accepted in configuration files.
const (
	ModePreserve = "preserve"
	ModeFlatten  = "flatten"
)

// Config represents the complete xsdgraph configuration
type Config struct {
	Resolution ResolutionConfig `yaml:"resolution"`
	Cache      CacheConfig      `yaml:"cache"`
	Network    NetworkConfig    `yaml:"network"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ResolutionConfig configures how references are followed and merged
type ResolutionConfig struct {
	// Mode is "preserve" to keep documents separate or "flatten" to
	// merge includes into one tree (default: "preserve")
	Mode string `yaml:"mode"`
	// ResolveImports follows import directives into their target documents
	ResolveImports bool `yaml:"resolve_imports"`
	// Strict aborts on the first failed reference instead of warning
	Strict bool `yaml:"strict"`
	// MaxIncludeDepth bounds how many reference edges one path may follow
	MaxIncludeDepth int `yaml:"max_include_depth"`
	// AddProvenance stamps flattened declarations with their source document
	AddProvenance bool `yaml:"add_provenance"`
	// BaseDir anchors relative references of documents read from stdin
	BaseDir string `yaml:"base_dir"`
}

// CacheConfig configures the parse cache
type CacheConfig struct {
	// Enabled turns on document caching across parses in one process
	Enabled bool `yaml:"enabled"`
	// Expiry bounds the age of served entries (0 = no age limit)
	Expiry time.Duration `yaml:"expiry"`
}

// NetworkConfig configures remote schema fetching
type NetworkConfig struct {
	// Timeout bounds each remote fetch (default: 30s)
	Timeout time.Duration `yaml:"timeout"`
	// AllowInsecure permits plain http schema locations
	AllowInsecure bool `yaml:"allow_insecure"`
	// AllowPrivate permits localhost, private ranges, and internal hosts
	AllowPrivate bool `yaml:"allow_private"`
	// AllowHosts restricts remote fetches to these hosts when non-empty
	AllowHosts []string `yaml:"allow_hosts"`
	// DenyHosts blocks these hosts outright (deny wins over allow)
	DenyHosts []string `yaml:"deny_hosts"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// Debounce batches rapid file events into one rebuild (default: 500ms)
	Debounce time.Duration `yaml:"debounce"`
	// Extensions limits watching to files with these suffixes (default: .xsd)
	Extensions []string `yaml:"extensions"`
	// Exclude skips paths matching these doublestar patterns
	Exclude []string `yaml:"exclude"`
	// MetricsAddr serves Prometheus metrics when non-empty (e.g. ":9090")
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Resolution: ResolutionConfig{
			Mode:            ModePreserve,
			MaxIncludeDepth: graph.DefaultMaxDepth,
		},
		Cache: CacheConfig{
			Enabled: false,
			Expiry:  0, // No age limit
		},
		Network: NetworkConfig{
			Timeout: 30 * time.Second,
		},
		Watch: WatchConfig{
			Debounce:   500 * time.Millisecond,
			Extensions: []string{".xsd"},
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Resolution.Mode {
	case "", ModePreserve, ModeFlatten:
	default:
		return fmt.Errorf("resolution.mode must be %q or %q, got %q",
			ModePreserve, ModeFlatten, c.Resolution.Mode)
	}
	if c.Resolution.MaxIncludeDepth < 0 {
		return fmt.Errorf("resolution.max_include_depth must not be negative")
	}
	if c.Cache.Expiry < 0 {
		return fmt.Errorf("cache.expiry must not be negative")
	}
	if c.Network.Timeout < 0 {
		return fmt.Errorf("network.timeout must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence
// for non-zero and true values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Resolution
	if other.Resolution.Mode != "" {
		c.Resolution.Mode = other.Resolution.Mode
	}
	if other.Resolution.ResolveImports {
		c.Resolution.ResolveImports = true
	}
	if other.Resolution.Strict {
		c.Resolution.Strict = true
	}
	if other.Resolution.MaxIncludeDepth != 0 {
		c.Resolution.MaxIncludeDepth = other.Resolution.MaxIncludeDepth
	}
	if other.Resolution.AddProvenance {
		c.Resolution.AddProvenance = true
	}
	if other.Resolution.BaseDir != "" {
		c.Resolution.BaseDir = other.Resolution.BaseDir
	}

	// Cache
	if other.Cache.Enabled {
		c.Cache.Enabled = true
	}
	if other.Cache.Expiry != 0 {
		c.Cache.Expiry = other.Cache.Expiry
	}

	// Network
	if other.Network.Timeout != 0 {
		c.Network.Timeout = other.Network.Timeout
	}
	if other.Network.AllowInsecure {
		c.Network.AllowInsecure = true
	}
	if other.Network.AllowPrivate {
		c.Network.AllowPrivate = true
	}
	if len(other.Network.AllowHosts) > 0 {
		c.Network.AllowHosts = other.Network.AllowHosts
	}
	if len(other.Network.DenyHosts) > 0 {
		c.Network.DenyHosts = other.Network.DenyHosts
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if len(other.Watch.Extensions) > 0 {
		c.Watch.Extensions = other.Watch.Extensions
	}
	if len(other.Watch.Exclude) > 0 {
		c.Watch.Exclude = other.Watch.Exclude
	}
	if other.Watch.MetricsAddr != "" {
		c.Watch.MetricsAddr = other.Watch.MetricsAddr
	}
}
