package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Resolution.Mode != ModePreserve {
		t.Errorf("expected default mode %s, got %s", ModePreserve, cfg.Resolution.Mode)
	}
	if cfg.Resolution.MaxIncludeDepth != 32 {
		t.Errorf("expected default max include depth 32, got %d", cfg.Resolution.MaxIncludeDepth)
	}
	if cfg.Cache.Enabled {
		t.Error("expected caching off by default")
	}
	if cfg.Network.Timeout != 30*time.Second {
		t.Errorf("expected default network timeout 30s, got %v", cfg.Network.Timeout)
	}
	if len(cfg.Watch.Extensions) != 1 || cfg.Watch.Extensions[0] != ".xsd" {
		t.Errorf("expected default watch extensions [.xsd], got %v", cfg.Watch.Extensions)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "flatten mode",
			modify:  func(c *Config) { c.Resolution.Mode = ModeFlatten },
			wantErr: false,
		},
		{
			name:    "empty mode",
			modify:  func(c *Config) { c.Resolution.Mode = "" },
			wantErr: false,
		},
		{
			name:    "unknown mode",
			modify:  func(c *Config) { c.Resolution.Mode = "inline" },
			wantErr: true,
		},
		{
			name:    "negative include depth",
			modify:  func(c *Config) { c.Resolution.MaxIncludeDepth = -1 },
			wantErr: true,
		},
		{
			name:    "negative cache expiry",
			modify:  func(c *Config) { c.Cache.Expiry = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative network timeout",
			modify:  func(c *Config) { c.Network.Timeout = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
resolution:
  mode: "flatten"
  resolve_imports: true
  strict: true
  max_include_depth: 8
  add_provenance: true
cache:
  enabled: true
  expiry: 10m
network:
  timeout: 5s
  allow_insecure: true
  allow_hosts:
    - schemas.example.com
    - .example.org
watch:
  debounce: 250ms
  extensions:
    - .xsd
    - .wsdl
  metrics_addr: ":9090"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Resolution.Mode != ModeFlatten {
		t.Errorf("expected mode flatten, got %s", cfg.Resolution.Mode)
	}
	if !cfg.Resolution.ResolveImports {
		t.Error("expected resolve_imports true")
	}
	if !cfg.Resolution.Strict {
		t.Error("expected strict true")
	}
	if cfg.Resolution.MaxIncludeDepth != 8 {
		t.Errorf("expected max include depth 8, got %d", cfg.Resolution.MaxIncludeDepth)
	}
	if !cfg.Cache.Enabled {
		t.Error("expected cache enabled")
	}
	if cfg.Cache.Expiry != 10*time.Minute {
		t.Errorf("expected cache expiry 10m, got %v", cfg.Cache.Expiry)
	}
	if cfg.Network.Timeout != 5*time.Second {
		t.Errorf("expected network timeout 5s, got %v", cfg.Network.Timeout)
	}
	if len(cfg.Network.AllowHosts) != 2 {
		t.Errorf("expected 2 allowed hosts, got %d", len(cfg.Network.AllowHosts))
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected watch debounce 250ms, got %v", cfg.Watch.Debounce)
	}
	if len(cfg.Watch.Extensions) != 2 {
		t.Errorf("expected 2 watch extensions, got %d", len(cfg.Watch.Extensions))
	}
	if cfg.Watch.MetricsAddr != ":9090" {
		t.Errorf("expected metrics addr :9090, got %s", cfg.Watch.MetricsAddr)
	}
}

func TestLoadFromFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Partial file: unset sections keep their defaults.
	content := `
resolution:
  strict: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if !cfg.Resolution.Strict {
		t.Error("expected strict true")
	}
	if cfg.Resolution.Mode != ModePreserve {
		t.Errorf("expected default mode to survive, got %s", cfg.Resolution.Mode)
	}
	if cfg.Network.Timeout != 30*time.Second {
		t.Errorf("expected default network timeout to survive, got %v", cfg.Network.Timeout)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Resolution: ResolutionConfig{
			Mode:   ModeFlatten,
			Strict: true,
		},
		Network: NetworkConfig{
			AllowHosts: []string{"schemas.example.com"},
		},
	}

	base.Merge(override)

	if base.Resolution.Mode != ModeFlatten {
		t.Errorf("expected mode flatten, got %s", base.Resolution.Mode)
	}
	if !base.Resolution.Strict {
		t.Error("expected strict true after merge")
	}
	// Depth should remain from base since override didn't set it
	if base.Resolution.MaxIncludeDepth != 32 {
		t.Errorf("expected max include depth to remain default, got %d", base.Resolution.MaxIncludeDepth)
	}
	if base.Network.Timeout != 30*time.Second {
		t.Errorf("expected network timeout to remain default, got %v", base.Network.Timeout)
	}
	if len(base.Network.AllowHosts) != 1 {
		t.Errorf("expected 1 allowed host, got %d", len(base.Network.AllowHosts))
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Resolution.Mode = ModeFlatten

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Resolution.Mode != ModeFlatten {
		t.Errorf("expected mode flatten, got %s", loaded.Resolution.Mode)
	}
}
