package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Sim.K != Default().Sim.K {
		t.Fatalf("expected default k=%d, got %d", Default().Sim.K, cfg.Sim.K)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.yaml")

	body := `
sim:
  k: 7
  theta: 0.25
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Sim.K != 7 {
		t.Fatalf("expected k=7, got %d", cfg.Sim.K)
	}
	if cfg.Sim.Theta != 0.25 {
		t.Fatalf("expected theta=0.25, got %g", cfg.Sim.Theta)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected level=debug, got %q", cfg.Logging.Level)
	}
	// Untouched fields keep defaults.
	if cfg.Sim.TickSize != Default().Sim.TickSize {
		t.Fatalf("tick_size should keep default, got %g", cfg.Sim.TickSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/sim.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero k", func(c *Config) { c.Sim.K = 0 }, "sim.k"},
		{"negative tick", func(c *Config) { c.Sim.TickSize = -1 }, "tick_size"},
		{"theta above one", func(c *Config) { c.Sim.Theta = 1.5 }, "sim.theta"},
		{"inverted depth bounds", func(c *Config) { c.Sim.DepthMin = 5; c.Sim.DepthMax = 2 }, "depth bounds"},
		{"zero size min", func(c *Config) { c.Sim.SizeMin = 0 }, "size bounds"},
		{"broadcast without brokers", func(c *Config) {
			c.Broadcast.Enabled = true
			c.Broadcast.Brokers = nil
		}, "brokers"},
		{"broadcast without results", func(c *Config) {
			c.Broadcast.Enabled = true
			c.Results.Enabled = false
		}, "results"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
