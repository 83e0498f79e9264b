// Package config loads simulator configuration from YAML, overlaying a
// file on top of coded defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Sim       Sim       `yaml:"sim"`
	Intensity Intensity `yaml:"intensity"`
	Logging   Logging   `yaml:"logging"`
	Metrics   Metrics   `yaml:"metrics"`
	Broadcast Broadcast `yaml:"broadcast"`
	Stream    Stream    `yaml:"stream"`
	Results   Results   `yaml:"results"`
	Tape      Tape      `yaml:"tape"`
}

type Sim struct {
	K              int     `yaml:"k"`
	TickSize       float64 `yaml:"tick_size"`
	ReferencePrice float64 `yaml:"reference_price"`
	Theta          float64 `yaml:"theta"`
	ThetaReinit    float64 `yaml:"theta_reinit"`
	NumSteps       int     `yaml:"num_steps"`
	Seed           int64   `yaml:"seed"`
	MirrorOrders   bool    `yaml:"mirror_orders"`
	DepthMin       int64   `yaml:"depth_min"`
	DepthMax       int64   `yaml:"depth_max"`
	SizeMin        int64   `yaml:"size_min"`
	SizeMax        int64   `yaml:"size_max"`
}

type Intensity struct {
	BaseIntensity float64 `yaml:"base_intensity"`
	Alpha         float64 `yaml:"alpha"`
	Mu            float64 `yaml:"mu"`
	ThetaMarket   float64 `yaml:"theta_market"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type Broadcast struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Stream publishes each snapshot as it is produced, best-effort. The
// durable path is the results outbox drained by the broadcaster.
type Stream struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Results struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type Tape struct {
	Enabled     bool   `yaml:"enabled"`
	Dir         string `yaml:"dir"`
	SegmentSize int64  `yaml:"segment_size"`
}

// Default returns a runnable configuration: a small symmetric book with
// the power-law limit intensity from the queue-reactive literature.
func Default() Config {
	return Config{
		Sim: Sim{
			K:              5,
			TickSize:       0.01,
			ReferencePrice: 100.0,
			Theta:          0.1,
			ThetaReinit:    0.01,
			NumSteps:       10000,
			Seed:           42,
			MirrorOrders:   true,
			DepthMin:       1,
			DepthMax:       5,
			SizeMin:        1,
			SizeMax:        10,
		},
		Intensity: Intensity{
			BaseIntensity: 1.0,
			Alpha:         0.5,
			Mu:            0.2,
			ThetaMarket:   0.5,
		},
		Logging: Logging{
			Level:  "info",
			Pretty: false,
		},
		Metrics: Metrics{
			Enabled: true,
			Addr:    ":9102",
		},
		Broadcast: Broadcast{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "qrsim.snapshots",
		},
		Stream: Stream{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "qrsim.snapshots.live",
		},
		Results: Results{
			Enabled: false,
			Dir:     "data/results",
		},
		Tape: Tape{
			Enabled:     false,
			Dir:         "data/tape",
			SegmentSize: 64 << 20,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	s := c.Sim
	switch {
	case s.K <= 0:
		return fmt.Errorf("config: sim.k must be positive, got %d", s.K)
	case s.TickSize <= 0:
		return fmt.Errorf("config: sim.tick_size must be positive, got %g", s.TickSize)
	case s.Theta < 0 || s.Theta > 1:
		return fmt.Errorf("config: sim.theta must be in [0,1], got %g", s.Theta)
	case s.ThetaReinit < 0 || s.ThetaReinit > 1:
		return fmt.Errorf("config: sim.theta_reinit must be in [0,1], got %g", s.ThetaReinit)
	case s.NumSteps <= 0:
		return fmt.Errorf("config: sim.num_steps must be positive, got %d", s.NumSteps)
	case s.DepthMin < 0 || s.DepthMax < s.DepthMin:
		return fmt.Errorf("config: sim depth bounds invalid: [%d,%d]", s.DepthMin, s.DepthMax)
	case s.SizeMin < 1 || s.SizeMax < s.SizeMin:
		return fmt.Errorf("config: sim size bounds invalid: [%d,%d]", s.SizeMin, s.SizeMax)
	}

	if c.Intensity.BaseIntensity < 0 {
		return fmt.Errorf("config: intensity.base_intensity must be non-negative, got %g", c.Intensity.BaseIntensity)
	}
	if c.Intensity.Mu < 0 {
		return fmt.Errorf("config: intensity.mu must be non-negative, got %g", c.Intensity.Mu)
	}
	if c.Intensity.ThetaMarket < 0 {
		return fmt.Errorf("config: intensity.theta_market must be non-negative, got %g", c.Intensity.ThetaMarket)
	}

	if c.Broadcast.Enabled {
		if len(c.Broadcast.Brokers) == 0 {
			return fmt.Errorf("config: broadcast enabled but no brokers given")
		}
		if c.Broadcast.Topic == "" {
			return fmt.Errorf("config: broadcast enabled but topic is empty")
		}
		if !c.Results.Enabled {
			return fmt.Errorf("config: broadcast requires results store to be enabled")
		}
	}
	if c.Stream.Enabled {
		if len(c.Stream.Brokers) == 0 {
			return fmt.Errorf("config: stream enabled but no brokers given")
		}
		if c.Stream.Topic == "" {
			return fmt.Errorf("config: stream enabled but topic is empty")
		}
	}
	if c.Results.Enabled && c.Results.Dir == "" {
		return fmt.Errorf("config: results enabled but dir is empty")
	}
	if c.Tape.Enabled && c.Tape.Dir == "" {
		return fmt.Errorf("config: tape enabled but dir is empty")
	}

	return nil
}
