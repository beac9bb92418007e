package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all atomspaced configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Bank     BankConfig     `yaml:"bank"`
	Cycle    CycleConfig    `yaml:"cycle"`
	Tensor   TensorConfig   `yaml:"tensor"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BankConfig struct {
	TotalSTI   float64 `yaml:"total_sti"`
	TotalLTI   float64 `yaml:"total_lti"`
	MinimumSTI float64 `yaml:"minimum_sti"`
	MinimumLTI float64 `yaml:"minimum_lti"`
}

type CycleConfig struct {
	DecayFactor         float64 `yaml:"decay_factor"`
	RentRate            float64 `yaml:"rent_rate"`
	SpreadThreshold     float64 `yaml:"spread_threshold"`
	SpreadFraction      float64 `yaml:"spread_fraction"`
	ForgettingThreshold float64 `yaml:"forgetting_threshold"`
	FocusCapacity       int     `yaml:"focus_capacity"`
	IntervalSeconds     int     `yaml:"interval_seconds"`
}

type TensorConfig struct {
	Heads            int     `yaml:"heads"`
	TemporalDepth    int     `yaml:"temporal_depth"`
	LearningRate     float64 `yaml:"learning_rate"`
	Momentum         float64 `yaml:"momentum"`
	GradientClipping float64 `yaml:"gradient_clipping"`
	EconomicWeight   float64 `yaml:"economic_weight"`
}

type SnapshotConfig struct {
	Path string `yaml:"path"` // resolved at runtime via DefaultDBPath when empty
}

// Default returns a Config with the reference parameters.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37101,
		},
		Bank: BankConfig{
			TotalSTI: 1000,
			TotalLTI: 1000,
		},
		Cycle: CycleConfig{
			DecayFactor:         0.95,
			RentRate:            0.01,
			SpreadThreshold:     10,
			SpreadFraction:      0.1,
			ForgettingThreshold: 0.1,
			FocusCapacity:       20,
			IntervalSeconds:     5,
		},
		Tensor: TensorConfig{
			Heads:            8,
			TemporalDepth:    4,
			LearningRate:     0.01,
			Momentum:         0.9,
			GradientClipping: 1.0,
			EconomicWeight:   0.5,
		},
	}
}

// Load reads a yaml config file over the defaults. A missing file is not
// an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultDBPath returns the default snapshot path: ~/.atomspaced/atoms.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".atomspaced", "atoms.db"), nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
