package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors spec.md §6's option table as a YAML document, with
// every field a pointer so an absent key leaves the corresponding Config
// field at its Default() value rather than overwriting it with Go's zero
// value. Grounded on AleutianLocal's cmd/aleutian/main.go, which
// yaml.Unmarshal's a config.yaml into a package-level Config at startup.
type fileConfig struct {
	Threads               *int     `yaml:"threads"`
	MinibatchSize         *int     `yaml:"minibatch-size"`
	MaxPrefetch           *int     `yaml:"max-prefetch"`
	Cpuct                 *float64 `yaml:"cpuct"`
	FpuReduction          *float64 `yaml:"fpu-reduction"`
	CacheHistoryLength    *int     `yaml:"cache-history-length"`
	PolicySoftmaxTemp     *float64 `yaml:"policy-softmax-temp"`
	Temperature           *float64 `yaml:"temperature"`
	TempdecayMoves        *int     `yaml:"tempdecay-moves"`
	Noise                 *bool    `yaml:"noise"`
	DirichletEpsilon      *float64 `yaml:"dirichlet-epsilon"`
	DirichletAlpha        *float64 `yaml:"dirichlet-alpha"`
	VerboseMoveStats      *bool    `yaml:"verbose-move-stats"`
	SmartPruning          *bool    `yaml:"smart-pruning"`
	VirtualLossBug        *float64 `yaml:"virtual-loss-bug"`
	AllowedNodeCollisions *int     `yaml:"allowed-node-collisions"`
	NNCache               *int     `yaml:"nncache"`
	MoveOverheadMS        *int     `yaml:"move-overhead-ms"`
}

// LoadFile reads a YAML option table (spec.md §6) from path and applies it
// on top of Default(), matching the pattern used elsewhere in the pack of
// reading a single config.yaml at process startup.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := Default()
	applyFileConfig(&cfg, fc)
	return cfg, nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Threads != nil {
		cfg.Threads = *fc.Threads
	}
	if fc.MinibatchSize != nil {
		cfg.MiniBatchSize = *fc.MinibatchSize
	}
	if fc.MaxPrefetch != nil {
		cfg.MaxPrefetchBatch = *fc.MaxPrefetch
	}
	if fc.Cpuct != nil {
		cfg.Cpuct = *fc.Cpuct
	}
	if fc.FpuReduction != nil {
		cfg.FpuReduction = *fc.FpuReduction
	}
	if fc.CacheHistoryLength != nil {
		cfg.CacheHistoryLength = *fc.CacheHistoryLength
	}
	if fc.PolicySoftmaxTemp != nil {
		cfg.PolicySoftmaxTemp = *fc.PolicySoftmaxTemp
	}
	if fc.Temperature != nil {
		cfg.Temperature = *fc.Temperature
	}
	if fc.TempdecayMoves != nil {
		cfg.TempDecayMoves = *fc.TempdecayMoves
	}
	if fc.Noise != nil {
		cfg.DirichletNoise = *fc.Noise
	}
	if fc.DirichletEpsilon != nil {
		cfg.DirichletEpsilon = *fc.DirichletEpsilon
	}
	if fc.DirichletAlpha != nil {
		cfg.DirichletAlpha = *fc.DirichletAlpha
	}
	if fc.VerboseMoveStats != nil {
		cfg.VerboseMoveStats = *fc.VerboseMoveStats
	}
	if fc.SmartPruning != nil {
		cfg.SmartPruning = *fc.SmartPruning
	}
	if fc.VirtualLossBug != nil {
		cfg.VirtualLossBug = *fc.VirtualLossBug
	}
	if fc.AllowedNodeCollisions != nil {
		cfg.AllowedNodeCollisions = *fc.AllowedNodeCollisions
	}
	if fc.NNCache != nil {
		cfg.NNCacheCapacity = *fc.NNCache
	}
	if fc.MoveOverheadMS != nil {
		cfg.MoveOverhead = time.Duration(*fc.MoveOverheadMS) * time.Millisecond
	}
}
