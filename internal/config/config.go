// Package config provides configuration management for the swarm core.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (SWARM_*)
// 3. Project config (.swarm.yaml, found by walking up from cwd)
// 4. Home config (~/.config/swarm/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all swarm-core configuration.
type Config struct {
	// BoardRoot is the directory holding task files and the board lock.
	BoardRoot string `yaml:"board_root" json:"board_root"`

	// ConsensusLogPath is the append-only proposal/vote log path.
	ConsensusLogPath string `yaml:"consensus_log_path" json:"consensus_log_path"`

	// ReclaimTimeout is how long a claimed task may sit without progress
	// before it is eligible for Reclaim.
	ReclaimTimeout time.Duration `yaml:"reclaim_timeout" json:"reclaim_timeout"`

	Bus        BusConfig        `yaml:"bus" json:"bus"`
	Consensus  ConsensusConfig  `yaml:"consensus" json:"consensus"`
	HUD        HUDConfig        `yaml:"hud" json:"hud"`
	Bridge     BridgeConfig     `yaml:"bridge" json:"bridge"`
}

// BusConfig holds NEB-bus-specific settings.
type BusConfig struct {
	// HistorySize bounds the bus's recent-signal ring buffer.
	HistorySize int `yaml:"history_size" json:"history_size"`

	// DefaultEmbeddingDimension is loaded and merged like the other settings
	// but no component reads it; a semantic subscription takes its dimension
	// from the length of its own reference embedding.
	DefaultEmbeddingDimension int `yaml:"default_embedding_dimension" json:"default_embedding_dimension"`
}

// ConsensusConfig holds consensus-node-specific settings.
type ConsensusConfig struct {
	// Threshold is the default weighted-approval threshold for evaluation.
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// HUDConfig holds visualization tuning for the HUD tap.
type HUDConfig struct {
	MaxEvents     int           `yaml:"max_events" json:"max_events"`
	RippleRate    float64       `yaml:"ripple_rate" json:"ripple_rate"`
	MaxRadius     float64       `yaml:"max_radius" json:"max_radius"`
	MaxAge        time.Duration `yaml:"max_age" json:"max_age"`
	GlowDecayRate float64       `yaml:"glow_decay_rate" json:"glow_decay_rate"`
}

// BridgeConfig holds the bus bridge's throttling settings.
type BridgeConfig struct {
	Throttle   time.Duration `yaml:"throttle" json:"throttle"`
	BufferSize int           `yaml:"buffer_size" json:"buffer_size"`
}

// Default config values (used in resolution and validation).
const (
	defaultBoardRoot        = ".swarm/board"
	defaultConsensusLog     = ".swarm/consensus.jsonl"
	defaultReclaimTimeout   = 5 * time.Minute
	defaultBusHistory       = 100
	defaultEmbeddingDim     = 0
	defaultConsensusThresh  = 0.6
	defaultHUDMaxEvents     = 100
	defaultHUDRippleRate    = 50.0
	defaultHUDMaxRadius     = 100.0
	defaultHUDMaxAge        = 2 * time.Second
	defaultHUDGlowDecayRate = 0.5
	defaultBridgeThrottle   = 100 * time.Millisecond
	defaultBridgeBufferSize = 10
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BoardRoot:        defaultBoardRoot,
		ConsensusLogPath: defaultConsensusLog,
		ReclaimTimeout:   defaultReclaimTimeout,
		Bus: BusConfig{
			HistorySize:               defaultBusHistory,
			DefaultEmbeddingDimension: defaultEmbeddingDim,
		},
		Consensus: ConsensusConfig{
			Threshold: defaultConsensusThresh,
		},
		HUD: HUDConfig{
			MaxEvents:     defaultHUDMaxEvents,
			RippleRate:    defaultHUDRippleRate,
			MaxRadius:     defaultHUDMaxRadius,
			MaxAge:        defaultHUDMaxAge,
			GlowDecayRate: defaultHUDGlowDecayRate,
		},
		Bridge: BridgeConfig{
			Throttle:   defaultBridgeThrottle,
			BufferSize: defaultBridgeBufferSize,
		},
	}
}

// Load loads configuration with proper precedence: flags > env > project >
// home > defaults.
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	if homeConfig, _ := loadFromPath(homeConfigPath()); homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}
	if projectConfig, _ := loadFromPath(projectConfigPath()); projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}
	cfg = applyEnv(cfg)
	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}
	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "swarm", "config.yaml")
}

// projectConfigPath walks up from the current directory looking for
// .swarm.yaml, the way the source system's directory-discovery helper does
// for its own project marker.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("SWARM_CONFIG")); override != "" {
		return override
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".swarm.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv applies SWARM_-prefixed environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("SWARM_BOARD_ROOT"); v != "" {
		cfg.BoardRoot = v
	}
	if v := os.Getenv("SWARM_CONSENSUS_LOG_PATH"); v != "" {
		cfg.ConsensusLogPath = v
	}
	if v := os.Getenv("SWARM_RECLAIM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReclaimTimeout = d
		}
	}
	if v := os.Getenv("SWARM_BUS_HISTORY_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bus.HistorySize = n
		}
	}
	if v := os.Getenv("SWARM_BUS_EMBEDDING_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bus.DefaultEmbeddingDimension = n
		}
	}
	if v := os.Getenv("SWARM_CONSENSUS_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Consensus.Threshold = f
		}
	}
	if v := os.Getenv("SWARM_BRIDGE_THROTTLE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Bridge.Throttle = d
		}
	}
	if v := os.Getenv("SWARM_BRIDGE_BUFFER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bridge.BufferSize = n
		}
	}
	return cfg
}

// merge merges src into dst, with non-zero src values taking precedence.
func merge(dst, src *Config) *Config {
	if src.BoardRoot != "" {
		dst.BoardRoot = src.BoardRoot
	}
	if src.ConsensusLogPath != "" {
		dst.ConsensusLogPath = src.ConsensusLogPath
	}
	if src.ReclaimTimeout != 0 {
		dst.ReclaimTimeout = src.ReclaimTimeout
	}
	if src.Bus.HistorySize != 0 {
		dst.Bus.HistorySize = src.Bus.HistorySize
	}
	if src.Bus.DefaultEmbeddingDimension != 0 {
		dst.Bus.DefaultEmbeddingDimension = src.Bus.DefaultEmbeddingDimension
	}
	if src.Consensus.Threshold != 0 {
		dst.Consensus.Threshold = src.Consensus.Threshold
	}
	if src.HUD.MaxEvents != 0 {
		dst.HUD.MaxEvents = src.HUD.MaxEvents
	}
	if src.HUD.RippleRate != 0 {
		dst.HUD.RippleRate = src.HUD.RippleRate
	}
	if src.HUD.MaxRadius != 0 {
		dst.HUD.MaxRadius = src.HUD.MaxRadius
	}
	if src.HUD.MaxAge != 0 {
		dst.HUD.MaxAge = src.HUD.MaxAge
	}
	if src.HUD.GlowDecayRate != 0 {
		dst.HUD.GlowDecayRate = src.HUD.GlowDecayRate
	}
	if src.Bridge.Throttle != 0 {
		dst.Bridge.Throttle = src.Bridge.Throttle
	}
	if src.Bridge.BufferSize != 0 {
		dst.Bridge.BufferSize = src.Bridge.BufferSize
	}
	return dst
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.config/swarm/config.yaml"
	SourceProject Source = ".swarm.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)
