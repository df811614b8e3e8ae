// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrInvalidConfig is wrapped by every configuration validation failure
var ErrInvalidConfig = errors.New("config: invalid configuration")

// SimConfig contains configuration for a leak simulation run
type SimConfig struct {
	Drone     DroneConfig    `json:"drone"`
	Pipe      PipeConfig     `json:"pipe"`
	Leak      LeakConfig     `json:"leak"`
	Precision int            `json:"precision"`
	Seed      uint64         `json:"seed"` // 0 seeds from the clock
	Runner    RunnerConfig   `json:"runner"`
	Notifier  NotifierConfig `json:"notifier"`
	Resources ResourceConfig `json:"resources"`
	Server    ServerConfig   `json:"server"`
}

// DroneConfig contains drone physics settings
type DroneConfig struct {
	Mass          float64    `json:"mass"`
	Radius        float64    `json:"radius"`
	AirMultiplier float64    `json:"airMultiplier"`
	Drag          DragConfig `json:"drag"`
}

// DragConfig enables quadratic air drag on the drone
type DragConfig struct {
	Enabled     bool    `json:"enabled"`
	AirDensity  float64 `json:"airDensity"`
	Coefficient float64 `json:"coefficient"`
	Area        float64 `json:"area"`
}

// PipeConfig contains rupture settings shared by all pipes
type PipeConfig struct {
	RuptureProbability float64 `json:"ruptureProbability"`
	RuptureWindow      float64 `json:"ruptureWindow"` // seconds
}

// LeakConfig contains particle emission settings shared by all leaks
type LeakConfig struct {
	Frequency       float64 `json:"frequency"`
	SpeedMultiplier float64 `json:"speedMultiplier"`
	DeathAge        float64 `json:"deathAge"`
	MaxSpawnPerTick int     `json:"maxSpawnPerTick"`
}

// MaxTickRate is the highest accepted RunnerConfig.TickRate
const MaxTickRate = 1000

// RunnerConfig controls the real-time simulation loop
type RunnerConfig struct {
	TickRate int           `json:"tickRate"` // ticks per second
	Speed    float64       `json:"speed"`    // simulated seconds per wall-clock second
	MaxStep  time.Duration `json:"maxStep"`
}

// NotifierConfig controls delivery of leak notifications
type NotifierConfig struct {
	URL                 string        `json:"url"`
	Timeout             time.Duration `json:"timeout"`
	MaxInFlight         int           `json:"maxInFlight"`
	BreakerMaxRequests  uint32        `json:"breakerMaxRequests"`
	BreakerInterval     time.Duration `json:"breakerInterval"`
	BreakerTimeout      time.Duration `json:"breakerTimeout"`
	BreakerMaxFailures  uint32        `json:"breakerMaxFailures"`
	ShutdownGracePeriod time.Duration `json:"shutdownGracePeriod"`
}

// ResourceConfig limits background work
type ResourceConfig struct {
	MaxMemoryMB   int `json:"maxMemoryMB"`
	MaxGoroutines int `json:"maxGoroutines"`
}

// ServerConfig contains the HTTP listeners for health and state streaming
type ServerConfig struct {
	HealthPort     int           `json:"healthPort"`
	StreamPort     int           `json:"streamPort"`
	StreamInterval time.Duration `json:"streamInterval"`
	StreamRate     int           `json:"streamRate"` // connections per minute per host
}

// LoadConfig loads a configuration from a file
func LoadConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *SimConfig, path string) error {
	if config == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default simulation configuration
func DefaultConfig() *SimConfig {
	return &SimConfig{
		Drone: DroneConfig{
			Mass:          0.3,
			Radius:        0.1,
			AirMultiplier: 0.995,
			Drag: DragConfig{
				Enabled:     false,
				AirDensity:  1.2,
				Coefficient: 0.35,
				Area:        0.01,
			},
		},
		Pipe: PipeConfig{
			RuptureProbability: 0.999,
			RuptureWindow:      3600,
		},
		Leak: LeakConfig{
			Frequency:       0.99,
			SpeedMultiplier: 0.003,
			DeathAge:        20,
			MaxSpawnPerTick: 1000,
		},
		Precision: 10,
		Runner: RunnerConfig{
			TickRate: 60,
			Speed:    1,
			MaxStep:  250 * time.Millisecond,
		},
		Notifier: NotifierConfig{
			URL:                 "http://127.0.0.1:5000/ping-add",
			Timeout:             5 * time.Second,
			MaxInFlight:         16,
			BreakerMaxRequests:  3,
			BreakerInterval:     60 * time.Second,
			BreakerTimeout:      30 * time.Second,
			BreakerMaxFailures:  5,
			ShutdownGracePeriod: 10 * time.Second,
		},
		Resources: ResourceConfig{
			MaxMemoryMB:   500,
			MaxGoroutines: 100,
		},
		Server: ServerConfig{
			HealthPort:     8080,
			StreamPort:     8081,
			StreamInterval: 100 * time.Millisecond,
			StreamRate:     30,
		},
	}
}
