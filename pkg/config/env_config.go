// pkg/config/env_config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/opd-ai/go-leaksim/pkg/validation"
)

// ValidationError describes a configuration field that failed validation
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s (value: %v): %s", e.Field, e.Value, e.Message)
}

// Unwrap exposes ErrInvalidConfig and the underlying check failure
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidConfig}
	}
	return []error{ErrInvalidConfig, e.Err}
}

func fieldError(field string, value interface{}, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Value: value, Message: err.Error(), Err: err}
}

// ApplyEnvironmentOverrides applies LEAKSIM_* environment variables to cfg
// and validates the result. Unparseable values keep the current setting.
func ApplyEnvironmentOverrides(cfg *SimConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}

	cfg.Seed = getEnvAsUintOrDefault("LEAKSIM_SEED", cfg.Seed, 64)
	cfg.Precision = getEnvAsIntOrDefault("LEAKSIM_PRECISION", cfg.Precision)

	cfg.Drone.Mass = getEnvAsFloatOrDefault("LEAKSIM_DRONE_MASS", cfg.Drone.Mass)
	cfg.Drone.Radius = getEnvAsFloatOrDefault("LEAKSIM_DRONE_RADIUS", cfg.Drone.Radius)
	cfg.Drone.Drag.Enabled = getEnvAsBoolOrDefault("LEAKSIM_DRAG_ENABLED", cfg.Drone.Drag.Enabled)

	cfg.Pipe.RuptureProbability = getEnvAsFloatOrDefault("LEAKSIM_RUPTURE_PROBABILITY", cfg.Pipe.RuptureProbability)
	cfg.Pipe.RuptureWindow = getEnvAsFloatOrDefault("LEAKSIM_RUPTURE_WINDOW", cfg.Pipe.RuptureWindow)
	cfg.Leak.Frequency = getEnvAsFloatOrDefault("LEAKSIM_LEAK_FREQUENCY", cfg.Leak.Frequency)

	cfg.Runner.TickRate = getEnvAsIntOrDefault("LEAKSIM_TICK_RATE", cfg.Runner.TickRate)
	cfg.Runner.Speed = getEnvAsFloatOrDefault("LEAKSIM_SPEED", cfg.Runner.Speed)
	cfg.Runner.MaxStep = getEnvAsDurationOrDefault("LEAKSIM_MAX_STEP", cfg.Runner.MaxStep)

	cfg.Notifier.URL = getEnvOrDefault("LEAKSIM_NOTIFY_URL", cfg.Notifier.URL)
	cfg.Notifier.Timeout = getEnvAsDurationOrDefault("LEAKSIM_NOTIFY_TIMEOUT", cfg.Notifier.Timeout)
	cfg.Notifier.MaxInFlight = getEnvAsIntOrDefault("LEAKSIM_NOTIFY_MAX_IN_FLIGHT", cfg.Notifier.MaxInFlight)
	cfg.Notifier.BreakerMaxFailures = uint32(getEnvAsUintOrDefault("LEAKSIM_BREAKER_MAX_FAILURES", uint64(cfg.Notifier.BreakerMaxFailures), 32))
	cfg.Notifier.BreakerTimeout = getEnvAsDurationOrDefault("LEAKSIM_BREAKER_TIMEOUT", cfg.Notifier.BreakerTimeout)

	cfg.Resources.MaxGoroutines = getEnvAsIntOrDefault("LEAKSIM_MAX_GOROUTINES", cfg.Resources.MaxGoroutines)
	cfg.Resources.MaxMemoryMB = getEnvAsIntOrDefault("LEAKSIM_MAX_MEMORY_MB", cfg.Resources.MaxMemoryMB)

	cfg.Server.HealthPort = getEnvAsIntOrDefault("LEAKSIM_HEALTH_PORT", cfg.Server.HealthPort)
	cfg.Server.StreamPort = getEnvAsIntOrDefault("LEAKSIM_STREAM_PORT", cfg.Server.StreamPort)

	return cfg.Validate()
}

// Validate checks every setting and returns the first failure as a
// *ValidationError
func (c *SimConfig) Validate() error {
	checks := []error{
		fieldError("drone.mass", c.Drone.Mass, validation.Positive("mass", c.Drone.Mass)),
		fieldError("drone.radius", c.Drone.Radius, validation.NonNegative("radius", c.Drone.Radius)),
		fieldError("drone.airMultiplier", c.Drone.AirMultiplier, validation.Fraction("airMultiplier", c.Drone.AirMultiplier)),
		fieldError("pipe.ruptureProbability", c.Pipe.RuptureProbability, validation.Probability("ruptureProbability", c.Pipe.RuptureProbability)),
		fieldError("pipe.ruptureWindow", c.Pipe.RuptureWindow, validation.Positive("ruptureWindow", c.Pipe.RuptureWindow)),
		fieldError("leak.frequency", c.Leak.Frequency, validation.Probability("frequency", c.Leak.Frequency)),
		fieldError("leak.speedMultiplier", c.Leak.SpeedMultiplier, validation.NonNegative("speedMultiplier", c.Leak.SpeedMultiplier)),
		fieldError("leak.deathAge", c.Leak.DeathAge, validation.Positive("deathAge", c.Leak.DeathAge)),
		fieldError("leak.maxSpawnPerTick", c.Leak.MaxSpawnPerTick, validation.PositiveInt("maxSpawnPerTick", c.Leak.MaxSpawnPerTick)),
		fieldError("precision", c.Precision, validation.PositiveInt("precision", c.Precision)),
		fieldError("runner.tickRate", c.Runner.TickRate, validation.PositiveInt("tickRate", c.Runner.TickRate)),
		fieldError("runner.speed", c.Runner.Speed, validation.Positive("speed", c.Runner.Speed)),
		fieldError("runner.maxStep", c.Runner.MaxStep, validation.Positive("maxStep", c.Runner.MaxStep.Seconds())),
		fieldError("notifier.timeout", c.Notifier.Timeout, validation.Positive("timeout", c.Notifier.Timeout.Seconds())),
		fieldError("notifier.maxInFlight", c.Notifier.MaxInFlight, validation.PositiveInt("maxInFlight", c.Notifier.MaxInFlight)),
		fieldError("resources.maxGoroutines", c.Resources.MaxGoroutines, validation.PositiveInt("maxGoroutines", c.Resources.MaxGoroutines)),
		fieldError("server.streamInterval", c.Server.StreamInterval, validation.Positive("streamInterval", c.Server.StreamInterval.Seconds())),
		fieldError("server.streamRate", c.Server.StreamRate, validation.PositiveInt("streamRate", c.Server.StreamRate)),
	}
	if c.Drone.Drag.Enabled {
		checks = append(checks,
			fieldError("drone.drag.airDensity", c.Drone.Drag.AirDensity, validation.NonNegative("airDensity", c.Drone.Drag.AirDensity)),
			fieldError("drone.drag.coefficient", c.Drone.Drag.Coefficient, validation.NonNegative("coefficient", c.Drone.Drag.Coefficient)),
			fieldError("drone.drag.area", c.Drone.Drag.Area, validation.NonNegative("area", c.Drone.Drag.Area)),
		)
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	if c.Runner.TickRate > MaxTickRate {
		return &ValidationError{Field: "runner.tickRate", Value: c.Runner.TickRate, Message: fmt.Sprintf("must be at most %d", MaxTickRate)}
	}
	if c.Precision > 15 {
		return &ValidationError{Field: "precision", Value: c.Precision, Message: "must be at most 15 decimal digits"}
	}
	if err := validateURL(c.Notifier.URL); err != nil {
		return err
	}
	if err := validatePort("server.healthPort", c.Server.HealthPort); err != nil {
		return err
	}
	return validatePort("server.streamPort", c.Server.StreamPort)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "notifier.url", Value: raw, Message: err.Error(), Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "notifier.url", Value: raw, Message: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "notifier.url", Value: raw, Message: "host cannot be empty"}
	}
	return nil
}

// validatePort accepts 0 to disable a listener
func validatePort(field string, port int) error {
	if port < 0 || port > 65535 {
		return &ValidationError{Field: field, Value: port, Message: "must be between 0 and 65535"}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvAsUintOrDefault rejects negative and out-of-range values the same
// way as unparseable ones
func getEnvAsUintOrDefault(key string, defaultValue uint64, bitSize int) uint64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseUint(value, 10, bitSize); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
