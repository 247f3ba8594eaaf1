// Package config reads the server's settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the settings of the MCP server.
type Config struct {
	// LogLevel is "debug" to enable verbose logging; anything else is quiet.
	LogLevel string

	// ModelSize is the default marker edge length used by marker_pose when
	// the request does not give one. Pose translations come back in the same
	// unit.
	ModelSize float64

	// FocalLength is the default camera focal length in pixels. Zero means
	// "use the image width", a reasonable guess for a ~53° horizontal field
	// of view.
	FocalLength float64

	// Workers bounds how many marker candidates are decoded concurrently.
	Workers int
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Default returns the configuration used when no environment variable is set.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		ModelSize: 35,
		Workers:   1,
	}
}

// Load reads the configuration from ARUCO_MCP_* environment variables,
// falling back to Default for unset ones.
func Load() (*Config, error) {
	def := Default()

	modelSize, err := getEnvFloat("ARUCO_MCP_MODEL_SIZE", def.ModelSize)
	if err != nil {
		return nil, err
	}
	focalLength, err := getEnvFloat("ARUCO_MCP_FOCAL_LENGTH", def.FocalLength)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("ARUCO_MCP_WORKERS", def.Workers)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:    getEnv("ARUCO_MCP_LOG_LEVEL", def.LogLevel),
		ModelSize:   modelSize,
		FocalLength: focalLength,
		Workers:     workers,
	}

	if cfg.ModelSize <= 0 {
		return nil, fmt.Errorf("ARUCO_MCP_MODEL_SIZE must be positive, got %g", cfg.ModelSize)
	}
	if cfg.FocalLength < 0 {
		return nil, fmt.Errorf("ARUCO_MCP_FOCAL_LENGTH must not be negative, got %g", cfg.FocalLength)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("ARUCO_MCP_WORKERS must be at least 1, got %d", cfg.Workers)
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
