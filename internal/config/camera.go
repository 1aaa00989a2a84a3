// Package config provides environment-driven configuration helpers
// for the capture service commands.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/pkg/hal"
)

// Default service configuration.
const (
	DefaultDiagAddr   = ":8080"
	DefaultCameraType = "auto"
)

// Env returns the value of an environment variable or a default.
func Env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvInt returns an integer environment variable or a default.
// Malformed values fall back to the default.
func EnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvBool returns a boolean environment variable or a default.
func EnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvDuration returns a duration environment variable or a default.
func EnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// EnvFloat returns a float environment variable or a default.
func EnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// CameraConfigFromEnv builds the capture configuration from CAMERA_*
// environment variables, starting from the production defaults.
func CameraConfigFromEnv() hal.CameraConfig {
	cfg := hal.DefaultCameraConfig()
	cfg.Width = EnvInt("CAMERA_WIDTH", cfg.Width)
	cfg.Height = EnvInt("CAMERA_HEIGHT", cfg.Height)
	cfg.FPS = EnvInt("CAMERA_FPS", cfg.FPS)
	cfg.EnableColor = EnvBool("CAMERA_COLOR", cfg.EnableColor)
	cfg.EnableDepth = EnvBool("CAMERA_DEPTH", cfg.EnableDepth)
	cfg.EnableValidation = EnvBool("CAMERA_VALIDATION", cfg.EnableValidation)
	cfg.EnableChecksums = EnvBool("CAMERA_CHECKSUMS", cfg.EnableChecksums)
	cfg.BufferSize = EnvInt("CAMERA_BUFFER_SIZE", cfg.BufferSize)
	cfg.Timeout = EnvDuration("CAMERA_TIMEOUT", cfg.Timeout)
	cfg.AutoExposure = EnvBool("CAMERA_AUTO_EXPOSURE", cfg.AutoExposure)
	cfg.MaxTemperature = EnvFloat("CAMERA_MAX_TEMPERATURE", cfg.MaxTemperature)
	return cfg
}

// FactoryConfigFromEnv builds camera discovery settings from CAMERA_*
// environment variables.
func FactoryConfigFromEnv() hal.FactoryConfig {
	cfg := hal.DefaultFactoryConfig()
	cfg.PreferredType = Env("CAMERA_TYPE", DefaultCameraType)
	cfg.PreferProduction = EnvBool("CAMERA_PREFER_PRODUCTION", cfg.PreferProduction)
	cfg.AllowSimulation = EnvBool("CAMERA_ALLOW_SIMULATION", cfg.AllowSimulation)
	cfg.DetectionTimeout = EnvDuration("CAMERA_DETECTION_TIMEOUT", cfg.DetectionTimeout)
	cfg.ColorDevice = EnvInt("CAMERA_COLOR_DEVICE", cfg.ColorDevice)
	cfg.DepthDevice = EnvInt("CAMERA_DEPTH_DEVICE", cfg.DepthDevice)
	return cfg
}

// DiagAddr returns the diagnostics server listen address.
func DiagAddr() string {
	return Env("DIAG_ADDR", DefaultDiagAddr)
}
