package config

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "value")
	if got := Env("X_STR", "def"); got != "value" {
		t.Errorf("Env = %q", got)
	}
	if got := Env("X_MISSING", "def"); got != "def" {
		t.Errorf("Env default = %q", got)
	}

	t.Setenv("X_INT", "42")
	if got := EnvInt("X_INT", 1); got != 42 {
		t.Errorf("EnvInt = %d", got)
	}
	t.Setenv("X_INT_BAD", "not-a-number")
	if got := EnvInt("X_INT_BAD", 7); got != 7 {
		t.Errorf("EnvInt on malformed value = %d, want default", got)
	}

	t.Setenv("X_BOOL", "true")
	if !EnvBool("X_BOOL", false) {
		t.Error("EnvBool did not parse true")
	}

	t.Setenv("X_DUR", "250ms")
	if got := EnvDuration("X_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("EnvDuration = %v", got)
	}

	t.Setenv("X_FLOAT", "72.5")
	if got := EnvFloat("X_FLOAT", 1); got != 72.5 {
		t.Errorf("EnvFloat = %v", got)
	}
}

func TestCameraConfigFromEnv(t *testing.T) {
	t.Setenv("CAMERA_WIDTH", "1280")
	t.Setenv("CAMERA_HEIGHT", "720")
	t.Setenv("CAMERA_FPS", "15")
	t.Setenv("CAMERA_CHECKSUMS", "false")
	t.Setenv("CAMERA_TIMEOUT", "2s")

	cfg := CameraConfigFromEnv()
	if cfg.Width != 1280 || cfg.Height != 720 || cfg.FPS != 15 {
		t.Errorf("resolution = %dx%d@%d", cfg.Width, cfg.Height, cfg.FPS)
	}
	if cfg.EnableChecksums {
		t.Error("checksums not disabled from env")
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
	// Untouched fields keep their defaults.
	if !cfg.EnableColor || !cfg.EnableDepth {
		t.Error("stream defaults lost")
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("env config invalid: %v", errs)
	}
}

func TestFactoryConfigFromEnv(t *testing.T) {
	t.Setenv("CAMERA_TYPE", "simulation")
	t.Setenv("CAMERA_ALLOW_SIMULATION", "true")
	t.Setenv("CAMERA_COLOR_DEVICE", "2")

	cfg := FactoryConfigFromEnv()
	if cfg.PreferredType != "simulation" {
		t.Errorf("PreferredType = %q", cfg.PreferredType)
	}
	if !cfg.AllowSimulation {
		t.Error("AllowSimulation not set from env")
	}
	if cfg.ColorDevice != 2 {
		t.Errorf("ColorDevice = %d", cfg.ColorDevice)
	}
	if cfg.DepthDevice != 1 {
		t.Errorf("DepthDevice default = %d, want 1", cfg.DepthDevice)
	}
}

func TestDiagAddr(t *testing.T) {
	if got := DiagAddr(); got != DefaultDiagAddr {
		t.Errorf("DiagAddr default = %q", got)
	}
	t.Setenv("DIAG_ADDR", ":9999")
	if got := DiagAddr(); got != ":9999" {
		t.Errorf("DiagAddr = %q", got)
	}
}
