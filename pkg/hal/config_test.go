package hal

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultCameraConfigIsValid(t *testing.T) {
	if errs := DefaultCameraConfig().Validate(); len(errs) > 0 {
		t.Fatalf("default config invalid: %v", errs)
	}
}

func TestConfigValidateCatchesProblems(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CameraConfig)
		want   string
	}{
		{"zero width", func(c *CameraConfig) { c.Width = 0 }, "width"},
		{"negative height", func(c *CameraConfig) { c.Height = -1 }, "height"},
		{"zero fps", func(c *CameraConfig) { c.FPS = 0 }, "fps"},
		{"no streams", func(c *CameraConfig) { c.EnableColor = false; c.EnableDepth = false }, "at least one"},
		{"confidence above one", func(c *CameraConfig) { c.MinConfidence = 1.5 }, "min_confidence"},
		{"negative buffer", func(c *CameraConfig) { c.BufferSize = -1 }, "buffer_size"},
		{"negative timeout", func(c *CameraConfig) { c.Timeout = -time.Second }, "timeout"},
		{"negative temperature", func(c *CameraConfig) { c.MaxTemperature = -5 }, "max_temperature"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultCameraConfig()
			tc.mutate(&cfg)
			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatal("invalid config accepted")
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e, tc.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("problems %v do not mention %q", errs, tc.want)
			}
		})
	}
}

func TestConfigValidateCollectsAllProblems(t *testing.T) {
	cfg := CameraConfig{Width: 0, Height: 0, FPS: 0}
	if errs := cfg.Validate(); len(errs) < 4 {
		t.Errorf("got %d problems %v, want every violation listed", len(errs), errs)
	}
}

func TestFramePeriod(t *testing.T) {
	cfg := DefaultCameraConfig()
	cfg.FPS = 50
	if got := cfg.framePeriod(); got != 20*time.Millisecond {
		t.Errorf("framePeriod at 50fps = %v, want 20ms", got)
	}
	cfg.FPS = 0
	if got := cfg.framePeriod(); got != time.Second/30 {
		t.Errorf("framePeriod fallback = %v, want 33ms", got)
	}
}

func TestPullTimeout(t *testing.T) {
	cfg := DefaultCameraConfig()
	cfg.Timeout = 250 * time.Millisecond
	if got := cfg.pullTimeout(); got != 250*time.Millisecond {
		t.Errorf("pullTimeout = %v, want 250ms", got)
	}
	cfg.Timeout = 0
	if got := cfg.pullTimeout(); got != time.Second {
		t.Errorf("pullTimeout default = %v, want 1s", got)
	}
}
