package hal

import (
	"fmt"
	"time"
)

// CameraConfig holds the capture session parameters. A config is
// validated before any hardware is touched; StartCapture rejects
// invalid configs with INVALID_CONFIGURATION and no side effects.
type CameraConfig struct {
	// === Resolution ===
	Width  int `json:"width"`  // frame width in pixels
	Height int `json:"height"` // frame height in pixels
	FPS    int `json:"fps"`    // target frame rate

	// === Streams ===
	EnableColor bool `json:"enable_color"`
	EnableDepth bool `json:"enable_depth"`

	// === Data integrity ===
	// EnableValidation runs the per-frame invariant checks and fills
	// in quality metrics before a frame is published.
	EnableValidation bool `json:"enable_validation"`
	// EnableChecksums stamps every published frame with a CRC-32 of
	// its pixel buffer.
	EnableChecksums bool `json:"enable_checksums"`
	// MinConfidence is the minimum acceptable data confidence (0-1),
	// passed through to drivers that support it.
	MinConfidence float64 `json:"min_confidence"`

	// === Capture behavior ===
	// BufferSize is the driver-side frame queue depth.
	BufferSize int `json:"buffer_size"`
	// Timeout bounds every pull-style frame call. A pull that exceeds
	// it returns TIMEOUT, never an indefinite hang.
	Timeout time.Duration `json:"timeout"`
	// AutoExposure enables the driver's auto exposure control.
	AutoExposure bool `json:"auto_exposure"`

	// === Safety ===
	// MaxTemperature is the operating limit in Celsius. Exceeding it
	// during capture raises TEMPERATURE_ERROR. Zero disables the check.
	MaxTemperature float64 `json:"max_temperature"`
}

// DefaultCameraConfig returns the standard capture configuration used
// by the therapy pipeline: VGA color+depth at 30 fps with validation
// and checksums on.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Width:  640,
		Height: 480,
		FPS:    30,

		EnableColor: true,
		EnableDepth: true,

		EnableValidation: true,
		EnableChecksums:  true,
		MinConfidence:    0.8,

		BufferSize:   5,
		Timeout:      time.Second,
		AutoExposure: true,

		MaxTemperature: 70.0,
	}
}

// Validate checks config values and returns a list of problems, or
// nil if the config is valid.
func (c CameraConfig) Validate() []string {
	var errs []string

	if c.Width <= 0 {
		errs = append(errs, "width must be positive")
	}
	if c.Height <= 0 {
		errs = append(errs, "height must be positive")
	}
	if c.FPS <= 0 {
		errs = append(errs, "fps must be positive")
	}
	if !c.EnableColor && !c.EnableDepth {
		errs = append(errs, "at least one of color or depth must be enabled")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, fmt.Sprintf("min_confidence must be in [0,1], got %v", c.MinConfidence))
	}
	if c.BufferSize < 0 {
		errs = append(errs, "buffer_size cannot be negative")
	}
	if c.Timeout < 0 {
		errs = append(errs, "timeout cannot be negative")
	}
	if c.MaxTemperature < 0 {
		errs = append(errs, "max_temperature cannot be negative")
	}

	return errs
}

// framePeriod returns the nominal time between frames at the
// configured rate.
func (c CameraConfig) framePeriod() time.Duration {
	if c.FPS <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.FPS)
}

// pullTimeout returns the bounded wait for pull-style calls.
func (c CameraConfig) pullTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return time.Second
}
