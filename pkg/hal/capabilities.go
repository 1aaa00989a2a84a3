package hal

import "fmt"

// Resolution is a supported capture resolution.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String returns the resolution as "WxH".
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// CameraCapabilities describes the static hardware capabilities of a
// connected camera. The factory and the analysis pipeline use it for
// backend selection and calibration context.
type CameraCapabilities struct {
	ModelName       string `json:"model_name"`
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`

	SupportedResolutions []Resolution `json:"supported_resolutions"`
	SupportedFPS         []int        `json:"supported_fps"`

	// Depth range and accuracy, millimeters.
	MinDepthMM      float64 `json:"min_depth_mm"`
	MaxDepthMM      float64 `json:"max_depth_mm"`
	DepthAccuracyMM float64 `json:"depth_accuracy_mm"`
	DepthScale      float64 `json:"depth_scale"`

	HasColorStream    bool `json:"has_color_stream"`
	HasInfraredStream bool `json:"has_infrared_stream"`

	MaxFrameRate       float64 `json:"max_frame_rate"`
	PowerConsumptionMW int     `json:"power_consumption_mw"`

	// Factory calibration record. A device without a calibration date
	// was never factory-calibrated and must not be used.
	MedicalGrade          bool   `json:"medical_grade"`
	CalibrationDate       string `json:"calibration_date"`
	RequiresRecalibration bool   `json:"requires_recalibration"`
}

// Validate checks that the capability record describes a usable,
// factory-calibrated device.
func (c CameraCapabilities) Validate() error {
	if c.ModelName == "" || c.SerialNumber == "" || c.FirmwareVersion == "" {
		return fmt.Errorf("capabilities missing device identity")
	}
	if len(c.SupportedResolutions) == 0 {
		return fmt.Errorf("capabilities list no supported resolutions")
	}
	if len(c.SupportedFPS) == 0 {
		return fmt.Errorf("capabilities list no supported frame rates")
	}
	if c.MaxDepthMM <= c.MinDepthMM {
		return fmt.Errorf("depth range [%v, %v] is inverted or empty", c.MinDepthMM, c.MaxDepthMM)
	}
	if c.DepthAccuracyMM <= 0 {
		return fmt.Errorf("depth accuracy must be positive, got %v", c.DepthAccuracyMM)
	}
	if c.DepthScale <= 0 {
		return fmt.Errorf("depth scale must be positive, got %v", c.DepthScale)
	}
	if c.MaxFrameRate <= 0 {
		return fmt.Errorf("max frame rate must be positive, got %v", c.MaxFrameRate)
	}
	if c.PowerConsumptionMW < 0 {
		return fmt.Errorf("power consumption cannot be negative, got %d", c.PowerConsumptionMW)
	}
	if c.CalibrationDate == "" {
		return fmt.Errorf("device has no factory calibration record")
	}
	return nil
}

// SupportsResolution reports whether the device supports a WxH mode.
func (c CameraCapabilities) SupportsResolution(width, height int) bool {
	for _, r := range c.SupportedResolutions {
		if r.Width == width && r.Height == height {
			return true
		}
	}
	return false
}

// SupportsFPS reports whether the device supports the frame rate.
func (c CameraCapabilities) SupportsFPS(fps int) bool {
	for _, f := range c.SupportedFPS {
		if f == fps {
			return true
		}
	}
	return false
}
