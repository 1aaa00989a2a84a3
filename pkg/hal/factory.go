package hal

import (
	"context"
	"log/slog"
	"time"
)

// FactoryConfig controls backend discovery and selection.
type FactoryConfig struct {
	// PreferredType pins the backend ("d435", "femto_mega",
	// "simulation"). "auto" probes in preference order.
	PreferredType string

	// PreferProduction tries the production sensor before the
	// development one during auto selection.
	PreferProduction bool

	// AllowSimulation permits falling back to the simulated backend
	// when no physical sensor is present. Without it, discovery fails
	// with DEVICE_NOT_FOUND.
	AllowSimulation bool

	// DetectionTimeout bounds each hardware probe.
	DetectionTimeout time.Duration

	// ColorDevice/DepthDevice override the default video node indexes
	// for physical sensors.
	ColorDevice int
	DepthDevice int

	Logger *slog.Logger
}

// DefaultFactoryConfig returns the production defaults: automatic
// selection preferring the Femto Mega, simulation fallback off.
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		PreferredType:    "auto",
		PreferProduction: true,
		AllowSimulation:  false,
		DetectionTimeout: 5 * time.Second,
		ColorDevice:      0,
		DepthDevice:      1,
	}
}

// DetectedCamera describes one probe result. cmd/camera-probe prints
// these; the factory uses them for selection.
type DetectedCamera struct {
	Type         string `json:"type"`
	ModelName    string `json:"model_name"`
	SerialNumber string `json:"serial_number"`
	MedicalGrade bool   `json:"medical_grade"`
	Present      bool   `json:"present"`
	Detail       string `json:"detail,omitempty"`
}

// backendOrder returns driver constructors in selection order for the
// given config. The simulated backend, when permitted, is always the
// last resort.
func backendOrder(cfg FactoryConfig) []func() Driver {
	d435 := func() Driver { return NewD435Driver(cfg.ColorDevice, cfg.DepthDevice) }
	femto := func() Driver { return NewFemtoMegaDriver(cfg.ColorDevice, cfg.DepthDevice) }
	sim := func() Driver { return NewSimulatedDriver() }

	switch cfg.PreferredType {
	case D435DriverName:
		return []func() Driver{d435}
	case FemtoMegaDriverName:
		return []func() Driver{femto}
	case SimulatedDriverName:
		return []func() Driver{sim}
	}

	var order []func() Driver
	if cfg.PreferProduction {
		order = []func() Driver{femto, d435}
	} else {
		order = []func() Driver{d435, femto}
	}
	if cfg.AllowSimulation {
		order = append(order, sim)
	}
	return order
}

// probeBackend runs one bounded hardware probe.
func probeBackend(ctx context.Context, drv Driver, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return drv.Probe(ctx)
}

// DetectCameras probes every backend the config allows and reports
// what was found. It claims no hardware.
func DetectCameras(ctx context.Context, cfg FactoryConfig) []DetectedCamera {
	var results []DetectedCamera
	for _, build := range backendOrder(cfg) {
		drv := build()
		caps := drv.Capabilities()
		res := DetectedCamera{
			Type:         drv.Name(),
			ModelName:    caps.ModelName,
			SerialNumber: caps.SerialNumber,
			MedicalGrade: caps.MedicalGrade,
			Present:      true,
		}
		if err := probeBackend(ctx, drv, cfg.DetectionTimeout); err != nil {
			res.Present = false
			res.Detail = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// NewCamera discovers and instantiates the first usable backend. It
// returns the abstract Camera, never a concrete variant, so callers
// stay decoupled from backend identity. Fails with DEVICE_NOT_FOUND
// when nothing probes and simulation fallback is not permitted.
func NewCamera(ctx context.Context, cfg FactoryConfig, opts ...Option) (Camera, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	order := backendOrder(cfg)
	if len(order) == 0 {
		return nil, Errorf(CodeDeviceNotFound, "no camera backends enabled by configuration")
	}

	for _, build := range order {
		drv := build()
		if err := probeBackend(ctx, drv, cfg.DetectionTimeout); err != nil {
			logger.Debug("camera backend not present", "backend", drv.Name(), "error", err)
			continue
		}

		logger.Info("selected camera backend",
			"backend", drv.Name(),
			"model", drv.Capabilities().ModelName)
		if cfg.Logger != nil {
			opts = append([]Option{WithLogger(cfg.Logger)}, opts...)
		}
		return NewDevice(drv, opts...), nil
	}

	return nil, Errorf(CodeDeviceNotFound,
		"no supported depth camera detected and simulation fallback is disabled")
}
