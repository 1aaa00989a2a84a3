// Package service assembles the capture daemon: camera discovery,
// connection with retry, safety validation, capture and the
// diagnostics server.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/pkg/diag"
	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/pkg/hal"
)

// Config is the daemon configuration.
type Config struct {
	Factory hal.FactoryConfig
	Capture hal.CameraConfig

	// DiagAddr is the diagnostics listen address. Empty disables the
	// diagnostics server.
	DiagAddr string

	// ConnectAttempts is how many times Connect is tried before the
	// daemon gives up.
	ConnectAttempts int

	// ConnectBackoff is the delay between connect attempts.
	ConnectBackoff time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Factory:         hal.DefaultFactoryConfig(),
		Capture:         hal.DefaultCameraConfig(),
		DiagAddr:        ":8080",
		ConnectAttempts: 3,
		ConnectBackoff:  2 * time.Second,
	}
}

// App is the assembled capture daemon.
type App struct {
	cfg    Config
	logger *slog.Logger

	cam  hal.Camera
	diag *diag.Server
}

// New validates the configuration and builds the daemon.
func New(cfg Config) (*App, error) {
	if problems := cfg.Capture.Validate(); len(problems) > 0 {
		return nil, hal.Errorf(hal.CodeInvalidConfiguration,
			"capture configuration: %v", problems)
	}
	if cfg.ConnectAttempts < 1 {
		cfg.ConnectAttempts = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, logger: logger}, nil
}

// Camera exposes the managed camera, for probes and tests.
func (a *App) Camera() hal.Camera { return a.cam }

// Init discovers the camera, connects with retry and runs the safety
// validation. A SAFETY_VIOLATION here is terminal: the daemon must not
// start capturing.
func (a *App) Init(ctx context.Context) error {
	detections := hal.DetectCameras(ctx, a.cfg.Factory)
	for _, d := range detections {
		a.logger.Info("camera probe",
			"type", d.Type,
			"model", d.ModelName,
			"present", d.Present,
			"medical_grade", d.MedicalGrade)
	}

	cam, err := hal.NewCamera(ctx, a.cfg.Factory, hal.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.cam = cam

	if err := a.connectWithRetry(ctx); err != nil {
		return err
	}

	if err := cam.Validate(ctx); err != nil {
		return fmt.Errorf("device validation: %w", err)
	}

	if a.cfg.DiagAddr != "" {
		a.diag = diag.NewServer(a.cfg.DiagAddr, a.logger)
		a.diag.Attach(cam, a.cfg.Capture, detections)
	}
	return nil
}

// connectWithRetry attempts Connect up to ConnectAttempts times,
// backing off between failures. Non-retryable errors abort
// immediately.
func (a *App) connectWithRetry(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= a.cfg.ConnectAttempts; attempt++ {
		err := a.cam.Connect(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !hal.CodeOf(err).Retryable() {
			return err
		}
		a.logger.Warn("connect attempt failed",
			"attempt", attempt,
			"of", a.cfg.ConnectAttempts,
			"error", err)
		if attempt < a.cfg.ConnectAttempts {
			select {
			case <-time.After(a.cfg.ConnectBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("connect failed after %d attempts: %w", a.cfg.ConnectAttempts, lastErr)
}

// Run starts capture and the diagnostics server, then blocks until
// the context is cancelled or the device faults.
func (a *App) Run(ctx context.Context) error {
	fault := make(chan error, 1)
	a.cam.SetErrorCallback(func(code hal.ErrorCode, msg string) {
		if code.Fatal() {
			select {
			case fault <- hal.Errorf(code, "%s", msg):
			default:
			}
		}
	})

	if err := a.cam.StartCapture(a.cfg.Capture); err != nil {
		return err
	}
	caps := a.cam.GetCapabilities()
	a.logger.Info("capture started",
		"model", caps.ModelName,
		"serial", caps.SerialNumber,
		"width", a.cfg.Capture.Width,
		"height", a.cfg.Capture.Height,
		"fps", a.cfg.Capture.FPS)

	if a.diag != nil {
		a.diag.StartAsync()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-fault:
		return err
	}
}

// Shutdown stops capture, disconnects and tears down the diagnostics
// server. Safe to call after a failed Init.
func (a *App) Shutdown() {
	if a.diag != nil {
		if err := a.diag.Shutdown(); err != nil {
			a.logger.Warn("diagnostics shutdown failed", "error", err)
		}
	}
	if a.cam == nil {
		return
	}
	if a.cam.GetStatus() == hal.StatusCapturing {
		if err := a.cam.StopCapture(); err != nil {
			a.logger.Warn("stop capture failed", "error", err)
		}
	}
	if err := a.cam.Disconnect(); err != nil {
		a.logger.Warn("disconnect failed", "error", err)
	}
}
