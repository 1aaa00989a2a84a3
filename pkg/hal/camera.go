// Package hal is the hardware abstraction layer for the therapy
// device's depth-sensing cameras.
//
// It owns the contract between interchangeable camera backends (Orbbec
// Femto Mega, Intel RealSense D435, a simulated sensor) and the rest
// of the pipeline: connection lifecycle, synchronized color/depth
// capture with integrity checksums, callback-driven delivery, a typed
// error taxonomy and performance telemetry.
//
// This package follows the Interface Segregation Principle (ISP) by
// defining small, focused interfaces that can be composed as needed.
// Consumers should depend only on the interfaces they actually use.
package hal

import "context"

// FrameCallback receives synchronized frame pairs. It is invoked
// directly on the capture worker: a callback body that blocks will
// starve the capture cadence. This is a contract the caller must
// honor, not one the engine enforces.
type FrameCallback func(rgb RGBFrame, depth DepthFrame)

// ErrorCallback receives failures detected during capture. It may be
// invoked from the control goroutine (for locally detected
// configuration errors) or from the capture worker (for runtime
// hardware faults).
type ErrorCallback func(code ErrorCode, message string)

// StatusCallback receives state machine transitions. Like
// ErrorCallback it may fire from either the control goroutine or the
// capture worker.
type StatusCallback func(status Status, message string)

// Connector manages the physical or logical device connection.
type Connector interface {
	// Connect establishes the connection. Transient CONNECTION_FAILED
	// results are expected to be retried by the caller with backoff;
	// the device performs no automatic retry.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down. It is always safe to call,
	// including when already disconnected.
	Disconnect() error
}

// CaptureController starts and stops the capture session.
type CaptureController interface {
	// StartCapture validates cfg before touching hardware and begins
	// producing frames on a dedicated worker. Only one session may be
	// active at a time.
	StartCapture(cfg CameraConfig) error

	// StopCapture halts frame production. It blocks until the capture
	// worker is quiescent and all in-flight callbacks have returned.
	StopCapture() error
}

// FrameSource provides pull-style access to captured frames. Every
// call blocks up to the configured bounded wait, then returns TIMEOUT.
type FrameSource interface {
	GetRGBFrame(ctx context.Context) (RGBFrame, error)
	GetDepthFrame(ctx context.Context) (DepthFrame, error)

	// GetSynchronizedFrames returns a temporally aligned color/depth
	// pair: sequence numbers differing by at most one frame and
	// timestamps within the configured tolerance. If one stream is
	// disabled the missing half is returned as a zero-value frame.
	GetSynchronizedFrames(ctx context.Context) (RGBFrame, DepthFrame, error)
}

// Observer registers the push-style delivery callbacks.
type Observer interface {
	SetFrameCallback(cb FrameCallback)
	SetErrorCallback(cb ErrorCallback)
	SetStatusCallback(cb StatusCallback)
}

// Inspector exposes device identity, state and telemetry. All methods
// are non-blocking.
type Inspector interface {
	// GetCapabilities returns the static device description, available
	// once the device is CONNECTED.
	GetCapabilities() CameraCapabilities

	// GetStatus returns the current state machine state.
	GetStatus() Status

	// GetLastError returns the most recent non-success result. It is
	// cleared by the next successful operation.
	GetLastError() (ErrorCode, string)

	// GetPerformanceMetrics returns a point-in-time telemetry snapshot.
	GetPerformanceMetrics() PerformanceMetrics
}

// Maintainer runs device self-tests.
type Maintainer interface {
	// Calibrate runs the device self-calibration.
	Calibrate(ctx context.Context) error

	// Validate runs the safety/compliance self-test. A failure is a
	// SAFETY_VIOLATION and the caller must refuse to proceed to
	// capture.
	Validate(ctx context.Context) error
}

// Camera is the composite contract every backend variant satisfies.
// The factory returns a Camera, never a concrete variant, so callers
// stay decoupled from backend identity.
type Camera interface {
	Connector
	CaptureController
	FrameSource
	Observer
	Inspector
	Maintainer
}

// Ensure Device implements Camera.
var _ Camera = (*Device)(nil)
