package hal

import "context"

// Driver is the hardware-facing half of a camera backend. A Driver
// talks to one physical (or simulated) sensor; the Device wraps it
// with the state machine, capture worker, synchronization engine,
// callback delivery and telemetry so that every backend behaves
// identically at the Camera interface.
//
// The owning Device serializes lifecycle calls (Open, Close,
// Configure), but Calibrate, SelfTest and Temperature may overlap a
// GrabFrames in flight on the capture worker; drivers must guard any
// state shared between those paths. GrabFrames must allocate fresh
// buffers on every call - published frames are immutable snapshots
// and must not alias driver-internal memory.
type Driver interface {
	// Name returns the backend identifier (e.g. "femto_mega").
	Name() string

	// Probe cheaply checks whether the sensor is present without
	// claiming it. Used by the factory for hardware detection.
	Probe(ctx context.Context) error

	// Open claims the sensor. Called by Device.Connect.
	Open(ctx context.Context) error

	// Close releases the sensor. Must be safe to call when not open.
	Close() error

	// Configure applies a validated capture configuration.
	Configure(cfg CameraConfig) error

	// GrabFrames blocks for the next color/depth frame pair. Frames
	// carry driver-stamped per-stream sequence numbers and timestamps;
	// the Device fills in device ID, quality metrics, checksums and
	// validity.
	GrabFrames() (RGBFrame, DepthFrame, error)

	// Capabilities returns the static device description.
	Capabilities() CameraCapabilities

	// Calibrate runs the sensor self-calibration routine.
	Calibrate(ctx context.Context) error

	// SelfTest runs the safety/compliance self-test.
	SelfTest(ctx context.Context) error

	// Temperature returns the sensor temperature in Celsius, or zero
	// if the sensor does not report one.
	Temperature() float64
}
