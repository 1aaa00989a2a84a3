package hal

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Device wraps a Driver with everything a backend variant shares: the
// connection state machine, the dedicated capture worker, the
// synchronization engine, callback delivery and telemetry. All public
// methods are safe for concurrent use.
//
// Callbacks must not call back into lifecycle methods (StartCapture,
// StopCapture, Connect, Disconnect); doing so would deadlock against
// the quiescence guarantee of StopCapture.
type Device struct {
	driver Driver
	logger *slog.Logger

	// syncTolerance bounds the timestamp delta of a synchronized
	// pair. Zero means twice the configured frame period.
	syncTolerance time.Duration

	// recoveryAttempts is how many consecutive capture failures are
	// tolerated in the ERROR state before escalating to FAULT.
	recoveryAttempts int

	// opMu serializes lifecycle operations so that concurrent
	// StartCapture calls fail deterministically instead of racing.
	opMu sync.Mutex

	mu       sync.Mutex
	status   Status
	lastCode ErrorCode
	lastMsg  string
	session  *captureSession
	deviceID string

	cbMu     sync.Mutex
	frameCB  FrameCallback
	errorCB  ErrorCallback
	statusCB StatusCallback

	metrics *metricsCollector
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the structured logger. The device never reads
// process-global configuration; inject everything it needs.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Device) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSyncTolerance sets the maximum timestamp delta for a pair to
// count as synchronized. Zero keeps the default of two frame periods.
func WithSyncTolerance(tol time.Duration) Option {
	return func(d *Device) {
		d.syncTolerance = tol
	}
}

// WithRecoveryAttempts sets how many consecutive transient capture
// failures are retried before the device escalates to FAULT.
func WithRecoveryAttempts(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.recoveryAttempts = n
		}
	}
}

// NewDevice builds a Device around a backend driver.
func NewDevice(driver Driver, opts ...Option) *Device {
	d := &Device{
		driver:           driver,
		logger:           slog.Default(),
		recoveryAttempts: 3,
		status:           StatusDisconnected,
		metrics:          newMetricsCollector(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("camera", driver.Name())
	return d
}

// Connect establishes the device connection. Safe to call when
// already connected. Transient failures return CONNECTION_FAILED; the
// caller owns the retry policy.
func (d *Device) Connect(ctx context.Context) error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.mu.Lock()
	if d.status.Operational() {
		d.mu.Unlock()
		return nil
	}
	if d.status == StatusFault {
		d.mu.Unlock()
		cerr := Errorf(CodeHardwareFault, "device is in FAULT state, disconnect first")
		d.recordError(cerr)
		return cerr
	}
	d.mu.Unlock()

	d.transition(StatusConnecting, "connecting")
	if err := d.driver.Open(ctx); err != nil {
		d.transition(StatusDisconnected, "connection failed")
		cerr := asCameraError(err, CodeConnectionFailed, "could not open device")
		d.recordError(cerr)
		return cerr
	}

	caps := d.driver.Capabilities()
	if err := caps.Validate(); err != nil {
		d.driver.Close()
		d.transition(StatusDisconnected, "capability record rejected")
		cerr := &CameraError{Code: CodeInitializationFailed, Message: "device capability record rejected", Err: err}
		d.recordError(cerr)
		return cerr
	}

	d.mu.Lock()
	d.deviceID = caps.SerialNumber
	d.mu.Unlock()

	d.transition(StatusConnected, "connected")
	d.clearLastError()
	d.logger.Info("camera connected",
		"model", caps.ModelName,
		"serial", caps.SerialNumber,
		"firmware", caps.FirmwareVersion)
	return nil
}

// Disconnect stops any active capture, releases the device and
// returns to DISCONNECTED. Always succeeds, including when already
// disconnected; calling it twice in a row is a no-op.
func (d *Device) Disconnect() error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.mu.Lock()
	s := d.session
	d.session = nil
	alreadyDown := d.status == StatusDisconnected
	d.mu.Unlock()

	if s != nil {
		s.shutdown()
	}
	if alreadyDown {
		return nil
	}
	if err := d.driver.Close(); err != nil {
		d.logger.Warn("driver close reported error", "error", err)
	}
	d.transition(StatusDisconnected, "disconnected")
	return nil
}

// StartCapture validates cfg, configures the driver and starts the
// capture worker. Invalid configs are rejected synchronously with
// INVALID_CONFIGURATION and no state change. Only one capture session
// may be active; a second call fails instead of reconfiguring.
func (d *Device) StartCapture(cfg CameraConfig) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		cerr := Errorf(CodeInvalidConfiguration, "invalid configuration: %s", strings.Join(errs, "; "))
		d.recordError(cerr)
		return cerr
	}

	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.mu.Lock()
	switch d.status {
	case StatusConnected, StatusReady:
		// proceed
	case StatusCapturing, StatusError, StatusInitializing:
		d.mu.Unlock()
		cerr := Errorf(CodeCaptureFailed, "capture session already active")
		d.recordError(cerr)
		return cerr
	default:
		st := d.status
		d.mu.Unlock()
		cerr := Errorf(CodeInitializationFailed, "cannot start capture while %s", st)
		d.recordError(cerr)
		return cerr
	}
	d.mu.Unlock()

	// Undeclared modes are allowed through with a warning: the sensor
	// may still negotiate or scale them, and the driver rejects what it
	// truly cannot do.
	if caps := d.driver.Capabilities(); !caps.SupportsResolution(cfg.Width, cfg.Height) || !caps.SupportsFPS(cfg.FPS) {
		d.logger.Warn("requested capture mode not in declared modes",
			"resolution", Resolution{cfg.Width, cfg.Height},
			"fps", cfg.FPS,
			"model", caps.ModelName)
	}

	d.transition(StatusInitializing, "configuring capture pipeline")
	if err := d.driver.Configure(cfg); err != nil {
		d.transition(StatusConnected, "configuration rejected by driver")
		cerr := asCameraError(err, CodeInitializationFailed, "driver configuration failed")
		d.recordError(cerr)
		return cerr
	}
	d.transition(StatusReady, "capture pipeline ready")

	s := newCaptureSession(cfg, uuid.NewString())
	d.mu.Lock()
	d.session = s
	d.mu.Unlock()

	d.metrics.reset()
	s.wg.Add(1)
	go d.captureLoop(s)

	d.transition(StatusCapturing, "capture started")
	d.clearLastError()
	d.logger.Info("capture session started",
		"session", s.id,
		"resolution", Resolution{cfg.Width, cfg.Height},
		"fps", cfg.FPS,
		"color", cfg.EnableColor,
		"depth", cfg.EnableDepth)
	return nil
}

// StopCapture halts frame production. It blocks until the capture
// worker has reached a quiescent point and all in-flight callback
// invocations have returned. Safe to call when not capturing.
func (d *Device) StopCapture() error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.mu.Lock()
	s := d.session
	d.session = nil
	d.mu.Unlock()

	if s == nil {
		return nil
	}
	s.shutdown()

	d.mu.Lock()
	stoppable := d.status == StatusCapturing || d.status == StatusError || d.status == StatusReady
	d.mu.Unlock()
	if stoppable {
		d.transition(StatusReady, "capture stopped")
		d.clearLastError()
	}
	d.logger.Info("capture session stopped", "session", s.id)
	return nil
}

// Calibrate runs the device self-calibration routine. It is
// serialized against lifecycle operations; it may overlap a running
// capture worker, which drivers tolerate.
func (d *Device) Calibrate(ctx context.Context) error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	if st := d.GetStatus(); !st.Operational() {
		cerr := Errorf(CodeCalibrationError, "cannot calibrate while %s", st)
		d.recordError(cerr)
		return cerr
	}
	if err := d.driver.Calibrate(ctx); err != nil {
		cerr := asCameraError(err, CodeCalibrationError, "self-calibration failed")
		d.recordError(cerr)
		return cerr
	}
	d.clearLastError()
	return nil
}

// Validate runs the safety self-test. A failure is surfaced as
// SAFETY_VIOLATION through the return value, the error callback and
// GetLastError, and forces the device into FAULT: this is a
// safety-relevant device and a violation is never downgraded.
func (d *Device) Validate(ctx context.Context) error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	if st := d.GetStatus(); !st.Operational() {
		cerr := Errorf(CodeSafetyViolation, "cannot validate while %s", st)
		d.recordError(cerr)
		return cerr
	}
	if err := d.driver.SelfTest(ctx); err != nil {
		cerr := asCameraError(err, CodeSafetyViolation, "safety self-test failed")
		d.reportError(cerr.Code, cerr.Message)
		d.transition(StatusFault, "safety self-test failed")
		return cerr
	}
	d.clearLastError()
	return nil
}

// GetCapabilities returns the static device description.
func (d *Device) GetCapabilities() CameraCapabilities {
	return d.driver.Capabilities()
}

// GetStatus returns the current state machine state. Non-blocking.
func (d *Device) GetStatus() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// GetLastError returns the most recent non-success result. Cleared on
// the next successful operation.
func (d *Device) GetLastError() (ErrorCode, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastCode, d.lastMsg
}

// GetPerformanceMetrics returns a point-in-time telemetry snapshot.
func (d *Device) GetPerformanceMetrics() PerformanceMetrics {
	return d.metrics.snapshot(d.driver.Temperature())
}

// SetFrameCallback registers the synchronized-pair observer. The
// callback runs on the capture worker with at most one concurrent
// invocation.
func (d *Device) SetFrameCallback(cb FrameCallback) {
	d.cbMu.Lock()
	d.frameCB = cb
	d.cbMu.Unlock()
}

// SetErrorCallback registers the error observer.
func (d *Device) SetErrorCallback(cb ErrorCallback) {
	d.cbMu.Lock()
	d.errorCB = cb
	d.cbMu.Unlock()
}

// SetStatusCallback registers the status transition observer.
func (d *Device) SetStatusCallback(cb StatusCallback) {
	d.cbMu.Lock()
	d.statusCB = cb
	d.cbMu.Unlock()
}

// transition moves the state machine to next and notifies the status
// observer. Illegal edges are ignored (the worker may race a
// control-side transition; the map is the source of truth).
func (d *Device) transition(next Status, msg string) {
	d.mu.Lock()
	if d.status == next {
		d.mu.Unlock()
		return
	}
	if !d.status.CanTransition(next) {
		d.logger.Debug("ignoring illegal status transition",
			"from", d.status, "to", next)
		d.mu.Unlock()
		return
	}
	prev := d.status
	d.status = next
	d.mu.Unlock()

	d.logger.Debug("camera status changed", "from", prev, "to", next, "reason", msg)

	d.cbMu.Lock()
	cb := d.statusCB
	d.cbMu.Unlock()
	if cb != nil {
		cb(next, msg)
	}
}

// recordError stores the last error without invoking the error
// callback. Used for synchronous failures already reported through
// the return value.
func (d *Device) recordError(cerr *CameraError) {
	d.mu.Lock()
	d.lastCode = cerr.Code
	d.lastMsg = cerr.Message
	d.mu.Unlock()
}

// reportError stores the last error and invokes the error callback.
// Used for failures detected on the capture worker and for fatal
// conditions, which must be surfaced through every channel.
func (d *Device) reportError(code ErrorCode, msg string) {
	d.mu.Lock()
	d.lastCode = code
	d.lastMsg = msg
	d.mu.Unlock()

	d.logger.Error("camera error", "code", code, "message", msg)

	d.cbMu.Lock()
	cb := d.errorCB
	d.cbMu.Unlock()
	if cb != nil {
		cb(code, msg)
	}
}

func (d *Device) clearLastError() {
	d.mu.Lock()
	d.lastCode = CodeSuccess
	d.lastMsg = ""
	d.mu.Unlock()
}

// asCameraError keeps the code of a classified driver error and wraps
// everything else under the fallback code.
func asCameraError(err error, fallback ErrorCode, msg string) *CameraError {
	if cerr, ok := err.(*CameraError); ok {
		return cerr
	}
	return &CameraError{Code: fallback, Message: msg, Err: err}
}
