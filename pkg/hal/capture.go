package hal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// captureSession is the per-StartCapture state shared between the
// capture worker and pull-style callers. The latest frame pair is a
// single-slot mailbox: an unconsumed pair that gets overwritten counts
// as a dropped frame.
type captureSession struct {
	cfg CameraConfig
	id  string

	stop chan struct{}
	wg   sync.WaitGroup

	mu         sync.Mutex
	rgb        RGBFrame
	depth      DepthFrame
	freshRGB   bool
	freshDepth bool

	// notify wakes blocked pull calls when a new pair is published.
	notify chan struct{}
}

func newCaptureSession(cfg CameraConfig, id string) *captureSession {
	return &captureSession{
		cfg:    cfg,
		id:     id,
		stop:   make(chan struct{}),
		notify: make(chan struct{}, 1),
	}
}

// shutdown signals the worker and blocks until it has reached its
// quiescent point: no grab in progress and all in-flight callback
// invocations returned.
func (s *captureSession) shutdown() {
	close(s.stop)
	s.wg.Wait()
}

// publish stores a new pair in the mailbox and wakes waiters. Returns
// true when the previous pair was overwritten unconsumed.
func (s *captureSession) publish(rgb RGBFrame, depth DepthFrame) (droppedPrev bool) {
	s.mu.Lock()
	droppedPrev = s.freshRGB || s.freshDepth
	s.rgb = rgb
	s.depth = depth
	s.freshRGB = s.cfg.EnableColor
	s.freshDepth = s.cfg.EnableDepth
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return droppedPrev
}

// captureLoop is the dedicated capture worker. It grabs frames at the
// configured rate, finalizes and publishes them, and delivers push
// callbacks. Transient grab failures move the device to ERROR with a
// bounded retry budget; exhausting it, or any fatal error, escalates
// to FAULT and halts capture.
func (d *Device) captureLoop(s *captureSession) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.framePeriod())
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		grabStart := time.Now()
		rgb, depth, err := d.driver.GrabFrames()
		if err != nil {
			failures++
			code := CodeOf(err)
			msg := fmt.Sprintf("frame grab failed: %v", err)
			if code.Fatal() || failures > d.recoveryAttempts {
				if !code.Fatal() {
					code = CodeHardwareFault
					msg = fmt.Sprintf("capture failed %d consecutive times, giving up: %v", failures, err)
				}
				d.reportError(code, msg)
				d.transition(StatusFault, "unrecoverable capture failure")
				return
			}
			d.reportError(code, msg)
			d.transition(StatusError, msg)
			continue
		}

		if s.cfg.MaxTemperature > 0 {
			if t := d.driver.Temperature(); t > s.cfg.MaxTemperature {
				failures++
				msg := fmt.Sprintf("sensor temperature %.1fC exceeds limit %.1fC", t, s.cfg.MaxTemperature)
				if failures > d.recoveryAttempts {
					d.reportError(CodeTemperatureError, msg)
					d.transition(StatusFault, "sustained overtemperature")
					return
				}
				d.reportError(CodeTemperatureError, msg)
				d.transition(StatusError, msg)
				continue
			}
		}

		if failures > 0 {
			failures = 0
			d.transition(StatusCapturing, "capture recovered")
		}

		d.finalizeFrames(&rgb, &depth, s.cfg)
		if s.publish(rgb, depth) {
			d.metrics.markDropped()
		}

		latency := time.Since(frameTimestamp(rgb, depth))
		d.metrics.markFrame(latency, time.Since(grabStart))

		// Push delivery runs on this worker, so there is never more
		// than one invocation in flight per registration.
		d.cbMu.Lock()
		cb := d.frameCB
		d.cbMu.Unlock()
		if cb != nil {
			cb(rgb, depth)
		}
	}
}

// finalizeFrames stamps device identity, quality metrics, checksums
// and validity onto driver frames before publication. Disabled
// streams are zeroed so stale driver data can never leak through.
func (d *Device) finalizeFrames(rgb *RGBFrame, depth *DepthFrame, cfg CameraConfig) {
	d.mu.Lock()
	deviceID := d.deviceID
	d.mu.Unlock()

	if cfg.EnableColor {
		rgb.DeviceID = deviceID
		if cfg.EnableValidation {
			rgb.Brightness = meanBrightness(rgb.Data)
		}
		if cfg.EnableChecksums {
			rgb.Checksum = rgb.ComputeChecksum()
			rgb.HasChecksum = true
		}
		rgb.Valid = rgb.Validate() == nil
	} else {
		*rgb = RGBFrame{}
	}

	if cfg.EnableDepth {
		depth.DeviceID = deviceID
		if cfg.EnableValidation {
			depth.MinDepth, depth.MaxDepth, depth.AverageDepth, depth.ValidPixels =
				analyzeDepth(depth.Data, depth.DepthScale)
		}
		if cfg.EnableChecksums {
			depth.Checksum = depth.ComputeChecksum()
			depth.HasChecksum = true
		}
		depth.Valid = depth.Validate() == nil
	} else {
		*depth = DepthFrame{}
	}
}

// frameTimestamp picks the capture timestamp of whichever stream is
// present, for latency accounting.
func frameTimestamp(rgb RGBFrame, depth DepthFrame) time.Time {
	if !rgb.Timestamp.IsZero() {
		return rgb.Timestamp
	}
	if !depth.Timestamp.IsZero() {
		return depth.Timestamp
	}
	return time.Now()
}

// GetRGBFrame returns the next color frame, blocking up to the
// configured bounded wait.
func (d *Device) GetRGBFrame(ctx context.Context) (RGBFrame, error) {
	s, err := d.activeSession()
	if err != nil {
		return RGBFrame{}, err
	}
	if !s.cfg.EnableColor {
		cerr := Errorf(CodeCaptureFailed, "color stream is disabled")
		d.recordError(cerr)
		return RGBFrame{}, cerr
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.pullTimeout())
	defer cancel()

	for {
		s.mu.Lock()
		if s.freshRGB {
			frame := s.rgb
			s.freshRGB = false
			s.mu.Unlock()
			if err := d.checkRGB(&frame, s.cfg); err != nil {
				return RGBFrame{}, err
			}
			d.clearLastError()
			return frame, nil
		}
		s.mu.Unlock()

		if err := s.wait(ctx); err != nil {
			d.recordError(err.(*CameraError))
			return RGBFrame{}, err
		}
	}
}

// GetDepthFrame returns the next depth frame, blocking up to the
// configured bounded wait.
func (d *Device) GetDepthFrame(ctx context.Context) (DepthFrame, error) {
	s, err := d.activeSession()
	if err != nil {
		return DepthFrame{}, err
	}
	if !s.cfg.EnableDepth {
		cerr := Errorf(CodeCaptureFailed, "depth stream is disabled")
		d.recordError(cerr)
		return DepthFrame{}, cerr
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.pullTimeout())
	defer cancel()

	for {
		s.mu.Lock()
		if s.freshDepth {
			frame := s.depth
			s.freshDepth = false
			s.mu.Unlock()
			if err := d.checkDepth(&frame, s.cfg); err != nil {
				return DepthFrame{}, err
			}
			d.clearLastError()
			return frame, nil
		}
		s.mu.Unlock()

		if err := s.wait(ctx); err != nil {
			d.recordError(err.(*CameraError))
			return DepthFrame{}, err
		}
	}
}

// GetSynchronizedFrames returns the next temporally aligned
// color/depth pair. A one-frame sequence skew is tolerated to allow
// independent stream pacing; anything beyond that, a timestamp delta
// over the tolerance, a validity failure or a checksum mismatch is a
// CAPTURE_FAILED, never a silent substitution of stale data. With one
// stream disabled the call degrades to single-stream semantics.
func (d *Device) GetSynchronizedFrames(ctx context.Context) (RGBFrame, DepthFrame, error) {
	s, err := d.activeSession()
	if err != nil {
		return RGBFrame{}, DepthFrame{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.pullTimeout())
	defer cancel()

	for {
		s.mu.Lock()
		ready := (!s.cfg.EnableColor || s.freshRGB) && (!s.cfg.EnableDepth || s.freshDepth)
		if ready && (s.freshRGB || s.freshDepth) {
			rgb, depth := s.rgb, s.depth
			s.freshRGB = false
			s.freshDepth = false
			s.mu.Unlock()

			if err := d.checkPair(&rgb, &depth, s.cfg); err != nil {
				return RGBFrame{}, DepthFrame{}, err
			}
			d.clearLastError()
			return rgb, depth, nil
		}
		s.mu.Unlock()

		if err := s.wait(ctx); err != nil {
			d.recordError(err.(*CameraError))
			return RGBFrame{}, DepthFrame{}, err
		}
	}
}

// wait blocks until a new pair is published, the session stops or the
// bounded wait expires.
func (s *captureSession) wait(ctx context.Context) error {
	select {
	case <-s.notify:
		return nil
	case <-s.stop:
		return Errorf(CodeCaptureFailed, "capture session stopped while waiting for frames")
	case <-ctx.Done():
		return Errorf(CodeTimeout, "no frame available within %v", s.cfg.pullTimeout())
	}
}

// activeSession returns the current capture session or a
// CAPTURE_FAILED error when capture is not running.
func (d *Device) activeSession() (*captureSession, error) {
	d.mu.Lock()
	s := d.session
	d.mu.Unlock()
	if s == nil {
		cerr := Errorf(CodeCaptureFailed, "no active capture session")
		d.recordError(cerr)
		return nil, cerr
	}
	return s, nil
}

// checkRGB enforces the single-stream delivery contract.
func (d *Device) checkRGB(f *RGBFrame, cfg CameraConfig) error {
	if cfg.EnableValidation {
		if err := f.Validate(); err != nil {
			cerr := &CameraError{Code: CodeCaptureFailed, Message: "rgb frame failed validation", Err: err}
			d.recordError(cerr)
			return cerr
		}
	}
	if cfg.EnableChecksums && !f.VerifyChecksum() {
		cerr := Errorf(CodeCaptureFailed,
			"rgb frame integrity check failed: checksum mismatch on seq %d", f.Sequence)
		d.recordError(cerr)
		return cerr
	}
	return nil
}

// checkDepth enforces the single-stream delivery contract.
func (d *Device) checkDepth(f *DepthFrame, cfg CameraConfig) error {
	if cfg.EnableValidation {
		if err := f.Validate(); err != nil {
			cerr := &CameraError{Code: CodeCaptureFailed, Message: "depth frame failed validation", Err: err}
			d.recordError(cerr)
			return cerr
		}
	}
	if cfg.EnableChecksums && !f.VerifyChecksum() {
		cerr := Errorf(CodeCaptureFailed,
			"depth frame integrity check failed: checksum mismatch on seq %d", f.Sequence)
		d.recordError(cerr)
		return cerr
	}
	return nil
}

// checkPair enforces the synchronized delivery contract on a pair.
func (d *Device) checkPair(rgb *RGBFrame, depth *DepthFrame, cfg CameraConfig) error {
	if cfg.EnableColor {
		if err := d.checkRGB(rgb, cfg); err != nil {
			return err
		}
	}
	if cfg.EnableDepth {
		if err := d.checkDepth(depth, cfg); err != nil {
			return err
		}
	}
	if !cfg.EnableColor || !cfg.EnableDepth {
		return nil
	}

	if skew := seqSkew(rgb.Sequence, depth.Sequence); skew > 1 {
		cerr := Errorf(CodeCaptureFailed,
			"streams desynchronized: rgb seq %d vs depth seq %d (skew %d)",
			rgb.Sequence, depth.Sequence, skew)
		d.recordError(cerr)
		return cerr
	}

	tol := d.syncTolerance
	if tol <= 0 {
		tol = 2 * cfg.framePeriod()
	}
	delta := rgb.Timestamp.Sub(depth.Timestamp)
	if delta < 0 {
		delta = -delta
	}
	if delta > tol {
		cerr := Errorf(CodeCaptureFailed,
			"streams desynchronized: timestamp delta %v exceeds tolerance %v", delta, tol)
		d.recordError(cerr)
		return cerr
	}
	return nil
}

// seqSkew returns |a-b| for unsigned sequence numbers.
func seqSkew(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
