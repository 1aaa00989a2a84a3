package hal

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimulatedDriverName is the backend identifier of the synthetic
// sensor.
const SimulatedDriverName = "simulation"

// SimulatedDriver is the software backend variant. It produces
// deterministic synthetic color and depth frames and is used when no
// physical sensor is present, and by the test suite to exercise the
// full Camera contract without hardware.
//
// The Fail* methods inject failures for the next N operations; they
// exist so callers can rehearse the error taxonomy and recovery
// paths.
type SimulatedDriver struct {
	serial string

	mu       sync.Mutex
	open     bool
	cfg      CameraConfig
	colorSeq uint64
	depthSeq uint64

	// depthLag makes the depth stream trail the color stream by a
	// fixed number of frames, to exercise the skew tolerance.
	depthLag uint64

	failConnects int
	failGrabs    int
	grabDelay    time.Duration
	selfTestErr  error
	calibrateErr error
	temperature  float64
}

// SimulatedOption configures a SimulatedDriver.
type SimulatedOption func(*SimulatedDriver)

// WithDepthLag makes the depth stream trail the color stream by n
// frames (the synchronization engine tolerates n <= 1).
func WithDepthLag(n uint64) SimulatedOption {
	return func(s *SimulatedDriver) {
		s.depthLag = n
	}
}

// WithGrabDelay adds a fixed delay to every frame grab, for timeout
// rehearsal.
func WithGrabDelay(delay time.Duration) SimulatedOption {
	return func(s *SimulatedDriver) {
		s.grabDelay = delay
	}
}

// NewSimulatedDriver builds the synthetic sensor backend.
func NewSimulatedDriver(opts ...SimulatedOption) *SimulatedDriver {
	s := &SimulatedDriver{
		serial:      "SIM-" + uuid.NewString()[:8],
		temperature: 36.5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailConnects makes the next n Open calls fail with
// CONNECTION_FAILED.
func (s *SimulatedDriver) FailConnects(n int) {
	s.mu.Lock()
	s.failConnects = n
	s.mu.Unlock()
}

// FailGrabs makes the next n GrabFrames calls fail with
// CAPTURE_FAILED.
func (s *SimulatedDriver) FailGrabs(n int) {
	s.mu.Lock()
	s.failGrabs = n
	s.mu.Unlock()
}

// FailSelfTest makes SelfTest return err until cleared with nil.
func (s *SimulatedDriver) FailSelfTest(err error) {
	s.mu.Lock()
	s.selfTestErr = err
	s.mu.Unlock()
}

// FailCalibration makes Calibrate return err until cleared with nil.
func (s *SimulatedDriver) FailCalibration(err error) {
	s.mu.Lock()
	s.calibrateErr = err
	s.mu.Unlock()
}

// SetTemperature overrides the reported sensor temperature.
func (s *SimulatedDriver) SetTemperature(celsius float64) {
	s.mu.Lock()
	s.temperature = celsius
	s.mu.Unlock()
}

// Name implements Driver.
func (s *SimulatedDriver) Name() string { return SimulatedDriverName }

// Probe implements Driver. The simulated sensor is always present.
func (s *SimulatedDriver) Probe(ctx context.Context) error { return nil }

// Open implements Driver.
func (s *SimulatedDriver) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failConnects > 0 {
		s.failConnects--
		return Errorf(CodeConnectionFailed, "simulated connection failure")
	}
	s.open = true
	return nil
}

// Close implements Driver.
func (s *SimulatedDriver) Close() error {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
	return nil
}

// Configure implements Driver.
func (s *SimulatedDriver) Configure(cfg CameraConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return Errorf(CodeInitializationFailed, "simulated device is not open")
	}
	s.cfg = cfg
	s.colorSeq = 0
	s.depthSeq = 0
	return nil
}

// GrabFrames implements Driver. Frames are generated fresh on every
// call; buffers are never shared between grabs.
func (s *SimulatedDriver) GrabFrames() (RGBFrame, DepthFrame, error) {
	s.mu.Lock()
	if s.failGrabs > 0 {
		s.failGrabs--
		s.mu.Unlock()
		return RGBFrame{}, DepthFrame{}, Errorf(CodeCaptureFailed, "simulated grab failure")
	}
	cfg := s.cfg
	s.colorSeq++
	colorSeq := s.colorSeq
	var depthSeq uint64
	if s.colorSeq > s.depthLag {
		s.depthSeq = s.colorSeq - s.depthLag
	}
	depthSeq = s.depthSeq
	delay := s.grabDelay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	now := time.Now()
	var rgb RGBFrame
	var depth DepthFrame
	if cfg.EnableColor {
		rgb = s.synthColor(cfg, colorSeq, now)
	}
	if cfg.EnableDepth {
		depth = s.synthDepth(cfg, depthSeq, now)
	}
	return rgb, depth, nil
}

// synthColor renders a moving gradient so consecutive frames differ.
func (s *SimulatedDriver) synthColor(cfg CameraConfig, seq uint64, ts time.Time) RGBFrame {
	const channels = 3
	data := make([]byte, cfg.Width*cfg.Height*channels)
	phase := byte(seq % 251)
	i := 0
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			data[i] = byte(x) + phase
			data[i+1] = byte(y) + phase
			data[i+2] = phase
			i += channels
		}
	}
	return RGBFrame{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Channels:  channels,
		Data:      data,
		Sequence:  seq,
		Timestamp: ts,
	}
}

// synthDepth renders a radial depth field around 1.5m with a slow
// breathing motion driven by the sequence number.
func (s *SimulatedDriver) synthDepth(cfg CameraConfig, seq uint64, ts time.Time) DepthFrame {
	const scale = 1.0 // one raw unit = 1mm
	data := make([]uint16, cfg.Width*cfg.Height)
	cx := float64(cfg.Width) / 2
	cy := float64(cfg.Height) / 2
	breathe := 50 * math.Sin(float64(seq)/30)
	i := 0
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			mm := 1500 + math.Sqrt(dx*dx+dy*dy) + breathe
			data[i] = uint16(mm)
			i++
		}
	}
	return DepthFrame{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Data:       data,
		DepthScale: scale,
		Intrinsics: Intrinsics{
			Fx: 525.0,
			Fy: 525.0,
			Cx: cx,
			Cy: cy,
		},
		Sequence:  seq,
		Timestamp: ts,
	}
}

// Capabilities implements Driver.
func (s *SimulatedDriver) Capabilities() CameraCapabilities {
	return CameraCapabilities{
		ModelName:       "Simulated Depth Camera",
		SerialNumber:    s.serial,
		FirmwareVersion: "sim-1.0.0",
		SupportedResolutions: []Resolution{
			{320, 240},
			{640, 480},
			{1280, 720},
		},
		SupportedFPS:       []int{15, 30, 60},
		MinDepthMM:         200,
		MaxDepthMM:         5000,
		DepthAccuracyMM:    1,
		DepthScale:         1.0,
		HasColorStream:     true,
		HasInfraredStream:  false,
		MaxFrameRate:       60,
		PowerConsumptionMW: 0,
		MedicalGrade:       false,
		CalibrationDate:    "2025-01-01",
	}
}

// Calibrate implements Driver.
func (s *SimulatedDriver) Calibrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calibrateErr != nil {
		return s.calibrateErr
	}
	if !s.open {
		return Errorf(CodeCalibrationError, "simulated device is not open")
	}
	return nil
}

// SelfTest implements Driver.
func (s *SimulatedDriver) SelfTest(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selfTestErr != nil {
		return s.selfTestErr
	}
	if !s.open {
		return Errorf(CodeSafetyViolation, "simulated device is not open")
	}
	return nil
}

// Temperature implements Driver.
func (s *SimulatedDriver) Temperature() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.temperature
}

var _ Driver = (*SimulatedDriver)(nil)

// String identifies the driver in logs and detection reports.
func (s *SimulatedDriver) String() string {
	return fmt.Sprintf("%s (%s)", SimulatedDriverName, s.serial)
}
