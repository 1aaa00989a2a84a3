package hal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// uvcCamera drives a physical depth camera through its UVC video
// nodes using OpenCV. Both supported sensors enumerate two nodes: an
// 8-bit BGR color node and a 16-bit raw depth node. Vendor-specific
// tuning beyond what UVC exposes is handled by the sensor firmware.
type uvcCamera struct {
	name        string
	colorDevice int
	depthDevice int
	caps        CameraCapabilities

	// reportsTemperature is set for sensors that expose the UVC
	// temperature property.
	reportsTemperature bool

	mu       sync.Mutex
	color    *gocv.VideoCapture
	depth    *gocv.VideoCapture
	cfg      CameraConfig
	colorSeq uint64
	depthSeq uint64
}

func (u *uvcCamera) Name() string { return u.name }

// Probe checks for the sensor without claiming it: the color node
// must open and report as ready.
func (u *uvcCamera) Probe(ctx context.Context) error {
	cap, err := gocv.OpenVideoCapture(u.colorDevice)
	if err != nil {
		return &CameraError{
			Code:    CodeDeviceNotFound,
			Message: fmt.Sprintf("%s: color node /dev/video%d not available", u.name, u.colorDevice),
			Err:     err,
		}
	}
	defer cap.Close()
	if !cap.IsOpened() {
		return Errorf(CodeDeviceNotFound, "%s: color node /dev/video%d did not open", u.name, u.colorDevice)
	}
	return nil
}

// Open claims both video nodes.
func (u *uvcCamera) Open(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.color != nil {
		return nil
	}

	color, err := gocv.OpenVideoCapture(u.colorDevice)
	if err != nil {
		return &CameraError{
			Code:    CodeConnectionFailed,
			Message: fmt.Sprintf("%s: opening color node /dev/video%d", u.name, u.colorDevice),
			Err:     err,
		}
	}
	depth, err := gocv.OpenVideoCapture(u.depthDevice)
	if err != nil {
		color.Close()
		return &CameraError{
			Code:    CodeConnectionFailed,
			Message: fmt.Sprintf("%s: opening depth node /dev/video%d", u.name, u.depthDevice),
			Err:     err,
		}
	}

	u.color = color
	u.depth = depth
	return nil
}

// Close releases both nodes. Safe to call when not open.
func (u *uvcCamera) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.color != nil {
		u.color.Close()
		u.color = nil
	}
	if u.depth != nil {
		u.depth.Close()
		u.depth = nil
	}
	return nil
}

// Configure applies resolution, rate and exposure settings to both
// nodes. The depth node must deliver raw 16-bit samples, so RGB
// conversion is disabled on it.
func (u *uvcCamera) Configure(cfg CameraConfig) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.color == nil || u.depth == nil {
		return Errorf(CodeInitializationFailed, "%s: device is not open", u.name)
	}

	for _, cap := range []*gocv.VideoCapture{u.color, u.depth} {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
		cap.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
		cap.Set(gocv.VideoCaptureBufferSize, float64(cfg.BufferSize))
	}
	u.depth.Set(gocv.VideoCaptureConvertRGB, 0)
	if cfg.AutoExposure {
		u.color.Set(gocv.VideoCaptureAutoExposure, 1)
	} else {
		u.color.Set(gocv.VideoCaptureAutoExposure, 0)
	}

	u.cfg = cfg
	u.colorSeq = 0
	u.depthSeq = 0
	return nil
}

// GrabFrames reads one frame from each enabled node. Buffers are
// copied out of the OpenCV mats, so published frames never alias
// driver memory.
func (u *uvcCamera) GrabFrames() (RGBFrame, DepthFrame, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.color == nil || u.depth == nil {
		return RGBFrame{}, DepthFrame{}, Errorf(CodeCaptureFailed, "%s: device is not open", u.name)
	}

	var rgb RGBFrame
	var depth DepthFrame
	now := time.Now()

	if u.cfg.EnableColor {
		frame, err := u.grabColor(now)
		if err != nil {
			return RGBFrame{}, DepthFrame{}, err
		}
		rgb = frame
	}
	if u.cfg.EnableDepth {
		frame, err := u.grabDepth(now)
		if err != nil {
			return RGBFrame{}, DepthFrame{}, err
		}
		depth = frame
	}
	return rgb, depth, nil
}

func (u *uvcCamera) grabColor(ts time.Time) (RGBFrame, error) {
	mat := gocv.NewMat()
	defer mat.Close()

	if ok := u.color.Read(&mat); !ok || mat.Empty() {
		return RGBFrame{}, Errorf(CodeCaptureFailed, "%s: color node returned no frame", u.name)
	}

	rgbMat := gocv.NewMat()
	defer rgbMat.Close()
	gocv.CvtColor(mat, &rgbMat, gocv.ColorBGRToRGB)

	data := rgbMat.ToBytes()
	buf := make([]byte, len(data))
	copy(buf, data)

	u.colorSeq++
	return RGBFrame{
		Width:     rgbMat.Cols(),
		Height:    rgbMat.Rows(),
		Channels:  rgbMat.Channels(),
		Data:      buf,
		Sequence:  u.colorSeq,
		Timestamp: ts,
	}, nil
}

func (u *uvcCamera) grabDepth(ts time.Time) (DepthFrame, error) {
	mat := gocv.NewMat()
	defer mat.Close()

	if ok := u.depth.Read(&mat); !ok || mat.Empty() {
		return DepthFrame{}, Errorf(CodeCaptureFailed, "%s: depth node returned no frame", u.name)
	}
	if mat.Channels() != 1 {
		return DepthFrame{}, Errorf(CodeCaptureFailed,
			"%s: depth node delivered %d-channel data, want raw 16-bit", u.name, mat.Channels())
	}

	raw, err := mat.DataPtrUint16()
	if err != nil {
		return DepthFrame{}, &CameraError{
			Code:    CodeCaptureFailed,
			Message: fmt.Sprintf("%s: reading raw depth buffer", u.name),
			Err:     err,
		}
	}
	buf := make([]uint16, len(raw))
	copy(buf, raw)

	width := mat.Cols()
	height := mat.Rows()
	u.depthSeq++
	return DepthFrame{
		Width:      width,
		Height:     height,
		Data:       buf,
		DepthScale: u.caps.DepthScale,
		Intrinsics: scaledIntrinsics(u.caps, width, height),
		Sequence:   u.depthSeq,
		Timestamp:  ts,
	}, nil
}

// scaledIntrinsics derives nominal pinhole parameters for the active
// resolution from the sensor's reference calibration at VGA.
func scaledIntrinsics(caps CameraCapabilities, width, height int) Intrinsics {
	const refWidth, refFx, refFy = 640.0, 615.0, 615.0
	scale := float64(width) / refWidth
	return Intrinsics{
		Fx: refFx * scale,
		Fy: refFy * scale,
		Cx: float64(width) / 2,
		Cy: float64(height) / 2,
	}
}

// Capabilities returns the static sensor description.
func (u *uvcCamera) Capabilities() CameraCapabilities { return u.caps }

// Calibrate verifies that the depth stream delivers measurements
// inside the sensor's declared range. UVC exposes no in-band
// calibration control; the factory calibration stored in firmware is
// trusted once this check passes.
func (u *uvcCamera) Calibrate(ctx context.Context) error {
	_, depth, err := u.GrabFrames()
	if err != nil {
		return &CameraError{Code: CodeCalibrationError, Message: u.name + ": calibration grab failed", Err: err}
	}
	if len(depth.Data) == 0 {
		return nil // depth disabled, nothing to verify
	}
	minMM, maxMM, _, valid := analyzeDepth(depth.Data, depth.DepthScale)
	if valid == 0 {
		return Errorf(CodeCalibrationError, "%s: depth stream contains no valid measurements", u.name)
	}
	if minMM < u.caps.MinDepthMM/2 || maxMM > u.caps.MaxDepthMM*2 {
		return Errorf(CodeCalibrationError,
			"%s: depth readings [%.0f, %.0f]mm far outside declared range [%.0f, %.0f]mm",
			u.name, minMM, maxMM, u.caps.MinDepthMM, u.caps.MaxDepthMM)
	}
	return nil
}

// SelfTest runs the safety check: the device must be open, both nodes
// must deliver frames and the sensor must be within thermal limits.
func (u *uvcCamera) SelfTest(ctx context.Context) error {
	u.mu.Lock()
	open := u.color != nil && u.depth != nil
	maxTemp := u.cfg.MaxTemperature
	u.mu.Unlock()

	if !open {
		return Errorf(CodeSafetyViolation, "%s: self-test on unopened device", u.name)
	}
	if maxTemp > 0 {
		if t := u.Temperature(); t > maxTemp {
			return Errorf(CodeSafetyViolation,
				"%s: sensor temperature %.1fC exceeds safe limit %.1fC", u.name, t, maxTemp)
		}
	}
	if _, _, err := u.GrabFrames(); err != nil {
		return &CameraError{Code: CodeSafetyViolation, Message: u.name + ": self-test grab failed", Err: err}
	}
	return nil
}

// Temperature reads the UVC temperature property when the sensor
// reports one.
func (u *uvcCamera) Temperature() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.reportsTemperature || u.color == nil {
		return 0
	}
	return u.color.Get(gocv.VideoCaptureTemperature)
}
