package hal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"
)

// Intrinsics holds the pinhole camera model parameters attached to
// every depth frame. All four values must be strictly positive on a
// valid frame.
type Intrinsics struct {
	Fx float64 // focal length x, pixels
	Fy float64 // focal length y, pixels
	Cx float64 // principal point x, pixels
	Cy float64 // principal point y, pixels

	// Distortion coefficients, driver specific (may be empty).
	Distortion []float64
}

// Defined reports whether all required intrinsic parameters are set.
func (i Intrinsics) Defined() bool {
	return i.Fx > 0 && i.Fy > 0 && i.Cx > 0 && i.Cy > 0
}

// RGBFrame is a single color frame. Frames are created fresh on every
// capture and are never reused or mutated after being handed to a
// caller or callback; treat them as immutable snapshots.
type RGBFrame struct {
	Width    int
	Height   int
	Channels int
	Data     []byte // interleaved pixels, Width*Height*Channels bytes

	Sequence  uint64
	Timestamp time.Time

	// Brightness is the mean pixel value (0-255), filled in when
	// validation is enabled.
	Brightness float64

	DeviceID string
	Valid    bool

	// Checksum holds the CRC-32 of Data when HasChecksum is set. The
	// flag distinguishes "no checksum stamped" from a buffer whose true
	// CRC-32 happens to be zero.
	Checksum    uint32
	HasChecksum bool
}

// Validate checks the frame invariants: positive dimensions and a
// pixel buffer of exactly Width*Height*Channels bytes. When a checksum
// is present it must match the buffer contents.
func (f *RGBFrame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("rgb frame has invalid dimensions %dx%d", f.Width, f.Height)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("rgb frame has invalid channel count %d", f.Channels)
	}
	if want := f.Width * f.Height * f.Channels; len(f.Data) != want {
		return fmt.Errorf("rgb frame buffer is %d bytes, want %d", len(f.Data), want)
	}
	if f.HasChecksum && !f.VerifyChecksum() {
		return fmt.Errorf("rgb frame checksum mismatch (seq %d)", f.Sequence)
	}
	return nil
}

// ComputeChecksum returns the CRC-32 (IEEE) of the pixel buffer.
func (f *RGBFrame) ComputeChecksum() uint32 {
	return crc32.ChecksumIEEE(f.Data)
}

// VerifyChecksum recomputes the buffer checksum and compares it with
// the stored value. Consumers should call this after transport to
// detect data corruption.
func (f *RGBFrame) VerifyChecksum() bool {
	return f.Checksum == f.ComputeChecksum()
}

// Clone returns a deep copy of the frame with its own pixel buffer.
func (f *RGBFrame) Clone() RGBFrame {
	out := *f
	out.Data = make([]byte, len(f.Data))
	copy(out.Data, f.Data)
	return out
}

// DepthFrame is a single depth frame. Data holds scaled depth units;
// multiply by DepthScale to obtain millimeters. Like RGBFrame, depth
// frames are immutable snapshots once published.
type DepthFrame struct {
	Width  int
	Height int
	Data   []uint16 // scaled depth units, Width*Height values

	// DepthScale converts raw units to millimeters.
	DepthScale float64

	// Per-frame depth statistics, in millimeters.
	MinDepth     float64
	MaxDepth     float64
	AverageDepth float64

	// ValidPixels counts non-zero, non-saturated depth values.
	ValidPixels int

	Intrinsics Intrinsics

	Sequence  uint64
	Timestamp time.Time

	DeviceID string
	Valid    bool

	// Checksum holds the CRC-32 of Data when HasChecksum is set.
	Checksum    uint32
	HasChecksum bool
}

// Validate checks the frame invariants: positive dimensions, a buffer
// of Width*Height values, a positive depth scale, ordered depth bounds
// and defined intrinsics. When a checksum is present it must match.
func (f *DepthFrame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("depth frame has invalid dimensions %dx%d", f.Width, f.Height)
	}
	if want := f.Width * f.Height; len(f.Data) != want {
		return fmt.Errorf("depth frame buffer is %d values, want %d", len(f.Data), want)
	}
	if f.DepthScale <= 0 {
		return fmt.Errorf("depth frame has non-positive depth scale %v", f.DepthScale)
	}
	if f.MinDepth < 0 || f.MaxDepth < f.MinDepth {
		return fmt.Errorf("depth frame bounds out of order: min %.1f max %.1f", f.MinDepth, f.MaxDepth)
	}
	if !f.Intrinsics.Defined() {
		return fmt.Errorf("depth frame intrinsics are not defined")
	}
	if f.HasChecksum && !f.VerifyChecksum() {
		return fmt.Errorf("depth frame checksum mismatch (seq %d)", f.Sequence)
	}
	return nil
}

// ComputeChecksum returns the CRC-32 (IEEE) of the depth buffer,
// hashed in little-endian byte order.
func (f *DepthFrame) ComputeChecksum() uint32 {
	return crc32.ChecksumIEEE(depthBytes(f.Data))
}

// VerifyChecksum recomputes the buffer checksum and compares it with
// the stored value.
func (f *DepthFrame) VerifyChecksum() bool {
	return f.Checksum == f.ComputeChecksum()
}

// Clone returns a deep copy of the frame with its own depth buffer.
func (f *DepthFrame) Clone() DepthFrame {
	out := *f
	out.Data = make([]uint16, len(f.Data))
	copy(out.Data, f.Data)
	out.Intrinsics.Distortion = append([]float64(nil), f.Intrinsics.Distortion...)
	return out
}

// depthBytes flattens a depth buffer to little-endian bytes for
// checksumming.
func depthBytes(data []uint16) []byte {
	buf := make([]byte, len(data)*2)
	for i, v := range data {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}

// depthSaturation is the raw value treated as saturated and therefore
// not counted as a valid measurement.
const depthSaturation = 0xFFFF

// analyzeDepth computes min/max/average depth in millimeters and the
// valid pixel count for a raw depth buffer.
func analyzeDepth(data []uint16, scale float64) (minMM, maxMM, avgMM float64, valid int) {
	var sum float64
	for _, v := range data {
		if v == 0 || v == depthSaturation {
			continue
		}
		mm := float64(v) * scale
		if valid == 0 || mm < minMM {
			minMM = mm
		}
		if mm > maxMM {
			maxMM = mm
		}
		sum += mm
		valid++
	}
	if valid > 0 {
		avgMM = sum / float64(valid)
	}
	return minMM, maxMM, avgMM, valid
}

// meanBrightness computes the mean byte value of an interleaved pixel
// buffer. Used for the RGB quality metric.
func meanBrightness(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum uint64
	for _, b := range data {
		sum += uint64(b)
	}
	return float64(sum) / float64(len(data))
}
