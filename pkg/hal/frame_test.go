package hal

import (
	"strings"
	"testing"
	"time"
)

func validRGBFrame() RGBFrame {
	f := RGBFrame{
		Width:     4,
		Height:    2,
		Channels:  3,
		Data:      make([]byte, 4*2*3),
		Sequence:  7,
		Timestamp: time.Now(),
	}
	for i := range f.Data {
		f.Data[i] = byte(i * 11)
	}
	return f
}

func validDepthFrame() DepthFrame {
	f := DepthFrame{
		Width:      4,
		Height:     2,
		Data:       make([]uint16, 4*2),
		DepthScale: 1.0,
		MinDepth:   100,
		MaxDepth:   2000,
		Intrinsics: Intrinsics{Fx: 525, Fy: 525, Cx: 2, Cy: 1},
		Sequence:   7,
		Timestamp:  time.Now(),
	}
	for i := range f.Data {
		f.Data[i] = uint16(100 + i*50)
	}
	return f
}

func TestRGBFrameValidate(t *testing.T) {
	f := validRGBFrame()
	if err := f.Validate(); err != nil {
		t.Fatalf("valid frame rejected: %v", err)
	}

	bad := validRGBFrame()
	bad.Width = 0
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "dimensions") {
		t.Errorf("zero width: err = %v, want dimension error", err)
	}

	bad = validRGBFrame()
	bad.Data = bad.Data[:len(bad.Data)-1]
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "bytes") {
		t.Errorf("short buffer: err = %v, want buffer size error", err)
	}

	bad = validRGBFrame()
	bad.Channels = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero channels accepted")
	}
}

func TestDepthFrameValidate(t *testing.T) {
	f := validDepthFrame()
	if err := f.Validate(); err != nil {
		t.Fatalf("valid frame rejected: %v", err)
	}

	bad := validDepthFrame()
	bad.DepthScale = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero depth scale accepted")
	}

	bad = validDepthFrame()
	bad.MinDepth = 3000 // above MaxDepth
	if err := bad.Validate(); err == nil {
		t.Error("inverted depth bounds accepted")
	}

	bad = validDepthFrame()
	bad.Intrinsics = Intrinsics{}
	if err := bad.Validate(); err == nil {
		t.Error("undefined intrinsics accepted")
	}
}

func TestChecksumDeterministicAndTamperEvident(t *testing.T) {
	f := validRGBFrame()
	f.Checksum = f.ComputeChecksum()
	f.HasChecksum = true
	if f.Checksum != f.ComputeChecksum() {
		t.Fatal("checksum not deterministic over identical data")
	}
	if !f.VerifyChecksum() {
		t.Fatal("checksum does not verify against its own data")
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("checksummed frame rejected: %v", err)
	}

	f.Data[5] ^= 0x01 // single bit flip
	if f.VerifyChecksum() {
		t.Error("bit flip not detected by checksum")
	}
	if err := f.Validate(); err == nil || !strings.Contains(err.Error(), "checksum") {
		t.Errorf("corrupted frame: err = %v, want checksum mismatch", err)
	}
}

func TestZeroChecksumStillTamperChecked(t *testing.T) {
	// A stamped checksum of zero is a legitimate CRC-32 value, not the
	// absence of one; the HasChecksum flag carries that distinction.
	f := validRGBFrame()
	f.Checksum = 0
	f.HasChecksum = true
	if err := f.Validate(); err == nil || !strings.Contains(err.Error(), "checksum") {
		t.Errorf("stamped zero checksum not verified: err = %v", err)
	}

	// Without the flag, zero means unstamped and is not verified.
	f.HasChecksum = false
	if err := f.Validate(); err != nil {
		t.Errorf("unstamped frame rejected: %v", err)
	}
}

func TestDepthChecksumTamperEvident(t *testing.T) {
	f := validDepthFrame()
	f.Checksum = f.ComputeChecksum()
	if !f.VerifyChecksum() {
		t.Fatal("checksum does not verify against its own data")
	}
	f.Data[3] ^= 0x0100
	if f.VerifyChecksum() {
		t.Error("depth bit flip not detected by checksum")
	}
}

func TestCloneIsDeep(t *testing.T) {
	f := validRGBFrame()
	c := f.Clone()
	c.Data[0] ^= 0xFF
	if f.Data[0] == c.Data[0] {
		t.Error("rgb clone shares its pixel buffer")
	}

	df := validDepthFrame()
	df.Intrinsics.Distortion = []float64{0.1, -0.2}
	dc := df.Clone()
	dc.Data[0] = 9999
	dc.Intrinsics.Distortion[0] = 42
	if df.Data[0] == dc.Data[0] {
		t.Error("depth clone shares its buffer")
	}
	if df.Intrinsics.Distortion[0] == 42 {
		t.Error("depth clone shares its distortion slice")
	}
}

func TestAnalyzeDepth(t *testing.T) {
	data := []uint16{0, 500, 1500, depthSaturation, 1000}
	minMM, maxMM, avgMM, valid := analyzeDepth(data, 1.0)
	if valid != 3 {
		t.Fatalf("valid = %d, want 3 (zero and saturated excluded)", valid)
	}
	if minMM != 500 || maxMM != 1500 {
		t.Errorf("range = [%v, %v], want [500, 1500]", minMM, maxMM)
	}
	if avgMM != 1000 {
		t.Errorf("avg = %v, want 1000", avgMM)
	}

	// Scale converts raw units to millimeters.
	_, maxScaled, _, _ := analyzeDepth([]uint16{100}, 0.25)
	if maxScaled != 25 {
		t.Errorf("scaled max = %v, want 25", maxScaled)
	}

	if _, _, _, v := analyzeDepth(nil, 1.0); v != 0 {
		t.Errorf("empty buffer valid = %d, want 0", v)
	}
}

func TestMeanBrightness(t *testing.T) {
	if got := meanBrightness(nil); got != 0 {
		t.Errorf("empty buffer brightness = %v, want 0", got)
	}
	if got := meanBrightness([]byte{10, 20, 30}); got != 20 {
		t.Errorf("brightness = %v, want 20", got)
	}
}

func TestIntrinsicsDefined(t *testing.T) {
	if (Intrinsics{}).Defined() {
		t.Error("zero intrinsics reported as defined")
	}
	if !(Intrinsics{Fx: 1, Fy: 1, Cx: 1, Cy: 1}).Defined() {
		t.Error("complete intrinsics reported as undefined")
	}
}
