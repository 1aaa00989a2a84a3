package diag

import (
	"bytes"
	"context"
	"encoding/json"
	"image/jpeg"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/pkg/hal"
)

func attachedServer(t *testing.T) (*Server, hal.Camera) {
	t.Helper()
	cam := hal.NewDevice(hal.NewSimulatedDriver())
	require.NoError(t, cam.Connect(context.Background()))
	t.Cleanup(func() { cam.Disconnect() })

	s := NewServer(":0", nil)
	cfg := hal.DefaultCameraConfig()
	detections := []hal.DetectedCamera{
		{Type: hal.SimulatedDriverName, ModelName: "Simulated Depth Camera", Present: true},
	}
	s.Attach(cam, cfg, detections)
	return s, cam
}

func getJSON(t *testing.T, s *Server, path string, out any) int {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && resp.StatusCode == 200 {
		require.NoError(t, json.Unmarshal(body, out))
	}
	return resp.StatusCode
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := attachedServer(t)

	var rep StatusReport
	code := getJSON(t, s, "/api/status", &rep)
	assert.Equal(t, 200, code)
	assert.Equal(t, "CONNECTED", rep.Status)
	assert.Equal(t, "SUCCESS", rep.ErrorCode)
	assert.NotEmpty(t, rep.Time)
}

func TestStatusEndpointUnattached(t *testing.T) {
	s := NewServer(":0", nil)

	var rep StatusReport
	code := getJSON(t, s, "/api/status", &rep)
	assert.Equal(t, 200, code)
	assert.Equal(t, "UNATTACHED", rep.Status)
}

func TestCapabilitiesEndpoint(t *testing.T) {
	s, cam := attachedServer(t)

	var caps hal.CameraCapabilities
	code := getJSON(t, s, "/api/capabilities", &caps)
	assert.Equal(t, 200, code)
	assert.Equal(t, cam.GetCapabilities().ModelName, caps.ModelName)
	assert.NotEmpty(t, caps.SupportedResolutions)
}

func TestCapabilitiesEndpointUnattached(t *testing.T) {
	s := NewServer(":0", nil)
	code := getJSON(t, s, "/api/capabilities", nil)
	assert.Equal(t, 503, code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := attachedServer(t)

	var m hal.PerformanceMetrics
	code := getJSON(t, s, "/api/metrics", &m)
	assert.Equal(t, 200, code)
	assert.GreaterOrEqual(t, m.TotalFrames, uint64(0))
}

func TestConfigEndpoint(t *testing.T) {
	s, _ := attachedServer(t)

	var cfg hal.CameraConfig
	code := getJSON(t, s, "/api/config", &cfg)
	assert.Equal(t, 200, code)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.True(t, cfg.EnableDepth)
}

func TestCamerasEndpoint(t *testing.T) {
	s, _ := attachedServer(t)

	var detections []hal.DetectedCamera
	code := getJSON(t, s, "/api/cameras", &detections)
	assert.Equal(t, 200, code)
	require.Len(t, detections, 1)
	assert.True(t, detections[0].Present)
	assert.Equal(t, hal.SimulatedDriverName, detections[0].Type)
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	s, _ := attachedServer(t)
	code := getJSON(t, s, "/ws/status", nil)
	assert.Equal(t, 426, code)
}

func TestEncodePreview(t *testing.T) {
	f := hal.RGBFrame{
		Width:    8,
		Height:   4,
		Channels: 3,
		Data:     make([]byte, 8*4*3),
	}
	for i := range f.Data {
		f.Data[i] = byte(i)
	}

	data, err := encodePreview(f)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 8, bounds.Dx())
	assert.Equal(t, 4, bounds.Dy())
}
