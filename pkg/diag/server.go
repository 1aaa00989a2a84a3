// Package diag provides a real-time diagnostics server for the
// capture service: REST endpoints for device state and websocket
// streams for live status and frame previews.
package diag

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/pkg/hal"
	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/pkg/hub"
)

const (
	// statusInterval is how often device status is broadcast.
	statusInterval = 1 * time.Second

	// previewInterval throttles the JPEG preview stream. Full-rate
	// frames stay inside the capture pipeline.
	previewInterval = 200 * time.Millisecond

	// previewQuality is the JPEG quality for browser previews.
	previewQuality = 70
)

// StatusReport is the JSON payload of /api/status and the status
// websocket stream.
type StatusReport struct {
	Status        string                 `json:"status"`
	ErrorCode     string                 `json:"error_code"`
	ErrorMessage  string                 `json:"error_message,omitempty"`
	Metrics       hal.PerformanceMetrics `json:"metrics"`
	StatusClients int                    `json:"status_clients"`
	FrameClients  int                    `json:"frame_clients"`
	Time          string                 `json:"time"`
}

// Server is the diagnostics HTTP and websocket server. It observes an
// attached camera; it never drives its lifecycle.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	mu         sync.RWMutex
	cam        hal.Camera
	captureCfg hal.CameraConfig
	detections []hal.DetectedCamera

	statusHub *hub.Hub
	frameHub  *hub.Hub

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates the diagnostics server listening on addr.
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:      addr,
		logger:    logger.With("component", "diag"),
		statusHub: hub.New("status", logger),
		frameHub:  hub.New("frames", logger),
		done:      make(chan struct{}),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Therapy Capture Diagnostics",
		DisableStartupMessage: true,
	})

	// CORS for the local dashboard
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/capabilities", s.handleCapabilities)
	api.Get("/metrics", s.handleMetrics)
	api.Get("/config", s.handleConfig)
	api.Get("/cameras", s.handleCameras)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))

	s.app = app
	return s
}

// Attach binds the server to a camera. captureCfg is the capture
// configuration reported by /api/config; detections is the discovery
// report from startup.
func (s *Server) Attach(cam hal.Camera, captureCfg hal.CameraConfig, detections []hal.DetectedCamera) {
	s.mu.Lock()
	s.cam = cam
	s.captureCfg = captureCfg
	s.detections = detections
	s.mu.Unlock()
}

// Start runs the hubs, the broadcast loops and the listener. It blocks
// until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.frameHub.Run()

	s.wg.Add(2)
	go s.statusLoop()
	go s.previewLoop()

	s.logger.Info("diagnostics server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync runs the server in a goroutine and logs any listen error.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("diagnostics server stopped", "error", err)
		}
	}()
}

// Shutdown stops the loops, the hubs and the listener.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	s.statusHub.Stop()
	s.frameHub.Stop()
	return s.app.Shutdown()
}

func (s *Server) camera() hal.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *Server) report() StatusReport {
	rep := StatusReport{
		StatusClients: s.statusHub.ClientCount(),
		FrameClients:  s.frameHub.ClientCount(),
		Time:          time.Now().Format(time.RFC3339),
	}
	cam := s.camera()
	if cam == nil {
		rep.Status = "UNATTACHED"
		return rep
	}
	code, msg := cam.GetLastError()
	rep.Status = cam.GetStatus().String()
	rep.ErrorCode = code.String()
	rep.ErrorMessage = msg
	rep.Metrics = cam.GetPerformanceMetrics()
	return rep
}

// statusLoop broadcasts the status report at a fixed rate.
func (s *Server) statusLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.statusHub.ClientCount() == 0 {
				continue
			}
			if err := s.statusHub.BroadcastJSON(s.report()); err != nil {
				s.logger.Warn("status broadcast failed", "error", err)
			}
		case <-s.done:
			return
		}
	}
}

// previewLoop pulls color frames at a throttled rate and broadcasts
// them as JPEG to frame stream clients.
func (s *Server) previewLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(previewInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.frameHub.ClientCount() == 0 {
				continue
			}
			cam := s.camera()
			if cam == nil || cam.GetStatus() != hal.StatusCapturing {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), previewInterval)
			frame, err := cam.GetRGBFrame(ctx)
			cancel()
			if err != nil {
				continue
			}
			data, err := encodePreview(frame)
			if err != nil {
				s.logger.Warn("preview encode failed", "error", err)
				continue
			}
			s.frameHub.BroadcastBinary(data)
		case <-s.done:
			return
		}
	}
}

// encodePreview converts a packed RGB frame to JPEG.
func encodePreview(f hal.RGBFrame) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := y * f.Width * f.Channels
		dst := y * img.Stride
		for x := 0; x < f.Width; x++ {
			img.Pix[dst] = f.Data[src]
			img.Pix[dst+1] = f.Data[src+1]
			img.Pix[dst+2] = f.Data[src+2]
			img.Pix[dst+3] = 0xFF
			src += f.Channels
			dst += 4
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: previewQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
