package diag

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/pkg/hub"
)

// handleStatus returns the current status report.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.report())
}

// handleCapabilities returns the attached camera's static description.
func (s *Server) handleCapabilities(c *fiber.Ctx) error {
	cam := s.camera()
	if cam == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no camera attached",
		})
	}
	return c.JSON(cam.GetCapabilities())
}

// handleMetrics returns the capture performance counters.
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	cam := s.camera()
	if cam == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no camera attached",
		})
	}
	return c.JSON(cam.GetPerformanceMetrics())
}

// handleConfig returns the active capture configuration.
func (s *Server) handleConfig(c *fiber.Ctx) error {
	s.mu.RLock()
	cfg := s.captureCfg
	s.mu.RUnlock()
	return c.JSON(cfg)
}

// handleCameras returns the discovery report from startup.
func (s *Server) handleCameras(c *fiber.Ctx) error {
	s.mu.RLock()
	detections := s.detections
	s.mu.RUnlock()
	return c.JSON(detections)
}

// handleStatusWS streams status reports. A snapshot is sent on
// connect so dashboards render immediately.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)
	if data, err := json.Marshal(s.report()); err == nil {
		client.Send(hub.NewJSONMessage(data))
	}
	client.Run()
}

// handleFramesWS streams JPEG frame previews.
func (s *Server) handleFramesWS(c *websocket.Conn) {
	hub.NewClient(s.frameHub, c).Run()
}
