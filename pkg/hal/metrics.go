package hal

import (
	"runtime"
	"sync"
	"time"
)

// PerformanceMetrics is a point-in-time telemetry snapshot. The
// analysis pipeline samples it for adaptive throttling; nothing here
// is persisted.
type PerformanceMetrics struct {
	CurrentFPS         float64 `json:"current_fps"`
	AverageLatencyMS   float64 `json:"average_latency_ms"`
	DroppedFrames      int     `json:"dropped_frames"`
	CPUUsagePercent    float64 `json:"cpu_usage_percent"`
	MemoryUsageMB      float64 `json:"memory_usage_mb"`
	TemperatureCelsius float64 `json:"temperature_celsius"`

	TotalFrames uint64 `json:"total_frames"`
}

// metricsCollector aggregates capture statistics. It is goroutine-safe
// and shared between the capture worker and control-side snapshots.
type metricsCollector struct {
	mu sync.Mutex

	windowStart  time.Time
	windowFrames int
	windowBusy   time.Duration
	currentFPS   float64
	dutyCycle    float64

	latencySum   time.Duration
	latencyCount int

	dropped int
	total   uint64
}

func newMetricsCollector() *metricsCollector {
	return &metricsCollector{windowStart: time.Now()}
}

// markFrame records one successfully published frame. latency is the
// capture-to-publish delay, busy is the time the worker spent grabbing
// and preparing the frame.
func (m *metricsCollector) markFrame(latency, busy time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.windowFrames++
	m.windowBusy += busy
	m.latencySum += latency
	m.latencyCount++

	// Roll the rate window once per second.
	if elapsed := time.Since(m.windowStart); elapsed >= time.Second {
		m.currentFPS = float64(m.windowFrames) / elapsed.Seconds()
		m.dutyCycle = float64(m.windowBusy) / float64(elapsed)
		m.windowStart = time.Now()
		m.windowFrames = 0
		m.windowBusy = 0
	}
}

// markDropped records a frame that was overwritten before any
// consumer picked it up.
func (m *metricsCollector) markDropped() {
	m.mu.Lock()
	m.dropped++
	m.mu.Unlock()
}

// reset clears per-session counters at the start of a capture session.
func (m *metricsCollector) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windowStart = time.Now()
	m.windowFrames = 0
	m.windowBusy = 0
	m.currentFPS = 0
	m.dutyCycle = 0
	m.latencySum = 0
	m.latencyCount = 0
	m.dropped = 0
	m.total = 0
}

// snapshot builds a PerformanceMetrics. Memory comes from the Go
// runtime; CPU usage is the capture worker duty cycle, which is the
// cost this layer actually controls.
func (m *metricsCollector) snapshot(temperature float64) PerformanceMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avgLatency float64
	if m.latencyCount > 0 {
		avgLatency = float64(m.latencySum.Milliseconds()) / float64(m.latencyCount)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return PerformanceMetrics{
		CurrentFPS:         m.currentFPS,
		AverageLatencyMS:   avgLatency,
		DroppedFrames:      m.dropped,
		CPUUsagePercent:    m.dutyCycle * 100,
		MemoryUsageMB:      float64(ms.HeapAlloc) / (1024 * 1024),
		TemperatureCelsius: temperature,
		TotalFrames:        m.total,
	}
}
