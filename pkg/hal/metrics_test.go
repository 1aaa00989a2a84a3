package hal

import (
	"testing"
	"time"
)

func TestMetricsCollectorCounts(t *testing.T) {
	m := newMetricsCollector()
	for i := 0; i < 5; i++ {
		m.markFrame(10*time.Millisecond, time.Millisecond)
	}
	m.markDropped()
	m.markDropped()

	snap := m.snapshot(42.0)
	if snap.TotalFrames != 5 {
		t.Errorf("TotalFrames = %d, want 5", snap.TotalFrames)
	}
	if snap.DroppedFrames != 2 {
		t.Errorf("DroppedFrames = %d, want 2", snap.DroppedFrames)
	}
	if snap.AverageLatencyMS != 10 {
		t.Errorf("AverageLatencyMS = %v, want 10", snap.AverageLatencyMS)
	}
	if snap.TemperatureCelsius != 42.0 {
		t.Errorf("TemperatureCelsius = %v, want 42", snap.TemperatureCelsius)
	}
	if snap.MemoryUsageMB <= 0 {
		t.Errorf("MemoryUsageMB = %v, want positive", snap.MemoryUsageMB)
	}
}

func TestMetricsCollectorReset(t *testing.T) {
	m := newMetricsCollector()
	m.markFrame(5*time.Millisecond, time.Millisecond)
	m.markDropped()
	m.reset()

	snap := m.snapshot(0)
	if snap.TotalFrames != 0 || snap.DroppedFrames != 0 || snap.AverageLatencyMS != 0 {
		t.Errorf("counters survived reset: %+v", snap)
	}
}

func TestMetricsRateWindow(t *testing.T) {
	m := newMetricsCollector()
	m.windowStart = time.Now().Add(-2 * time.Second)
	for i := 0; i < 60; i++ {
		m.markFrame(time.Millisecond, time.Millisecond)
	}
	snap := m.snapshot(0)
	if snap.CurrentFPS <= 0 {
		t.Errorf("CurrentFPS = %v, want positive after window roll", snap.CurrentFPS)
	}
	if snap.CPUUsagePercent < 0 || snap.CPUUsagePercent > 100 {
		t.Errorf("CPUUsagePercent = %v, want within [0,100]", snap.CPUUsagePercent)
	}
}
