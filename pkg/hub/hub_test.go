package hub

import (
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestHubRunAndStop(t *testing.T) {
	h := New("test", nil)
	if h.IsRunning() {
		t.Error("hub running before Run")
	}
	go h.Run()
	waitFor(t, h.IsRunning, "hub did not start")

	h.Stop()
	waitFor(t, func() bool { return !h.IsRunning() }, "hub did not stop")

	// Stop is idempotent.
	h.Stop()
}

func TestHubBroadcastNeverBlocks(t *testing.T) {
	h := New("test", nil)
	// No run loop draining; the buffered channel fills and overflow
	// messages are dropped instead of blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			h.Broadcast(NewBinaryMessage([]byte{byte(i)}))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on a full channel")
	}
}

func TestUnregisterAfterStopReturns(t *testing.T) {
	h := New("test", nil)
	go h.Run()
	waitFor(t, h.IsRunning, "hub did not start")

	c := &Client{hub: h, send: make(chan Message, 1)}
	h.register <- c
	waitFor(t, func() bool { return h.ClientCount() == 1 }, "client not registered")

	h.Stop()
	waitFor(t, func() bool { return !h.IsRunning() }, "hub did not stop")

	// With no run loop draining the channel, a read pump winding down
	// after shutdown must still be able to hand its client back.
	done := make(chan struct{})
	go func() {
		c.unregister()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("unregister blocked after hub stop")
	}
}

func TestBroadcastJSONRejectsUnencodable(t *testing.T) {
	h := New("test", nil)
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("BroadcastJSON accepted an unencodable value")
	}
	if err := h.BroadcastJSON(map[string]int{"frames": 3}); err != nil {
		t.Errorf("BroadcastJSON: %v", err)
	}
}

func TestClientCountEmpty(t *testing.T) {
	h := New("test", nil)
	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount = %d, want 0", got)
	}
}

func TestMessageConstructors(t *testing.T) {
	j := NewJSONMessage([]byte(`{"a":1}`))
	if j.Type != JSONMessage {
		t.Errorf("json message type = %v", j.Type)
	}
	b := NewBinaryMessage([]byte{0xFF})
	if b.Type != BinaryMessage {
		t.Errorf("binary message type = %v", b.Type)
	}
}
