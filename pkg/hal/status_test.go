package hal

import "testing"

var allStatuses = []Status{
	StatusDisconnected, StatusConnecting, StatusConnected,
	StatusInitializing, StatusReady, StatusCapturing,
	StatusError, StatusFault,
}

func TestStatusNames(t *testing.T) {
	cases := map[Status]string{
		StatusDisconnected: "DISCONNECTED",
		StatusConnecting:   "CONNECTING",
		StatusConnected:    "CONNECTED",
		StatusInitializing: "INITIALIZING",
		StatusReady:        "READY",
		StatusCapturing:    "CAPTURING",
		StatusError:        "ERROR",
		StatusFault:        "FAULT",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestHappyPathTransitions(t *testing.T) {
	path := []Status{
		StatusDisconnected, StatusConnecting, StatusConnected,
		StatusInitializing, StatusReady, StatusCapturing,
	}
	for i := 0; i < len(path)-1; i++ {
		if !path[i].CanTransition(path[i+1]) {
			t.Errorf("%v -> %v should be legal", path[i], path[i+1])
		}
	}
}

func TestDisconnectLegalFromEveryState(t *testing.T) {
	for _, s := range allStatuses {
		if !s.CanTransition(StatusDisconnected) {
			t.Errorf("%v -> DISCONNECTED should be legal", s)
		}
	}
}

func TestFaultReachableFromEveryState(t *testing.T) {
	for _, s := range allStatuses {
		if s == StatusFault {
			continue
		}
		if !s.CanTransition(StatusFault) {
			t.Errorf("%v -> FAULT should be legal", s)
		}
	}
}

func TestFaultOnlyExitsToDisconnected(t *testing.T) {
	for _, s := range allStatuses {
		legal := s == StatusDisconnected || s == StatusFault
		if got := StatusFault.CanTransition(s); got != legal {
			t.Errorf("FAULT -> %v legal = %v, want %v", s, got, legal)
		}
	}
}

func TestErrorStateRecovery(t *testing.T) {
	if !StatusCapturing.CanTransition(StatusError) {
		t.Error("CAPTURING -> ERROR should be legal")
	}
	if !StatusError.CanTransition(StatusCapturing) {
		t.Error("ERROR -> CAPTURING should be legal")
	}
	if !StatusError.CanTransition(StatusReady) {
		t.Error("ERROR -> READY should be legal")
	}
}

func TestIllegalShortcuts(t *testing.T) {
	cases := []struct{ from, to Status }{
		{StatusDisconnected, StatusCapturing},
		{StatusDisconnected, StatusConnected},
		{StatusConnected, StatusCapturing},
		{StatusConnecting, StatusReady},
		{StatusReady, StatusConnecting},
	}
	for _, c := range cases {
		if c.from.CanTransition(c.to) {
			t.Errorf("%v -> %v should be illegal", c.from, c.to)
		}
	}
}

func TestSelfTransitionAllowed(t *testing.T) {
	for _, s := range allStatuses {
		if !s.CanTransition(s) {
			t.Errorf("%v -> %v (self) should be a no-op, not illegal", s, s)
		}
	}
}

func TestOperational(t *testing.T) {
	operational := map[Status]bool{
		StatusConnected:    true,
		StatusInitializing: true,
		StatusReady:        true,
		StatusCapturing:    true,
	}
	for _, s := range allStatuses {
		if got := s.Operational(); got != operational[s] {
			t.Errorf("%v.Operational() = %v, want %v", s, got, operational[s])
		}
	}
}
