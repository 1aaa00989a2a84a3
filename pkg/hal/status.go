package hal

import "fmt"

// Status is the camera state machine state. The capture lifecycle is
// DISCONNECTED -> CONNECTING -> CONNECTED -> INITIALIZING -> READY ->
// CAPTURING. ERROR is a recoverable detour from CAPTURING; FAULT is
// terminal until an explicit Disconnect+Connect cycle.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusInitializing
	StatusReady
	StatusCapturing
	StatusError
	StatusFault
)

var statusNames = map[Status]string{
	StatusDisconnected: "DISCONNECTED",
	StatusConnecting:   "CONNECTING",
	StatusConnected:    "CONNECTED",
	StatusInitializing: "INITIALIZING",
	StatusReady:        "READY",
	StatusCapturing:    "CAPTURING",
	StatusError:        "ERROR",
	StatusFault:        "FAULT",
}

// String returns the canonical name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// validTransitions encodes the legal edges of the state machine.
// Disconnect is legal from every state, so DISCONNECTED appears in
// every entry. FAULT is reachable from every state because an
// unrecoverable hardware failure can strike at any time.
var validTransitions = map[Status][]Status{
	StatusDisconnected: {StatusConnecting, StatusFault},
	StatusConnecting:   {StatusConnected, StatusDisconnected, StatusFault},
	StatusConnected:    {StatusInitializing, StatusDisconnected, StatusFault},
	StatusInitializing: {StatusReady, StatusConnected, StatusDisconnected, StatusFault},
	StatusReady:        {StatusCapturing, StatusInitializing, StatusConnected, StatusDisconnected, StatusFault},
	StatusCapturing:    {StatusError, StatusReady, StatusDisconnected, StatusFault},
	StatusError:        {StatusCapturing, StatusReady, StatusDisconnected, StatusFault},
	StatusFault:        {StatusDisconnected},
}

// CanTransition reports whether moving from s to next is a legal state
// machine edge.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, t := range validTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Operational reports whether the camera is connected and usable
// (CONNECTED or any later non-fault state).
func (s Status) Operational() bool {
	switch s {
	case StatusConnected, StatusInitializing, StatusReady, StatusCapturing:
		return true
	}
	return false
}
