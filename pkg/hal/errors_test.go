package hal

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeNames(t *testing.T) {
	cases := map[ErrorCode]string{
		CodeSuccess:              "SUCCESS",
		CodeDeviceNotFound:       "DEVICE_NOT_FOUND",
		CodeConnectionFailed:     "CONNECTION_FAILED",
		CodeInitializationFailed: "INITIALIZATION_FAILED",
		CodeCaptureFailed:        "CAPTURE_FAILED",
		CodeInvalidConfiguration: "INVALID_CONFIGURATION",
		CodeHardwareFault:        "HARDWARE_FAULT",
		CodeFirmwareError:        "FIRMWARE_ERROR",
		CodeCalibrationError:     "CALIBRATION_ERROR",
		CodeTimeout:              "TIMEOUT",
		CodeInsufficientPower:    "INSUFFICIENT_POWER",
		CodeTemperatureError:     "TEMPERATURE_ERROR",
		CodeMemoryError:          "MEMORY_ERROR",
		CodeSafetyViolation:      "SAFETY_VIOLATION",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(code), got, want)
		}
	}
	if got := ErrorCode(99).String(); got != "UNKNOWN(99)" {
		t.Errorf("unknown code String() = %q", got)
	}
}

func TestErrorCodeClassification(t *testing.T) {
	retryable := []ErrorCode{CodeConnectionFailed, CodeCaptureFailed, CodeTimeout}
	for _, c := range retryable {
		if !c.Retryable() {
			t.Errorf("%v should be retryable", c)
		}
		if c.Fatal() {
			t.Errorf("%v must not be fatal", c)
		}
	}

	fatal := []ErrorCode{CodeHardwareFault, CodeFirmwareError, CodeMemoryError, CodeSafetyViolation}
	for _, c := range fatal {
		if !c.Fatal() {
			t.Errorf("%v should be fatal", c)
		}
		if c.Retryable() {
			t.Errorf("%v must not be retryable", c)
		}
	}

	if CodeInvalidConfiguration.Retryable() || CodeInvalidConfiguration.Fatal() {
		t.Error("INVALID_CONFIGURATION is neither retryable nor fatal")
	}
}

func TestCameraErrorWrapping(t *testing.T) {
	inner := errors.New("usb disconnect")
	err := WrapError(CodeConnectionFailed, inner, "device lost")
	if err == nil {
		t.Fatal("WrapError returned nil for non-nil error")
	}
	if !errors.Is(err, inner) {
		t.Error("wrapped error does not unwrap to the inner error")
	}
	if CodeOf(err) != CodeConnectionFailed {
		t.Errorf("CodeOf = %v, want CONNECTION_FAILED", CodeOf(err))
	}
	if WrapError(CodeConnectionFailed, nil, "x") != nil {
		t.Error("WrapError of nil should be nil")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(nil) != CodeSuccess {
		t.Error("CodeOf(nil) should be SUCCESS")
	}
	if CodeOf(errors.New("plain")) != CodeHardwareFault {
		t.Error("unclassified errors must map to the most severe code")
	}

	// Codes survive fmt wrapping.
	wrapped := fmt.Errorf("validation: %w", Errorf(CodeSafetyViolation, "emitter fault"))
	if CodeOf(wrapped) != CodeSafetyViolation {
		t.Errorf("CodeOf(wrapped) = %v, want SAFETY_VIOLATION", CodeOf(wrapped))
	}
	if !IsCode(wrapped, CodeSafetyViolation) {
		t.Error("IsCode missed a wrapped SAFETY_VIOLATION")
	}
}

func TestCameraErrorMessage(t *testing.T) {
	err := Errorf(CodeTimeout, "no frame within %v", "1s")
	if got := err.Error(); got != "hal [TIMEOUT]: no frame within 1s" {
		t.Errorf("Error() = %q", got)
	}
	withCause := WrapError(CodeCaptureFailed, errors.New("eof"), "grab")
	if got := withCause.Error(); got != "hal [CAPTURE_FAILED]: grab: eof" {
		t.Errorf("Error() with cause = %q", got)
	}
}
