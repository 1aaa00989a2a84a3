package hal

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of a camera failure. The codes mirror
// the device error taxonomy used across the therapy appliance so that
// downstream handlers can map them to recovery policy without parsing
// messages.
type ErrorCode int

const (
	CodeSuccess ErrorCode = iota
	CodeDeviceNotFound
	CodeConnectionFailed
	CodeInitializationFailed
	CodeCaptureFailed
	CodeInvalidConfiguration
	CodeHardwareFault
	CodeFirmwareError
	CodeCalibrationError
	CodeTimeout
	CodeInsufficientPower
	CodeTemperatureError
	CodeMemoryError
	CodeSafetyViolation
)

var errorCodeNames = map[ErrorCode]string{
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

// String returns the canonical name of the error code.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(c))
}

// Retryable reports whether the caller may retry the failed operation.
// The device itself performs no hidden retries for these codes.
func (c ErrorCode) Retryable() bool {
	switch c {
	case CodeConnectionFailed, CodeCaptureFailed, CodeTimeout:
		return true
	}
	return false
}

// Fatal reports whether the code represents an irrecoverable condition
// that forces the device into the FAULT state. A fatal code must never
// be downgraded to a warning.
func (c ErrorCode) Fatal() bool {
	switch c {
	case CodeHardwareFault, CodeFirmwareError, CodeMemoryError, CodeSafetyViolation:
		return true
	}
	return false
}

// CameraError is the error type returned by all camera operations. It
// carries the taxonomy code, a human-readable message and optionally
// the underlying driver error.
type CameraError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CameraError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hal [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("hal [%s]: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *CameraError) Unwrap() error {
	return e.Err
}

// Errorf builds a CameraError with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *CameraError {
	return &CameraError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a taxonomy code and message to a driver error.
// Returns nil when err is nil.
func WrapError(code ErrorCode, err error, message string) error {
	if err == nil {
		return nil
	}
	return &CameraError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the ErrorCode from err. Returns CodeSuccess for nil
// and CodeHardwareFault for errors that carry no code, since an
// unclassified failure must be treated as the most severe kind.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeSuccess
	}
	var ce *CameraError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeHardwareFault
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
