package model

import "fmt"

// Status is the numerically coded error taxonomy used across the plant
// control engine in place of ad hoc sentinel errors.
type Status int

const (
	OK Status = iota
	Invalid
	NotConfigured
	Misconfigured
	Offline
	SensorInvalid
	SensorShort
	SensorDisconnected
	SensorStale
	Empty
	OOM
	Mismatch
	Deadzone
	Deadband
	Safety
	NotImplemented
	Generic
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case Invalid:
		return "INVALID"
	case NotConfigured:
		return "NOT_CONFIGURED"
	case Misconfigured:
		return "MISCONFIGURED"
	case Offline:
		return "OFFLINE"
	case SensorInvalid:
		return "SENSOR_INVALID"
	case SensorShort:
		return "SENSOR_SHORT"
	case SensorDisconnected:
		return "SENSOR_DISCONNECTED"
	case SensorStale:
		return "SENSOR_STALE"
	case Empty:
		return "EMPTY"
	case OOM:
		return "OOM"
	case Mismatch:
		return "MISMATCH"
	case Deadzone:
		return "DEADZONE"
	case Deadband:
		return "DEADBAND"
	case Safety:
		return "SAFETY"
	case NotImplemented:
		return "NOTIMPLEMENTED"
	case Generic:
		return "GENERIC"
	default:
		return "UNKNOWN"
	}
}

// StatusError pairs a Status code with the entity/context it occurred in.
// It wraps a Status as a Go error where an error value is needed; entity
// operations themselves return a bare Status.
type StatusError struct {
	Code    Status
	Subject string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Subject, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Subject)
}

func (e *StatusError) Unwrap() error { return e.Err }

// NewError builds a StatusError. subject is typically an entity name or id.
func NewError(code Status, subject string) *StatusError {
	return &StatusError{Code: code, Subject: subject}
}

// Wrap builds a StatusError carrying an underlying cause.
func Wrap(code Status, subject string, err error) *StatusError {
	return &StatusError{Code: code, Subject: subject, Err: err}
}

// CodeOf extracts the Status from err, defaulting to Generic for unknown
// error types (e.g. aggregation of several per-entity failures).
func CodeOf(err error) Status {
	if err == nil {
		return OK
	}
	var se *StatusError
	if as, ok := err.(*StatusError); ok {
		se = as
		return se.Code
	}
	return Generic
}

// Recoverable reports whether code is a local, swallow-without-alarm
// condition per spec §7 propagation policy.
func Recoverable(code Status) bool {
	switch code {
	case Deadzone, Deadband, SensorStale, OK:
		return true
	default:
		return false
	}
}
