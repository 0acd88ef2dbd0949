package errors

import (
	"fmt"
)

// DuplicateConnection reports an attempt to register a live connection id twice.
func DuplicateConnection(group, id string) *PlyError {
	return New(ErrCodeDuplicateConnection,
		fmt.Sprintf("connection '%s' is already registered as %s", id, group)).
		WithDetail("group", group).
		WithDetail("id", id)
}

// UnknownConnection reports removal of a connection id that is not registered.
func UnknownConnection(group, id string) *PlyError {
	return New(ErrCodeUnknownConnection,
		fmt.Sprintf("connection '%s' is not registered as %s", id, group)).
		WithDetail("group", group).
		WithDetail("id", id)
}

// NoAvailableTarget is returned when a consumer request cannot be routed.
func NoAvailableTarget(kind string) *PlyError {
	return New(ErrCodeNoAvailableTarget, "No available browser targets").
		WithDetail("kind", kind)
}

// InvalidEvent wraps a payload decoding failure for a known event kind.
func InvalidEvent(kind string, err error) *PlyError {
	return Wrap(err, ErrCodeInvalidEvent, fmt.Sprintf("invalid %s payload", kind)).
		WithDetail("kind", kind)
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *PlyError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *PlyError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// AlreadyRunning reports a live relay process holding the pid file.
func AlreadyRunning(pid int) *PlyError {
	return New(ErrCodeAlreadyRunning, fmt.Sprintf("relay already running with PID %d", pid)).
		WithDetail("pid", pid)
}

// NotRunning reports that no live relay holds the pid file.
func NotRunning(pidFile string) *PlyError {
	return New(ErrCodeNotRunning, "relay is not running").
		WithDetail("pid_file", pidFile)
}

// RelayStopped is returned by engine calls made after the loop has exited.
func RelayStopped(err error) *PlyError {
	return Wrap(err, ErrCodeRelayStopped, "relay engine is not running")
}
