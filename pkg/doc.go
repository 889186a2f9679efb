// Package pkg provides shared utilities for the otghs driver.
//
// This package contains common functionality used by every driver layer:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for driver failure kinds
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentTransfer, "queued", "ep", 2, "size", 1000)
//
// # Errors
//
// Failure kinds are sentinel values. Hardware waits that run out of retries
// wrap both [ErrBusy] and [ErrTimeout]:
//
//	if errors.Is(err, pkg.ErrBusy) {
//	    // endpoint is back to IDLE, the call may be retried
//	}
//
// [StatusOf] maps any returned error onto a [Status] kind.
package pkg
