package pkg

import "errors"

// Driver errors. Every fallible operation returns one of these, possibly
// wrapped with context; match with errors.Is.
var (
	// ErrInvalidParameter indicates an out-of-range endpoint, direction,
	// mode, or transfer size.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidState indicates an operation on an unconfigured endpoint or
	// an uninitialized controller.
	ErrInvalidState = errors.New("invalid state")

	// ErrBusy indicates a bounded hardware wait was exhausted or the bus
	// was suspended while waiting.
	ErrBusy = errors.New("resource busy")

	// ErrNoStorage indicates an endpoint id or FIFO region exceeds the
	// controller's capacity.
	ErrNoStorage = errors.New("no storage")

	// ErrNoMemory indicates the peripheral could not be mapped.
	ErrNoMemory = errors.New("insufficient memory")

	// ErrInitFail indicates the controller core failed to initialize.
	ErrInitFail = errors.New("initialization failed")

	// ErrUnknown indicates an unclassified lower-level failure.
	ErrUnknown = errors.New("unknown error")

	// ErrTimeout refines ErrBusy when the retry bound was reached.
	ErrTimeout = errors.New("hardware wait timeout")

	// ErrSuspended refines ErrBusy when the bus entered suspend.
	ErrSuspended = errors.New("bus suspended")
)

// Status names the error kind of a driver operation result.
type Status int

// Status values.
const (
	StatusNone             Status = iota // Success
	StatusInvalidParameter               // Bad endpoint, direction, or mode
	StatusInvalidState                   // Endpoint or controller not ready
	StatusBusy                           // Hardware wait exhausted or suspended
	StatusNoStorage                      // Capacity exceeded at configuration
	StatusNoMemory                       // Mapping failure
	StatusInitFail                       // Core initialization failure
	StatusUnknown                        // Anything else
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusInvalidParameter:
		return "invalid-parameter"
	case StatusInvalidState:
		return "invalid-state"
	case StatusBusy:
		return "busy"
	case StatusNoStorage:
		return "no-storage"
	case StatusNoMemory:
		return "no-memory"
	case StatusInitFail:
		return "init-fail"
	default:
		return "unknown"
	}
}

// Error returns the sentinel error for the status, or nil for StatusNone.
func (s Status) Error() error {
	switch s {
	case StatusNone:
		return nil
	case StatusInvalidParameter:
		return ErrInvalidParameter
	case StatusInvalidState:
		return ErrInvalidState
	case StatusBusy:
		return ErrBusy
	case StatusNoStorage:
		return ErrNoStorage
	case StatusNoMemory:
		return ErrNoMemory
	case StatusInitFail:
		return ErrInitFail
	default:
		return ErrUnknown
	}
}

// StatusOf classifies err. Errors outside the driver catalogue map to
// StatusUnknown.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusNone
	case errors.Is(err, ErrInvalidParameter):
		return StatusInvalidParameter
	case errors.Is(err, ErrInvalidState):
		return StatusInvalidState
	case errors.Is(err, ErrBusy):
		return StatusBusy
	case errors.Is(err, ErrNoStorage):
		return StatusNoStorage
	case errors.Is(err, ErrNoMemory):
		return StatusNoMemory
	case errors.Is(err, ErrInitFail):
		return StatusInitFail
	default:
		return StatusUnknown
	}
}
