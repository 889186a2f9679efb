package hal

import "fmt"

// Speed represents the USB connection speed.
type Speed uint8

// USB speed constants (USB 2.0 Specification).
const (
	SpeedUnknown Speed = iota // Not connected or unknown
	SpeedLow                  // Low Speed (1.5 Mbit/s)
	SpeedFull                 // Full Speed (12 Mbit/s)
	SpeedHigh                 // High Speed (480 Mbit/s)
)

// String returns a human-readable speed name.
func (s Speed) String() string {
	switch s {
	case SpeedLow:
		return "Low Speed"
	case SpeedFull:
		return "Full Speed"
	case SpeedHigh:
		return "High Speed"
	default:
		return "Unknown"
	}
}

// Mode selects the controller role.
type Mode uint8

// Controller roles.
const (
	ModeDevice Mode = iota
	ModeHost
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeDevice:
		return "device"
	case ModeHost:
		return "host"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// Direction is an endpoint direction as seen from the host.
type Direction uint8

// Endpoint directions. DirBoth is only meaningful when configuring the
// control endpoint.
const (
	DirOut  Direction = 0x00 // Host to device
	DirIn   Direction = 0x80 // Device to host
	DirBoth Direction = 0xff // Both halves of a control endpoint
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case DirIn:
		return "IN"
	case DirOut:
		return "OUT"
	case DirBoth:
		return "IN/OUT"
	default:
		return fmt.Sprintf("Direction(%#x)", uint8(d))
	}
}

// Opposite returns the other direction of a unidirectional endpoint.
func (d Direction) Opposite() Direction {
	if d == DirIn {
		return DirOut
	}
	return DirIn
}

// EndpointType is the USB transfer type (USB 2.0 Spec Table 9-13). The
// values match the controller's EPTYP field encoding.
type EndpointType uint8

// Endpoint transfer types.
const (
	EndpointTypeControl     EndpointType = 0x00
	EndpointTypeIsochronous EndpointType = 0x01
	EndpointTypeBulk        EndpointType = 0x02
	EndpointTypeInterrupt   EndpointType = 0x03
)

// String returns a human-readable transfer type name.
func (t EndpointType) String() string {
	switch t {
	case EndpointTypeControl:
		return "Control"
	case EndpointTypeIsochronous:
		return "Isochronous"
	case EndpointTypeBulk:
		return "Bulk"
	case EndpointTypeInterrupt:
		return "Interrupt"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the four transfer types.
func (t EndpointType) Valid() bool {
	return t <= EndpointTypeInterrupt
}

// Toggle is the initial data PID of a bulk or interrupt endpoint.
type Toggle uint8

// Data toggle values.
const (
	ToggleData0 Toggle = iota
	ToggleData1
)

// EndpointState is the protocol state of one endpoint half.
type EndpointState uint8

// Endpoint states. EndpointStateInvalid is never stored; it is returned for
// out-of-range queries.
const (
	EndpointStateIdle EndpointState = iota
	EndpointStateDataInWIP
	EndpointStateDataIn
	EndpointStateDataOutWIP
	EndpointStateDataOut
	EndpointStateStalled
	EndpointStateInvalid
)

// String returns the state name.
func (s EndpointState) String() string {
	switch s {
	case EndpointStateIdle:
		return "IDLE"
	case EndpointStateDataInWIP:
		return "DATA_IN_WIP"
	case EndpointStateDataIn:
		return "DATA_IN"
	case EndpointStateDataOutWIP:
		return "DATA_OUT_WIP"
	case EndpointStateDataOut:
		return "DATA_OUT"
	case EndpointStateStalled:
		return "STALLED"
	default:
		return "INVALID"
	}
}

// InProgress reports whether a transfer is queued but not fully pushed.
func (s EndpointState) InProgress() bool {
	return s == EndpointStateDataInWIP || s == EndpointStateDataOutWIP
}

// Handler is invoked by the interrupt layer when a transfer on an endpoint
// completes. The backend stores it and never calls it itself.
type Handler func(devID uint32, size uint32, ep uint8) error

// Backend is the surface a USB controller driver exposes to the control
// transfer layer above it.
//
// Methods that can fail return errors from the pkg catalogue; none panic on
// validated input.
type Backend interface {
	// Declare performs the one-time mapping of the controller.
	Declare() error

	// Configure brings up the core in the given mode and readies the
	// control endpoint with the given completion handlers.
	Configure(mode Mode, inHandler, outHandler Handler) error

	// Endpoint lifecycle

	// ConfigureEndpoint establishes an endpoint's software and hardware state.
	ConfigureEndpoint(ep uint8, typ EndpointType, dir Direction, maxPacketSize uint16, toggle Toggle, handler Handler) error

	// DeconfigureEndpoint disables both halves of an endpoint.
	DeconfigureEndpoint(ep uint8) error

	// ActivateEndpoint sets the hardware enable bit of one half.
	ActivateEndpoint(ep uint8, dir Direction) error

	// DeactivateEndpoint clears the hardware enable bit of one half.
	DeactivateEndpoint(ep uint8, dir Direction) error

	// Data movement

	// Send queues data for transmission on ep.
	Send(data []byte, ep uint8) error

	// SendZeroLengthPacket queues a zero-length packet on ep.
	SendZeroLengthPacket(ep uint8) error

	// Handshaking

	// SetNAK makes the endpoint answer NAK.
	SetNAK(ep uint8, dir Direction) error

	// ClearNAK resumes normal ACK handshaking.
	ClearNAK(ep uint8, dir Direction) error

	// Stall halts the endpoint.
	Stall(ep uint8, dir Direction) error

	// StallClear removes the halt condition.
	StallClear(ep uint8, dir Direction) error

	// Device state

	// SetAddress programs the device address assigned by the host.
	SetAddress(addr uint16) error

	// EndpointState returns the protocol state of one endpoint half.
	EndpointState(ep uint8, dir Direction) EndpointState

	// MaxPacketSize returns the largest data endpoint packet size supported.
	MaxPacketSize() uint16

	// Speed returns the negotiated bus speed.
	Speed() Speed
}
