// Package hal defines the controller-facing types shared by USB controller
// drivers and the control transfer layer built on top of them.
//
// The package is deliberately free of hardware detail. It names the values
// that cross the boundary (speeds, directions, transfer types, endpoint
// states, completion handlers) and the [Backend] interface that a driver
// implements.
//
// # Interface Overview
//
// The [Backend] interface groups the driver operations:
//
//   - One-time declaration and core configuration
//   - Endpoint lifecycle (configure, deconfigure, activate, deactivate)
//   - Data movement (Send, SendZeroLengthPacket)
//   - Handshaking (NAK, ACK, STALL)
//   - Device-level state (address, speed, endpoint state queries)
//
// # Endpoint States
//
// Every endpoint half moves through [EndpointState] values. A WIP state
// means a transfer is queued to hardware but not fully pushed. The terminal
// DATA_IN/DATA_OUT states mean the data is fully queued, not that it has
// reached the wire; wire completion is reported by the interrupt layer.
//
// A register-level implementation for the USB OTG HS core is available in
// [github.com/ardnew/otghs/device/hal/otghs].
package hal
