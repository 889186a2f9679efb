// Package otghs implements the endpoint and transfer engine of the USB 2.0
// High-Speed OTG core found on STM32F4 parts (Synopsys DWC2 register file).
//
// A [Controller] owns one core through an [mmio.Bus]. On target the bus is
// an [mmio.Region] over the peripheral window; off target it is a simulated
// register file such as the one in package otghssim.
//
//	bus := mmio.NewRegion(otghs.Base, otghs.Size)
//	c, err := otghs.New(bus, otghs.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	if err := c.Declare(); err != nil {
//		return err
//	}
//	if err := c.Configure(hal.ModeDevice, onIn, onOut); err != nil {
//		return err
//	}
//	c.ConfigureEndpoint(2, hal.EndpointTypeBulk, hal.DirIn, 512, hal.ToggleData0, onBulkIn)
//	c.Send(payload, 2)
//
// # Transfers
//
// Send programs the transfer size and packet count of the endpoint and
// fills its transmit FIFO. Data endpoints take the whole transfer in one
// command. The control endpoint takes one packet per command, so a control
// transfer longer than the max packet size returns in the WIP state after
// the first packet; the interrupt layer feeds the remaining packets with
// [Controller.Continue] and reports wire completion with
// [Controller.Complete].
//
// Send targets IN endpoints by default. Building with the otghs_host tag
// makes it target OUT endpoints instead.
//
// # Waiting on hardware
//
// Every wait on a hardware bit is a bounded poll. Exhausting the bound, or
// seeing the bus suspend while waiting for FIFO space, fails the operation
// with an error matching [pkg.ErrBusy] and leaves the endpoint IDLE.
//
// # Concurrency
//
// All operations, including those called from the interrupt path, serialize
// on the device [Context]. Multi-register endpoint enable sequences also
// mask the FIFO level interrupts for their duration.
package otghs
