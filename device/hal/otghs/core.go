package otghs

import (
	"fmt"

	"github.com/ardnew/otghs/device/hal"
	"github.com/ardnew/otghs/pkg"
	"github.com/ardnew/otghs/pkg/mmio"
)

// Peripheral window of the STM32F4 OTG_HS core.
const (
	Base uintptr = 0x40040000
	Size uint32  = 0x40000
)

// Control endpoint and data endpoint packet size limits.
const (
	ep0MaxPacketSize = 64
	maxPacketSize    = 512
)

// Controller drives one OTG HS core through a register bus.
type Controller struct {
	bus mmio.Bus
	cfg Config
	ctx *Context
}

// Compile-time interface check.
var _ hal.Backend = (*Controller)(nil)

// New returns a controller for the core behind bus. The bus is only touched
// from Declare on.
func New(bus mmio.Bus, cfg Config) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Controller{
		bus: bus,
		cfg: cfg,
		ctx: newContext(cfg),
	}, nil
}

// Context returns the device context shared with the interrupt layer.
func (c *Controller) Context() *Context {
	return c.ctx
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Declare checks that the core is mapped and answers with an OTG core
// signature. It succeeds once per controller.
func (c *Controller) Declare() error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	if c.ctx.declared {
		return fmt.Errorf("%w: already declared", pkg.ErrInvalidState)
	}
	if !mmio.Mapped(c.bus) {
		return fmt.Errorf("%w: no register bus", pkg.ErrNoMemory)
	}

	id := c.bus.Read(GSNPSID)
	if id>>16 != snpsidSignature {
		return fmt.Errorf("%w: core id %#08x is not an OTG core", pkg.ErrNoMemory, id)
	}
	c.ctx.declared = true

	pkg.LogInfo(pkg.ComponentCore, "declared", "snpsid", fmt.Sprintf("%#08x", id))
	return nil
}

// Configure resets the core, forces it into mode and brings up the control
// endpoint in both tables with the given completion handlers.
func (c *Controller) Configure(mode hal.Mode, inHandler, outHandler hal.Handler) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	if !c.ctx.declared {
		return fmt.Errorf("%w: not declared", pkg.ErrInvalidState)
	}
	if mode != hal.ModeDevice && mode != hal.ModeHost {
		return fmt.Errorf("%w: mode %s", pkg.ErrInvalidParameter, mode)
	}

	if err := c.resetCore(); err != nil {
		pkg.LogError(pkg.ComponentCore, "core reset failed", "error", err)
		return err
	}
	if err := c.forceMode(mode); err != nil {
		pkg.LogError(pkg.ComponentCore, "mode switch failed", "mode", mode, "error", err)
		return err
	}

	switch mode {
	case hal.ModeDevice:
		c.initDevice()
	case hal.ModeHost:
		c.initHost()
	}
	c.ctx.mode = mode

	c.initReceiveFIFO()
	c.resetTables()

	in, out := &c.ctx.in[0], &c.ctx.out[0]
	for _, ep := range []*Endpoint{in, out} {
		ep.Type = hal.EndpointTypeControl
		ep.MaxPacketSize = ep0MaxPacketSize
		ep.Configured = true
		ep.State = hal.EndpointStateIdle
		c.bus.SetN(epctl(0, ep.Dir), DxEPCTL_MPSIZ, mpsizMaskEP0, mpsizField(0, ep0MaxPacketSize))
		c.bus.Set(DAINTMSK, daintBit(0, ep.Dir))
	}
	in.Handler = inHandler
	out.Handler = outHandler
	r, err := c.planTxFIFO(in, ep0MaxPacketSize)
	if err != nil {
		return err
	}
	c.allocateTxFIFO(in, r)
	out.txStart, out.txDepth = in.txStart, in.txDepth

	c.ctx.speed = hal.SpeedHigh
	c.ctx.configured = true

	pkg.LogInfo(pkg.ComponentCore, "configured", "mode", mode, "speed", c.ctx.speed)
	return nil
}

// resetCore performs the core soft reset.
func (c *Controller) resetCore() error {
	if err := c.waitBit(GRSTCTL, GRSTCTL_AHBIDL, true); err != nil {
		return fmt.Errorf("%w: AHB master never idle", pkg.ErrInitFail)
	}
	c.bus.Set(GRSTCTL, 1<<GRSTCTL_CSRST)
	if err := c.waitBit(GRSTCTL, GRSTCTL_CSRST, false); err != nil {
		return fmt.Errorf("%w: core soft reset never completed", pkg.ErrInitFail)
	}
	if err := c.waitBit(GRSTCTL, GRSTCTL_AHBIDL, true); err != nil {
		return fmt.Errorf("%w: AHB master not idle after reset", pkg.ErrInitFail)
	}
	return nil
}

// forceMode selects the core role and waits for GINTSTS.CMOD to follow.
func (c *Controller) forceMode(mode hal.Mode) error {
	host := mode == hal.ModeHost
	if host {
		c.bus.Clear(GUSBCFG, 1<<GUSBCFG_FDMOD)
		c.bus.Set(GUSBCFG, 1<<GUSBCFG_FHMOD)
	} else {
		c.bus.Clear(GUSBCFG, 1<<GUSBCFG_FHMOD)
		c.bus.Set(GUSBCFG, 1<<GUSBCFG_FDMOD)
	}
	if err := c.waitBit(GINTSTS, GINTSTS_CMOD, host); err != nil {
		return fmt.Errorf("%w: core never entered %s mode", pkg.ErrInitFail, mode)
	}
	return nil
}

// initDevice programs high speed, unmasks the device interrupts and
// connects.
func (c *Controller) initDevice() {
	c.bus.SetN(DCFG, DCFG_DSPD, 0x3, enumSpeedHigh)
	c.bus.Set(DCFG, 1<<DCFG_NZLSOHSK)
	c.bus.Set(GINTMSK, 1<<GINTMSK_USBRST|
		1<<GINTMSK_ENUMDNEM|
		1<<GINTMSK_USBSUSPM|
		1<<GINTMSK_IEPINT|
		1<<GINTMSK_OEPINT|
		1<<GINTMSK_RXFLVLM)
	c.bus.Set(GAHBCFG, 1<<GAHBCFG_GINT)
	c.bus.Clear(DCTL, 1<<DCTL_SDIS)
}

// initHost selects the FS/LS PHY clock. Host scheduling is left to the
// layer above.
func (c *Controller) initHost() {
	c.bus.SetN(HCFG, HCFG_FSLSPCS, 0x3, 1)
	c.bus.Set(GAHBCFG, 1<<GAHBCFG_GINT)
}

// resetTables returns every endpoint record to its unconfigured state.
func (c *Controller) resetTables() {
	for i := range c.ctx.in {
		c.ctx.in[i] = Endpoint{ID: uint8(i), Dir: hal.DirIn}
	}
	for i := range c.ctx.out {
		c.ctx.out[i] = Endpoint{ID: uint8(i), Dir: hal.DirOut}
	}
}

// SetAddress programs the device address assigned by the host.
func (c *Controller) SetAddress(addr uint16) error {
	if addr > 0x7f {
		return fmt.Errorf("%w: address %d", pkg.ErrInvalidParameter, addr)
	}

	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	c.bus.SetN(DCFG, DCFG_DAD, 0x7f, uint32(addr))
	pkg.LogDebug(pkg.ComponentCore, "address", "addr", addr)
	return nil
}

// EndpointState returns the state of one endpoint half, or
// EndpointStateInvalid when it does not exist.
func (c *Controller) EndpointState(ep uint8, dir hal.Direction) hal.EndpointState {
	return c.ctx.State(ep, dir)
}

// MaxPacketSize returns the largest data endpoint packet size.
func (c *Controller) MaxPacketSize() uint16 {
	return maxPacketSize
}

// Speed returns the bus speed.
func (c *Controller) Speed() hal.Speed {
	return c.ctx.Speed()
}

// EnumerationDone reads the enumerated speed after the interrupt layer sees
// ENUMDNE and records it in the context.
func (c *Controller) EnumerationDone() hal.Speed {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	switch c.bus.Get(DSTS, DSTS_ENUMSPD, 0x3) {
	case enumSpeedHigh:
		c.ctx.speed = hal.SpeedHigh
	case enumSpeedFull, enumSpeedFull48:
		c.ctx.speed = hal.SpeedFull
	case enumSpeedLow:
		c.ctx.speed = hal.SpeedLow
	}

	pkg.LogInfo(pkg.ComponentCore, "enumerated", "speed", c.ctx.speed)
	return c.ctx.speed
}

// mpsizField encodes a max packet size for the MPSIZ field. Endpoint 0 uses
// a two-bit code.
func mpsizField(id uint8, mps uint16) uint32 {
	if id != 0 {
		return uint32(mps)
	}
	switch mps {
	case 64:
		return 0
	case 32:
		return 1
	case 16:
		return 2
	default:
		return 3
	}
}

// validEP0PacketSize reports whether mps is one of the control endpoint
// sizes.
func validEP0PacketSize(mps uint16) bool {
	return mps == 8 || mps == 16 || mps == 32 || mps == 64
}
