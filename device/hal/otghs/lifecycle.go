package otghs

import (
	"fmt"

	"github.com/ardnew/otghs/device/hal"
	"github.com/ardnew/otghs/pkg"
)

// Largest packet size the MPSIZ field accepts on a data endpoint
// (high-bandwidth interrupt and isochronous).
const maxFieldPacketSize = 1024

// ConfigureEndpoint establishes the software record and hardware state of
// endpoint id. A non-control endpoint is unidirectional: configuring one
// half unconfigures the other. DirBoth configures both tables
// symmetrically.
func (c *Controller) ConfigureEndpoint(id uint8, typ hal.EndpointType, dir hal.Direction, mps uint16, toggle hal.Toggle, handler hal.Handler) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	var halves []hal.Direction
	switch dir {
	case hal.DirIn, hal.DirOut:
		if c.ctx.ep(id, dir) == nil {
			return fmt.Errorf("%w: ep%d beyond %s table of %d",
				pkg.ErrNoStorage, id, dir, c.ctx.Capacity(dir))
		}
		halves = []hal.Direction{dir}
	case hal.DirBoth:
		if c.ctx.ep(id, hal.DirIn) == nil || c.ctx.ep(id, hal.DirOut) == nil {
			return fmt.Errorf("%w: ep%d beyond endpoint tables", pkg.ErrNoStorage, id)
		}
		halves = []hal.Direction{hal.DirIn, hal.DirOut}
	default:
		return fmt.Errorf("%w: direction %s", pkg.ErrInvalidParameter, dir)
	}

	switch {
	case !typ.Valid():
		return fmt.Errorf("%w: endpoint type %s", pkg.ErrInvalidParameter, typ)
	case mps == 0, mps > maxFieldPacketSize:
		return fmt.Errorf("%w: ep%d max packet size %d", pkg.ErrInvalidParameter, id, mps)
	case id == 0 && !validEP0PacketSize(mps):
		return fmt.Errorf("%w: ep0 max packet size %d", pkg.ErrInvalidParameter, mps)
	case dir == hal.DirBoth && typ != hal.EndpointTypeControl:
		return fmt.Errorf("%w: ep%d %s endpoint cannot be bidirectional", pkg.ErrInvalidParameter, id, typ)
	}

	regions := make([]txRegion, len(halves))
	for i, d := range halves {
		r, err := c.planTxFIFO(c.ctx.ep(id, d), mps)
		if err != nil {
			pkg.LogError(pkg.ComponentEndpoint, "fifo allocation failed", "ep", id, "error", err)
			return err
		}
		regions[i] = r
	}

	if id != 0 && len(halves) == 1 {
		if peer := c.ctx.ep(id, dir.Opposite()); peer != nil {
			peer.Configured = false
		}
	}

	for i, d := range halves {
		c.configureHalf(c.ctx.ep(id, d), typ, mps, toggle, handler, regions[i])
	}

	pkg.LogInfo(pkg.ComponentEndpoint, "configured",
		"ep", id,
		"dir", dir,
		"type", typ,
		"mps", mps)
	return nil
}

func (c *Controller) configureHalf(ep *Endpoint, typ hal.EndpointType, mps uint16, toggle hal.Toggle, handler hal.Handler, r txRegion) {
	ep.Type = typ
	ep.MaxPacketSize = mps
	ep.Configured = true
	ep.State = hal.EndpointStateIdle
	ep.Handler = handler
	ep.fifo = nil
	ep.FIFOOffset, ep.FIFOSize = 0, 0

	ctl := epctl(ep.ID, ep.Dir)
	if ep.ID == 0 {
		c.bus.SetN(ctl, DxEPCTL_MPSIZ, mpsizMaskEP0, mpsizField(0, mps))
	} else {
		c.bus.SetN(ctl, DxEPCTL_MPSIZ, mpsizMask, mpsizField(ep.ID, mps))
		c.bus.SetN(ctl, DxEPCTL_EPTYP, 0x3, uint32(typ))
	}
	if typ == hal.EndpointTypeBulk || typ == hal.EndpointTypeInterrupt {
		if toggle == hal.ToggleData1 {
			c.bus.Set(ctl, 1<<DxEPCTL_SD1PID)
		} else {
			c.bus.Set(ctl, 1<<DxEPCTL_SD0PID)
		}
	}
	if ep.Dir == hal.DirIn {
		c.bus.SetN(ctl, DxEPCTL_TXFNUM, 0xf, uint32(ep.ID))
	}

	c.allocateTxFIFO(ep, r)

	c.bus.Set(ctl, 1<<DxEPCTL_USBAEP)
	if ep.Dir == hal.DirIn {
		c.bus.Set(ctl, 1<<DxEPCTL_CNAK)
	}
	c.bus.Set(DAINTMSK, daintBit(ep.ID, ep.Dir))
}

// DeconfigureEndpoint disables both halves of endpoint id with the FIFO
// level interrupts masked. Non-control halves return to unconfigured IDLE.
func (c *Controller) DeconfigureEndpoint(id uint8) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	in, out := c.ctx.ep(id, hal.DirIn), c.ctx.ep(id, hal.DirOut)
	if in == nil && out == nil {
		return fmt.Errorf("%w: ep%d beyond endpoint tables", pkg.ErrInvalidParameter, id)
	}

	restore := c.mask(fifoInterrupts)
	defer restore()

	for _, ep := range []*Endpoint{in, out} {
		if ep == nil || !ep.Configured {
			continue
		}
		c.bus.Clear(epctl(id, ep.Dir), 1<<DxEPCTL_EPENA|1<<DxEPCTL_USBAEP)
		c.bus.Clear(DAINTMSK, daintBit(id, ep.Dir))
		if id != 0 {
			ep.Configured = false
			ep.State = hal.EndpointStateIdle
			ep.fifo = nil
			ep.FIFOOffset, ep.FIFOSize = 0, 0
		}
	}

	pkg.LogInfo(pkg.ComponentEndpoint, "deconfigured", "ep", id)
	return nil
}

// lifecycleEndpoint validates an endpoint half for the enable-bit
// operations and returns its control register.
func (c *Controller) lifecycleEndpoint(id uint8, dir hal.Direction) (uint32, error) {
	if dir != hal.DirIn && dir != hal.DirOut {
		return 0, fmt.Errorf("%w: direction %s", pkg.ErrInvalidParameter, dir)
	}
	if c.ctx.ep(id, dir) == nil {
		return 0, fmt.Errorf("%w: ep%d beyond %s table of %d",
			pkg.ErrInvalidParameter, id, dir, c.ctx.Capacity(dir))
	}
	return epctl(id, dir), nil
}

// ActivateEndpoint sets the enable bit of one endpoint half. OUT halves
// also clear NAK so the core accepts data.
func (c *Controller) ActivateEndpoint(id uint8, dir hal.Direction) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ctl, err := c.lifecycleEndpoint(id, dir)
	if err != nil {
		return err
	}
	if dir == hal.DirOut {
		c.bus.Set(ctl, 1<<DxEPCTL_CNAK)
	}
	c.bus.Set(ctl, 1<<DxEPCTL_EPENA)

	pkg.LogDebug(pkg.ComponentEndpoint, "activated", "ep", id, "dir", dir)
	return nil
}

// DeactivateEndpoint clears the enable bit of one endpoint half with the
// FIFO level interrupts masked.
func (c *Controller) DeactivateEndpoint(id uint8, dir hal.Direction) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ctl, err := c.lifecycleEndpoint(id, dir)
	if err != nil {
		return err
	}

	restore := c.mask(fifoInterrupts)
	defer restore()

	c.bus.Clear(ctl, 1<<DxEPCTL_EPENA)

	pkg.LogDebug(pkg.ComponentEndpoint, "deactivated", "ep", id, "dir", dir)
	return nil
}

// EnableEndpoint clears the disable request of one endpoint half.
func (c *Controller) EnableEndpoint(id uint8, dir hal.Direction) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ctl, err := c.lifecycleEndpoint(id, dir)
	if err != nil {
		return err
	}
	c.bus.Clear(ctl, 1<<DxEPCTL_EPDIS)
	return nil
}

// DisableEndpoint requests the core to disable one endpoint half.
func (c *Controller) DisableEndpoint(id uint8, dir hal.Direction) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ctl, err := c.lifecycleEndpoint(id, dir)
	if err != nil {
		return err
	}
	c.bus.Set(ctl, 1<<DxEPCTL_EPDIS)
	return nil
}
