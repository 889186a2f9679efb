package otghs

import (
	"fmt"

	"github.com/ardnew/otghs/device/hal"
	"github.com/ardnew/otghs/pkg"
)

// handshakeEndpoint validates a handshake request and returns the endpoint
// half and its control register. The caller holds the context lock.
func (c *Controller) handshakeEndpoint(id uint8, dir hal.Direction) (*Endpoint, uint32, error) {
	if dir != hal.DirIn && dir != hal.DirOut {
		return nil, 0, fmt.Errorf("%w: direction %s", pkg.ErrInvalidParameter, dir)
	}
	ep := c.ctx.ep(id, dir)
	if ep == nil {
		return nil, 0, fmt.Errorf("%w: ep%d beyond %s table of %d",
			pkg.ErrInvalidParameter, id, dir, c.ctx.Capacity(dir))
	}
	if !ep.Configured {
		return nil, 0, fmt.Errorf("%w: ep%d %s not configured", pkg.ErrInvalidState, id, dir)
	}
	return ep, epctl(id, dir), nil
}

// linkedOut returns the OUT control register paired with a non-zero IN
// endpoint when LinkedNAK is enabled.
func (c *Controller) linkedOut(id uint8, dir hal.Direction) (uint32, bool) {
	if !c.cfg.LinkedNAK || id == 0 || dir != hal.DirIn {
		return 0, false
	}
	if c.ctx.ep(id, hal.DirOut) == nil {
		return 0, false
	}
	return DOEPCTL(id), true
}

// SetNAK makes one endpoint half answer NAK. It first waits, bounded, for
// any enabled transfer to finish. A linked OUT half is waited on as well,
// and no bit is set unless both waits succeed.
func (c *Controller) SetNAK(id uint8, dir hal.Direction) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	_, ctl, err := c.handshakeEndpoint(id, dir)
	if err != nil {
		return err
	}
	if err := c.waitNAK(id, dir, ctl); err != nil {
		return err
	}
	out, linked := c.linkedOut(id, dir)
	if linked {
		if err := c.waitNAK(id, hal.DirOut, out); err != nil {
			return err
		}
	}

	c.bus.Set(ctl, 1<<DxEPCTL_SNAK)
	if linked {
		c.bus.Set(out, 1<<DxEPCTL_SNAK)
	}
	pkg.LogDebug(pkg.ComponentHandshake, "nak", "ep", id, "dir", dir, "linked", linked)
	return nil
}

func (c *Controller) waitNAK(id uint8, dir hal.Direction, ctl uint32) error {
	if err := c.waitDisabled(ctl); err != nil {
		pkg.LogWarn(pkg.ComponentHandshake, "endpoint still enabled", "ep", id, "dir", dir, "op", "nak")
		return fmt.Errorf("nak ep%d %s: %w", id, dir, err)
	}
	return nil
}

// ClearNAK resumes ACK handshaking on one endpoint half. Clearing NAK is
// always safe and does not wait.
func (c *Controller) ClearNAK(id uint8, dir hal.Direction) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	_, ctl, err := c.handshakeEndpoint(id, dir)
	if err != nil {
		return err
	}
	c.bus.Set(ctl, 1<<DxEPCTL_CNAK)
	if out, ok := c.linkedOut(id, dir); ok {
		c.bus.Set(out, 1<<DxEPCTL_CNAK)
	}
	pkg.LogDebug(pkg.ComponentHandshake, "ack", "ep", id, "dir", dir)
	return nil
}

// Stall halts one endpoint half. It waits, bounded, for the endpoint to be
// disabled before setting EPDIS and STALL.
func (c *Controller) Stall(id uint8, dir hal.Direction) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ep, ctl, err := c.handshakeEndpoint(id, dir)
	if err != nil {
		return err
	}
	if err := c.waitDisabled(ctl); err != nil {
		pkg.LogWarn(pkg.ComponentHandshake, "endpoint still enabled", "ep", id, "dir", dir, "op", "stall")
		return fmt.Errorf("stall ep%d %s: %w", id, dir, err)
	}
	c.bus.Set(ctl, 1<<DxEPCTL_EPDIS)
	c.bus.Set(ctl, 1<<DxEPCTL_STALL)
	ep.State = hal.EndpointStateStalled

	pkg.LogDebug(pkg.ComponentHandshake, "stall", "ep", id, "dir", dir)
	return nil
}

// StallClear removes the halt from one endpoint half with the same bounded
// wait as Stall. Bulk and interrupt endpoints restart at DATA0.
func (c *Controller) StallClear(id uint8, dir hal.Direction) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ep, ctl, err := c.handshakeEndpoint(id, dir)
	if err != nil {
		return err
	}
	if err := c.waitDisabled(ctl); err != nil {
		pkg.LogWarn(pkg.ComponentHandshake, "endpoint still enabled", "ep", id, "dir", dir, "op", "stall clear")
		return fmt.Errorf("stall clear ep%d %s: %w", id, dir, err)
	}
	c.bus.Clear(ctl, 1<<DxEPCTL_STALL)
	if ep.Type == hal.EndpointTypeBulk || ep.Type == hal.EndpointTypeInterrupt {
		c.bus.Set(ctl, 1<<DxEPCTL_SD0PID)
	}
	ep.State = hal.EndpointStateIdle

	pkg.LogDebug(pkg.ComponentHandshake, "stall clear", "ep", id, "dir", dir)
	return nil
}
