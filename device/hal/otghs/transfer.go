package otghs

import (
	"fmt"

	"github.com/ardnew/otghs/device/hal"
	"github.com/ardnew/otghs/pkg"
)

// sendEndpoint validates id against the transmit table and returns its
// record. The caller holds the context lock.
func (c *Controller) sendEndpoint(id uint8) (*Endpoint, error) {
	ep := c.ctx.ep(id, sendDir)
	if ep == nil {
		return nil, fmt.Errorf("%w: ep%d beyond %s table of %d",
			pkg.ErrInvalidParameter, id, sendDir, c.ctx.Capacity(sendDir))
	}
	if !ep.Configured || ep.MaxPacketSize == 0 {
		return nil, fmt.Errorf("%w: ep%d %s not configured", pkg.ErrInvalidState, id, sendDir)
	}
	return ep, nil
}

// programTransfer writes the packet count and transfer size of the next
// transfer on id.
func (c *Controller) programTransfer(id uint8, packets, size uint32) {
	reg := eptsiz(id, sendDir)
	xfr, pkt := uint32(xfrsizMask), uint32(pktcntMask)
	if id == 0 {
		xfr, pkt = xfrsizMaskEP0, pktcntMaskEP0I
		if sendDir == hal.DirOut {
			pkt = pktcntMaskEP0O
		}
	}
	c.bus.SetN(reg, DxEPTSIZ_PKTCNT, int(pkt), packets)
	c.bus.SetN(reg, DxEPTSIZ_XFRSIZ, int(xfr), size)
}

// startTransfer clears NAK and enables the endpoint.
func (c *Controller) startTransfer(id uint8) {
	c.bus.Set(epctl(id, sendDir), 1<<DxEPCTL_CNAK|1<<DxEPCTL_EPENA)
}

// abort returns ep to IDLE after a failed wait or FIFO write.
func (c *Controller) abort(ep *Endpoint, op string, err error) error {
	ep.State = hal.EndpointStateIdle
	pkg.LogWarn(pkg.ComponentTransfer, op+" aborted",
		"ep", ep.ID,
		"offset", ep.FIFOOffset,
		"size", ep.FIFOSize,
		"error", err)
	return fmt.Errorf("%s ep%d: %w", op, ep.ID, err)
}

// Send queues data on endpoint id and returns once it is in the FIFO.
//
// Data endpoints are programmed for the whole transfer in one command and
// the FIFO is filled window by window, where the window is the endpoint's
// transmit FIFO size. The control endpoint takes a single packet per
// command: a buffer larger than its max packet size is left in
// DATA_IN_WIP (DATA_OUT_WIP in host builds) with one packet queued, and the
// interrupt layer drives the rest through Continue. A Send on endpoint 0
// while a split buffer is still in flight replaces that buffer, as a new
// SETUP stage abandons the previous data stage.
func (c *Controller) Send(data []byte, id uint8) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ep, err := c.sendEndpoint(id)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return c.sendZeroLengthPacket(ep)
	}

	size := uint32(len(data))
	mps := uint32(ep.MaxPacketSize)
	packets := (size + mps - 1) / mps
	if size > maxTransferSize || packets > maxPacketCount {
		return fmt.Errorf("%w: ep%d transfer of %d bytes in %d packets exceeds core limits",
			pkg.ErrInvalidParameter, id, size, packets)
	}
	if err := c.setXmitFIFO(ep, data); err != nil {
		return err
	}

	split := id == 0 && size > mps
	if split {
		c.programTransfer(id, 1, mps)
	} else {
		c.programTransfer(id, packets, size)
	}
	ep.State = sendWIP
	c.startTransfer(id)

	pkg.LogDebug(pkg.ComponentTransfer, "send",
		"ep", id,
		"size", size,
		"packets", packets,
		"split", split)

	if split {
		if err := c.waitTxSpace(id, words(mps)); err != nil {
			return c.abort(ep, "send", err)
		}
		if err := c.writeFIFO(ep, mps); err != nil {
			return c.abort(ep, "send", err)
		}
		return nil
	}

	window := ep.txDepth * 4
	if window == 0 {
		window = words(mps) * 4
	}
	residual := size
	for residual >= window {
		if err := c.waitTxSpace(id, window/4); err != nil {
			return c.abort(ep, "send", err)
		}
		if residual == window {
			ep.State = sendDone
		}
		if err := c.writeFIFO(ep, window); err != nil {
			return c.abort(ep, "send", err)
		}
		residual -= window
	}
	if residual > 0 {
		if err := c.waitTxSpace(id, words(residual)); err != nil {
			return c.abort(ep, "send", err)
		}
		ep.State = sendDone
		if err := c.writeFIFO(ep, residual); err != nil {
			return c.abort(ep, "send", err)
		}
	}

	if c.suspended() {
		return c.abort(ep, "send", errSuspended)
	}
	return nil
}

// SendZeroLengthPacket queues a zero-length packet on endpoint id once its
// transmit FIFO has drained.
func (c *Controller) SendZeroLengthPacket(id uint8) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ep, err := c.sendEndpoint(id)
	if err != nil {
		return err
	}
	return c.sendZeroLengthPacket(ep)
}

func (c *Controller) sendZeroLengthPacket(ep *Endpoint) error {
	if err := c.waitTxSpace(ep.ID, ep.txDepth); err != nil {
		return c.abort(ep, "zlp", err)
	}
	c.programTransfer(ep.ID, 1, 0)
	c.startTransfer(ep.ID)

	pkg.LogDebug(pkg.ComponentTransfer, "zlp", "ep", ep.ID)
	return nil
}

// Continue queues the next packet of a split control transfer on endpoint
// id. The interrupt layer calls it each time the previous packet completes
// while FIFOOffset is short of FIFOSize. The state moves to DATA_IN
// (DATA_OUT in host builds) with the last packet.
func (c *Controller) Continue(id uint8) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ep, err := c.sendEndpoint(id)
	if err != nil {
		return err
	}
	if ep.State != sendWIP || ep.FIFOOffset >= ep.FIFOSize {
		return fmt.Errorf("%w: ep%d has no split transfer in flight (%s)",
			pkg.ErrInvalidState, id, ep.State)
	}

	n := ep.FIFOSize - ep.FIFOOffset
	if mps := uint32(ep.MaxPacketSize); n > mps {
		n = mps
	}
	c.programTransfer(id, 1, n)
	c.startTransfer(id)

	if err := c.waitTxSpace(id, words(n)); err != nil {
		return c.abort(ep, "continue", err)
	}
	if err := c.writeFIFO(ep, n); err != nil {
		return c.abort(ep, "continue", err)
	}
	if ep.FIFOOffset == ep.FIFOSize {
		ep.State = sendDone
	}

	pkg.LogDebug(pkg.ComponentTransfer, "continue",
		"ep", id,
		"bytes", n,
		"offset", ep.FIFOOffset,
		"size", ep.FIFOSize)
	return nil
}

// Complete records that the transfer on one endpoint half finished on the
// wire. The endpoint returns to IDLE and drops its buffer. A stalled
// endpoint stays stalled.
func (c *Controller) Complete(id uint8, dir hal.Direction) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ep := c.ctx.ep(id, dir)
	if ep == nil {
		return fmt.Errorf("%w: ep%d %s", pkg.ErrInvalidParameter, id, dir)
	}
	if ep.State != hal.EndpointStateStalled {
		ep.State = hal.EndpointStateIdle
	}
	ep.fifo = nil
	ep.FIFOOffset, ep.FIFOSize = 0, 0
	return nil
}

// Handler returns the completion handler stored for one endpoint half.
func (c *Controller) Handler(id uint8, dir hal.Direction) hal.Handler {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ep := c.ctx.ep(id, dir)
	if ep == nil {
		return nil
	}
	return ep.Handler
}
