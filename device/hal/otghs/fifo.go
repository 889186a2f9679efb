package otghs

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/otghs/pkg"
)

// Data FIFO RAM layout, in words:
//
//	0            rx             rx+tx0
//	+------------+--------------+--------+--------+---
//	|  RX FIFO   |  TX FIFO 0   | TX n   | TX m   | ...
//	+------------+--------------+--------+--------+---
//
// Regions after TX FIFO 0 are handed out in configuration order and never
// reclaimed. A reconfigured endpoint keeps its region when the new depth
// fits.

// initReceiveFIFO programs the shared receive FIFO and resets the allocation
// cursor past the control endpoint region.
func (c *Controller) initReceiveFIFO() {
	c.bus.SetN(GRXFSIZ, GRXFSIZ_RXFD, fifoFieldMask, c.cfg.RxFIFODepth)
	c.ctx.fifoCursor = c.cfg.RxFIFODepth + c.cfg.TxFIFO0Depth

	pkg.LogDebug(pkg.ComponentFIFO, "receive fifo",
		"depth", c.cfg.RxFIFODepth,
		"cursor", c.ctx.fifoCursor)
}

// txRegion is a placement of one transmit FIFO, in words.
type txRegion struct {
	start, depth uint32
	fresh        bool // carved at the allocation cursor
}

// planTxFIFO places the transmit FIFO of ep for packets of mps bytes
// without touching the allocator or the hardware. Endpoint 0 gets the fixed
// region after the receive FIFO; receive-only halves get none.
func (c *Controller) planTxFIFO(ep *Endpoint, mps uint16) (txRegion, error) {
	switch {
	case ep.ID == 0:
		return txRegion{start: c.cfg.RxFIFODepth, depth: c.cfg.TxFIFO0Depth}, nil
	case ep.Dir != sendDir:
		return txRegion{}, nil
	}

	depth := words(uint32(mps))
	if depth < minFIFODepth {
		depth = minFIFODepth
	}
	if ep.txDepth != 0 && depth <= ep.txDepth {
		return txRegion{start: ep.txStart, depth: depth}, nil
	}

	start := c.ctx.fifoCursor
	if start+depth > c.cfg.FIFOWords {
		return txRegion{}, fmt.Errorf("%w: ep%d tx fifo needs %d words at %d, have %d",
			pkg.ErrNoStorage, ep.ID, depth, start, c.cfg.FIFOWords)
	}
	return txRegion{start: start, depth: depth, fresh: true}, nil
}

// allocateTxFIFO commits r to ep and programs its FIFO registers.
func (c *Controller) allocateTxFIFO(ep *Endpoint, r txRegion) {
	if ep.ID == 0 {
		c.bus.SetN(DIEPTXF0, DIEPTXF_INEPTXSA, fifoFieldMask, r.start)
		c.bus.SetN(DIEPTXF0, DIEPTXF_INEPTXFD, fifoFieldMask, r.depth)
		c.bus.SetN(DOEPTSIZ(0), DOEPTSIZ_STUPCNT, 0x3, 3)
		c.bus.Set(DOEPCTL(0), 1<<DxEPCTL_CNAK)

		ep.txStart, ep.txDepth = r.start, r.depth
		return
	}
	if ep.Dir != sendDir {
		return
	}
	if r.fresh {
		c.ctx.fifoCursor = r.start + r.depth
	}

	reg := DIEPTXF(ep.ID)
	c.bus.SetN(reg, DIEPTXF_INEPTXSA, fifoFieldMask, r.start)
	c.bus.SetN(reg, DIEPTXF_INEPTXFD, fifoFieldMask, r.depth)
	ep.txStart, ep.txDepth = r.start, r.depth

	pkg.LogDebug(pkg.ComponentFIFO, "transmit fifo",
		"ep", ep.ID,
		"start", r.start,
		"depth", r.depth)
}

// setXmitFIFO attaches buf as the in-flight transfer buffer of ep.
func (c *Controller) setXmitFIFO(ep *Endpoint, buf []byte) error {
	if ep.fifoLocked {
		return fmt.Errorf("%w: ep%d fifo write in progress", pkg.ErrBusy, ep.ID)
	}
	ep.fifo = buf
	ep.FIFOOffset = 0
	ep.FIFOSize = uint32(len(buf))
	return nil
}

// writeFIFO pushes the next n bytes of the in-flight buffer into the data
// FIFO of ep as little-endian words. The final word is zero padded.
func (c *Controller) writeFIFO(ep *Endpoint, n uint32) error {
	if ep.fifoLocked {
		return fmt.Errorf("%w: ep%d fifo write in progress", pkg.ErrBusy, ep.ID)
	}
	if n > ep.FIFOSize-ep.FIFOOffset {
		return fmt.Errorf("%w: ep%d write of %d bytes exceeds %d remaining",
			pkg.ErrInvalidParameter, ep.ID, n, ep.FIFOSize-ep.FIFOOffset)
	}

	ep.fifoLocked = true
	defer func() { ep.fifoLocked = false }()

	data := ep.fifo[ep.FIFOOffset : ep.FIFOOffset+n]
	fifo := FIFO(ep.ID)

	var word [4]byte
	for len(data) > 0 {
		word = [4]byte{}
		k := copy(word[:], data)
		c.bus.Write(fifo, binary.LittleEndian.Uint32(word[:]))
		data = data[k:]
	}
	ep.FIFOOffset += n

	pkg.LogDebug(pkg.ComponentFIFO, "write",
		"ep", ep.ID,
		"bytes", n,
		"offset", ep.FIFOOffset,
		"size", ep.FIFOSize)
	return nil
}

// WriteFIFO pushes the next n bytes of the transfer in flight on endpoint id
// into its data FIFO. It is the primitive the interrupt layer uses to feed
// a transfer without reprogramming the endpoint.
func (c *Controller) WriteFIFO(id uint8, n uint32) error {
	c.ctx.mu.Lock()
	defer c.ctx.mu.Unlock()

	ep := c.ctx.ep(id, sendDir)
	if ep == nil {
		return fmt.Errorf("%w: ep%d out of range", pkg.ErrInvalidParameter, id)
	}
	if !ep.Configured {
		return fmt.Errorf("%w: ep%d %s not configured", pkg.ErrInvalidState, id, sendDir)
	}
	return c.writeFIFO(ep, n)
}
