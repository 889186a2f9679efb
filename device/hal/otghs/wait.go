package otghs

import (
	"fmt"

	"github.com/ardnew/otghs/pkg"
	"github.com/ardnew/otghs/pkg/mmio"
)

var (
	errTimeout   = fmt.Errorf("%w: %w", pkg.ErrBusy, pkg.ErrTimeout)
	errSuspended = fmt.Errorf("%w: %w", pkg.ErrBusy, pkg.ErrSuspended)
)

// waitUntil polls cond at most attempts times. It returns nil as soon as
// cond reports true, cond's error if it reports one, and errTimeout once
// the attempts are spent.
func waitUntil(attempts int, cond func() (bool, error)) error {
	for i := 0; i < attempts; i++ {
		done, err := cond()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return errTimeout
}

// waitBit polls until bit pos of the register at off equals want.
func (c *Controller) waitBit(off uint32, pos int, want bool) error {
	return waitUntil(c.cfg.RegCheckTimeout, func() (bool, error) {
		return mmio.IsSet(c.bus, off, pos) == want, nil
	})
}

// waitDisabled polls until the endpoint enable bit of ctl clears.
func (c *Controller) waitDisabled(ctl uint32) error {
	return c.waitBit(ctl, DxEPCTL_EPENA, false)
}

// suspended reports whether the bus is in suspend.
func (c *Controller) suspended() bool {
	return mmio.IsSet(c.bus, DSTS, DSTS_SUSPSTS)
}

// waitTxSpace polls until the transmit FIFO of id reports at least words
// free. Suspend aborts the wait.
func (c *Controller) waitTxSpace(id uint8, words uint32) error {
	return waitUntil(c.cfg.FIFOWaitLimit, func() (bool, error) {
		if c.bus.Get(DTXFSTS(id), DTXFSTS_INEPTFSAV, fifoFieldMask) >= words {
			return true, nil
		}
		if c.suspended() {
			return false, errSuspended
		}
		return false, nil
	})
}

// words returns the number of 32-bit words holding n bytes.
func words(n uint32) uint32 {
	return (n + 3) / 4
}
