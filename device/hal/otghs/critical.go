package otghs

// FIFO level interrupts that fire spuriously while endpoint enable bits
// change.
const fifoInterrupts = 1<<GINTMSK_NPTXFEM | 1<<GINTMSK_RXFLVLM

// mask clears bits in GINTMSK and returns a function that sets back the ones
// that were set on entry. Callers defer it so every exit path restores the
// mask.
func (c *Controller) mask(bits uint32) (restore func()) {
	saved := c.bus.Read(GINTMSK) & bits
	c.bus.Clear(GINTMSK, bits)

	return func() {
		if saved != 0 {
			c.bus.Set(GINTMSK, saved)
		}
	}
}
