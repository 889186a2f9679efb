package otghs

import "testing"

func TestMask(t *testing.T) {
	tests := []struct {
		name   string
		before uint32
		writes int
	}{
		{"both set", 1<<GINTMSK_NPTXFEM | 1<<GINTMSK_RXFLVLM | 1<<GINTMSK_USBRST, 2},
		{"one set", 1<<GINTMSK_RXFLVLM | 1<<GINTMSK_IEPINT, 2},
		{"none set", 1 << GINTMSK_ENUMDNEM, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sim := newTestController(DefaultConfig())
			sim.Poke(GINTMSK, tt.before)

			restore := c.mask(fifoInterrupts)
			if got := sim.Peek(GINTMSK); got != tt.before&^fifoInterrupts {
				t.Errorf("GINTMSK while masked = %#x, want %#x", got, tt.before&^fifoInterrupts)
			}

			// bits enabled elsewhere while masked are kept
			sim.Poke(GINTMSK, sim.Peek(GINTMSK)|1<<GINTMSK_OEPINT)
			restore()

			if got, want := sim.Peek(GINTMSK), tt.before|1<<GINTMSK_OEPINT; got != want {
				t.Errorf("GINTMSK restored = %#x, want %#x", got, want)
			}
			if got := len(sim.Trace()); got != tt.writes {
				t.Errorf("writes = %d, want %d", got, tt.writes)
			}
		})
	}
}
