package otghs_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/otghs/device/hal"
	"github.com/ardnew/otghs/device/hal/otghs"
	"github.com/ardnew/otghs/pkg"
	"github.com/ardnew/otghs/pkg/mmio"
)

func TestHandshake_Validation(t *testing.T) {
	c, _ := newController(t, otghs.DefaultConfig())

	ops := map[string]func(uint8, hal.Direction) error{
		"SetNAK":     c.SetNAK,
		"ClearNAK":   c.ClearNAK,
		"Stall":      c.Stall,
		"StallClear": c.StallClear,
	}
	tests := []struct {
		name string
		id   uint8
		dir  hal.Direction
		want error
	}{
		{"OUT beyond table", 5, hal.DirOut, pkg.ErrInvalidParameter},
		{"IN beyond table", 6, hal.DirIn, pkg.ErrInvalidParameter},
		{"both directions", 0, hal.DirBoth, pkg.ErrInvalidParameter},
		{"unconfigured", 2, hal.DirIn, pkg.ErrInvalidState},
	}
	for op, fn := range ops {
		for _, tt := range tests {
			t.Run(op+"/"+tt.name, func(t *testing.T) {
				wantErr(t, fn(tt.id, tt.dir), tt.want)
			})
		}
	}
}

func TestHandshake_StuckEndpoint(t *testing.T) {
	ops := []struct {
		name string
		call func(c *otghs.Controller) error
	}{
		{"SetNAK", func(c *otghs.Controller) error { return c.SetNAK(1, hal.DirIn) }},
		{"Stall", func(c *otghs.Controller) error { return c.Stall(1, hal.DirIn) }},
		{"StallClear", func(c *otghs.Controller) error { return c.StallClear(1, hal.DirIn) }},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			cfg := otghs.DefaultConfig()
			c, m := newController(t, cfg)
			mustConfigure(t, c, 1, hal.EndpointTypeBulk, hal.DirIn, 512)
			m.Stick(1, hal.DirIn, true)
			m.SetTracing(true, true)
			m.Reset()

			err := op.call(c)
			wantErr(t, err, pkg.ErrBusy, pkg.ErrTimeout)

			if got := len(accesses(m, otghs.DIEPCTL(1), mmio.OpRead)); got != cfg.RegCheckTimeout {
				t.Errorf("DIEPCTL1 reads = %d, want %d", got, cfg.RegCheckTimeout)
			}
			if got := len(accesses(m, otghs.DIEPCTL(1), mmio.OpSet)) + len(accesses(m, otghs.DIEPCTL(1), mmio.OpClear)); got != 0 {
				t.Errorf("DIEPCTL1 modified %d times after timeout", got)
			}
			if got := c.EndpointState(1, hal.DirIn); got != hal.EndpointStateIdle {
				t.Errorf("state = %s, want IDLE", got)
			}
		})
	}
}

func TestSetNAK(t *testing.T) {
	c, m := newController(t, otghs.DefaultConfig())
	mustConfigure(t, c, 1, hal.EndpointTypeBulk, hal.DirOut, 512)
	m.Reset()

	if err := c.SetNAK(1, hal.DirOut); err != nil {
		t.Fatalf("SetNAK() error = %v", err)
	}
	if !bit(m, otghs.DOEPCTL(1), otghs.DxEPCTL_SNAK) {
		t.Error("DOEPCTL1.SNAK clear")
	}
	if got := c.EndpointState(1, hal.DirOut); got != hal.EndpointStateIdle {
		t.Errorf("state = %s, want IDLE", got)
	}
}

func TestClearNAK_NoWait(t *testing.T) {
	c, m := newController(t, otghs.DefaultConfig())
	mustConfigure(t, c, 1, hal.EndpointTypeBulk, hal.DirIn, 512)
	m.Stick(1, hal.DirIn, true)
	m.SetTracing(true, true)
	m.Reset()

	if err := c.ClearNAK(1, hal.DirIn); err != nil {
		t.Fatalf("ClearNAK() error = %v", err)
	}
	want := []mmio.Access{{Op: mmio.OpSet, Off: otghs.DIEPCTL(1), Arg: 1 << otghs.DxEPCTL_CNAK}}
	got := m.Trace()
	for i := range got {
		got[i].Val = 0
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestLinkedNAK(t *testing.T) {
	tests := []struct {
		name   string
		linked bool
		id     uint8
		wantIn bool
		want   bool // SNAK on the OUT half
	}{
		{"linked", true, 1, true, true},
		{"not linked", false, 1, true, false},
		{"control endpoint", true, 0, true, false},
		{"no OUT half", true, 5, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := otghs.DefaultConfig()
			cfg.LinkedNAK = tt.linked
			c, m := newController(t, cfg)
			if tt.id != 0 {
				mustConfigure(t, c, tt.id, hal.EndpointTypeInterrupt, hal.DirIn, 64)
			}

			if err := c.SetNAK(tt.id, hal.DirIn); err != nil {
				t.Fatalf("SetNAK() error = %v", err)
			}
			if got := bit(m, otghs.DIEPCTL(tt.id), otghs.DxEPCTL_SNAK); got != tt.wantIn {
				t.Errorf("DIEPCTL.SNAK = %v, want %v", got, tt.wantIn)
			}
			if got := bit(m, otghs.DOEPCTL(tt.id), otghs.DxEPCTL_SNAK); got != tt.want {
				t.Errorf("DOEPCTL.SNAK = %v, want %v", got, tt.want)
			}

			m.Reset()
			if err := c.ClearNAK(tt.id, hal.DirIn); err != nil {
				t.Fatalf("ClearNAK() error = %v", err)
			}
			if got := len(accesses(m, otghs.DOEPCTL(tt.id), mmio.OpSet)) == 1; got != tt.want {
				t.Errorf("DOEPCTL CNAK written = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStall(t *testing.T) {
	tests := []struct {
		name    string
		id      uint8
		typ     hal.EndpointType
		dir     hal.Direction
		wantPID bool
	}{
		{"bulk IN", 1, hal.EndpointTypeBulk, hal.DirIn, true},
		{"interrupt OUT", 2, hal.EndpointTypeInterrupt, hal.DirOut, true},
		{"isochronous IN", 3, hal.EndpointTypeIsochronous, hal.DirIn, false},
		{"control OUT", 0, hal.EndpointTypeControl, hal.DirOut, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, m := newController(t, otghs.DefaultConfig())
			if tt.id != 0 {
				mustConfigure(t, c, tt.id, tt.typ, tt.dir, 64)
			}
			ctl := otghs.DOEPCTL(tt.id)
			if tt.dir == hal.DirIn {
				ctl = otghs.DIEPCTL(tt.id)
			}
			m.Reset()

			if err := c.Stall(tt.id, tt.dir); err != nil {
				t.Fatalf("Stall() error = %v", err)
			}
			sets := accesses(m, ctl, mmio.OpSet)
			if len(sets) != 2 || sets[0].Arg != 1<<otghs.DxEPCTL_EPDIS || sets[1].Arg != 1<<otghs.DxEPCTL_STALL {
				t.Errorf("stall sets = %v, want EPDIS then STALL", sets)
			}
			if got := c.EndpointState(tt.id, tt.dir); got != hal.EndpointStateStalled {
				t.Errorf("state = %s, want STALLED", got)
			}

			m.Reset()
			if err := c.StallClear(tt.id, tt.dir); err != nil {
				t.Fatalf("StallClear() error = %v", err)
			}
			if bit(m, ctl, otghs.DxEPCTL_STALL) {
				t.Error("STALL still set")
			}
			pid := accesses(m, ctl, mmio.OpSet)
			if got := len(pid) == 1 && pid[0].Arg == 1<<otghs.DxEPCTL_SD0PID; got != tt.wantPID {
				t.Errorf("SD0PID written = %v, want %v", got, tt.wantPID)
			}
			if got := c.EndpointState(tt.id, tt.dir); got != hal.EndpointStateIdle {
				t.Errorf("state = %s, want IDLE", got)
			}
		})
	}
}

func TestLinkedNAK_StuckOutHalf(t *testing.T) {
	cfg := otghs.DefaultConfig()
	cfg.LinkedNAK = true
	c, m := newController(t, cfg)
	mustConfigure(t, c, 1, hal.EndpointTypeInterrupt, hal.DirIn, 64)
	m.Stick(1, hal.DirOut, true)
	m.Reset()

	wantErr(t, c.SetNAK(1, hal.DirIn), pkg.ErrBusy, pkg.ErrTimeout)
	for _, ctl := range []uint32{otghs.DIEPCTL(1), otghs.DOEPCTL(1)} {
		if got := len(accesses(m, ctl, mmio.OpSet)); got != 0 {
			t.Errorf("%#x set %d times after a failed wait", ctl, got)
		}
	}
	if bit(m, otghs.DIEPCTL(1), otghs.DxEPCTL_SNAK) {
		t.Error("IN half NAKed although the OUT half never went idle")
	}
}
