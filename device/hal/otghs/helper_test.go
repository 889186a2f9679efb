package otghs_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ardnew/otghs/device/hal"
	"github.com/ardnew/otghs/device/hal/otghs"
	"github.com/ardnew/otghs/device/hal/otghs/otghssim"
	"github.com/ardnew/otghs/pkg/mmio"
)

// newController returns a declared and configured controller on a fresh
// core model with an empty trace.
func newController(t *testing.T, cfg otghs.Config) (*otghs.Controller, *otghssim.Model) {
	t.Helper()

	m := otghssim.New()
	c, err := otghs.New(m, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Declare(); err != nil {
		t.Fatalf("Declare() error = %v", err)
	}
	if err := c.Configure(otghs.BuildMode, nil, nil); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	m.Reset()
	return c, m
}

func mustConfigure(t *testing.T, c *otghs.Controller, id uint8, typ hal.EndpointType, dir hal.Direction, mps uint16) {
	t.Helper()
	if err := c.ConfigureEndpoint(id, typ, dir, mps, hal.ToggleData0, nil); err != nil {
		t.Fatalf("ConfigureEndpoint(%d, %s, %s, %d) error = %v", id, typ, dir, mps, err)
	}
}

func snapshot(t *testing.T, c *otghs.Controller, id uint8, dir hal.Direction) otghs.Endpoint {
	t.Helper()
	ep, ok := c.Context().Endpoint(id, dir)
	if !ok {
		t.Fatalf("Endpoint(%d, %s) not found", id, dir)
	}
	return ep
}

func wantErr(t *testing.T, err error, targets ...error) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %v", targets)
	}
	for _, target := range targets {
		if !errors.Is(err, target) {
			t.Errorf("error = %v, want errors.Is(%v)", err, target)
		}
	}
}

// pattern returns n bytes counting up from 1.
func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i + 1)
	}
	return b
}

func checkPushed(t *testing.T, m *otghssim.Model, id uint8, want []byte) {
	t.Helper()
	if got := m.Pushed(id); !bytes.Equal(got, want) {
		t.Errorf("FIFO %d got %d bytes, want %d", id, len(got), len(want))
	}
}

// accesses returns the recorded accesses to off with the given op.
func accesses(m *otghssim.Model, off uint32, op mmio.Op) []mmio.Access {
	var out []mmio.Access
	for _, a := range m.Trace() {
		if a.Off == off && a.Op == op {
			out = append(out, a)
		}
	}
	return out
}

func bit(m *otghssim.Model, off uint32, pos int) bool {
	return m.Peek(off)&(1<<pos) != 0
}
