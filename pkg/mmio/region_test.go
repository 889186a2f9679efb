package mmio

import (
	"runtime"
	"testing"
	"unsafe"
)

// newBufferRegion maps a Region over ordinary memory.
func newBufferRegion(words int) (*Region, []uint32) {
	buf := make([]uint32, words)
	return NewRegion(uintptr(unsafe.Pointer(&buf[0])), uint32(words*4)), buf
}

func TestRegionAccess(t *testing.T) {
	r, buf := newBufferRegion(8)

	r.Write(0x04, 0xdeadbeef)
	if buf[1] != 0xdeadbeef {
		t.Errorf("buf[1] = %#x, want 0xdeadbeef", buf[1])
	}

	r.Clear(0x04, 0xffff)
	r.Set(0x04, 0x1)
	if got := r.Read(0x04); got != 0xdead0001 {
		t.Errorf("Read() = %#x, want 0xdead0001", got)
	}

	r.SetN(0x08, 19, 0x3ff, 3)
	r.SetN(0x08, 0, 0x7ffff, 1500)
	if got := r.Get(0x08, 19, 0x3ff); got != 3 {
		t.Errorf("PKTCNT = %d, want 3", got)
	}
	if got := r.Get(0x08, 0, 0x7ffff); got != 1500 {
		t.Errorf("XFRSIZ = %d, want 1500", got)
	}
	if !IsSet(r, 0x04, 0) {
		t.Error("IsSet(0) = false")
	}

	if r.Size() != 32 {
		t.Errorf("Size() = %d, want 32", r.Size())
	}
	runtime.KeepAlive(buf)
}

func TestRegionBounds(t *testing.T) {
	tests := []struct {
		name string
		off  uint32
	}{
		{"past end", 0x20},
		{"unaligned", 0x02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, buf := newBufferRegion(8)
			defer runtime.KeepAlive(buf)
			defer func() {
				if recover() == nil {
					t.Errorf("Read(%#x) did not panic", tt.off)
				}
			}()
			_ = r.Read(tt.off)
		})
	}
}
