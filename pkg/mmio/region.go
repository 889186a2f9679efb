package mmio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/usbarmory/tamago/bits"
)

// Region is a memory-mapped register window at a fixed physical address.
// It is only meaningful on the target, where base is the peripheral base.
type Region struct {
	sync.Mutex

	base uintptr
	size uint32
}

// NewRegion maps a register window of size bytes at base.
func NewRegion(base uintptr, size uint32) *Region {
	return &Region{base: base, size: size}
}

// Base returns the physical base address.
func (r *Region) Base() uintptr {
	return r.base
}

// Size returns the window size in bytes.
func (r *Region) Size() uint32 {
	return r.size
}

func (r *Region) addr(off uint32) *uint32 {
	if off&3 != 0 || off+4 > r.size {
		panic(fmt.Sprintf("mmio: offset %#x outside %#x byte window", off, r.size))
	}
	return (*uint32)(unsafe.Pointer(r.base + uintptr(off)))
}

// Read implements Bus.
func (r *Region) Read(off uint32) uint32 {
	return atomic.LoadUint32(r.addr(off))
}

// Write implements Bus.
func (r *Region) Write(off uint32, val uint32) {
	atomic.StoreUint32(r.addr(off), val)
}

// Set implements Bus.
func (r *Region) Set(off uint32, mask uint32) {
	r.modify(off, func(v *uint32) { *v |= mask })
}

// Clear implements Bus.
func (r *Region) Clear(off uint32, mask uint32) {
	r.modify(off, func(v *uint32) { *v &^= mask })
}

// Get implements Bus.
func (r *Region) Get(off uint32, pos int, mask int) uint32 {
	v := r.Read(off)
	return bits.Get(&v, pos, mask)
}

// SetN implements Bus.
func (r *Region) SetN(off uint32, pos int, mask int, val uint32) {
	r.modify(off, func(v *uint32) { bits.SetN(v, pos, mask, val) })
}

// modify performs a read-modify-write on a local copy so the device only ever
// sees whole-word accesses.
func (r *Region) modify(off uint32, fn func(*uint32)) {
	r.Lock()
	defer r.Unlock()

	p := r.addr(off)
	v := atomic.LoadUint32(p)
	fn(&v)
	atomic.StoreUint32(p, v)
}
