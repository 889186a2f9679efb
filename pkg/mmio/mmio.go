package mmio

import "reflect"

// Bus is a 32-bit register file addressed by byte offset from the peripheral
// base. Each call is atomic with respect to other calls on the same Bus;
// sequences of calls are not.
type Bus interface {
	// Read returns the register value at off.
	Read(off uint32) uint32

	// Write stores val at off.
	Write(off uint32, val uint32)

	// Set ORs mask into the register at off.
	Set(off uint32, mask uint32)

	// Clear removes mask from the register at off.
	Clear(off uint32, mask uint32)

	// Get returns the field of width mask starting at bit pos.
	Get(off uint32, pos int, mask int) uint32

	// SetN replaces the field of width mask starting at bit pos with val.
	SetN(off uint32, pos int, mask int, val uint32)
}

// IsSet reports whether bit pos of the register at off is set.
func IsSet(b Bus, off uint32, pos int) bool {
	return b.Get(off, pos, 1) == 1
}

// SetTo sets or clears bit pos of the register at off.
func SetTo(b Bus, off uint32, pos int, val bool) {
	if val {
		b.Set(off, 1<<pos)
	} else {
		b.Clear(off, 1<<pos)
	}
}

// Mapped reports whether b can be accessed. A nil pointer stored in the
// interface counts as unmapped.
func Mapped(b Bus) bool {
	if b == nil {
		return false
	}
	v := reflect.ValueOf(b)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return !v.IsNil()
	}
	return true
}
