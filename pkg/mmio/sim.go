package mmio

import (
	"fmt"
	"sync"

	"github.com/usbarmory/tamago/bits"
)

// Op identifies a register access kind in a Sim trace.
type Op uint8

// Access kinds.
const (
	OpRead Op = iota
	OpWrite
	OpSet
	OpClear
	OpSetN
)

// String returns the access kind name.
func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpSet:
		return "set"
	case OpClear:
		return "clear"
	case OpSetN:
		return "setn"
	default:
		return fmt.Sprintf("op(%d)", o)
	}
}

// Access is one recorded register access.
type Access struct {
	Op   Op
	Off  uint32
	Arg  uint32 // value, mask or field value depending on Op
	Pos  int    // field position (OpSetN only)
	Mask int    // field mask (OpSetN only)
	Val  uint32 // register value after the access
}

// String formats the access for trace listings.
func (a Access) String() string {
	switch a.Op {
	case OpSetN:
		return fmt.Sprintf("%-5s %#03x [%d+%#x] <- %#x => %#08x", a.Op, a.Off, a.Pos, a.Mask, a.Arg, a.Val)
	case OpRead:
		return fmt.Sprintf("%-5s %#03x => %#08x", a.Op, a.Off, a.Val)
	default:
		return fmt.Sprintf("%-5s %#03x %#08x => %#08x", a.Op, a.Off, a.Arg, a.Val)
	}
}

// ReadHook rewrites the value returned by a read. It may update the
// backing store through the Sim, which is unlocked while hooks run.
type ReadHook func(off, val uint32) uint32

// WriteHook receives the previous and the proposed register value and
// returns the value to store.
type WriteHook func(off, old, val uint32) uint32

// Sim is an in-memory Bus with per-register hooks and an access trace. It
// stands in for the peripheral in tests and in the simulator tool.
type Sim struct {
	mu sync.Mutex

	words   map[uint32]uint32
	onRead  map[uint32]ReadHook
	onWrite map[uint32]WriteHook

	trace      []Access
	tracing    bool
	traceReads bool
}

// NewSim returns an empty register file with write tracing enabled.
func NewSim() *Sim {
	return &Sim{
		words:   make(map[uint32]uint32),
		onRead:  make(map[uint32]ReadHook),
		onWrite: make(map[uint32]WriteHook),
		tracing: true,
	}
}

// OnRead installs a read hook for off, replacing any previous one.
func (s *Sim) OnRead(off uint32, fn ReadHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRead[off] = fn
}

// OnWrite installs a write hook for off, replacing any previous one.
func (s *Sim) OnWrite(off uint32, fn WriteHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWrite[off] = fn
}

// SetTracing enables or disables the access trace. Reads are only recorded
// when reads is also true.
func (s *Sim) SetTracing(on, reads bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracing = on
	s.traceReads = reads
}

// Trace returns a copy of the recorded accesses.
func (s *Sim) Trace() []Access {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Access, len(s.trace))
	copy(out, s.trace)
	return out
}

// ResetTrace discards the recorded accesses.
func (s *Sim) ResetTrace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = s.trace[:0]
}

// Peek returns the stored value at off without hooks or tracing.
func (s *Sim) Peek(off uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.words[off]
}

// Poke stores val at off without hooks or tracing.
func (s *Sim) Poke(off uint32, val uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words[off] = val
}

// Read implements Bus.
func (s *Sim) Read(off uint32) uint32 {
	s.mu.Lock()
	v := s.words[off]
	hook := s.onRead[off]
	s.mu.Unlock()

	if hook != nil {
		v = hook(off, v)
	}

	s.mu.Lock()
	if s.tracing && s.traceReads {
		s.trace = append(s.trace, Access{Op: OpRead, Off: off, Val: v})
	}
	s.mu.Unlock()
	return v
}

// Write implements Bus.
func (s *Sim) Write(off uint32, val uint32) {
	s.mutate(Access{Op: OpWrite, Off: off, Arg: val}, func(v *uint32) { *v = val })
}

// Set implements Bus.
func (s *Sim) Set(off uint32, mask uint32) {
	s.mutate(Access{Op: OpSet, Off: off, Arg: mask}, func(v *uint32) { *v |= mask })
}

// Clear implements Bus.
func (s *Sim) Clear(off uint32, mask uint32) {
	s.mutate(Access{Op: OpClear, Off: off, Arg: mask}, func(v *uint32) { *v &^= mask })
}

// Get implements Bus. The read goes through any installed read hook.
func (s *Sim) Get(off uint32, pos int, mask int) uint32 {
	v := s.Read(off)
	return bits.Get(&v, pos, mask)
}

// SetN implements Bus.
func (s *Sim) SetN(off uint32, pos int, mask int, val uint32) {
	s.mutate(Access{Op: OpSetN, Off: off, Arg: val, Pos: pos, Mask: mask}, func(v *uint32) {
		bits.SetN(v, pos, mask, val)
	})
}

func (s *Sim) mutate(a Access, fn func(*uint32)) {
	s.mu.Lock()
	old := s.words[a.Off]
	v := old
	fn(&v)
	hook := s.onWrite[a.Off]
	s.mu.Unlock()

	if hook != nil {
		v = hook(a.Off, old, v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.words[a.Off] = v
	if s.tracing {
		a.Val = v
		s.trace = append(s.trace, a)
	}
}
