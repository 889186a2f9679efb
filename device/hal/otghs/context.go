package otghs

import (
	"sync"

	"github.com/ardnew/otghs/device/hal"
)

// Endpoint is the software record of one endpoint half.
type Endpoint struct {
	ID            uint8
	Dir           hal.Direction
	Type          hal.EndpointType
	MaxPacketSize uint16
	Configured    bool
	State         hal.EndpointState

	// FIFOOffset counts the bytes of the in-flight buffer already pushed to
	// the hardware FIFO; FIFOSize is the buffer length.
	FIFOOffset uint32
	FIFOSize   uint32

	// Handler is stored for the interrupt layer and never called here.
	Handler hal.Handler

	fifo []byte
	// fifoLocked is set while writeFIFO pushes words. Every caller holds
	// the context lock, so the flag only records the push in progress;
	// the mutex is what rules out reentry.
	fifoLocked bool

	// transmit FIFO region, in words
	txStart uint32
	txDepth uint32
}

// TxFIFO returns the start and depth, in words, of the transmit FIFO region
// allocated to the endpoint. Both are zero when none is allocated.
func (e Endpoint) TxFIFO() (start, depth uint32) {
	return e.txStart, e.txDepth
}

// Context is the device state shared between the caller and the interrupt
// layer: the two endpoint tables, the active mode and the bus speed. All
// access is serialized on its mutex.
type Context struct {
	mu sync.Mutex

	in  []Endpoint
	out []Endpoint

	mode  hal.Mode
	speed hal.Speed

	// next free transmit FIFO word
	fifoCursor uint32

	declared   bool
	configured bool
}

func newContext(cfg Config) *Context {
	ctx := &Context{
		in:  make([]Endpoint, cfg.MaxInEndpoints),
		out: make([]Endpoint, cfg.MaxOutEndpoints),
	}
	for i := range ctx.in {
		ctx.in[i] = Endpoint{ID: uint8(i), Dir: hal.DirIn}
	}
	for i := range ctx.out {
		ctx.out[i] = Endpoint{ID: uint8(i), Dir: hal.DirOut}
	}
	return ctx
}

// ep returns the endpoint half or nil when id is out of range or dir is not
// IN or OUT. The caller holds mu.
func (ctx *Context) ep(id uint8, dir hal.Direction) *Endpoint {
	var table []Endpoint
	switch dir {
	case hal.DirIn:
		table = ctx.in
	case hal.DirOut:
		table = ctx.out
	default:
		return nil
	}
	if int(id) >= len(table) {
		return nil
	}
	return &table[id]
}

// State returns the endpoint state, or EndpointStateInvalid for an id out of
// range or a direction other than IN or OUT.
func (ctx *Context) State(id uint8, dir hal.Direction) hal.EndpointState {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	ep := ctx.ep(id, dir)
	if ep == nil {
		return hal.EndpointStateInvalid
	}
	return ep.State
}

// Endpoint returns a copy of the endpoint record.
func (ctx *Context) Endpoint(id uint8, dir hal.Direction) (Endpoint, bool) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	ep := ctx.ep(id, dir)
	if ep == nil {
		return Endpoint{}, false
	}
	snap := *ep
	snap.fifo = nil
	return snap, true
}

// Capacity returns the table size for dir.
func (ctx *Context) Capacity(dir hal.Direction) int {
	switch dir {
	case hal.DirIn:
		return len(ctx.in)
	case hal.DirOut:
		return len(ctx.out)
	}
	return 0
}

// Mode returns the mode the core was configured in.
func (ctx *Context) Mode() hal.Mode {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.mode
}

// Speed returns the bus speed.
func (ctx *Context) Speed() hal.Speed {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.speed
}
