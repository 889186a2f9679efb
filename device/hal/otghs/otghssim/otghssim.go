// Package otghssim models the OTG HS core closely enough to drive
// [otghs.Controller] off target.
//
// The model is an [mmio.Sim] with hooks that make the register file behave
// like the core: reset bits self-clear, the AHB master always reads idle,
// GINTSTS.CMOD follows the forced mode, transmit FIFOs report their whole
// allocated depth free and endpoints finish instantly, so EPENA reads back
// clear. Faults are injected per endpoint or bus wide.
package otghssim

import (
	"encoding/binary"
	"sync"

	"github.com/ardnew/otghs/device/hal"
	"github.com/ardnew/otghs/device/hal/otghs"
	"github.com/ardnew/otghs/pkg"
	"github.com/ardnew/otghs/pkg/mmio"
)

// CoreID is the GSNPSID value of the STM32F4 OTG_HS core.
const CoreID = 0x4f54281a

// Model is a simulated OTG HS core.
type Model struct {
	*mmio.Sim

	mu        sync.Mutex
	suspended bool
	stuck     map[uint32]bool
	txSpace   map[uint8]uint32
	txReads   map[uint8]int
	pushed    map[uint8][]byte
}

// New returns a core fresh out of power-on reset.
func New() *Model {
	m := &Model{
		Sim:     mmio.NewSim(),
		stuck:   make(map[uint32]bool),
		txSpace: make(map[uint8]uint32),
		txReads: make(map[uint8]int),
		pushed:  make(map[uint8][]byte),
	}

	m.Poke(otghs.GSNPSID, CoreID)
	m.OnWrite(otghs.GSNPSID, func(_, old, _ uint32) uint32 { return old })

	m.OnRead(otghs.GRSTCTL, func(_, val uint32) uint32 {
		return val | 1<<otghs.GRSTCTL_AHBIDL
	})
	m.OnWrite(otghs.GRSTCTL, func(_, _, val uint32) uint32 {
		return val &^ (1<<otghs.GRSTCTL_CSRST | 1<<otghs.GRSTCTL_RXFFLSH | 1<<otghs.GRSTCTL_TXFFLSH)
	})

	m.OnWrite(otghs.GUSBCFG, func(_, _, val uint32) uint32 {
		sts := m.Peek(otghs.GINTSTS)
		if val&(1<<otghs.GUSBCFG_FHMOD) != 0 {
			sts |= 1 << otghs.GINTSTS_CMOD
		} else {
			sts &^= 1 << otghs.GINTSTS_CMOD
		}
		m.Poke(otghs.GINTSTS, sts)
		return val
	})

	m.OnRead(otghs.DSTS, func(_, val uint32) uint32 {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.suspended {
			return val | 1<<otghs.DSTS_SUSPSTS
		}
		return val &^ (1 << otghs.DSTS_SUSPSTS)
	})

	for n := uint8(0); n < otghs.MaxEndpointsHW; n++ {
		m.wireEndpoint(n)
	}

	pkg.LogDebug(pkg.ComponentSim, "core model ready", "snpsid", CoreID)
	return m
}

func (m *Model) wireEndpoint(n uint8) {
	m.OnRead(otghs.DTXFSTS(n), func(_, _ uint32) uint32 {
		m.mu.Lock()
		m.txReads[n]++
		space, ok := m.txSpace[n]
		m.mu.Unlock()
		if ok {
			return space
		}
		return m.Peek(otghs.DIEPTXF(n)) >> otghs.DIEPTXF_INEPTXFD
	})

	for _, ctl := range []uint32{otghs.DIEPCTL(n), otghs.DOEPCTL(n)} {
		m.OnRead(ctl, func(off, val uint32) uint32 {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.stuck[off] {
				return val | 1<<otghs.DxEPCTL_EPENA
			}
			return val &^ (1 << otghs.DxEPCTL_EPENA)
		})
	}

	m.OnWrite(otghs.FIFO(n), func(_, _, val uint32) uint32 {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.pushed[n] = binary.LittleEndian.AppendUint32(m.pushed[n], val)
		return val
	})
}

// Suspend sets or clears DSTS.SUSPSTS.
func (m *Model) Suspend(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended = on
}

// Stick makes the enable bit of one endpoint half read as set, as if its
// transfer never finished.
func (m *Model) Stick(id uint8, dir hal.Direction, on bool) {
	ctl := otghs.DOEPCTL(id)
	if dir == hal.DirIn {
		ctl = otghs.DIEPCTL(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		m.stuck[ctl] = true
	} else {
		delete(m.stuck, ctl)
	}
}

// SetTxSpace overrides the free words DTXFSTS reports for endpoint id.
func (m *Model) SetTxSpace(id uint8, words uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txSpace[id] = words
}

// ClearTxSpace restores the allocated depth as the reported free space.
func (m *Model) ClearTxSpace(id uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.txSpace, id)
}

// SetEnumSpeed stores a DSTS.ENUMSPD value.
func (m *Model) SetEnumSpeed(v uint32) {
	sts := m.Peek(otghs.DSTS)
	sts &^= 0x3 << otghs.DSTS_ENUMSPD
	sts |= (v & 0x3) << otghs.DSTS_ENUMSPD
	m.Poke(otghs.DSTS, sts)
}

// Pushed returns the bytes written to the data FIFO of endpoint id, in
// whole words.
func (m *Model) Pushed(id uint8) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.pushed[id]...)
}

// TxStatusReads returns how many times DTXFSTS of endpoint id was read.
func (m *Model) TxStatusReads(id uint8) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txReads[id]
}

// Reset drops captured FIFO data and read counters. Register contents and
// injected faults are kept.
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.pushed)
	clear(m.txReads)
	m.ResetTrace()
}
