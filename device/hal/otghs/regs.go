package otghs

import "github.com/ardnew/otghs/device/hal"

// Core global registers (byte offsets from the peripheral base).
const (
	GOTGCTL  = 0x000 // OTG control and status
	GAHBCFG  = 0x008 // AHB configuration
	GUSBCFG  = 0x00c // USB configuration
	GRSTCTL  = 0x010 // Reset control
	GINTSTS  = 0x014 // Core interrupt status
	GINTMSK  = 0x018 // Interrupt mask
	GRXFSIZ  = 0x024 // Receive FIFO size
	DIEPTXF0 = 0x028 // Endpoint 0 transmit FIFO size
	GSNPSID  = 0x040 // Core ID
	HCFG     = 0x400 // Host configuration
	DCFG     = 0x800 // Device configuration
	DCTL     = 0x804 // Device control
	DSTS     = 0x808 // Device status
	DAINTMSK = 0x81c // Device all endpoints interrupt mask
)

// Endpoint register arrays.
const (
	diepctlBase  = 0x900
	diepctlStep  = 0x20
	dieptsizBase = 0x910
	dtxfstsBase  = 0x918
	doepctlBase  = 0xb00
	doeptsizBase = 0xb10
	dieptxfBase  = 0x104
	fifoStep     = 0x1000
)

// DIEPCTL returns the IN endpoint n control register offset.
func DIEPCTL(n uint8) uint32 { return diepctlBase + uint32(n)*diepctlStep }

// DIEPTSIZ returns the IN endpoint n transfer size register offset.
func DIEPTSIZ(n uint8) uint32 { return dieptsizBase + uint32(n)*diepctlStep }

// DTXFSTS returns the IN endpoint n transmit FIFO status register offset.
func DTXFSTS(n uint8) uint32 { return dtxfstsBase + uint32(n)*diepctlStep }

// DOEPCTL returns the OUT endpoint n control register offset.
func DOEPCTL(n uint8) uint32 { return doepctlBase + uint32(n)*diepctlStep }

// DOEPTSIZ returns the OUT endpoint n transfer size register offset.
func DOEPTSIZ(n uint8) uint32 { return doeptsizBase + uint32(n)*diepctlStep }

// DIEPTXF returns the transmit FIFO size register offset of endpoint n. The
// endpoint 0 register sits apart from the others.
func DIEPTXF(n uint8) uint32 {
	if n == 0 {
		return DIEPTXF0
	}
	return dieptxfBase + uint32(n-1)*4
}

// FIFO returns the data FIFO window offset of endpoint n.
func FIFO(n uint8) uint32 { return fifoStep * (uint32(n) + 1) }

// GAHBCFG bits
const (
	GAHBCFG_GINT = 0
)

// GUSBCFG bits
const (
	GUSBCFG_FHMOD = 29
	GUSBCFG_FDMOD = 30
)

// GRSTCTL bits
const (
	GRSTCTL_CSRST   = 0
	GRSTCTL_RXFFLSH = 4
	GRSTCTL_TXFFLSH = 5
	GRSTCTL_AHBIDL  = 31
)

// GINTSTS / GINTMSK bits
const (
	GINTSTS_CMOD     = 0
	GINTMSK_RXFLVLM  = 4
	GINTMSK_NPTXFEM  = 5
	GINTMSK_USBSUSPM = 11
	GINTMSK_USBRST   = 12
	GINTMSK_ENUMDNEM = 13
	GINTMSK_IEPINT   = 18
	GINTMSK_OEPINT   = 19
)

// FIFO size fields
const (
	GRXFSIZ_RXFD      = 0
	DIEPTXF_INEPTXSA  = 0
	DIEPTXF_INEPTXFD  = 16
	DTXFSTS_INEPTFSAV = 0

	fifoFieldMask = 0xffff
)

// GSNPSID signature of an OTG core in the upper half-word.
const snpsidSignature = 0x4f54

// HCFG fields
const (
	HCFG_FSLSPCS = 0
)

// DCFG fields
const (
	DCFG_DSPD     = 0
	DCFG_NZLSOHSK = 2
	DCFG_DAD      = 4
)

// DCTL bits
const (
	DCTL_SDIS = 1
)

// DSTS fields
const (
	DSTS_SUSPSTS = 0
	DSTS_ENUMSPD = 1
)

// DSTS.ENUMSPD values
const (
	enumSpeedHigh   = 0
	enumSpeedFull   = 1
	enumSpeedLow    = 2
	enumSpeedFull48 = 3
)

// DAINTMSK fields
const (
	DAINTMSK_IEPM = 0
	DAINTMSK_OEPM = 16
)

// DIEPCTL / DOEPCTL bits
const (
	DxEPCTL_MPSIZ  = 0
	DxEPCTL_USBAEP = 15
	DxEPCTL_NAKSTS = 17
	DxEPCTL_EPTYP  = 18
	DxEPCTL_STALL  = 21
	DxEPCTL_TXFNUM = 22
	DxEPCTL_CNAK   = 26
	DxEPCTL_SNAK   = 27
	DxEPCTL_SD0PID = 28
	DxEPCTL_SD1PID = 29
	DxEPCTL_EPDIS  = 30
	DxEPCTL_EPENA  = 31
)

// DIEPTSIZ / DOEPTSIZ fields
const (
	DxEPTSIZ_XFRSIZ  = 0
	DxEPTSIZ_PKTCNT  = 19
	DOEPTSIZ_STUPCNT = 29
)

// Transfer size field limits
const (
	maxTransferSize = 1<<19 - 1
	maxPacketCount  = 1023

	xfrsizMask     = 0x7ffff
	xfrsizMaskEP0  = 0x7f
	pktcntMask     = 0x3ff
	pktcntMaskEP0I = 0x3
	pktcntMaskEP0O = 0x1
	mpsizMask      = 0x7ff
	mpsizMaskEP0   = 0x3
)

// epctl returns the control register of one endpoint half.
func epctl(id uint8, dir hal.Direction) uint32 {
	if dir == hal.DirIn {
		return DIEPCTL(id)
	}
	return DOEPCTL(id)
}

// eptsiz returns the transfer size register of one endpoint half.
func eptsiz(id uint8, dir hal.Direction) uint32 {
	if dir == hal.DirIn {
		return DIEPTSIZ(id)
	}
	return DOEPTSIZ(id)
}

// daintBit returns the DAINTMSK bit of one endpoint half.
func daintBit(id uint8, dir hal.Direction) uint32 {
	if dir == hal.DirIn {
		return 1 << (DAINTMSK_IEPM + uint32(id))
	}
	return 1 << (DAINTMSK_OEPM + uint32(id))
}
