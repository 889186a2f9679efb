// Package mmio provides register access for memory-mapped peripherals.
//
// [Bus] is the contract the driver programs against: whole-register reads
// and writes plus field and mask read-modify-write helpers, each atomic per
// call. Two implementations are provided:
//
//   - [Region] maps a physical address window (target only)
//   - [Sim] is an in-memory register file with read/write hooks and an
//     access trace, used to model the peripheral off-target
//
// Field arithmetic follows the tamago bits conventions: a field is named by
// its bit position and an unshifted mask.
//
//	bus.SetN(DIEPTSIZ(2), 19, 0x3ff, packets)
//	bus.Get(DTXFSTS(2), 0, 0xffff)
package mmio
