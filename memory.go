package kmt

import "encoding/binary"

// Memory gives read-only access to the address space of the traced process.
//
// Read returns the size bytes starting at addr, or false if any part of the
// range is not readable. The returned slice may alias the traced memory and
// must not be retained or modified.
type Memory interface {
	Read(addr Pointer, size uint32) ([]byte, bool)
}

// Sizes of the driver tables read through Memory.
const (
	AllocationInfo2Size   = 96
	AllocationListSize    = 8
	PatchLocationListSize = 24
)

// AllocationInfo2 is the traced subset of D3DDDI_ALLOCATIONINFO2.
type AllocationInfo2 struct {
	Allocation            Handle
	Section               Pointer
	PrivateDriverData     Pointer
	PrivateDriverDataSize uint32
	VidPnSourceID         uint32
	Flags                 uint32
}

// LoadAllocationInfo2 decodes a D3DDDI_ALLOCATIONINFO2 from b.
func LoadAllocationInfo2(b []byte) AllocationInfo2 {
	_ = b[AllocationInfo2Size-1]
	return AllocationInfo2{
		Allocation:            Handle(binary.LittleEndian.Uint32(b[0:])),
		Section:               Pointer(binary.LittleEndian.Uint64(b[8:])),
		PrivateDriverData:     Pointer(binary.LittleEndian.Uint64(b[16:])),
		PrivateDriverDataSize: binary.LittleEndian.Uint32(b[24:]),
		VidPnSourceID:         binary.LittleEndian.Uint32(b[28:]),
		Flags:                 binary.LittleEndian.Uint32(b[32:]),
	}
}

// AllocationListEntry is D3DDDI_ALLOCATIONLIST.
type AllocationListEntry struct {
	Allocation Handle
	Value      uint32
}

// LoadAllocationListEntry decodes a D3DDDI_ALLOCATIONLIST from b.
func LoadAllocationListEntry(b []byte) AllocationListEntry {
	_ = b[AllocationListSize-1]
	return AllocationListEntry{
		Allocation: Handle(binary.LittleEndian.Uint32(b[0:])),
		Value:      binary.LittleEndian.Uint32(b[4:]),
	}
}

// PatchLocation is D3DDDI_PATCHLOCATIONLIST.
type PatchLocation struct {
	AllocationIndex  uint32
	SlotID           uint32 // low 24 bits of the second word
	DriverID         uint32
	AllocationOffset uint32
	PatchOffset      uint32
	SplitOffset      uint32
}

// LoadPatchLocation decodes a D3DDDI_PATCHLOCATIONLIST from b.
func LoadPatchLocation(b []byte) PatchLocation {
	_ = b[PatchLocationListSize-1]
	return PatchLocation{
		AllocationIndex:  binary.LittleEndian.Uint32(b[0:]),
		SlotID:           binary.LittleEndian.Uint32(b[4:]) & (1<<24 - 1),
		DriverID:         binary.LittleEndian.Uint32(b[8:]),
		AllocationOffset: binary.LittleEndian.Uint32(b[12:]),
		PatchOffset:      binary.LittleEndian.Uint32(b[16:]),
		SplitOffset:      binary.LittleEndian.Uint32(b[20:]),
	}
}

// readArray reads count elements of size bytes at addr. The total size is
// computed in 64 bits so an implausible count cannot wrap around.
func readArray(mem Memory, addr Pointer, count, size uint32) ([]byte, bool) {
	if mem == nil || addr.IsNull() {
		return nil, false
	}
	total := uint64(count) * uint64(size)
	if total > 1<<32-1 {
		return nil, false
	}
	return mem.Read(addr, uint32(total))
}

// Words converts b to little-endian 32 bit words, dropping trailing bytes
// that do not form a complete word.
func Words(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return words
}
