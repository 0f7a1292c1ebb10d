package httpbridge

// Memory is a little-endian view over a linear memory that wire records are
// lifted from and lowered into.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
}

// MemorySizer provides the current size of a linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator hands out regions of a linear memory.
// Whoever receives a pointer produced by Alloc owns the region from then on.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}
