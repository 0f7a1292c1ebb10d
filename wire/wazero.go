package wire

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	httpbridge "github.com/wippyai/http-bridge"
)

// WrapMemory adapts a wazero memory to Memory.
func WrapMemory(mem api.Memory) *WazeroMemory {
	if mem == nil {
		return nil
	}
	return &WazeroMemory{mem: mem}
}

// WazeroMemory implements Memory over a wazero api.Memory.
type WazeroMemory struct {
	mem api.Memory
}

// Read returns a view of length bytes at offset. The view aliases linear memory.
func (m *WazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *WazeroMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *WazeroMemory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *WazeroMemory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *WazeroMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *WazeroMemory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *WazeroMemory) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *WazeroMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

// Size returns the current memory size in bytes.
func (m *WazeroMemory) Size() uint32 {
	return m.mem.Size()
}

var _ httpbridge.Memory = (*WazeroMemory)(nil)
var _ httpbridge.MemorySizer = (*WazeroMemory)(nil)
