package wire

import (
	"sync"

	"github.com/wippyai/http-bridge/errors"
)

// Arena is a bump allocator over the region [base, limit) of a linear memory.
// Free is a no-op; Reset hands the whole region back at once. An Arena is
// the single allocator used for one direction of one exchange, so ownership
// of everything it handed out moves together.
type Arena struct {
	mu     sync.Mutex
	base   uint32
	limit  uint32
	offset uint32
	allocs int
}

// NewArena creates an arena over [base, limit).
func NewArena(base, limit uint32) *Arena {
	return &Arena{base: base, limit: limit, offset: base}
}

// Alloc returns an aligned region of size bytes.
func (a *Arena) Alloc(size, align uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ptr := alignTo(a.offset, align)
	end := uint64(ptr) + uint64(size)
	if ptr < a.offset || end > uint64(a.limit) {
		return 0, errors.AllocationFailed(errors.PhaseWire, size, align)
	}
	a.offset = uint32(end)
	a.allocs++
	return ptr, nil
}

// Free does nothing; arena memory is released by Reset.
func (a *Arena) Free(ptr, size, align uint32) {}

// Reset releases every allocation.
func (a *Arena) Reset() {
	a.mu.Lock()
	a.offset = a.base
	a.allocs = 0
	a.mu.Unlock()
}

// Used returns the number of bytes handed out, including alignment padding.
func (a *Arena) Used() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.offset - a.base
}

// Count returns the number of allocations since the last Reset.
func (a *Arena) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs
}

var _ Allocator = (*Arena)(nil)
