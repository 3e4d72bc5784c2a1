package alloc

import "errors"

var (
	// ErrZeroSize indicates a zero-byte allocation request.
	ErrZeroSize = errors.New("alloc: cannot allocate zero bytes")

	// ErrNoFit indicates that no free block satisfies the request under the
	// active placement strategy.
	ErrNoFit = errors.New("alloc: no free block large enough")

	// ErrInvalidAddress indicates a deallocation of an address that is not
	// the base of a currently-allocated block.
	ErrInvalidAddress = errors.New("alloc: invalid address for deallocation")

	// ErrZeroTotal indicates an arena constructed with no address space.
	ErrZeroTotal = errors.New("alloc: arena size must be positive")
)
