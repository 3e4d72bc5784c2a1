// Package alloc implements a free-list allocator over a simulated contiguous
// address space.
//
// # Overview
//
// An Arena owns a fixed-size abstract address range, tracked as an ordered
// sequence of blocks. Each block is either free or allocated; adjacent blocks
// tile the range exactly, with no gaps or overlap. Addresses handed out by
// the arena are offsets into this simulated range and are never dereferenced.
//
// # Placement strategies
//
// Three classical policies choose the free block for a request, each with a
// single scan of the ordered block list:
//
//   - FirstFit: the first free block large enough
//   - BestFit: the free block with the smallest leftover, earliest address on ties
//   - WorstFit: the free block with the largest leftover, earliest address on ties
//
// The strategy can be swapped at any time with SetStrategy; existing blocks
// are never moved.
//
// # Splitting and coalescing
//
// When the chosen block is larger than the request, it is split into an
// exact-fit allocated block followed by a free remainder. Deallocation marks
// the block free and fuses every run of adjacent free blocks back into one,
// so no two neighbouring blocks are ever both free.
//
// # Thread safety
//
// Arena instances are not thread-safe. Callers must serialise access
// externally. The adaptive controller in arena/adaptive adds no locking of
// its own either; its callers serialise every public call.
package alloc
