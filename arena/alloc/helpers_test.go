package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertArenaInvariants checks the structural invariants that must hold
// after every public operation:
//
//  1. block sizes sum to the configured total
//  2. addresses strictly increase and tile the range exactly
//  3. no two adjacent blocks are both free
//  4. the address lookup agrees with the block list
func assertArenaInvariants(t testing.TB, a *Arena) {
	t.Helper()

	blocks := a.Blocks()
	require.NotEmpty(t, blocks, "arena must always hold at least one block")
	assert.EqualValues(t, 0, blocks[0].Addr, "first block must start at address 0")

	var sum uint64
	for i, b := range blocks {
		require.Positive(t, b.Size, "block %d has zero size", i)
		sum += b.Size

		if i > 0 {
			prev := blocks[i-1]
			assert.Equal(t, prev.Addr+prev.Size, b.Addr,
				"gap or overlap between blocks %d and %d", i-1, i)
			assert.False(t, prev.Free && b.Free,
				"adjacent free blocks at %d and %d", prev.Addr, b.Addr)
		}
	}
	assert.Equal(t, a.TotalMemory(), sum, "block sizes must cover the whole arena")

	// Lookup soundness: every block is findable by base address, and every
	// lookup entry points at a block with a matching address.
	require.Len(t, a.byAddr, len(blocks))
	for _, b := range blocks {
		n, ok := a.byAddr[b.Addr]
		require.True(t, ok, "block at %d missing from lookup", b.Addr)
		assert.Equal(t, b.Addr, n.addr)
		assert.Equal(t, b.Free, n.free)
	}
}

// mustAllocate is a test helper for allocations expected to succeed.
func mustAllocate(t *testing.T, a *Arena, size uint64) Addr {
	t.Helper()
	addr, err := a.Allocate(size)
	require.NoError(t, err)
	return addr
}

// buildArena constructs an arena with a specific block layout by allocating
// everything and freeing the blocks that should end up free. Layout entries
// are (size, free) pairs in address order.
func buildArena(t *testing.T, layout []Block) *Arena {
	t.Helper()

	var total uint64
	for _, b := range layout {
		total += b.Size
	}
	a, err := New(total, FirstFit)
	require.NoError(t, err)

	addrs := make([]Addr, len(layout))
	for i, b := range layout {
		addrs[i] = mustAllocate(t, a, b.Size)
	}
	for i, b := range layout {
		if b.Free {
			require.NoError(t, a.Deallocate(addrs[i]))
		}
	}
	return a
}
