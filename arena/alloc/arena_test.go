package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SingleFreeBlock(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)

	blocks := a.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, Block{Addr: 0, Size: 1024, Free: true}, blocks[0])
	assert.EqualValues(t, 1024, a.TotalMemory())
	assert.EqualValues(t, 1024, a.TotalFreeMemory())
	assert.EqualValues(t, 1024, a.LargestFreeBlock())

	assertArenaInvariants(t, a)
}

func TestNew_ZeroTotal(t *testing.T) {
	_, err := New(0, FirstFit)
	require.ErrorIs(t, err, ErrZeroTotal)
}

func TestAllocate_Zero(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)

	_, err = a.Allocate(0)
	require.ErrorIs(t, err, ErrZeroSize)
	assert.EqualValues(t, 1024, a.TotalFreeMemory(), "failed allocate must not change state")

	assertArenaInvariants(t, a)
}

func TestAllocate_ExactTotal(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)

	addr := mustAllocate(t, a, 1024)
	assert.EqualValues(t, 0, addr)
	assert.EqualValues(t, 0, a.TotalFreeMemory())

	// A virgin arena consumed whole leaves nothing for any further request.
	_, err = a.Allocate(1)
	require.ErrorIs(t, err, ErrNoFit)

	assertArenaInvariants(t, a)
}

func TestAllocate_SplitLeavesTrailingFree(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)

	addr := mustAllocate(t, a, 100)
	assert.EqualValues(t, 0, addr)

	blocks := a.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, Block{Addr: 0, Size: 100, Free: false}, blocks[0])
	assert.Equal(t, Block{Addr: 100, Size: 924, Free: true}, blocks[1])

	assertArenaInvariants(t, a)
}

func TestAllocate_NoFitWhenFragmented(t *testing.T) {
	// [0..100 free][100..200 alloc][200..300 free][300..400 alloc]:
	// 200 bytes free in total, but no single block of 150.
	a := buildArena(t, []Block{
		{Size: 100, Free: true},
		{Size: 100, Free: false},
		{Size: 100, Free: true},
		{Size: 100, Free: false},
	})

	_, err := a.Allocate(150)
	require.ErrorIs(t, err, ErrNoFit)
	assert.EqualValues(t, 200, a.TotalFreeMemory())

	assertArenaInvariants(t, a)
}

func TestDeallocate_InvalidAddress(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)
	mustAllocate(t, a, 100)

	// Not a block base at all.
	require.ErrorIs(t, a.Deallocate(50), ErrInvalidAddress)
	// Base of a free block.
	require.ErrorIs(t, a.Deallocate(100), ErrInvalidAddress)

	assertArenaInvariants(t, a)
}

func TestDeallocate_DoubleFree(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)

	addr := mustAllocate(t, a, 100)
	require.NoError(t, a.Deallocate(addr))
	require.ErrorIs(t, a.Deallocate(addr), ErrInvalidAddress)

	assertArenaInvariants(t, a)
}

func TestDeallocate_CoalescesBothSides(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)

	a1 := mustAllocate(t, a, 100)
	a2 := mustAllocate(t, a, 100)
	a3 := mustAllocate(t, a, 100)

	require.NoError(t, a.Deallocate(a1))
	require.NoError(t, a.Deallocate(a3)) // fuses with the trailing free block
	assertArenaInvariants(t, a)

	// Freeing the middle block fuses the whole arena back into one block.
	require.NoError(t, a.Deallocate(a2))
	blocks := a.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, Block{Addr: 0, Size: 1024, Free: true}, blocks[0])

	assertArenaInvariants(t, a)
}

func TestDeallocate_RoundTrip(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)
	mustAllocate(t, a, 100)
	mustAllocate(t, a, 200)

	freeBefore := a.TotalFreeMemory()
	fragBefore := a.FragmentationRatio()

	addr := mustAllocate(t, a, 64)
	require.NoError(t, a.Deallocate(addr))

	assert.Equal(t, freeBefore, a.TotalFreeMemory())
	assert.LessOrEqual(t, a.FragmentationRatio(), fragBefore)

	assertArenaInvariants(t, a)
}

func TestSetStrategy_DoesNotMoveBlocks(t *testing.T) {
	a := buildArena(t, []Block{
		{Size: 100, Free: true},
		{Size: 200, Free: false},
		{Size: 724, Free: true},
	})

	before := a.Blocks()
	a.SetStrategy(BestFit)
	assert.Equal(t, before, a.Blocks())
	a.SetStrategy(WorstFit)
	assert.Equal(t, before, a.Blocks())
	assert.Equal(t, WorstFit, a.Strategy())

	assertArenaInvariants(t, a)
}

func TestCoalesce_Idempotent(t *testing.T) {
	a := buildArena(t, []Block{
		{Size: 100, Free: true},
		{Size: 100, Free: false},
		{Size: 824, Free: true},
	})

	before := a.Blocks()
	a.coalesce()
	assert.Equal(t, before, a.Blocks(), "re-running coalesce must be a no-op")

	assertArenaInvariants(t, a)
}

func TestFragmentationRatio(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)
	assert.Zero(t, a.FragmentationRatio(), "one free block means no fragmentation")

	// Fully allocated: no free memory, ratio defined as 0.
	addr := mustAllocate(t, a, 1024)
	assert.Zero(t, a.FragmentationRatio())
	require.NoError(t, a.Deallocate(addr))

	// [0..100 free][100..200 alloc][200..1024 free]: largest 824 of 924 free.
	a1 := mustAllocate(t, a, 100)
	mustAllocate(t, a, 100)
	require.NoError(t, a.Deallocate(a1))
	assert.InDelta(t, 1-824.0/924.0, a.FragmentationRatio(), 1e-9)

	assertArenaInvariants(t, a)
}

func TestStats_Counters(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)

	addr := mustAllocate(t, a, 100)
	_, err = a.Allocate(0)
	require.Error(t, err)
	require.NoError(t, a.Deallocate(addr))

	stats := a.Stats()
	assert.Equal(t, 2, stats.AllocCalls)
	assert.Equal(t, 1, stats.FailedAllocs)
	assert.Equal(t, 1, stats.FreeCalls)
	assert.Equal(t, 1, stats.SplitCount)
	assert.EqualValues(t, 100, stats.BytesAllocated)
	assert.EqualValues(t, 100, stats.BytesFreed)
}
