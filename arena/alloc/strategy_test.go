package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstFit_ReusesEarliestHole(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)

	a1 := mustAllocate(t, a, 100)
	assert.EqualValues(t, 0, a1)
	a2 := mustAllocate(t, a, 200)
	assert.EqualValues(t, 100, a2)

	require.NoError(t, a.Deallocate(a1))

	// The freed hole at 0 comes first in address order, so first-fit reuses
	// it even though the trailing block is far larger.
	a3 := mustAllocate(t, a, 50)
	assert.EqualValues(t, 0, a3)

	blocks := a.Blocks()
	require.Len(t, blocks, 4)
	assert.Equal(t, Block{Addr: 50, Size: 50, Free: true}, blocks[1])
	assert.Equal(t, Block{Addr: 300, Size: 724, Free: true}, blocks[3])

	assertArenaInvariants(t, a)
}

func TestFirstFit_FullRoundTripCoalesces(t *testing.T) {
	a, err := New(1024, FirstFit)
	require.NoError(t, err)

	a1 := mustAllocate(t, a, 100)
	a2 := mustAllocate(t, a, 100)
	require.NoError(t, a.Deallocate(a1))
	require.NoError(t, a.Deallocate(a2))

	blocks := a.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, Block{Addr: 0, Size: 1024, Free: true}, blocks[0])

	assertArenaInvariants(t, a)
}

// fragmentedArena builds [0..100 free][100..300 alloc][300..350 free]
// [350..1024 alloc]: two free holes of 100 and 50 bytes.
func fragmentedArena(t *testing.T) *Arena {
	t.Helper()
	return buildArena(t, []Block{
		{Size: 100, Free: true},
		{Size: 200, Free: false},
		{Size: 50, Free: true},
		{Size: 674, Free: false},
	})
}

func TestBestFit_PicksTightestHole(t *testing.T) {
	a := fragmentedArena(t)
	a.SetStrategy(BestFit)

	// 40 fits both holes; the 50-byte hole at 300 leaves the smaller
	// remainder.
	addr := mustAllocate(t, a, 40)
	assert.EqualValues(t, 300, addr)

	// 60 only fits the 100-byte hole at 0.
	addr = mustAllocate(t, a, 60)
	assert.EqualValues(t, 0, addr)

	assertArenaInvariants(t, a)
}

func TestWorstFit_PicksLargestHole(t *testing.T) {
	a := fragmentedArena(t)
	a.SetStrategy(WorstFit)

	// 40 fits both holes; the 100-byte hole leaves the larger remainder.
	addr := mustAllocate(t, a, 40)
	assert.EqualValues(t, 0, addr)

	assertArenaInvariants(t, a)
}

func TestBestFit_TieBreaksEarliestAddress(t *testing.T) {
	// Two identical 100-byte holes; the earlier one must win.
	a := buildArena(t, []Block{
		{Size: 100, Free: true},
		{Size: 50, Free: false},
		{Size: 100, Free: true},
		{Size: 774, Free: false},
	})
	a.SetStrategy(BestFit)

	addr := mustAllocate(t, a, 100)
	assert.EqualValues(t, 0, addr)

	assertArenaInvariants(t, a)
}

func TestWorstFit_TieBreaksEarliestAddress(t *testing.T) {
	a := buildArena(t, []Block{
		{Size: 100, Free: true},
		{Size: 50, Free: false},
		{Size: 100, Free: true},
		{Size: 774, Free: false},
	})
	a.SetStrategy(WorstFit)

	addr := mustAllocate(t, a, 80)
	assert.EqualValues(t, 0, addr)

	assertArenaInvariants(t, a)
}
