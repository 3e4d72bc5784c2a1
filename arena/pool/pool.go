package pool

import (
	"sort"

	"github.com/joshuapare/arenakit/arena/alloc"
)

// Pool is a contiguous sub-region of the arena partitioned into equal-sized
// slots. The underlying arena block stays allocated for the pool's lifetime.
type Pool struct {
	id        uint64
	blockSize uint64
	base      alloc.Addr
	total     uint64

	used      uint64
	freeSlots []alloc.Addr // LIFO stack of free slot addresses
	freeSet   map[alloc.Addr]struct{}

	// reclaim marks the pool for removal on the next Prune. A distinct flag
	// rather than a zeroed slot count, so a pool's geometry stays intact
	// until it is actually removed.
	reclaim bool
}

// ID returns the pool's nonzero identifier.
func (p *Pool) ID() uint64 { return p.id }

// BlockSize returns the uniform slot size in bytes.
func (p *Pool) BlockSize() uint64 { return p.blockSize }

// Base returns the pool's base address in the arena.
func (p *Pool) Base() alloc.Addr { return p.base }

// TotalSlots returns the number of slots the pool was created with.
func (p *Pool) TotalSlots() uint64 { return p.total }

// UsedSlots returns the number of slots currently handed out.
func (p *Pool) UsedSlots() uint64 { return p.used }

// Utilization returns used/total in [0, 1].
func (p *Pool) Utilization() float64 {
	return float64(p.used) / float64(p.total)
}

// MarkedForReclaim reports whether the pool will be removed on the next Prune.
func (p *Pool) MarkedForReclaim() bool { return p.reclaim }

// Contains reports whether addr falls inside the pool's slot region.
func (p *Pool) Contains(addr alloc.Addr) bool {
	return addr >= p.base && addr < p.base+p.total*p.blockSize
}

// Manager owns the set of pools carved out of a single arena. It holds a
// non-owning reference to the arena and uses its Allocate/Deallocate
// primitives for pool lifecycle.
type Manager struct {
	arena  *alloc.Arena
	pools  []*Pool // sorted by slot size ascending, creation order on ties
	nextID uint64
}

// NewManager creates an empty pool manager over the given arena.
func NewManager(a *alloc.Arena) *Manager {
	return &Manager{arena: a, nextID: 1}
}

// CreatePool carves a pool of slotCount slots of blockSize bytes each out of
// the arena. If the arena cannot satisfy the request, or either dimension is
// zero, the call silently no-ops: the caller falls back to the arena.
func (m *Manager) CreatePool(blockSize, slotCount uint64) {
	if blockSize == 0 || slotCount == 0 {
		return
	}

	base, err := m.arena.Allocate(blockSize * slotCount)
	if err != nil {
		return
	}

	p := &Pool{
		id:        m.nextID,
		blockSize: blockSize,
		base:      base,
		total:     slotCount,
		freeSlots: make([]alloc.Addr, 0, slotCount),
		freeSet:   make(map[alloc.Addr]struct{}, slotCount),
	}
	m.nextID++

	for i := uint64(0); i < slotCount; i++ {
		slot := base + i*blockSize
		p.freeSlots = append(p.freeSlots, slot)
		p.freeSet[slot] = struct{}{}
	}

	// Keep pools ordered by slot size so TryAllocate always picks the
	// tightest-fitting pool. Stable insert preserves creation order on ties.
	idx := sort.Search(len(m.pools), func(i int) bool {
		return m.pools[i].blockSize > blockSize
	})
	m.pools = append(m.pools, nil)
	copy(m.pools[idx+1:], m.pools[idx:])
	m.pools[idx] = p
}

// TryAllocate returns a slot from the pool with the smallest slot size that
// covers size, together with the pool's ID. Internal waste from oversized
// slots is accepted. Returns false when no pool can serve the request.
func (m *Manager) TryAllocate(size uint64) (alloc.Addr, uint64, bool) {
	if size == 0 {
		return 0, 0, false
	}
	for _, p := range m.pools {
		if p.blockSize < size || len(p.freeSlots) == 0 {
			continue
		}
		addr := p.freeSlots[len(p.freeSlots)-1]
		p.freeSlots = p.freeSlots[:len(p.freeSlots)-1]
		delete(p.freeSet, addr)
		p.used++
		return addr, p.id, true
	}
	return 0, 0, false
}

// TryDeallocate returns the slot at addr to its pool. It reports false when
// addr does not name a live slot of any pool, in which case the caller must
// route the deallocation to the arena.
func (m *Manager) TryDeallocate(addr alloc.Addr) bool {
	for _, p := range m.pools {
		if !p.Contains(addr) {
			continue
		}
		if (addr-p.base)%p.blockSize != 0 {
			return false // inside the region but not a slot base
		}
		if _, alreadyFree := p.freeSet[addr]; alreadyFree {
			return false
		}
		p.freeSlots = append(p.freeSlots, addr)
		p.freeSet[addr] = struct{}{}
		p.used--
		return true
	}
	return false
}

// MarkUnderutilized flags every pool whose utilisation is below floor for
// removal by the next Prune.
func (m *Manager) MarkUnderutilized(floor float64) {
	for _, p := range m.pools {
		if p.Utilization() < floor {
			p.reclaim = true
		}
	}
}

// Prune removes every marked pool and returns its block to the arena, so
// total free memory recovers after reclamation.
func (m *Manager) Prune() {
	kept := m.pools[:0]
	for _, p := range m.pools {
		if !p.reclaim {
			kept = append(kept, p)
			continue
		}
		// The pool owns its arena block; give it back on removal.
		_ = m.arena.Deallocate(p.base)
	}
	m.pools = kept
}

// HasPoolFor reports whether a pool with exactly this slot size exists.
func (m *Manager) HasPoolFor(blockSize uint64) bool {
	for _, p := range m.pools {
		if p.blockSize == blockSize {
			return true
		}
	}
	return false
}

// Pools returns the managed pools in slot-size order. The slice is a copy;
// the pools themselves are live.
func (m *Manager) Pools() []*Pool {
	out := make([]*Pool, len(m.pools))
	copy(out, m.pools)
	return out
}
