package alloc

// node is one element of the arena's doubly-linked block list, kept in
// strictly increasing address order.
type node struct {
	addr Addr
	size uint64
	free bool

	prev, next *node
}

// Arena manages a fixed-size simulated address range as an ordered list of
// free and allocated blocks.
type Arena struct {
	head   *node
	byAddr map[Addr]*node // base address -> block, for O(1) deallocation
	total  uint64

	strategy Strategy
	stats    Stats
}

// New creates an arena covering [0, totalSize) with a single free block.
func New(totalSize uint64, strategy Strategy) (*Arena, error) {
	if totalSize == 0 {
		return nil, ErrZeroTotal
	}

	first := &node{addr: 0, size: totalSize, free: true}
	a := &Arena{
		head:     first,
		byAddr:   map[Addr]*node{0: first},
		total:    totalSize,
		strategy: strategy,
	}
	return a, nil
}

// Allocate reserves size bytes and returns the base address of the new block.
// The arena is unchanged when an error is returned.
func (a *Arena) Allocate(size uint64) (Addr, error) {
	a.stats.AllocCalls++

	if size == 0 {
		a.stats.FailedAllocs++
		return 0, ErrZeroSize
	}

	n := a.findBlock(size)
	if n == nil {
		a.stats.FailedAllocs++
		return 0, ErrNoFit
	}

	if n.size > size {
		a.split(n, size)
	}
	n.free = false

	a.stats.BytesAllocated += int64(size)
	return n.addr, nil
}

// Deallocate releases the block based at addr and coalesces adjacent free
// blocks. Deallocating an address that is not the base of a currently
// allocated block fails with ErrInvalidAddress and changes nothing.
func (a *Arena) Deallocate(addr Addr) error {
	a.stats.FreeCalls++

	n, ok := a.byAddr[addr]
	if !ok || n.free {
		return ErrInvalidAddress
	}

	n.free = true
	a.stats.BytesFreed += int64(n.size)
	a.coalesce()
	return nil
}

// SetStrategy swaps the placement policy for future allocations. Existing
// blocks are never moved.
func (a *Arena) SetStrategy(s Strategy) {
	a.strategy = s
}

// Strategy returns the active placement policy.
func (a *Arena) Strategy() Strategy {
	return a.strategy
}

// findBlock walks the ordered block list once and returns the free block the
// active strategy selects, or nil when nothing fits.
func (a *Arena) findBlock(size uint64) *node {
	switch a.strategy {
	case BestFit:
		var best *node
		for n := a.head; n != nil; n = n.next {
			if !n.free || n.size < size {
				continue
			}
			// Strictly smaller leftover wins, so ties keep the earliest block.
			if best == nil || n.size-size < best.size-size {
				best = n
			}
		}
		return best

	case WorstFit:
		var worst *node
		for n := a.head; n != nil; n = n.next {
			if !n.free || n.size < size {
				continue
			}
			if worst == nil || n.size-size > worst.size-size {
				worst = n
			}
		}
		return worst

	default: // FirstFit
		for n := a.head; n != nil; n = n.next {
			if n.free && n.size >= size {
				return n
			}
		}
		return nil
	}
}

// split carves an exact-fit leading block of size bytes out of n, inserting
// the free remainder directly after it.
func (a *Arena) split(n *node, size uint64) {
	a.stats.SplitCount++

	rest := &node{
		addr: n.addr + size,
		size: n.size - size,
		free: true,
		prev: n,
		next: n.next,
	}
	if n.next != nil {
		n.next.prev = rest
	}
	n.next = rest
	n.size = size
	a.byAddr[rest.addr] = rest
}

// coalesce walks the list once and fuses every run of adjacent free blocks
// into a single block at the run's leftmost address.
func (a *Arena) coalesce() {
	for n := a.head; n != nil && n.next != nil; {
		next := n.next
		if n.free && next.free {
			a.stats.CoalesceCount++
			n.size += next.size
			n.next = next.next
			if next.next != nil {
				next.next.prev = n
			}
			delete(a.byAddr, next.addr)
			continue // n may swallow further free neighbours
		}
		n = next
	}
}

// TotalMemory returns the arena's configured total size.
func (a *Arena) TotalMemory() uint64 {
	return a.total
}

// TotalFreeMemory returns the sum of all free block sizes.
func (a *Arena) TotalFreeMemory() uint64 {
	var total uint64
	for n := a.head; n != nil; n = n.next {
		if n.free {
			total += n.size
		}
	}
	return total
}

// LargestFreeBlock returns the size of the largest free block.
func (a *Arena) LargestFreeBlock() uint64 {
	var largest uint64
	for n := a.head; n != nil; n = n.next {
		if n.free && n.size > largest {
			largest = n.size
		}
	}
	return largest
}

// FragmentationRatio reports how scattered the free space is:
// 1 - largest_free/total_free, or 0 when no memory is free.
func (a *Arena) FragmentationRatio() float64 {
	totalFree := a.TotalFreeMemory()
	if totalFree == 0 {
		return 0
	}
	return 1 - float64(a.LargestFreeBlock())/float64(totalFree)
}

// Blocks returns a snapshot of the block list in address order.
func (a *Arena) Blocks() []Block {
	var out []Block
	for n := a.head; n != nil; n = n.next {
		out = append(out, Block{Addr: n.addr, Size: n.size, Free: n.free})
	}
	return out
}

// Stats returns a copy of the arena's internal counters.
func (a *Arena) Stats() Stats {
	return a.stats
}
