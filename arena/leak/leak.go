// Package leak tracks outstanding allocations with their capture sites.
//
// The tracker is a plain context object owned by whoever constructs it,
// typically the adaptive controller. Every allocation is recorded in an
// active-address map and an append-only history; an allocation still active
// at shutdown is a leak.
package leak

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"time"
)

// Site names where an allocation was made.
type Site struct {
	File  string
	Line  int
	Stack string // optional serialized call stack
}

// Caller captures the file and line skip frames above the caller, for use as
// a capture hook. It does not serialize a full stack.
func Caller(skip int) Site {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Site{}
	}
	return Site{File: file, Line: line}
}

// Entry is one tracked allocation.
type Entry struct {
	Addr        uint64
	Size        uint64
	AllocatedAt time.Time
	Site        Site
}

// Options tunes a Tracker. The zero value of any field selects its default.
type Options struct {
	Diagnostics io.Writer        // default os.Stderr
	Now         func() time.Time // default time.Now
}

// Tracker accumulates allocation records for leak reporting.
type Tracker struct {
	diag io.Writer
	now  func() time.Time

	active  map[uint64]Entry
	history []Entry // append-only, grows for the tracker's lifetime
}

// NewTracker creates a tracker. A nil opts selects all defaults.
func NewTracker(opts *Options) *Tracker {
	t := &Tracker{
		diag:   os.Stderr,
		now:    time.Now,
		active: make(map[uint64]Entry),
	}
	if opts != nil {
		if opts.Diagnostics != nil {
			t.diag = opts.Diagnostics
		}
		if opts.Now != nil {
			t.now = opts.Now
		}
	}
	return t
}

// RecordAllocation tracks a new allocation at addr. A duplicate active
// address is rejected with a diagnostic: two live allocations at the same
// base would mean the arena's own invariants are broken, so the first record
// is kept as evidence.
func (t *Tracker) RecordAllocation(addr, size uint64, site Site) {
	if _, dup := t.active[addr]; dup {
		fmt.Fprintf(t.diag, "leak: warning: duplicate allocation record at address %d (size %d), keeping original\n",
			addr, size)
		return
	}
	e := Entry{Addr: addr, Size: size, AllocatedAt: t.now(), Site: site}
	t.active[addr] = e
	t.history = append(t.history, e)
}

// RecordDeallocation clears the active record for addr. An unknown address
// emits a warning diagnostic and is otherwise ignored.
func (t *Tracker) RecordDeallocation(addr uint64) {
	if _, ok := t.active[addr]; !ok {
		fmt.Fprintf(t.diag, "leak: warning: deallocation of untracked address %d\n", addr)
		return
	}
	delete(t.active, addr)
}

// HasLeaks reports whether any allocation is still active.
func (t *Tracker) HasLeaks() bool {
	return len(t.active) > 0
}

// Active returns the outstanding allocations in address order.
func (t *Tracker) Active() []Entry {
	out := make([]Entry, 0, len(t.active))
	for _, e := range t.active {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// ActiveCount returns the number of outstanding allocations.
func (t *Tracker) ActiveCount() int {
	return len(t.active)
}

// LeakedBytes returns the total size of all outstanding allocations.
func (t *Tracker) LeakedBytes() uint64 {
	var total uint64
	for _, e := range t.active {
		total += e.Size
	}
	return total
}

// TotalAllocations returns how many allocations were ever recorded.
func (t *Tracker) TotalAllocations() int {
	return len(t.history)
}

// History returns a copy of every allocation ever recorded, oldest first.
func (t *Tracker) History() []Entry {
	out := make([]Entry, len(t.history))
	copy(out, t.history)
	return out
}

// Reset clears both the active set and the history.
func (t *Tracker) Reset() {
	t.active = make(map[uint64]Entry)
	t.history = nil
}
