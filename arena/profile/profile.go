package profile

import (
	"time"

	"github.com/joshuapare/arenakit/arena/alloc"
)

// DefaultHistoryCap bounds the allocation history; the oldest record is
// evicted once the cap is exceeded.
const DefaultHistoryCap = 10000

// DefaultRegionBytes is the bucket width for hot-spot aggregation.
const DefaultRegionBytes = 4096

// Record is one entry in the profiler's allocation history.
type Record struct {
	Size        uint64
	Addr        alloc.Addr
	PoolID      uint64 // 0 for direct arena allocations
	AllocatedAt time.Time
	FreedAt     time.Time // zero when never deallocated
	Active      bool
	Failed      bool // failed attempt, recorded inactive with zero address
}

// FragmentationSource is the narrow view of the arena the profiler reads.
type FragmentationSource interface {
	FragmentationRatio() float64
}

// Profiler aggregates allocation telemetry over a bounded history.
type Profiler struct {
	frag FragmentationSource
	now  func() time.Time

	historyCap  int
	regionBytes uint64

	history   []Record
	sizeFreq  map[uint64]uint64    // monotone per-size counters
	lifetimes map[uint64][]float64 // completed lifetimes per size, milliseconds

	strategyMetrics map[alloc.Strategy]Metrics
}

// Options tunes a Profiler. The zero value of any field selects its default.
type Options struct {
	HistoryCap  int              // default DefaultHistoryCap
	RegionBytes uint64           // default DefaultRegionBytes
	Now         func() time.Time // default time.Now
}

// New creates a profiler reading fragmentation from frag. A nil opts selects
// all defaults.
func New(frag FragmentationSource, opts *Options) *Profiler {
	p := &Profiler{
		frag:            frag,
		now:             time.Now,
		historyCap:      DefaultHistoryCap,
		regionBytes:     DefaultRegionBytes,
		sizeFreq:        make(map[uint64]uint64),
		lifetimes:       make(map[uint64][]float64),
		strategyMetrics: make(map[alloc.Strategy]Metrics),
	}
	if opts != nil {
		if opts.HistoryCap > 0 {
			p.historyCap = opts.HistoryCap
		}
		if opts.RegionBytes > 0 {
			p.regionBytes = opts.RegionBytes
		}
		if opts.Now != nil {
			p.now = opts.Now
		}
	}
	return p
}

// RecordAllocation appends a successful allocation to the history.
func (p *Profiler) RecordAllocation(size uint64, addr alloc.Addr, poolID uint64) {
	p.append(Record{
		Size:        size,
		Addr:        addr,
		PoolID:      poolID,
		AllocatedAt: p.now(),
		Active:      true,
	})
	p.sizeFreq[size]++
}

// RecordFailure folds a failed allocation attempt into the history as an
// inactive record with a zero address. Failures do not feed the size
// frequency counters, so they never trigger pool creation.
func (p *Profiler) RecordFailure(size uint64) {
	p.append(Record{
		Size:        size,
		AllocatedAt: p.now(),
		Failed:      true,
	})
}

func (p *Profiler) append(r Record) {
	p.history = append(p.history, r)
	if len(p.history) > p.historyCap {
		p.history = p.history[1:]
	}
}

// RecordDeallocation completes the most recent active record for addr and
// folds its lifetime into the per-size statistics. Unknown addresses are
// silently ignored.
func (p *Profiler) RecordDeallocation(addr alloc.Addr) {
	now := p.now()
	for i := len(p.history) - 1; i >= 0; i-- {
		r := &p.history[i]
		if r.Addr != addr || !r.Active {
			continue
		}
		r.Active = false
		r.FreedAt = now
		ms := float64(now.Sub(r.AllocatedAt)) / float64(time.Millisecond)
		p.lifetimes[r.Size] = append(p.lifetimes[r.Size], ms)
		return
	}
}

// TotalObservations returns the number of records currently in the history.
func (p *Profiler) TotalObservations() int {
	return len(p.history)
}

// History returns a copy of the current allocation history, oldest first.
func (p *Profiler) History() []Record {
	out := make([]Record, len(p.history))
	copy(out, p.history)
	return out
}

// ShouldCreatePoolForSize reports whether size has been observed often enough
// to justify a dedicated pool: its distribution share scaled by the total
// observation count must reach threshold.
func (p *Profiler) ShouldCreatePoolForSize(size uint64, threshold float64) bool {
	dist := p.sizeDistribution()
	share, ok := dist[size]
	if !ok {
		return false
	}
	return share*float64(p.TotalObservations()) >= threshold
}

// RecordStrategyMetrics stores a metrics snapshot under the strategy that was
// active when it was taken. Snapshots feed the per-strategy efficiency scores
// in Metrics.
func (p *Profiler) RecordStrategyMetrics(s alloc.Strategy, m Metrics) {
	p.strategyMetrics[s] = m
}
