package profile

import (
	"math"
	"sort"
	"time"

	"github.com/joshuapare/arenakit/arena/alloc"
)

// Metrics summarises allocator performance as seen through the history.
type Metrics struct {
	// FragmentationRatio is read from the arena at snapshot time.
	FragmentationRatio float64

	// AverageAllocationTime is the mean inter-arrival gap between recorded
	// allocation attempts, in microseconds. Inter-arrival is a proxy for
	// allocation cost, kept for behavioural parity with the classic design.
	AverageAllocationTime float64

	// HitRate is successful allocations over total recorded attempts.
	HitRate float64

	// FailedAllocations counts recorded failed attempts.
	FailedAllocations int

	// StrategyEfficiency scores each strategy from its stored snapshots.
	StrategyEfficiency map[alloc.Strategy]float64
}

// Metrics computes a fresh performance snapshot.
func (p *Profiler) Metrics() Metrics {
	m := Metrics{
		AverageAllocationTime: p.averageInterArrival(),
		StrategyEfficiency:    make(map[alloc.Strategy]float64, len(p.strategyMetrics)),
	}
	if p.frag != nil {
		m.FragmentationRatio = p.frag.FragmentationRatio()
	}

	var failed int
	for _, r := range p.history {
		if r.Failed {
			failed++
		}
	}
	m.FailedAllocations = failed
	if n := len(p.history); n > 0 {
		m.HitRate = float64(n-failed) / float64(n)
	} else {
		m.HitRate = 1
	}

	for s, snap := range p.strategyMetrics {
		m.StrategyEfficiency[s] = 0.4*snap.HitRate +
			0.4*(1-snap.FragmentationRatio) +
			0.2*(1/(1+snap.AverageAllocationTime))
	}

	return m
}

func (p *Profiler) averageInterArrival() float64 {
	if len(p.history) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(p.history); i++ {
		gap := p.history[i].AllocatedAt.Sub(p.history[i-1].AllocatedAt)
		sum += float64(gap) / float64(time.Microsecond)
	}
	return sum / float64(len(p.history)-1)
}

// PoolRecommendation groups observed sizes into power-of-two pool classes.
type PoolRecommendation struct {
	// OptimalSizes are the recommended pool slot sizes, ascending.
	OptimalSizes []uint64

	// Weights carry each size's rounded percentage of observations, parallel
	// to OptimalSizes.
	Weights []uint64

	// ExpectedImprovement estimates the fragmentation reduction, in percent.
	ExpectedImprovement float64
}

// RecommendPoolConfiguration groups the size distribution into power-of-two
// classes and recommends pools for every class covering at least 5% of
// observations.
func (p *Profiler) RecommendPoolConfiguration() PoolRecommendation {
	dist := p.sizeDistribution()

	groups := make(map[uint64]uint64)
	for size, share := range dist {
		rounded := ceilPow2(size)
		groups[rounded] += uint64(math.Round(share * 100))
	}

	sizes := make([]uint64, 0, len(groups))
	for size := range groups {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	var rec PoolRecommendation
	for _, size := range sizes {
		if groups[size] >= 5 {
			rec.OptimalSizes = append(rec.OptimalSizes, size)
			rec.Weights = append(rec.Weights, groups[size])
		}
	}

	if p.frag != nil {
		current := p.frag.FragmentationRatio()
		if current > 0 {
			expected := current * 0.7
			rec.ExpectedImprovement = (current - expected) / current * 100
		}
	}
	return rec
}

func ceilPow2(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	out := uint64(1)
	for out < v {
		out <<= 1
	}
	return out
}
