package adaptive

import (
	"math"

	"github.com/joshuapare/arenakit/arena/alloc"
	"github.com/joshuapare/arenakit/arena/leak"
	"github.com/joshuapare/arenakit/arena/pool"
	"github.com/joshuapare/arenakit/arena/profile"
)

// Controller is the public allocate/deallocate surface of the engine.
type Controller struct {
	arena *alloc.Arena
	pools *pool.Manager
	prof  *profile.Profiler
	leaks *leak.Tracker

	cfg      Config
	params   Parameters
	adaptive bool
}

// New creates a controller over a fresh arena of totalSize bytes. A nil cfg
// selects all defaults. Adaptive mode starts enabled.
func New(totalSize uint64, cfg *Config) (*Controller, error) {
	conf := cfg.withDefaults()

	a, err := alloc.New(totalSize, conf.InitialStrategy)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		arena: a,
		pools: pool.NewManager(a),
		prof: profile.New(a, &profile.Options{
			HistoryCap:  conf.HistoryCap,
			RegionBytes: conf.HotspotRegionBytes,
			Now:         conf.Now,
		}),
		leaks: leak.NewTracker(&leak.Options{
			Diagnostics: conf.Diagnostics,
			Now:         conf.Now,
		}),
		cfg:      conf,
		adaptive: true,
		params: Parameters{
			FragmentationThreshold: conf.FragmentationThreshold,
			PoolCreationThreshold:  conf.PoolCreationThreshold,
			AdaptationInterval:     conf.AdaptationInterval,
		},
	}
	return c, nil
}

// Allocate reserves size bytes, routing through pools first in adaptive mode
// and falling back to the arena. Crossing the adaptation interval triggers a
// synchronous adaptation step before the call returns.
func (c *Controller) Allocate(size uint64) (alloc.Addr, error) {
	if size == 0 {
		return 0, alloc.ErrZeroSize
	}

	if c.adaptive {
		if addr, ok := c.allocateFromPool(size); ok {
			return addr, nil
		}
		if c.prof.ShouldCreatePoolForSize(size, c.params.PoolCreationThreshold) {
			c.pools.CreatePool(size, c.cfg.PoolSlotCount)
			if addr, ok := c.allocateFromPool(size); ok {
				return addr, nil
			}
		}
	}

	addr, err := c.arena.Allocate(size)
	if err != nil {
		c.prof.RecordFailure(size)
		return 0, err
	}

	c.prof.RecordAllocation(size, addr, 0)
	c.leaks.RecordAllocation(addr, size, c.captureSite())

	c.params.OperationsSinceAdapt++
	if c.params.OperationsSinceAdapt >= c.params.AdaptationInterval {
		c.adapt()
	}
	return addr, nil
}

func (c *Controller) allocateFromPool(size uint64) (alloc.Addr, bool) {
	addr, poolID, ok := c.pools.TryAllocate(size)
	if !ok {
		return 0, false
	}
	c.prof.RecordAllocation(size, addr, poolID)
	c.leaks.RecordAllocation(addr, size, c.captureSite())
	return addr, true
}

// Deallocate releases addr through its pool when one owns it, otherwise
// through the arena. Pool utilisation marking runs after every successful
// deallocation.
func (c *Controller) Deallocate(addr alloc.Addr) error {
	if !c.pools.TryDeallocate(addr) {
		if err := c.arena.Deallocate(addr); err != nil {
			return err
		}
	}

	c.prof.RecordDeallocation(addr)
	c.leaks.RecordDeallocation(addr)
	c.pools.MarkUnderutilized(c.cfg.PoolPruneUtilization)
	return nil
}

// EnableAdaptiveMode switches pool routing on or off. Enabling resets the
// operation counter and runs an immediate adaptation step. The
// interval-driven adaptation in Allocate runs in either mode.
func (c *Controller) EnableAdaptiveMode(enable bool) {
	c.adaptive = enable
	if enable {
		c.params.OperationsSinceAdapt = 0
		c.adapt()
	}
}

// adapt is the reconfiguration step: strategy from the prediction when
// fragmentation is over threshold, pool pruning and creation, then parameter
// adjustment.
func (c *Controller) adapt() {
	metrics := c.prof.Metrics()
	pred := c.prof.PredictNextAllocation()

	// Snapshot how the active strategy performed before possibly leaving it.
	c.prof.RecordStrategyMetrics(c.arena.Strategy(), metrics)

	if metrics.FragmentationRatio > c.params.FragmentationThreshold {
		c.arena.SetStrategy(pred.RecommendedStrategy)
	}

	c.pools.Prune()
	for _, size := range pred.RecommendedPoolSizes {
		if c.pools.HasPoolFor(size) {
			continue
		}
		count := uint64(math.Round(pred.Confidence * 20))
		if count < 5 {
			count = 5
		}
		c.pools.CreatePool(size, count)
	}

	c.adjustParameters(metrics)
	c.params.OperationsSinceAdapt = 0
}

func (c *Controller) adjustParameters(m profile.Metrics) {
	switch {
	case m.HitRate < 0.8:
		c.params.FragmentationThreshold *= 1.1
	case m.HitRate > 0.95:
		c.params.FragmentationThreshold *= 0.9
	}
	c.params.FragmentationThreshold = clamp(c.params.FragmentationThreshold,
		minFragmentationThreshold, maxFragmentationThreshold)

	if m.FailedAllocations > 100 {
		c.params.PoolCreationThreshold *= 0.9
		if c.params.PoolCreationThreshold < minPoolCreationThreshold {
			c.params.PoolCreationThreshold = minPoolCreationThreshold
		}
	}

	interval := float64(c.params.AdaptationInterval)
	if m.AverageAllocationTime > 1000 {
		interval *= 1.2
	} else {
		interval *= 0.8
	}
	c.params.AdaptationInterval = uint64(clamp(interval,
		minAdaptationInterval, maxAdaptationInterval))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (c *Controller) captureSite() leak.Site {
	if c.cfg.Capture == nil {
		return leak.Site{}
	}
	return c.cfg.Capture()
}

// PerformanceMetrics returns the profiler's current snapshot.
func (c *Controller) PerformanceMetrics() profile.Metrics {
	return c.prof.Metrics()
}

// Prediction returns the profiler's current forward-looking recommendation.
func (c *Controller) Prediction() profile.Prediction {
	return c.prof.PredictNextAllocation()
}

// Pattern returns the profiler's current summarised allocation pattern.
func (c *Controller) Pattern() profile.Pattern {
	return c.prof.AnalyzePatterns()
}

// FragmentationRatio reports the arena's current fragmentation.
func (c *Controller) FragmentationRatio() float64 {
	return c.arena.FragmentationRatio()
}

// TotalFreeMemory reports the arena's total free bytes.
func (c *Controller) TotalFreeMemory() uint64 {
	return c.arena.TotalFreeMemory()
}

// LargestFreeBlock reports the arena's largest free block size.
func (c *Controller) LargestFreeBlock() uint64 {
	return c.arena.LargestFreeBlock()
}

// TotalMemory reports the arena's configured total size.
func (c *Controller) TotalMemory() uint64 {
	return c.arena.TotalMemory()
}

// Strategy returns the arena's active placement policy.
func (c *Controller) Strategy() alloc.Strategy {
	return c.arena.Strategy()
}

// Blocks returns a snapshot of the arena's block list.
func (c *Controller) Blocks() []alloc.Block {
	return c.arena.Blocks()
}

// Pools returns the live pools in slot-size order.
func (c *Controller) Pools() []*pool.Pool {
	return c.pools.Pools()
}

// Params returns a copy of the controller's mutable tuning state.
func (c *Controller) Params() Parameters {
	return c.params
}

// LeakTracker exposes the controller's leak sidecar.
func (c *Controller) LeakTracker() *leak.Tracker {
	return c.leaks
}
