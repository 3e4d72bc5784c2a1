package adaptive

import (
	"io"
	"time"

	"github.com/joshuapare/arenakit/arena/alloc"
	"github.com/joshuapare/arenakit/arena/leak"
)

// Tuning defaults. Thresholds and the adaptation interval drift at runtime
// inside the clamp bounds below.
const (
	DefaultFragmentationThreshold = 0.30
	DefaultPoolCreationThreshold  = 100
	DefaultAdaptationInterval     = 1000
	DefaultHistoryCap             = 10000
	DefaultPoolSlotCount          = 10
	DefaultPoolPruneUtilization   = 0.20
	DefaultHotspotRegionBytes     = 4096

	// Clamp bounds for the self-adjusting parameters.
	minFragmentationThreshold = 0.05
	maxFragmentationThreshold = 0.95
	minPoolCreationThreshold  = 1
	minAdaptationInterval     = 10
	maxAdaptationInterval     = 1_000_000
)

// Config tunes a Controller at construction. The zero value of any field
// selects its default.
type Config struct {
	// InitialStrategy is the arena's starting placement policy.
	InitialStrategy alloc.Strategy

	// FragmentationThreshold is the ratio above which an adaptation step
	// switches the arena to the recommended strategy. Default 0.30.
	FragmentationThreshold float64

	// PoolCreationThreshold is the observation count a size must reach
	// before a pool is created for it on demand. Default 100.
	PoolCreationThreshold float64

	// AdaptationInterval is the number of successful arena-path allocations
	// between adaptation steps; pool allocations, failures and deallocations
	// are not counted. Default 1000.
	AdaptationInterval uint64

	// HistoryCap bounds the profiler's history. Default 10000.
	HistoryCap int

	// PoolSlotCount is the slot count for pools created on demand.
	// Default 10.
	PoolSlotCount uint64

	// PoolPruneUtilization is the utilisation floor below which pools are
	// marked for reclamation. Default 0.20.
	PoolPruneUtilization float64

	// HotspotRegionBytes is the profiler's hot-spot bucket width.
	// Default 4096.
	HotspotRegionBytes uint64

	// Now is the monotonic clock used for all timestamps. Default time.Now.
	Now func() time.Time

	// Capture supplies the allocation site recorded by the leak tracker.
	// When nil, entries carry empty sites. A closure around leak.Caller
	// makes one.
	Capture func() leak.Site

	// Diagnostics receives leak-tracker warnings. Default os.Stderr.
	Diagnostics io.Writer
}

func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.FragmentationThreshold == 0 {
		out.FragmentationThreshold = DefaultFragmentationThreshold
	}
	if out.PoolCreationThreshold == 0 {
		out.PoolCreationThreshold = DefaultPoolCreationThreshold
	}
	if out.AdaptationInterval == 0 {
		out.AdaptationInterval = DefaultAdaptationInterval
	}
	if out.HistoryCap == 0 {
		out.HistoryCap = DefaultHistoryCap
	}
	if out.PoolSlotCount == 0 {
		out.PoolSlotCount = DefaultPoolSlotCount
	}
	if out.PoolPruneUtilization == 0 {
		out.PoolPruneUtilization = DefaultPoolPruneUtilization
	}
	if out.HotspotRegionBytes == 0 {
		out.HotspotRegionBytes = DefaultHotspotRegionBytes
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return out
}

// Parameters is the controller's mutable tuning state, adjusted by every
// adaptation step.
type Parameters struct {
	FragmentationThreshold float64
	PoolCreationThreshold  float64
	AdaptationInterval     uint64
	OperationsSinceAdapt   uint64
}
