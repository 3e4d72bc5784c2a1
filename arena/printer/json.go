package printer

import (
	"encoding/json"

	"github.com/joshuapare/arenakit/arena/adaptive"
)

// snapshot is the JSON document shape for a controller's state.
type snapshot struct {
	TotalMemory        uint64          `json:"total_memory"`
	FreeMemory         uint64          `json:"free_memory"`
	LargestFreeBlock   uint64          `json:"largest_free_block"`
	FragmentationRatio float64         `json:"fragmentation_ratio"`
	Strategy           string          `json:"strategy"`
	Blocks             []blockJSON     `json:"blocks,omitempty"`
	Metrics            metricsJSON     `json:"metrics"`
	Pools              []poolJSON      `json:"pools,omitempty"`
	Parameters         *parametersJSON `json:"parameters,omitempty"`
	Leaks              *leaksJSON      `json:"leaks,omitempty"`
}

type blockJSON struct {
	Address uint64 `json:"address"`
	Size    uint64 `json:"size"`
	Free    bool   `json:"free"`
}

type metricsJSON struct {
	AverageAllocationTime float64 `json:"average_allocation_time_us"`
	HitRate               float64 `json:"hit_rate"`
	FailedAllocations     int     `json:"failed_allocations"`
}

type poolJSON struct {
	BlockSize   uint64  `json:"block_size"`
	BaseAddress uint64  `json:"base_address"`
	TotalSlots  uint64  `json:"total_slots"`
	UsedSlots   uint64  `json:"used_slots"`
	Utilization float64 `json:"utilization"`
}

type parametersJSON struct {
	FragmentationThreshold float64 `json:"fragmentation_threshold"`
	PoolCreationThreshold  float64 `json:"pool_creation_threshold"`
	AdaptationInterval     uint64  `json:"adaptation_interval"`
}

type leaksJSON struct {
	LeakedBytes uint64     `json:"leaked_bytes"`
	ActiveCount int        `json:"active_count"`
	Entries     []leakJSON `json:"entries"`
}

type leakJSON struct {
	Address uint64 `json:"address"`
	Size    uint64 `json:"size"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

func (p *Printer) printJSON(c *adaptive.Controller) error {
	m := c.PerformanceMetrics()
	snap := snapshot{
		TotalMemory:        c.TotalMemory(),
		FreeMemory:         c.TotalFreeMemory(),
		LargestFreeBlock:   c.LargestFreeBlock(),
		FragmentationRatio: c.FragmentationRatio(),
		Strategy:           c.Strategy().String(),
		Metrics: metricsJSON{
			AverageAllocationTime: m.AverageAllocationTime,
			HitRate:               m.HitRate,
			FailedAllocations:     m.FailedAllocations,
		},
	}

	if p.opts.ShowBlocks {
		for _, b := range c.Blocks() {
			snap.Blocks = append(snap.Blocks, blockJSON{Address: b.Addr, Size: b.Size, Free: b.Free})
		}
	}
	if p.opts.ShowPools {
		for _, pl := range c.Pools() {
			snap.Pools = append(snap.Pools, poolJSON{
				BlockSize:   pl.BlockSize(),
				BaseAddress: pl.Base(),
				TotalSlots:  pl.TotalSlots(),
				UsedSlots:   pl.UsedSlots(),
				Utilization: pl.Utilization(),
			})
		}
	}
	if p.opts.ShowParameters {
		params := c.Params()
		snap.Parameters = &parametersJSON{
			FragmentationThreshold: params.FragmentationThreshold,
			PoolCreationThreshold:  params.PoolCreationThreshold,
			AdaptationInterval:     params.AdaptationInterval,
		}
	}
	if p.opts.ShowLeaks {
		t := c.LeakTracker()
		leaks := &leaksJSON{
			LeakedBytes: t.LeakedBytes(),
			ActiveCount: t.ActiveCount(),
		}
		for _, e := range t.Active() {
			leaks.Entries = append(leaks.Entries, leakJSON{
				Address: e.Addr,
				Size:    e.Size,
				File:    e.Site.File,
				Line:    e.Site.Line,
			})
		}
		snap.Leaks = leaks
	}

	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
