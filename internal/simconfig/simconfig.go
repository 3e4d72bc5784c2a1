// Package simconfig loads controller tuning from a YAML file.
package simconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/arenakit/arena/adaptive"
	"github.com/joshuapare/arenakit/arena/alloc"
)

// File is the on-disk tuning document. Every field is optional; omitted
// fields keep their package defaults.
type File struct {
	TotalSize              uint64  `yaml:"total_size"`
	Strategy               string  `yaml:"strategy"`
	FragmentationThreshold float64 `yaml:"fragmentation_threshold"`
	PoolCreationThreshold  float64 `yaml:"pool_creation_threshold"`
	AdaptationInterval     uint64  `yaml:"adaptation_interval"`
	HistoryCap             int     `yaml:"history_cap"`
	PoolSlotCount          uint64  `yaml:"pool_default_slot_count"`
	PoolPruneUtilization   float64 `yaml:"pool_prune_utilisation"`
	HotspotRegionBytes     uint64  `yaml:"hotspot_region_bytes"`
}

// Load reads a YAML tuning file and returns the total size plus a controller
// config with the file's overrides applied.
func Load(path string) (uint64, *adaptive.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("simconfig: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML tuning document.
func Parse(data []byte) (uint64, *adaptive.Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, nil, fmt.Errorf("simconfig: %w", err)
	}

	cfg := &adaptive.Config{
		FragmentationThreshold: f.FragmentationThreshold,
		PoolCreationThreshold:  f.PoolCreationThreshold,
		AdaptationInterval:     f.AdaptationInterval,
		HistoryCap:             f.HistoryCap,
		PoolSlotCount:          f.PoolSlotCount,
		PoolPruneUtilization:   f.PoolPruneUtilization,
		HotspotRegionBytes:     f.HotspotRegionBytes,
	}

	if f.Strategy != "" {
		s, err := ParseStrategy(f.Strategy)
		if err != nil {
			return 0, nil, err
		}
		cfg.InitialStrategy = s
	}

	return f.TotalSize, cfg, nil
}

// ParseStrategy maps a strategy name to its alloc.Strategy value.
func ParseStrategy(name string) (alloc.Strategy, error) {
	switch name {
	case "first-fit", "first":
		return alloc.FirstFit, nil
	case "best-fit", "best":
		return alloc.BestFit, nil
	case "worst-fit", "worst":
		return alloc.WorstFit, nil
	default:
		return 0, fmt.Errorf("simconfig: unknown strategy %q", name)
	}
}
