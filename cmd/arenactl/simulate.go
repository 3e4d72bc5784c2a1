package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/arena/adaptive"
	"github.com/joshuapare/arenakit/arena/alloc"
	"github.com/joshuapare/arenakit/arena/leak"
	"github.com/joshuapare/arenakit/arena/printer"
	"github.com/joshuapare/arenakit/internal/simconfig"
)

var (
	simSize     uint64
	simStrategy string
	simConfig   string
	simAdaptive bool
	simSeed     int64
	simOps      int
)

func init() {
	cmd := newSimulateCmd()
	cmd.Flags().Uint64Var(&simSize, "size", 1<<20, "Arena size in bytes")
	cmd.Flags().StringVar(&simStrategy, "strategy", "first-fit", "Initial placement strategy (first-fit, best-fit, worst-fit)")
	cmd.Flags().StringVar(&simConfig, "config", "", "YAML tuning file (replaces --strategy; a nonzero total_size replaces --size)")
	cmd.Flags().BoolVar(&simAdaptive, "adaptive", true, "Enable adaptive mode")
	cmd.Flags().Int64Var(&simSeed, "seed", 42, "Workload random seed")
	cmd.Flags().IntVar(&simOps, "ops", 2000, "Operation count for the mixed workload")
	rootCmd.AddCommand(cmd)
}

func newSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate [scenario]",
		Short: "Run a workload scenario and print allocator state",
		Long: `The simulate command drives the adaptive allocator through a workload
and prints the resulting memory map, metrics, pools, and leaks.

Scenarios:
  basic      a short allocate/deallocate walk
  mixed      a seeded random mixed workload
  hotsize    repeated allocations of one hot size (exercises pool creation)
  leaks      allocations left outstanding for the leak report

Example:
  arenactl simulate basic --size 1024 --strategy best-fit
  arenactl simulate mixed --ops 5000 --json
  arenactl simulate hotsize --config tuning.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario := "mixed"
			if len(args) == 1 {
				scenario = args[0]
			}
			return runSimulate(scenario)
		},
	}
}

func runSimulate(scenario string) error {
	size := simSize
	cfg := &adaptive.Config{Capture: func() leak.Site { return leak.Caller(2) }}

	if simConfig != "" {
		fileSize, fileCfg, err := simconfig.Load(simConfig)
		if err != nil {
			return err
		}
		fileCfg.Capture = cfg.Capture
		cfg = fileCfg
		if fileSize != 0 {
			size = fileSize
		}
	} else {
		s, err := simconfig.ParseStrategy(simStrategy)
		if err != nil {
			return err
		}
		cfg.InitialStrategy = s
	}

	c, err := adaptive.New(size, cfg)
	if err != nil {
		return err
	}
	c.EnableAdaptiveMode(simAdaptive)

	switch scenario {
	case "basic":
		err = runBasic(c)
	case "mixed":
		err = runMixed(c, simOps, simSeed)
	case "hotsize":
		err = runHotSize(c)
	case "leaks":
		err = runLeaks(c)
	default:
		return fmt.Errorf("unknown scenario %q", scenario)
	}
	if err != nil {
		return err
	}

	opts := printer.DefaultOptions()
	opts.ShowLeaks = scenario == "leaks"
	if jsonOut {
		opts.Format = printer.FormatJSON
	}
	if quiet {
		return nil
	}
	return printer.New(os.Stdout, opts).Print(c)
}

// runBasic mirrors the classic demonstration walk: a few allocations, one
// deallocation in the middle, one reuse.
func runBasic(c *adaptive.Controller) error {
	var addrs []uint64
	for _, size := range []uint64{128, 256, 512} {
		addr, err := c.Allocate(size)
		if err != nil {
			return err
		}
		addrs = append(addrs, addr)
		printInfo("allocated %4d bytes at %d\n", size, addr)
	}
	if err := c.Deallocate(addrs[1]); err != nil {
		return err
	}
	printInfo("deallocated address %d\n", addrs[1])
	addr, err := c.Allocate(64)
	if err != nil {
		return err
	}
	printInfo("allocated   64 bytes at %d\n", addr)
	return nil
}

// runMixed drives a seeded random workload of varied sizes with intermittent
// deallocation, the kind of churn the adaptation loop feeds on.
func runMixed(c *adaptive.Controller, ops int, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	sizes := []uint64{16, 32, 64, 128, 256, 512, 1024}

	var live []uint64
	for i := 0; i < ops; i++ {
		if len(live) > 0 && rng.Intn(100) < 40 {
			idx := rng.Intn(len(live))
			// A pool prune may have reclaimed this slot already; addresses
			// are not stable across reclamation, so just drop it.
			if err := c.Deallocate(live[idx]); err != nil && !errors.Is(err, alloc.ErrInvalidAddress) {
				return err
			}
			live = append(live[:idx], live[idx+1:]...)
			continue
		}
		addr, err := c.Allocate(sizes[rng.Intn(len(sizes))])
		if err != nil {
			// The workload may legitimately exhaust the arena; drain and go on.
			for _, a := range live {
				if derr := c.Deallocate(a); derr != nil && !errors.Is(derr, alloc.ErrInvalidAddress) {
					return derr
				}
			}
			live = live[:0]
			continue
		}
		live = append(live, addr)
	}
	for _, a := range live {
		if err := c.Deallocate(a); err != nil && !errors.Is(err, alloc.ErrInvalidAddress) {
			return err
		}
	}
	return nil
}

// runHotSize hammers one size until the profiler recommends a pool for it.
func runHotSize(c *adaptive.Controller) error {
	const hot = 64
	var live []uint64
	for i := 0; i < 300; i++ {
		addr, err := c.Allocate(hot)
		if err != nil {
			return err
		}
		live = append(live, addr)
		if len(live) > 32 {
			if err := c.Deallocate(live[0]); err != nil {
				return err
			}
			live = live[1:]
		}
	}
	for _, a := range live {
		if err := c.Deallocate(a); err != nil {
			return err
		}
	}
	return nil
}

// runLeaks leaves allocations outstanding so the leak report has content.
func runLeaks(c *adaptive.Controller) error {
	for _, size := range []uint64{1024, 2048, 512} {
		if _, err := c.Allocate(size); err != nil {
			return err
		}
	}
	// Only the middle allocation is returned; the other two stay outstanding.
	active := c.LeakTracker().Active()
	if len(active) == 3 {
		if err := c.Deallocate(active[1].Addr); err != nil {
			return err
		}
	}
	return nil
}
