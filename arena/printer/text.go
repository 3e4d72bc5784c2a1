package printer

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/joshuapare/arenakit/arena/adaptive"
)

const rule = "--------------------------------------------------"

func (p *Printer) printText(c *adaptive.Controller) error {
	if p.opts.ShowBlocks {
		if err := p.textMemoryMap(c); err != nil {
			return err
		}
	}
	if err := p.textMetrics(c); err != nil {
		return err
	}
	if p.opts.ShowPools {
		if err := p.textPools(c); err != nil {
			return err
		}
	}
	if p.opts.ShowParameters {
		if err := p.textParameters(c); err != nil {
			return err
		}
	}
	if p.opts.ShowLeaks {
		if err := p.textLeaks(c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) textMemoryMap(c *adaptive.Controller) error {
	fmt.Fprintf(p.w, "\nMemory Map:\n%s\n", rule)
	for _, b := range c.Blocks() {
		status := "Allocated"
		if b.Free {
			status = "Free"
		}
		fmt.Fprintf(p.w, "Address: %8d | Size: %8d | Status: %s\n", b.Addr, b.Size, status)
	}
	fmt.Fprintf(p.w, "%s\n", rule)
	fmt.Fprintf(p.w, "Total Memory: %s\n", humanize.IBytes(c.TotalMemory()))
	fmt.Fprintf(p.w, "Free Memory: %s\n", humanize.IBytes(c.TotalFreeMemory()))
	fmt.Fprintf(p.w, "Largest Free Block: %s\n", humanize.IBytes(c.LargestFreeBlock()))
	fmt.Fprintf(p.w, "Fragmentation Ratio: %.2f%%\n", c.FragmentationRatio()*100)
	return nil
}

func (p *Printer) textMetrics(c *adaptive.Controller) error {
	m := c.PerformanceMetrics()
	fmt.Fprintf(p.w, "\nPerformance Metrics:\n")
	fmt.Fprintf(p.w, "  Strategy: %s\n", c.Strategy())
	fmt.Fprintf(p.w, "  Fragmentation Ratio: %.2f%%\n", m.FragmentationRatio*100)
	fmt.Fprintf(p.w, "  Average Allocation Time: %.2fµs\n", m.AverageAllocationTime)
	fmt.Fprintf(p.w, "  Hit Rate: %.2f%%\n", m.HitRate*100)
	fmt.Fprintf(p.w, "  Failed Allocations: %s\n", humanize.Comma(int64(m.FailedAllocations)))
	return nil
}

func (p *Printer) textPools(c *adaptive.Controller) error {
	pools := c.Pools()
	fmt.Fprintf(p.w, "\nMemory Pools:\n")
	if len(pools) == 0 {
		fmt.Fprintf(p.w, "  (none)\n")
		return nil
	}
	for _, pl := range pools {
		fmt.Fprintf(p.w, "  Size: %s  Utilization: %.1f%%  Slots: %d/%d\n",
			humanize.IBytes(pl.BlockSize()), pl.Utilization()*100,
			pl.UsedSlots(), pl.TotalSlots())
	}
	return nil
}

func (p *Printer) textParameters(c *adaptive.Controller) error {
	params := c.Params()
	fmt.Fprintf(p.w, "\nAdaptive Parameters:\n")
	fmt.Fprintf(p.w, "  Fragmentation Threshold: %.1f%%\n", params.FragmentationThreshold*100)
	fmt.Fprintf(p.w, "  Pool Creation Threshold: %.0f allocations\n", params.PoolCreationThreshold)
	fmt.Fprintf(p.w, "  Adaptation Interval: %d operations\n", params.AdaptationInterval)
	return nil
}

func (p *Printer) textLeaks(c *adaptive.Controller) error {
	t := c.LeakTracker()
	fmt.Fprintf(p.w, "\nLeak Report:\n%s\n", rule)
	if !t.HasLeaks() {
		fmt.Fprintf(p.w, "No leaks detected.\n")
		return nil
	}
	for _, e := range t.Active() {
		site := formatSite(e.Site.File, e.Site.Line)
		fmt.Fprintf(p.w, "Address: %8d | Size: %8s | Site: %s\n",
			e.Addr, humanize.IBytes(e.Size), site)
	}
	fmt.Fprintf(p.w, "%s\n", rule)
	fmt.Fprintf(p.w, "Leaked: %s across %d allocations\n",
		humanize.IBytes(t.LeakedBytes()), t.ActiveCount())
	return nil
}

func formatSite(file string, line int) string {
	if file == "" {
		return "(unknown)"
	}
	// Trim to the last path segment the way stack traces usually print.
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}
