// Package promexport exposes controller statistics as a prometheus
// Collector, so a simulation run can be scraped like any other process.
package promexport

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshuapare/arenakit/arena/adaptive"
)

const namespace = "arenakit"

// Collector implements prometheus.Collector over a single controller.
// Metrics are read at scrape time; the controller is not locked, so callers
// sharing it across goroutines must serialise scrapes with operations.
type Collector struct {
	c *adaptive.Controller

	totalBytes       *prometheus.Desc
	freeBytes        *prometheus.Desc
	largestFreeBytes *prometheus.Desc
	fragmentation    *prometheus.Desc
	hitRate          *prometheus.Desc
	failedAllocs     *prometheus.Desc
	poolUtilization  *prometheus.Desc
	leakedBytes      *prometheus.Desc
	activeLeaks      *prometheus.Desc
}

// NewCollector creates a collector over c.
func NewCollector(c *adaptive.Controller) *Collector {
	return &Collector{
		c: c,
		totalBytes: prometheus.NewDesc(
			namespace+"_total_bytes",
			"Configured arena size in bytes", nil, nil),
		freeBytes: prometheus.NewDesc(
			namespace+"_free_bytes",
			"Total free memory in bytes", nil, nil),
		largestFreeBytes: prometheus.NewDesc(
			namespace+"_largest_free_block_bytes",
			"Size of the largest free block in bytes", nil, nil),
		fragmentation: prometheus.NewDesc(
			namespace+"_fragmentation_ratio",
			"Free-space fragmentation ratio in [0,1]", nil, nil),
		hitRate: prometheus.NewDesc(
			namespace+"_hit_rate",
			"Successful allocations over recorded attempts", nil, nil),
		failedAllocs: prometheus.NewDesc(
			namespace+"_failed_allocations",
			"Recorded failed allocation attempts", nil, nil),
		poolUtilization: prometheus.NewDesc(
			namespace+"_pool_utilization",
			"Per-pool slot utilisation in [0,1]",
			[]string{"block_size"}, nil),
		leakedBytes: prometheus.NewDesc(
			namespace+"_leaked_bytes",
			"Bytes held by outstanding allocations", nil, nil),
		activeLeaks: prometheus.NewDesc(
			namespace+"_active_leaks",
			"Number of outstanding allocations", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (col *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- col.totalBytes
	ch <- col.freeBytes
	ch <- col.largestFreeBytes
	ch <- col.fragmentation
	ch <- col.hitRate
	ch <- col.failedAllocs
	ch <- col.poolUtilization
	ch <- col.leakedBytes
	ch <- col.activeLeaks
}

// Collect implements prometheus.Collector.
func (col *Collector) Collect(ch chan<- prometheus.Metric) {
	m := col.c.PerformanceMetrics()

	ch <- prometheus.MustNewConstMetric(col.totalBytes, prometheus.GaugeValue,
		float64(col.c.TotalMemory()))
	ch <- prometheus.MustNewConstMetric(col.freeBytes, prometheus.GaugeValue,
		float64(col.c.TotalFreeMemory()))
	ch <- prometheus.MustNewConstMetric(col.largestFreeBytes, prometheus.GaugeValue,
		float64(col.c.LargestFreeBlock()))
	ch <- prometheus.MustNewConstMetric(col.fragmentation, prometheus.GaugeValue,
		m.FragmentationRatio)
	ch <- prometheus.MustNewConstMetric(col.hitRate, prometheus.GaugeValue,
		m.HitRate)
	ch <- prometheus.MustNewConstMetric(col.failedAllocs, prometheus.GaugeValue,
		float64(m.FailedAllocations))

	for _, p := range col.c.Pools() {
		ch <- prometheus.MustNewConstMetric(col.poolUtilization, prometheus.GaugeValue,
			p.Utilization(), strconv.FormatUint(p.BlockSize(), 10))
	}

	t := col.c.LeakTracker()
	ch <- prometheus.MustNewConstMetric(col.leakedBytes, prometheus.GaugeValue,
		float64(t.LeakedBytes()))
	ch <- prometheus.MustNewConstMetric(col.activeLeaks, prometheus.GaugeValue,
		float64(t.ActiveCount()))
}
