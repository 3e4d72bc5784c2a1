// Package profile records allocation telemetry and derives the patterns,
// predictions, and performance metrics that drive the adaptive controller.
//
// The profiler is purely observational: it keeps a bounded FIFO history of
// allocation records plus monotone per-size frequency counters and completed
// lifetime samples. Deallocations for addresses it never saw are silently
// ignored, and failed allocations are folded into the history as inactive
// records so hit rate and failure counts fall out of the same data.
package profile
