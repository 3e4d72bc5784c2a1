// Package adaptive wires the free-list arena, the pool manager, the
// profiler, and the leak tracker into one allocation engine that tunes
// itself at runtime.
//
// Allocate routes hot sizes through pools before they reach the arena, and
// every adaptation interval the controller reads the profiler's metrics and
// prediction to switch placement strategy, create or prune pools, and adjust
// its own tuning parameters.
//
// The engine is single-threaded cooperative: every public operation runs to
// completion before the caller regains control, and the adaptation step runs
// synchronously inside the allocate call that crosses the interval. Callers
// exposing a Controller to multiple goroutines must serialise every public
// call through one mutex.
package adaptive
