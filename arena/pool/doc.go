// Package pool layers fixed-size-slot pools above the free-list arena.
//
// A pool is one contiguous arena block partitioned into equal-sized slots.
// The manager routes small requests to the pool with the smallest slot size
// that covers them, keeping hot sizes out of the arena's free list entirely.
// Freed slots are reused LIFO, so the most recently released slot is the
// next one handed out.
//
// Pools whose utilisation falls below a floor are marked for reclamation;
// Prune removes marked pools and returns their blocks to the arena.
package pool
