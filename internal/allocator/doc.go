// Package allocator implements a segregated-fit dynamic storage allocator
// over a single contiguous, monotonically-growable byte arena.
//
// The allocator is the classical four operations — Acquire, Release,
// Resize, ZeroedAcquire — for byte-granularity requests from one logical
// client. All returned payloads are 16-byte aligned. The allocator is
// internally single-threaded and is not reentrant: none of its entry
// points may be called concurrently, and none of them block or yield.
//
// The arena itself is supplied by an Extender (extender.go), an external
// collaborator that only ever grows the arena's high-water mark. This
// package never shrinks, relocates, or compacts the arena.
package allocator
