// Package nmt implements the core interval-map algorithm that tracks
// reserved, committed and released ranges of a virtual address space.
//
// Nothing in this package takes a lock: callers (internal/tracker) are
// expected to serialize all mutation through one process-wide lock, the
// same way the teacher's memorystore level serializes writers above the
// buffer layer.
package nmt

// Position is an address in the tracked virtual address space. It is
// compared as an ordinary unsigned integer; the "comparator" the design
// talks about is nothing more than Go's built-in <, <=, == on uint64.
type Position = uint64

func less(a, b Position) bool    { return a < b }
func lessEq(a, b Position) bool  { return a <= b }
func greater(a, b Position) bool { return a > b }
