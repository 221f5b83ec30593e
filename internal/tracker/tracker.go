// Package tracker wires the nmt interval-map core into a single
// process-wide instance: one lock serializing every mutation, one set
// of Prometheus gauges mirroring live totals, one scheduler driving
// periodic snapshots and self-checks.
package tracker

import (
	"sync"

	"github.com/nmt-project/nmt/internal/nmt"
	"github.com/nmt-project/nmt/pkg/log"
)

// Tracker is the façade the rest of a host runtime calls into. All of
// its recording methods are safe for concurrent use; they serialize on
// a single mutex, the "NMT lock", exactly as the design calls for.
type Tracker struct {
	mu sync.Mutex

	regions  *nmt.RegionsTree
	stacks   *nmt.CallStackStorage
	tags     *nmt.TagNameTable
	detailed bool

	degraded     bool
	lastDropped  uint64
	metrics      *Metrics
	symbolCache  *SymbolCache
}

// Option configures a Tracker at construction time.
type Option func(*Tracker)

// WithMetrics attaches a Metrics sink that mirrors every recording
// call into Prometheus gauges/counters.
func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// New returns a process-wide tracker. detailed toggles whether call
// stacks are captured and deduplicated (true) or every recording call
// is attributed the sentinel stack handle (false, summary-only mode).
func New(detailed bool, opts ...Option) *Tracker {
	tree := nmt.NewVMATree(nmt.NewPoolAllocator[nmt.IntervalChange](), 0)
	t := &Tracker{
		regions:  nmt.NewRegionsTree(tree),
		stacks:   nmt.NewCallStackStorage(detailed),
		tags:     nmt.NewTagNameTable(),
		detailed: detailed,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.symbolCache = NewSymbolCache(t.stacks, 4096)
	return t
}

// Detailed reports whether this tracker captures real call stacks.
func (t *Tracker) Detailed() bool { return t.detailed }

// Tags exposes the tag-name table, for the reporter and the HTTP layer.
func (t *Tracker) Tags() *nmt.TagNameTable { return t.tags }

// Stacks exposes the call-stack storage, for the reporter's detail view.
func (t *Tracker) Stacks() *nmt.CallStackStorage { return t.stacks }

// Symbols exposes the symbolization cache, for the reporter's detail view.
func (t *Tracker) Symbols() *SymbolCache { return t.symbolCache }

// Regions exposes the underlying RegionsTree for read-only callers
// (snapshot, tree walk). The tree is not safe for concurrent use, so
// callers must hold the NMT lock while using it; reporting paths do so
// through WithLock.
func (t *Tracker) Regions() *nmt.RegionsTree { return t.regions }

// WithLock runs f while holding the NMT lock, for callers (the
// reporter) that need a consistent view across multiple reads.
func (t *Tracker) WithLock(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f()
}

// Reserve claims [addr, addr+size) under tagName, attributing it to
// the caller's stack.
func (t *Tracker) Reserve(addr, size uintptr, tagName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stack := t.stacks.Push(nmt.CaptureStack(1))
	tag := t.tags.MakeTag(tagName)
	diff, degraded := t.regions.Reserve(nmt.Position(addr), nmt.Position(size), stack, tag)
	t.finish(diff, degraded)
}

// Commit backs [addr, addr+size) with physical memory, inheriting its
// tag from the enclosing reservation.
func (t *Tracker) Commit(addr, size uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stack := t.stacks.Push(nmt.CaptureStack(1))
	diff, degraded := t.regions.Commit(nmt.Position(addr), nmt.Position(size), stack)
	t.finish(diff, degraded)
}

// Uncommit drops the physical backing of [addr, addr+size).
func (t *Tracker) Uncommit(addr, size uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()

	diff, degraded := t.regions.Uncommit(nmt.Position(addr), nmt.Position(size))
	t.finish(diff, degraded)
}

// Release frees [addr, addr+size) entirely.
func (t *Tracker) Release(addr, size uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()

	diff, degraded := t.regions.Release(nmt.Position(addr), nmt.Position(size))
	t.finish(diff, degraded)
}

// SetTag rewrites the tag of the reserved and committed parts of
// [addr, addr+size).
func (t *Tracker) SetTag(addr, size uintptr, tagName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tag := t.tags.MakeTag(tagName)
	diff, degraded := t.regions.SetTag(nmt.Position(addr), nmt.Position(size), tag)
	t.finish(diff, degraded)
}

// Snapshot returns a copy of the current per-tag reserved/committed
// totals. Must be called without already holding the NMT lock.
func (t *Tracker) Snapshot() map[nmt.Tag]nmt.TagDelta {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.regions.Snapshot()
}

// Status returns a point-in-time summary suitable for /healthz.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		OK:      !t.degraded,
		Dropped: t.regions.Tree().DroppedChanges(),
		Tags:    t.tags.Len(),
		Nodes:   t.regions.Tree().Len(),
	}
}

// finish must be called with the NMT lock held. It folds bookkeeping
// common to every recording call: metrics refresh and degraded-flag
// tracking (§7's invariant-violation handling).
func (t *Tracker) finish(diff nmt.SummaryDiff, degraded bool) {
	if degraded && !t.degraded {
		log.Errorf("nmt: counter went negative, flagging tracker as degraded")
	}
	t.degraded = t.degraded || degraded

	if t.metrics == nil {
		return
	}
	dropped := t.regions.Tree().DroppedChanges()
	if dropped > t.lastDropped {
		t.metrics.addDropped(dropped - t.lastDropped)
		t.lastDropped = dropped
	}
	t.metrics.refresh(t.regions.Snapshot(), t.tagName)
	t.metrics.setDegraded(t.degraded)
}

func (t *Tracker) tagName(tag nmt.Tag) string {
	name, ok := t.tags.Get(tag)
	if !ok {
		return "unknown"
	}
	return name
}

// selfCheck recomputes per-tag totals from a fresh tree walk and
// clears the degraded flag if they match the folded counters exactly,
// per the scheduler's periodic consistency check.
func (t *Tracker) selfCheck() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.degraded {
		return
	}
	if t.regions.VerifyConsistent() {
		t.degraded = false
		log.Infof("nmt: degraded flag cleared, counters verified consistent with tree")
		if t.metrics != nil {
			t.metrics.setDegraded(false)
		}
	}
}
