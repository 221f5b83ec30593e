// Package reporter renders a Tracker's live state as the two text
// reports the design calls for: a per-tag summary and a full detail
// map of the tracked address space.
package reporter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nmt-project/nmt/internal/nmt"
	"github.com/nmt-project/nmt/internal/tracker"
)

// Reporter renders reports for t.
type Reporter struct {
	tracker *tracker.Tracker
}

// New returns a Reporter backed by t.
func New(t *tracker.Tracker) *Reporter {
	return &Reporter{tracker: t}
}

// Summary renders one line per tag with non-zero totals:
//
//	<tag_name>: reserved=<R>KB committed=<C>KB
func (r *Reporter) Summary() string {
	var b strings.Builder
	r.tracker.WithLock(func() {
		snap := r.tracker.Regions().Snapshot()
		tags := make([]nmt.Tag, 0, len(snap))
		for tag := range snap {
			tags = append(tags, tag)
		}
		sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

		for _, tag := range tags {
			v := snap[tag]
			if v.Reserve == 0 && v.Commit == 0 {
				continue
			}
			name, ok := r.tracker.Tags().Get(tag)
			if !ok {
				name = "unknown"
			}
			fmt.Fprintf(&b, "%s: reserved=%dKB committed=%dKB\n", name, v.Reserve/1024, v.Commit/1024)
		}
	})
	return b.String()
}

// Detail renders the full virtual-memory map: one block per tracked
// interval, in ascending address order.
//
//	[0x<base> - 0x<end>) <state> <tag_name> <size>KB
//	    <frame 0>
//	    <frame 1>
//	    ...
//
// Because VMATree never stores a no-op node (I4), every interval
// between two consecutive recorded positions already differs from its
// neighbors, so each one is emitted directly with no further merging.
func (r *Reporter) Detail() string {
	var b strings.Builder
	r.tracker.WithLock(func() {
		tree := r.tracker.Regions().Tree()

		var prevKey nmt.Position
		prevOut := nmt.ReleasedState
		first := true

		tree.VisitInOrder(func(pos nmt.Position, c nmt.IntervalChange) bool {
			if !first && prevOut.State != nmt.Released {
				r.writeInterval(&b, prevKey, pos, prevOut)
			}
			first = false
			prevKey = pos
			prevOut = c.Out
			return true
		})
	})
	return b.String()
}

func (r *Reporter) writeInterval(b *strings.Builder, from, to nmt.Position, s nmt.IntervalState) {
	name, ok := r.tracker.Tags().Get(s.Data.Tag)
	if !ok {
		name = "unknown"
	}
	sizeKB := (to - from) / 1024
	fmt.Fprintf(b, "[0x%x - 0x%x) %s %s %dKB\n", from, to, s.State, name, sizeKB)

	for _, f := range r.tracker.Symbols().Frames(s.Data.Stack) {
		fmt.Fprintf(b, "    %s (%s:%d)\n", f.Function, f.File, f.Line)
	}
}
