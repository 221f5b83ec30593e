package nmt

// RegionsTree is the thin reserve/commit/uncommit/release/set_tag
// adapter over a VMATree: it knows the merge policy each operation
// needs (§4.4.2 in the design this follows) and folds every returned
// SummaryDiff into live per-tag counters so a summary report never has
// to walk the tree.
//
// Like VMATree, RegionsTree is not safe for concurrent use on its own;
// internal/tracker.Tracker is what serializes calls into it.
type RegionsTree struct {
	tree     *VMATree
	counters map[Tag]TagDelta
}

// NewRegionsTree returns an empty RegionsTree backed by tree.
func NewRegionsTree(tree *VMATree) *RegionsTree {
	return &RegionsTree{tree: tree, counters: map[Tag]TagDelta{}}
}

// Tree returns the underlying VMATree, for the reporter's detail walk.
func (r *RegionsTree) Tree() *VMATree { return r.tree }

// Reserve claims [addr, addr+size) for tag, recording stack as the
// call site responsible.
func (r *RegionsTree) Reserve(addr, size Position, stack StackIndex, tag Tag) (SummaryDiff, bool) {
	diff := r.tree.RegisterMapping(addr, addr+size, Reserved, RegionData{Stack: stack, Tag: tag}, false)
	return r.fold(diff)
}

// Commit backs [addr, addr+size) with physical memory. The range's tag
// is inherited from its enclosing reservation; stack is updated to the
// commit call site.
func (r *RegionsTree) Commit(addr, size Position, stack StackIndex) (SummaryDiff, bool) {
	diff := r.tree.RegisterMapping(addr, addr+size, Committed, RegionData{Stack: stack}, true)
	return r.fold(diff)
}

// Uncommit drops the physical backing of [addr, addr+size), downgrading
// it back to Reserved while preserving the enclosing reservation's tag.
func (r *RegionsTree) Uncommit(addr, size Position) (SummaryDiff, bool) {
	diff := r.tree.RegisterMapping(addr, addr+size, Reserved, RegionData{}, true)
	return r.fold(diff)
}

// Release frees [addr, addr+size) entirely back to Released.
func (r *RegionsTree) Release(addr, size Position) (SummaryDiff, bool) {
	diff := r.tree.RegisterMapping(addr, addr+size, Released, RegionData{}, false)
	return r.fold(diff)
}

// SetTag rewrites the tag of the reserved and committed parts of
// [addr, addr+size), leaving state, stack handles and everything
// outside the range untouched. It
// walks the range one enclosing reservation at a time, per §4.4.5.
func (r *RegionsTree) SetTag(addr, size Position, tag Tag) (SummaryDiff, bool) {
	total := NewSummaryDiff()
	degraded := false
	end := addr + size

	pos := addr
	for pos < end {
		l, u, lok, uok := r.tree.FindEnclosingRange(pos)
		cur := ReleasedState
		if lok {
			cur = l.Value().Out
		}

		segEnd := end
		if uok && u.Key() < end {
			segEnd = u.Key()
		}

		if cur.State != Released {
			meta := RegionData{Stack: cur.Data.Stack, Tag: tag}
			diff := r.tree.RegisterMapping(pos, segEnd, cur.State, meta, false)
			_, d := r.fold(diff)
			degraded = degraded || d
			for t, delta := range diff.Tags {
				v := total.Tags[t]
				v.Reserve += delta.Reserve
				v.Commit += delta.Commit
				total.Tags[t] = v
			}
		}

		pos = segEnd
	}

	return total, degraded
}

// Snapshot returns a copy of the current per-tag counters.
func (r *RegionsTree) Snapshot() map[Tag]TagDelta {
	out := make(map[Tag]TagDelta, len(r.counters))
	for t, v := range r.counters {
		out[t] = v
	}
	return out
}

// VerifyConsistent recomputes per-tag totals from a fresh in-order
// walk of the tree and reports whether they match the counters folded
// so far. A mismatch means a prior operation's clamp (§7) actually
// lost information rather than just correcting a transient negative
// excursion.
func (r *RegionsTree) VerifyConsistent() bool {
	recomputed := map[Tag]TagDelta{}
	var prevKey Position
	var prevOut IntervalState = ReleasedState
	first := true

	r.tree.VisitInOrder(func(pos Position, c IntervalChange) bool {
		if !first {
			length := int64(pos - prevKey)
			if prevOut.State == Reserved || prevOut.State == Committed {
				v := recomputed[prevOut.Data.Tag]
				v.Reserve += length
				if prevOut.State == Committed {
					v.Commit += length
				}
				recomputed[prevOut.Data.Tag] = v
			}
		}
		first = false
		prevKey = pos
		prevOut = c.Out
		return true
	})

	for tag, v := range r.counters {
		if recomputed[tag] != v {
			return false
		}
	}
	for tag, v := range recomputed {
		if r.counters[tag] != v {
			return false
		}
	}
	return true
}

// fold applies diff to the running counters, clamping any tag that
// would go negative (an invariant violation per §7) at zero and
// reporting that clamp happened so the caller can raise its degraded
// flag.
func (r *RegionsTree) fold(diff SummaryDiff) (SummaryDiff, bool) {
	degraded := false
	for tag, delta := range diff.Tags {
		c := r.counters[tag]
		c.Reserve += delta.Reserve
		c.Commit += delta.Commit
		if c.Reserve < 0 {
			c.Reserve = 0
			degraded = true
		}
		if c.Commit < 0 {
			c.Commit = 0
			degraded = true
		}
		r.counters[tag] = c
	}
	return diff, degraded
}
