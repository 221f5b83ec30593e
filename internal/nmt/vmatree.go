package nmt

import "github.com/nmt-project/nmt/pkg/log"

// TagDelta is the signed change in reserved/committed byte counts for
// one tag produced by a single RegisterMapping call.
type TagDelta struct {
	Reserve int64
	Commit  int64
}

// SummaryDiff is the set of per-tag deltas one RegisterMapping call
// produces. A freshly constructed SummaryDiff has no entries; callers
// fold it into their own running totals.
type SummaryDiff struct {
	Tags map[Tag]TagDelta
}

// NewSummaryDiff returns an empty diff.
func NewSummaryDiff() SummaryDiff {
	return SummaryDiff{Tags: map[Tag]TagDelta{}}
}

func (d SummaryDiff) add(tag Tag, reserve, commit int64) {
	if reserve == 0 && commit == 0 {
		return
	}
	v := d.Tags[tag]
	v.Reserve += reserve
	v.Commit += commit
	d.Tags[tag] = v
}

func applyContribution(diff SummaryDiff, state StateType, tag Tag, length int64, subtract bool) {
	if length <= 0 {
		return
	}
	sign := int64(1)
	if subtract {
		sign = -1
	}
	var reserve, commit int64
	if state == Reserved || state == Committed {
		reserve = sign * length
	}
	if state == Committed {
		commit = sign * length
	}
	diff.add(tag, reserve, commit)
}

// VMATree is the interval map over the tracked address space. Every
// key in the underlying treap marks a position where the state
// changes; the space between two consecutive keys carries the lower
// node's Out state, and the space before the first key and after the
// last is implicitly Released. See state.go for the per-node In/Out
// representation.
//
// VMATree keeps the following invariants at all times:
//
//   - I1: keys are strictly increasing addresses, no two nodes share a key.
//   - I2: for any node N with a predecessor P, N.In == P.Out.
//   - I3: the leftmost node's In is Released and the rightmost node's Out is Released.
//   - I4: a node exists only if IntervalChange.IsNoOp() is false for it.
//   - I5: Released states always carry EmptyRegionData.
//
// VMATree is not safe for concurrent use. The tracker serializes all
// calls to RegisterMapping (and any query run concurrently with one)
// under a single process-wide lock.
type VMATree struct {
	treap *Treap[IntervalChange]

	dropped uint64
}

// NewVMATree returns an empty tree using alloc for node storage.
func NewVMATree(alloc Allocator[IntervalChange], seed uint64) *VMATree {
	return &VMATree{treap: New[IntervalChange](alloc, seed)}
}

// DroppedChanges returns the number of RegisterMapping calls that were
// abandoned because the node allocator was exhausted.
func (t *VMATree) DroppedChanges() uint64 { return t.dropped }

// VisitInOrder calls f for every recorded state-change node, in
// increasing address order.
func (t *VMATree) VisitInOrder(f func(pos Position, c IntervalChange) bool) {
	t.treap.VisitInOrder(f)
}

// VisitRangeInOrder calls f for every recorded state-change node with
// key in [from, to).
func (t *VMATree) VisitRangeInOrder(from, to Position, f func(pos Position, c IntervalChange) bool) {
	t.treap.VisitRangeInOrder(from, to, f)
}

// FindEnclosingRange returns the state-change nodes bracketing pos:
// the greatest node with key <= pos and the smallest with key > pos.
func (t *VMATree) FindEnclosingRange(pos Position) (l, u *Node[IntervalChange], lok, uok bool) {
	ln, lok := t.treap.FindLE(pos)
	un, uok := t.treap.FindGT(pos)
	return ln, un, lok, uok
}

// StateAt returns the state in effect at pos.
func (t *VMATree) StateAt(pos Position) IntervalState {
	l, ok := t.treap.FindLE(pos)
	if !ok {
		return ReleasedState
	}
	return l.Value().Out
}

// Len returns the number of state-change nodes currently recorded.
func (t *VMATree) Len() int { return t.treap.Len() }

// RegisterMapping is the single mutating entry point of the tree. It
// records that [a, b) has become targetState with the given metadata,
// and returns the SummaryDiff the change produces.
//
// meta.Tag is ignored (and the enclosing range's existing tag is kept
// instead) when useTagInPlace is true; this is how Commit/Uncommit
// preserve the tag of the reservation they operate within while still
// being free to change (or clear) the recorded stack handle. When
// targetState is Released, metadata is always forced to the sentinel
// regardless of what was passed in or of useTagInPlace, per invariant
// I5.
//
// a == b is a no-op. a > b is a caller error; it is logged and treated
// as a no-op rather than panicking, since a recording call must never
// be allowed to crash the process it is instrumenting.
func (t *VMATree) RegisterMapping(a, b Position, targetState StateType, meta RegionData, useTagInPlace bool) SummaryDiff {
	diff := NewSummaryDiff()
	if a == b {
		return diff
	}
	if a > b {
		log.Warnf("nmt: register_mapping called with A=%d > B=%d, ignoring", a, b)
		return diff
	}
	if targetState == Released {
		meta = EmptyRegionData
	}

	L, foundL := t.treap.FindLE(a)
	var ambientAtA IntervalState
	if foundL {
		ambientAtA = L.Value().Out
	} else {
		ambientAtA = ReleasedState
	}

	resolvedMeta := meta
	if useTagInPlace && targetState != Released {
		resolvedMeta.Tag = ambientAtA.Data.Tag
	}
	targetIS := IntervalState{State: targetState, Data: resolvedMeta}

	// --- Step A: plan the node at position A. ---
	aIsExisting := foundL && L.Key() == a
	var stAIn IntervalState
	switch {
	case !foundL:
		stAIn = ReleasedState
	case aIsExisting:
		stAIn = L.Value().In
	default:
		stAIn = ambientAtA
	}
	stA := IntervalChange{In: stAIn, Out: targetIS}
	aNoOp := stA.IsNoOp()
	removeAExisting := aNoOp && aIsExisting
	overwriteAExisting := !aNoOp && aIsExisting
	needNewAAlloc := !aNoOp && !aIsExisting

	// --- Step B: sweep (A, B], planning removals and the node at B. ---
	type segment struct {
		from, to Position
		old      IntervalState
	}
	var segs []segment
	var toRemove []Position

	segStart := a
	ambient := ambientAtA
	var bNode *Node[IntervalChange]
	bFound := false

	t.treap.visitRangeInclusiveHi(a, b, func(n *Node[IntervalChange]) bool {
		key := n.Key()
		if key < b {
			segs = append(segs, segment{segStart, key, ambient})
			toRemove = append(toRemove, key)
			ambient = n.Value().Out
			segStart = key
			return true
		}
		bFound = true
		bNode = n
		segs = append(segs, segment{segStart, key, ambient})
		return false
	})

	var stBOut IntervalState
	if bFound {
		stBOut = bNode.Value().Out
	} else {
		segs = append(segs, segment{segStart, b, ambient})
		if succ, ok := t.treap.FindGT(b); ok {
			stBOut = succ.Value().In
		} else {
			stBOut = ReleasedState
		}
	}
	stB := IntervalChange{In: targetIS, Out: stBOut}
	bNoOp := stB.IsNoOp()
	removeBExisting := bNoOp && bFound
	overwriteBExisting := !bNoOp && bFound
	needNewBAlloc := !bNoOp && !bFound

	// --- Pre-reserve any new nodes, all-or-nothing, before mutating. ---
	need := 0
	if needNewAAlloc {
		need++
	}
	if needNewBAlloc {
		need++
	}
	reserved, ok := t.treap.Reserve(need)
	if !ok {
		t.dropped++
		log.Errorf("nmt: node allocator exhausted registering [%d, %d), dropping change", a, b)
		return NewSummaryDiff()
	}
	idx := 0
	var aNode, bNewNode *Node[IntervalChange]
	if needNewAAlloc {
		aNode = reserved[idx]
		idx++
	}
	if needNewBAlloc {
		bNewNode = reserved[idx]
		idx++
	}

	// --- Apply mutations. Tree is only touched from here on. ---
	switch {
	case removeAExisting:
		t.treap.Remove(a)
	case overwriteAExisting:
		t.treap.Overwrite(a, stA)
	case needNewAAlloc:
		t.treap.InsertReserved(a, stA, aNode)
	}

	for _, k := range toRemove {
		t.treap.Remove(k)
	}

	switch {
	case removeBExisting:
		t.treap.Remove(b)
	case overwriteBExisting:
		t.treap.Overwrite(b, stB)
	case needNewBAlloc:
		t.treap.InsertReserved(b, stB, bNewNode)
	}

	// --- Diff accounting: remove every old segment's contribution, add the new one. ---
	for _, s := range segs {
		applyContribution(diff, s.old.State, s.old.Data.Tag, int64(s.to-s.from), true)
	}
	applyContribution(diff, targetState, resolvedMeta.Tag, int64(b-a), false)

	return diff
}
