package nmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRegionsTreeCommitWaves runs the benchmark-scenario shape as three
// distinct commit waves building up a contiguous committed run one
// region at a time, then three distinct uncommit waves tearing it back
// down in reverse, checking the committed total after every wave
// instead of only after a final forced release. Each group is the
// triple of regions (i-1, i, i+1): committing i alone first, then i+1
// (a right-merge), then i-1 (a left-merge) leaves the three regions as
// one committed run; uncommitting in the opposite order mirrors it
// back to fully reserved.
func TestRegionsTreeCommitWaves(t *testing.T) {
	tree := newTestTree()
	regions := NewRegionsTree(tree)
	T := Tag(1)
	const regionSize = Position(4096)
	const n = 16

	regions.Reserve(0, regionSize*n, StackIndex(1), T)

	groupCenters := []Position{1, 5, 9, 13}

	// Wave 1: commit the center of each group in isolation.
	for _, i := range groupCenters {
		regions.Commit(i*regionSize, regionSize, StackIndex(2))
	}
	assertInvariants(t, tree)
	assert.Equal(t, int64(len(groupCenters))*int64(regionSize), regions.Snapshot()[T].Commit)
	for _, i := range groupCenters {
		assert.Equal(t, Committed, tree.StateAt(i*regionSize+1).State)
		assert.Equal(t, Reserved, tree.StateAt((i+1)*regionSize+1).State)
	}

	// Wave 2: commit the right neighbor of each center, right-merging.
	for _, i := range groupCenters {
		regions.Commit((i+1)*regionSize, regionSize, StackIndex(2))
	}
	assertInvariants(t, tree)
	assert.Equal(t, int64(len(groupCenters))*2*int64(regionSize), regions.Snapshot()[T].Commit)
	for _, i := range groupCenters {
		assert.Equal(t, Committed, tree.StateAt(i*regionSize+1).State)
		assert.Equal(t, Committed, tree.StateAt((i+1)*regionSize+1).State)
		assert.Equal(t, Reserved, tree.StateAt((i-1)*regionSize+1).State)
	}

	// Wave 3: commit the left neighbor of each center, left-merging the
	// whole group into one contiguous three-region committed run.
	for _, i := range groupCenters {
		regions.Commit((i-1)*regionSize, regionSize, StackIndex(2))
	}
	assertInvariants(t, tree)
	assert.Equal(t, int64(len(groupCenters))*3*int64(regionSize), regions.Snapshot()[T].Commit)
	for _, i := range groupCenters {
		assert.Equal(t, Committed, tree.StateAt((i-1)*regionSize+1).State)
		assert.Equal(t, Committed, tree.StateAt(i*regionSize+1).State)
		assert.Equal(t, Committed, tree.StateAt((i+1)*regionSize+1).State)
	}

	// Reverse the three commit waves with three uncommit waves, in the
	// opposite order each group was built up in.
	for _, i := range groupCenters {
		regions.Uncommit((i-1)*regionSize, regionSize)
	}
	assertInvariants(t, tree)
	assert.Equal(t, int64(len(groupCenters))*2*int64(regionSize), regions.Snapshot()[T].Commit)

	for _, i := range groupCenters {
		regions.Uncommit((i+1)*regionSize, regionSize)
	}
	assertInvariants(t, tree)
	assert.Equal(t, int64(len(groupCenters))*int64(regionSize), regions.Snapshot()[T].Commit)

	for _, i := range groupCenters {
		regions.Uncommit(i*regionSize, regionSize)
	}
	assertInvariants(t, tree)
	assert.Zero(t, regions.Snapshot()[T].Commit)
	for i := Position(0); i < n; i++ {
		assert.Equal(t, Reserved, tree.StateAt(i*regionSize+1).State)
	}

	regions.Release(0, regionSize*n)

	assertInvariants(t, tree)
	assert.Equal(t, 0, tree.Len())
	snap := regions.Snapshot()
	assert.Zero(t, snap[T].Reserve)
}

func TestRegionsTreeFoldDegradedOnNegativeExcursion(t *testing.T) {
	tree := newTestTree()
	regions := NewRegionsTree(tree)

	regions.counters[Tag(9)] = TagDelta{Reserve: 10, Commit: 0}
	_, degraded := regions.fold(SummaryDiff{Tags: map[Tag]TagDelta{9: {Reserve: -20}}})
	assert.True(t, degraded)
	assert.Zero(t, regions.Snapshot()[9].Reserve)
}

func TestRegionsTreeSetTagOnlyAffectsReservations(t *testing.T) {
	tree := newTestTree()
	regions := NewRegionsTree(tree)
	T1 := Tag(1)

	regions.Reserve(0, 100, StackIndex(1), T1)
	_, degraded := regions.SetTag(50, 200, Tag(2))

	assert.False(t, degraded)
	assert.Equal(t, Tag(2), tree.StateAt(75).Data.Tag)
	assert.Equal(t, Released, tree.StateAt(150).State)
}
