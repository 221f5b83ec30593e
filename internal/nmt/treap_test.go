package nmt

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreapUpsertFindRemove(t *testing.T) {
	tr := New[int](NewPoolAllocator[int](), 1)

	ok := tr.Upsert(10, 100)
	require.True(t, ok)
	ok = tr.Upsert(20, 200)
	require.True(t, ok)
	ok = tr.Upsert(10, 101)
	require.True(t, ok)

	v, found := tr.Find(10)
	require.True(t, found)
	assert.Equal(t, 101, v)

	v, found = tr.Find(20)
	require.True(t, found)
	assert.Equal(t, 200, v)

	_, found = tr.Find(30)
	assert.False(t, found)

	removed := tr.Remove(10)
	assert.True(t, removed)
	_, found = tr.Find(10)
	assert.False(t, found)

	removed = tr.Remove(10)
	assert.False(t, removed)
}

func TestTreapFindLEAndGT(t *testing.T) {
	tr := New[string](NewPoolAllocator[string](), 7)
	for _, k := range []Position{10, 20, 30, 40} {
		require.True(t, tr.Upsert(k, "v"))
	}

	n, ok := tr.FindLE(25)
	require.True(t, ok)
	assert.EqualValues(t, 20, n.Key())

	n, ok = tr.FindLE(10)
	require.True(t, ok)
	assert.EqualValues(t, 10, n.Key())

	_, ok = tr.FindLE(5)
	assert.False(t, ok)

	n, ok = tr.FindGT(25)
	require.True(t, ok)
	assert.EqualValues(t, 30, n.Key())

	_, ok = tr.FindGT(40)
	assert.False(t, ok)
}

func TestTreapVisitRangeInOrder(t *testing.T) {
	tr := New[int](NewPoolAllocator[int](), 3)
	for i := Position(0); i < 10; i++ {
		require.True(t, tr.Upsert(i*10, int(i)))
	}

	var keys []Position
	tr.VisitRangeInOrder(20, 70, func(k Position, v int) bool {
		keys = append(keys, k)
		return true
	})
	assert.Equal(t, []Position{20, 30, 40, 50, 60}, keys)
}

func TestTreapVisitInOrderStopsEarly(t *testing.T) {
	tr := New[int](NewPoolAllocator[int](), 9)
	for i := Position(0); i < 5; i++ {
		require.True(t, tr.Upsert(i, 0))
	}
	count := 0
	tr.VisitInOrder(func(Position, int) bool {
		count++
		return count < 2
	})
	assert.Equal(t, 2, count)
}

func TestTreapOrderingUnderRandomOps(t *testing.T) {
	tr := New[int](NewPoolAllocator[int](), 42)
	ref := map[Position]int{}

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		k := Position(r.Intn(200))
		if r.Intn(3) == 0 {
			tr.Remove(k)
			delete(ref, k)
		} else {
			v := r.Int()
			require.True(t, tr.Upsert(k, v))
			ref[k] = v
		}
	}

	var gotKeys []Position
	got := map[Position]int{}
	tr.VisitInOrder(func(k Position, v int) bool {
		gotKeys = append(gotKeys, k)
		got[k] = v
		return true
	})

	assert.True(t, sort.SliceIsSorted(gotKeys, func(i, j int) bool { return gotKeys[i] < gotKeys[j] }))
	assert.Equal(t, ref, got)
}

func TestCappedAllocatorFailsAtomically(t *testing.T) {
	alloc := NewCappedAllocator[int](NewPoolAllocator[int](), 1)
	tr := New[int](alloc, 1)

	require.True(t, tr.Upsert(1, 1))
	ok := tr.Upsert(2, 2)
	assert.False(t, ok)
	_, found := tr.Find(2)
	assert.False(t, found)
}

func TestTreapReserveAllOrNothing(t *testing.T) {
	alloc := NewCappedAllocator[int](NewPoolAllocator[int](), 1)
	tr := New[int](alloc, 1)

	nodes, ok := tr.Reserve(2)
	assert.False(t, ok)
	assert.Nil(t, nodes)

	nodes, ok = tr.Reserve(1)
	require.True(t, ok)
	require.Len(t, nodes, 1)
	tr.Release(nodes...)
}
