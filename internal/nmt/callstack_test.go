package nmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallStackStorageSummaryOnly(t *testing.T) {
	s := NewCallStackStorage(false)

	idx1 := s.Push(CaptureStack(0))
	idx2 := s.Push(CaptureStack(0))

	assert.Equal(t, EmptyStackIndex, idx1)
	assert.Equal(t, EmptyStackIndex, idx2)
	assert.Equal(t, 0, s.Len())

	_, ok := s.Get(idx1)
	assert.False(t, ok)
}

func TestCallStackStorageDedup(t *testing.T) {
	s := NewCallStackStorage(true)

	a := Stack{1, 2, 3}
	b := Stack{1, 2, 3}
	c := Stack{4, 5, 6}

	ia := s.Push(a)
	ib := s.Push(b)
	ic := s.Push(c)

	assert.Equal(t, ia, ib)
	assert.NotEqual(t, ia, ic)
	assert.Equal(t, 2, s.Len())

	got, ok := s.Get(ia)
	require.True(t, ok)
	assert.Equal(t, a, got)
}

func TestCallStackStorageGrowsChunksOnCollision(t *testing.T) {
	s := NewCallStackStorage(true)

	pushed := make([]StackIndex, 0, chunkSize+5)
	for i := 0; i < chunkSize+5; i++ {
		st := Stack{uintptr(i + 1)}
		pushed = append(pushed, s.Push(st))
	}

	assert.GreaterOrEqual(t, len(s.chunks), 2)
	assert.Equal(t, chunkSize+5, s.Len())

	for i, idx := range pushed {
		got, ok := s.Get(idx)
		require.True(t, ok)
		assert.Equal(t, Stack{uintptr(i + 1)}, got)
	}
}
