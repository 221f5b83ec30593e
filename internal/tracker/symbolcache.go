package tracker

import (
	"runtime"
	"sync"

	"github.com/nmt-project/nmt/internal/nmt"
)

// frameEntry is one symbolized stack held by SymbolCache, linked into
// the LRU list through next/prev.
type frameEntry struct {
	key      nmt.StackIndex
	frames   []runtime.Frame
	computed bool
	pending  int

	next, prev *frameEntry
}

// SymbolCache memoizes the comparatively expensive resolution of a
// stack handle into runtime.Frame values, so the detail report does
// not re-walk the same PCs on every request. Stack handles are
// immortal once CallStackStorage issues them, so entries never expire
// on their own; SymbolCache only needs to bound how many resolved
// stacks it keeps around, which it does with a plain LRU of the most
// recently requested handles. Concurrent requests for the same
// not-yet-resolved handle block on the first caller's resolution
// instead of resolving it twice, the same compute-on-miss discipline
// the teacher's pkg/lrucache uses for its query cache, narrowed here
// to the one key/value shape this tracker actually needs.
type SymbolCache struct {
	stacks *nmt.CallStackStorage

	mu         sync.Mutex
	cond       *sync.Cond
	maxEntries int
	entries    map[nmt.StackIndex]*frameEntry
	head, tail *frameEntry
}

// NewSymbolCache returns a cache holding at most maxEntries resolved
// stacks, backed by stacks for resolution on miss.
func NewSymbolCache(stacks *nmt.CallStackStorage, maxEntries int) *SymbolCache {
	c := &SymbolCache{
		stacks:     stacks,
		maxEntries: maxEntries,
		entries:    map[nmt.StackIndex]*frameEntry{},
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Frames returns the symbolized frames for idx, resolving and caching
// them on first use.
func (s *SymbolCache) Frames(idx nmt.StackIndex) []runtime.Frame {
	s.mu.Lock()
	if e, ok := s.entries[idx]; ok {
		for !e.computed {
			e.pending++
			s.cond.Wait()
			e.pending--
		}
		if e != s.head {
			s.unlink(e)
			s.insertFront(e)
		}
		frames := e.frames
		s.mu.Unlock()
		return frames
	}

	e := &frameEntry{key: idx, pending: 1}
	s.entries[idx] = e
	s.mu.Unlock()

	stack, ok := s.stacks.Get(idx)
	var frames []runtime.Frame
	if ok {
		frames = stack.Frames()
	}

	s.mu.Lock()
	e.frames = frames
	e.computed = true
	e.pending--
	if e.pending > 0 {
		s.cond.Broadcast()
	}
	s.insertFront(e)
	s.evict()
	s.mu.Unlock()
	return frames
}

// Len reports the number of resolved stacks currently cached.
func (s *SymbolCache) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *SymbolCache) insertFront(e *frameEntry) {
	e.next = s.head
	e.prev = nil
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *SymbolCache) unlink(e *frameEntry) {
	if e == s.head {
		s.head = e.next
	}
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if e == s.tail {
		s.tail = e.prev
	}
}

// evict drops least-recently-used entries until the cache is back
// within maxEntries, skipping any entry a concurrent caller is still
// waiting on.
func (s *SymbolCache) evict() {
	candidate := s.tail
	for len(s.entries) > s.maxEntries && candidate != nil {
		prev := candidate.prev
		if candidate.pending == 0 {
			s.unlink(candidate)
			delete(s.entries, candidate.key)
		}
		candidate = prev
	}
}
