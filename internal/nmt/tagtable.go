package nmt

import (
	"sync"

	"github.com/nmt-project/nmt/pkg/log"
)

// maxTag bounds the tag space; Tag is a uint16, tag 0 is reserved for
// NoTag, and MakeTag assigns tags 1 through maxTag-1 only.
const maxTag = Tag(^uint16(0))

// TagNameTable is an append-only, bidirectional name<->tag mapping.
// Once assigned, a tag's name never changes and never moves, so a Tag
// value handed out by MakeTag stays valid for the table's lifetime.
//
// It guards its own state with a mutex because, unlike the VMA tree
// and call-stack storage, name lookups happen off the hot recording
// path too (e.g. from the reporter composing a detail report while a
// recording goroutine is mid-mutation would otherwise race).
type TagNameTable struct {
	mu       sync.Mutex
	names    []string
	byName   map[string]Tag
	overflow bool
}

// NewTagNameTable returns an empty table. Tag 0 is pre-reserved for
// NoTag/"untagged".
func NewTagNameTable() *TagNameTable {
	return &TagNameTable{
		names:  []string{"untagged"},
		byName: map[string]Tag{"untagged": NoTag},
	}
}

// Get returns the name registered for tag, if any.
func (t *TagNameTable) Get(tag Tag) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(tag) >= len(t.names) {
		return "", false
	}
	return t.names[tag], true
}

// GetByName returns the tag registered for name, if any.
func (t *TagNameTable) GetByName(name string) (Tag, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tag, ok := t.byName[name]
	return tag, ok
}

// MakeTag returns the tag for name, assigning a new one if name has
// not been seen before. It returns NoTag if the tag namespace has been
// exhausted; the first such overflow is logged once, not on every call,
// to avoid flooding the log when a caller feeds it unbounded names.
func (t *TagNameTable) MakeTag(name string) Tag {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tag, ok := t.byName[name]; ok {
		return tag
	}

	if Tag(len(t.names)) >= maxTag {
		if !t.overflow {
			t.overflow = true
			log.Errorf("nmt: tag namespace exhausted, dropping tag for %q", name)
		}
		return NoTag
	}

	tag := Tag(len(t.names))
	t.names = append(t.names, name)
	t.byName[name] = tag
	return tag
}

// Len returns the number of tags registered, including NoTag.
func (t *TagNameTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.names)
}
