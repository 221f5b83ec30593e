package nmt

import "fmt"

// StateType is the state a range of the address space can be in.
type StateType uint8

const (
	Released StateType = iota
	Reserved
	Committed
)

func (s StateType) String() string {
	switch s {
	case Released:
		return "released"
	case Reserved:
		return "reserved"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("StateType(%d)", uint8(s))
	}
}

// Tag identifies the logical subsystem ("category") that caused a
// mapping. The zero value, NoTag, means "no tag assigned" and is what
// every Released range carries.
type Tag uint16

// NoTag is the sentinel tag value carried by released ranges and by
// stacks recorded before a subsystem claims them.
const NoTag Tag = 0

// StackIndex is the opaque handle CallStackStorage hands back for a
// captured call stack, packed as chunk<<16|slot so it fits in one
// uint32 the way a VMA's metadata word would on the systems this
// design is modelled on. The zero value, EmptyStackIndex, is the
// sentinel "no stack recorded" handle.
type StackIndex uint32

// EmptyStackIndex is the zero handle Push returns in summary-only
// mode. It is not a reserved bit pattern: in detailed mode chunk 0
// slot 0 is an ordinary, storable slot, so code must not treat
// equality with EmptyStackIndex as "no stack" on storage that might be
// detailed. CallStackStorage.Get disambiguates by consulting the
// chunk's filled flag instead.
const EmptyStackIndex StackIndex = 0

func newStackIndex(chunk, slot uint16) StackIndex {
	return StackIndex(uint32(chunk)<<16 | uint32(slot))
}

// Chunk returns the chunk component of the handle.
func (s StackIndex) Chunk() uint16 { return uint16(s >> 16) }

// Slot returns the slot component of the handle.
func (s StackIndex) Slot() uint16 { return uint16(s & 0xFFFF) }

// RegionData is the metadata a VMA tree node carries alongside its
// state: which subsystem owns the range, and which call stack created
// it. Two RegionData values are equal iff both fields match.
type RegionData struct {
	Stack StackIndex
	Tag   Tag
}

// EmptyRegionData is the sentinel metadata released ranges carry.
var EmptyRegionData = RegionData{}

// IntervalState is the state recorded at one side of a tree node: the
// StateType plus the metadata in effect.
type IntervalState struct {
	State StateType
	Data  RegionData
}

// Equal reports whether two interval states describe the same thing,
// i.e. whether a node carrying them as In/Out would be a no-op.
func (s IntervalState) Equal(o IntervalState) bool {
	return s.State == o.State && s.Data == o.Data
}

// ReleasedState is the canonical released, untagged interval state
// that covers everything outside of any recorded range.
var ReleasedState = IntervalState{State: Released, Data: EmptyRegionData}

// IntervalChange is the value stored at a VMA tree node: the state
// immediately to the left of the node's key (In) and immediately to
// the right (Out).
type IntervalChange struct {
	In, Out IntervalState
}

// IsNoOp reports whether this node would carry identical state on
// both sides, meaning it carries no information and can be dropped.
func (c IntervalChange) IsNoOp() bool { return c.In.Equal(c.Out) }
