package cadence

import "fmt"

// Kind tags which registry table an ID belongs to.
type Kind uint8

const (
	KindSpring Kind = iota + 1
	KindKeyframe
	KindTimeline
	KindTickCallback
)

func (k Kind) String() string {
	switch k {
	case KindSpring:
		return "spring"
	case KindKeyframe:
		return "keyframe"
	case KindTimeline:
		return "timeline"
	case KindTickCallback:
		return "tick-callback"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// key is a generational index: a slot plus the generation that slot had when
// the key was issued. Generation 0 is never issued, so the zero key is invalid.
type key struct {
	index uint32
	gen   uint32
}

func (k key) raw() uint64 { return uint64(k.gen)<<32 | uint64(k.index) }

func keyFromRaw(raw uint64) key { return key{index: uint32(raw), gen: uint32(raw >> 32)} }

// ID is implemented by SpringId, KeyframeId, TimelineId and TickCallbackId.
// The set is closed; the scheduler switches on the concrete type.
type ID interface {
	Kind() Kind
	// Raw packs the id into 64 bits for lock-free storage.
	Raw() uint64
	IsZero() bool
	key() key
}

// SpringId identifies a registered spring.
type SpringId struct{ k key }

// KeyframeId identifies a registered keyframe track (single or multi).
type KeyframeId struct{ k key }

// TimelineId identifies a registered timeline.
type TimelineId struct{ k key }

// TickCallbackId identifies a registered tick callback.
type TickCallbackId struct{ k key }

func (id SpringId) Kind() Kind       { return KindSpring }
func (id KeyframeId) Kind() Kind     { return KindKeyframe }
func (id TimelineId) Kind() Kind     { return KindTimeline }
func (id TickCallbackId) Kind() Kind { return KindTickCallback }

func (id SpringId) Raw() uint64       { return id.k.raw() }
func (id KeyframeId) Raw() uint64     { return id.k.raw() }
func (id TimelineId) Raw() uint64     { return id.k.raw() }
func (id TickCallbackId) Raw() uint64 { return id.k.raw() }

func (id SpringId) IsZero() bool       { return id.k.gen == 0 }
func (id KeyframeId) IsZero() bool     { return id.k.gen == 0 }
func (id TimelineId) IsZero() bool     { return id.k.gen == 0 }
func (id TickCallbackId) IsZero() bool { return id.k.gen == 0 }

func (id SpringId) key() key       { return id.k }
func (id KeyframeId) key() key     { return id.k }
func (id TimelineId) key() key     { return id.k }
func (id TickCallbackId) key() key { return id.k }

func (id SpringId) String() string   { return fmt.Sprintf("spring(%d#%d)", id.k.index, id.k.gen) }
func (id KeyframeId) String() string { return fmt.Sprintf("keyframe(%d#%d)", id.k.index, id.k.gen) }
func (id TimelineId) String() string { return fmt.Sprintf("timeline(%d#%d)", id.k.index, id.k.gen) }
func (id TickCallbackId) String() string {
	return fmt.Sprintf("tick-callback(%d#%d)", id.k.index, id.k.gen)
}

// SpringIdFromRaw rebuilds an id produced by SpringId.Raw.
func SpringIdFromRaw(raw uint64) SpringId { return SpringId{keyFromRaw(raw)} }

// KeyframeIdFromRaw rebuilds an id produced by KeyframeId.Raw.
func KeyframeIdFromRaw(raw uint64) KeyframeId { return KeyframeId{keyFromRaw(raw)} }

// TimelineIdFromRaw rebuilds an id produced by TimelineId.Raw.
func TimelineIdFromRaw(raw uint64) TimelineId { return TimelineId{keyFromRaw(raw)} }

// TickCallbackIdFromRaw rebuilds an id produced by TickCallbackId.Raw.
func TickCallbackIdFromRaw(raw uint64) TickCallbackId { return TickCallbackId{keyFromRaw(raw)} }
