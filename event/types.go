// Package event implements the per-event translation pipeline: a
// modifier-indexed slot table that turns a decoded HID report identifier
// and value into a routed character, a modifier-mask update, or a target
// switch. One Event exists per declared event identifier.
package event

// Kind discriminates the Action a translation slot holds.
type Kind int

const (
	KindNone Kind = iota
	KindPress
	KindToggle
	KindSet
	KindTarget
	KindPush
)

// Action is the behavior bound to a single slot of a Mode's translation
// table. Arg holds the ASCII byte for Press, the modifier bit for
// Toggle/Set/Push, or the client index for Target.
type Action struct {
	Kind Kind
	Arg  uint8
}

// slotCount is the fixed size of a Mode's translation table: the maximum
// number of distinct HID report identifiers a single event recognizes.
const slotCount = 128

// Rules describes how to decode an event's identifier and value out of a
// raw HID report buffer, and the threshold values that drive Action
// semantics.
type Rules struct {
	BytesID    []int // required, 1-3 byte offsets
	BytesValue []int // optional, 1-3 byte offsets

	ValueUp     *uint64
	ValueDown   *uint64
	ValueRepeat *uint64
	ValueCenter *uint64
}

// Mode is a modifier-mask-keyed translation table: 128 Actions, indexed by
// decoded report identifier, selected when the controller's current
// modifier byte equals Mask.
type Mode struct {
	Translation [slotCount]Action
	Mask        uint8
}

func newModeFrom(base *Mode) Mode {
	var m Mode
	if base != nil {
		m.Translation = base.Translation
	}
	return m
}

// Event couples a decoded identifier to its Rules and the set of Modes
// (plus an optional BaseMode) that translate its reports.
type Event struct {
	Identifier uint64
	Rules      Rules
	Modes      []Mode
	BaseMode   *Mode
}
