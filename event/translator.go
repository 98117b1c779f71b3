package event

import "github.com/hostmux/muxd/clog"

var log = clog.New("controller")

// Translate decodes the event's identifier and value out of buf, resolves
// the mode matching *modifiers (or the base mode), looks up the action
// bound to the decoded identifier's slot, and applies it: updating
// *modifiers and *target in place and returning the character to emit, if
// any.
//
// Out-of-range identifiers (id >= 128) are treated as no action rather
// than a panic: see the bounds-on-decoded-id resolution in DESIGN.md.
func (e *Event) Translate(buf []byte, target *uint8, modifiers *uint8, verbose bool) (uint8, bool) {
	id := UnwrapSequence(buf, e.Rules.BytesID)

	mode := e.selectMode(*modifiers)
	if mode == nil {
		return 0, false
	}

	if id >= slotCount {
		if verbose {
			log.LogMode(true)
			log.Debug("event %d: decoded id %d out of range, ignoring", e.Identifier, id)
		}
		return 0, false
	}

	action := mode.Translation[id]
	return e.apply(action, buf, target, modifiers)
}

func (e *Event) selectMode(modifiers uint8) *Mode {
	for i := range e.Modes {
		if e.Modes[i].Mask == modifiers {
			return &e.Modes[i]
		}
	}
	if e.BaseMode != nil {
		return e.BaseMode
	}
	return nil
}

func (e *Event) apply(a Action, buf []byte, target, modifiers *uint8) (uint8, bool) {
	r := &e.Rules
	switch a.Kind {
	case KindPress:
		if r.BytesValue == nil {
			return 0, false
		}
		value := UnwrapSequence(buf, r.BytesValue)
		if eqThreshold(value, r.ValueDown) || eqThreshold(value, r.ValueRepeat) {
			return a.Arg, true
		}
		return 0, false
	case KindSet:
		if r.BytesValue == nil {
			return 0, false
		}
		value := UnwrapSequence(buf, r.BytesValue)
		if eqThreshold(value, r.ValueDown) {
			*modifiers |= 1 << a.Arg
		} else if eqThreshold(value, r.ValueUp) {
			*modifiers &^= 1 << a.Arg
		}
		return 0, false
	case KindToggle:
		if r.BytesValue == nil {
			return 0, false
		}
		value := UnwrapSequence(buf, r.BytesValue)
		if eqThreshold(value, r.ValueDown) {
			*modifiers ^= 1 << a.Arg
		}
		return 0, false
	case KindTarget:
		if r.BytesValue == nil {
			return 0, false
		}
		value := UnwrapSequence(buf, r.BytesValue)
		if eqThreshold(value, r.ValueDown) {
			*target = a.Arg
		}
		return 0, false
	case KindPush:
		if r.BytesValue == nil || r.ValueCenter == nil {
			return 0, false
		}
		value := UnwrapSequence(buf, r.BytesValue)
		if value < *r.ValueCenter {
			*modifiers |= 1 << a.Arg
		} else {
			*modifiers &^= 1 << a.Arg
		}
		return 0, false
	default: // KindNone
		return 0, false
	}
}

func eqThreshold(value uint64, threshold *uint64) bool {
	return threshold != nil && value == *threshold
}
