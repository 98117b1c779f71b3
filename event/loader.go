package event

import (
	"fmt"

	"github.com/hostmux/muxd/config"
)

// builder accumulates one Event's state while its config file is
// interpreted. It starts from a snapshot of the parent Rules (the
// controller's current rule template at the point the ":event" directive
// fired) and is refined by the event file's own directives.
type builder struct {
	identifier uint64
	rules      Rules
	modes      []Mode
	base       *Mode
	current    *Mode // the most recently pushed mode, or nil before any push
}

// LoadEvent interprets the event file at path, seeded with parent as the
// inherited Rules snapshot, and returns the resulting Event. identifier is
// assigned by the caller (the controller file's ":event" directive).
func LoadEvent(path string, identifier uint64, parent Rules) (*Event, error) {
	b := &builder{identifier: identifier, rules: parent}

	ip := config.New()
	RegisterRuleDirectives(ip, &b.rules)
	RegisterByteDirective(ip, &b.rules, nil)

	ip.Register("mode", config.Prefixed, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("mode")
		mask, isBase, err := ln.PopMode()
		if err != nil {
			return err
		}
		if isBase {
			base := newModeFrom(nil)
			b.base = &base
			b.current = b.base
			return nil
		}
		m := newModeFrom(b.base)
		m.Mask = mask
		b.modes = append(b.modes, m)
		b.current = &b.modes[len(b.modes)-1]
		return nil
	})

	registerSlotDirectives(ip, func() (*Mode, error) {
		if b.current == nil {
			return nil, fmt.Errorf("%s: slot directive before any 'mode' or base mode", path)
		}
		return b.current, nil
	})

	if err := ip.Run(nil, path); err != nil {
		return nil, err
	}

	if len(b.rules.BytesID) == 0 {
		return nil, fmt.Errorf("%s: event has no bytes_id rule", path)
	}

	return &Event{
		Identifier: b.identifier,
		Rules:      b.rules,
		Modes:      b.modes,
		BaseMode:   b.base,
	}, nil
}

// RegisterRuleDirectives installs the "value" keyword, which sub-dispatches
// on its first popped token ("up", "down", "repeat", or "center") to refine
// the corresponding threshold field of rules. Shared between the
// controller-level file (where it seeds the rule template for subsequent
// ":event" directives) and each per-event file (where it refines the
// inherited snapshot).
func RegisterRuleDirectives(ip *config.Interpreter, rules *Rules) {
	ip.Register("value", config.Prefixed, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("no value rule specified")
		selector, err := ln.Pop()
		if err != nil {
			return err
		}
		switch selector {
		case "up":
			v, err := ln.PopU64()
			if err != nil {
				return err
			}
			rules.ValueUp = &v
		case "down":
			v, err := ln.PopU64()
			if err != nil {
				return err
			}
			rules.ValueDown = &v
		case "repeat":
			v, err := ln.PopU64()
			if err != nil {
				return err
			}
			rules.ValueRepeat = &v
		case "center":
			v, err := ln.PopU64()
			if err != nil {
				return err
			}
			rules.ValueCenter = &v
		default:
			return fmt.Errorf("no value rule called %q", selector)
		}
		return nil
	})
}

// RegisterByteDirective installs the "byte" keyword, which sub-dispatches
// on its first popped token to refine a byte-offset sequence. "id" and
// "value" set rules.BytesID/rules.BytesValue and are always accepted. A
// third selector, "event", is accepted only when onEvent is non-nil: the
// controller-level file passes a callback that sets its own bytes_event
// sequence, while a per-event file (which never declares its own
// bytes_event) passes nil, making "byte event" there the same fatal
// "no byte rule called" error the unrecognized-selector case produces.
func RegisterByteDirective(ip *config.Interpreter, rules *Rules, onEvent func([]int) error) {
	ip.Register("byte", config.Prefixed, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("no byte rule specified")
		selector, err := ln.Pop()
		if err != nil {
			return err
		}
		switch selector {
		case "id":
			seq, err := ln.PopSequence()
			if err != nil {
				return err
			}
			rules.BytesID = seq
		case "value":
			seq, err := ln.PopSequence()
			if err != nil {
				return err
			}
			rules.BytesValue = seq
		case "event":
			if onEvent == nil {
				return fmt.Errorf("no byte rule called %q", selector)
			}
			seq, err := ln.PopSequence()
			if err != nil {
				return err
			}
			return onEvent(seq)
		default:
			return fmt.Errorf("no byte rule called %q", selector)
		}
		return nil
	})
}

// registerSlotDirectives installs "press", "toggle", "set", "target", and
// "push", each assigning an Action to the slot named by a pop_counter
// index on the mode returned by target().
func registerSlotDirectives(ip *config.Interpreter, target func() (*Mode, error)) {
	assign := func(kind Kind, hint string, payload func(ln *config.Line) (uint8, error)) config.HandlerFunc {
		return func(_ any, _ string, ln *config.Line) error {
			ln.SetHint(hint)
			slot, err := ln.PopCounter()
			if err != nil {
				return err
			}
			if slot >= slotCount {
				return fmt.Errorf("slot %d out of range", slot)
			}
			arg, err := payload(ln)
			if err != nil {
				return err
			}
			mode, err := target()
			if err != nil {
				return err
			}
			mode.Translation[slot] = Action{Kind: kind, Arg: arg}
			return nil
		}
	}
	ip.Register("press", config.Prefixed, assign(KindPress, "press", func(ln *config.Line) (uint8, error) { return ln.PopAscii() }))
	ip.Register("toggle", config.Prefixed, assign(KindToggle, "toggle", func(ln *config.Line) (uint8, error) { return ln.PopU8() }))
	ip.Register("set", config.Prefixed, assign(KindSet, "set", func(ln *config.Line) (uint8, error) { return ln.PopU8() }))
	ip.Register("target", config.Prefixed, assign(KindTarget, "target", func(ln *config.Line) (uint8, error) { return ln.PopU8() }))
	ip.Register("push", config.Prefixed, assign(KindPush, "push", func(ln *config.Line) (uint8, error) { return ln.PopU8() }))
}
