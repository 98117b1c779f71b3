package controller

import (
	"fmt"

	"github.com/hostmux/muxd/config"
	"github.com/hostmux/muxd/event"
)

// LoadConfig interprets the controller config file at path: "source",
// "target", "width", "verbose", the shared "byte"/"value" rule-template
// sub-dispatch directives (including "byte event", which sets the
// controller's own BytesEvent), and repeated ":event <name> <id>"
// directives that each load a sibling event file seeded with the rule
// template snapshot at the point they fire. clientNames resolves the
// "target" directive's client reference.
func LoadConfig(path string, clientNames []string) (*Config, error) {
	cfg := &Config{}
	var ruleTemplate event.Rules
	var haveSource, haveWidth bool

	ip := config.New()

	ip.Register("source", config.Once, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("source")
		src, err := ln.Pop()
		if err != nil {
			return err
		}
		cfg.Source = src
		haveSource = true
		return nil
	})
	ip.Register("target", config.Once, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("target")
		idx, err := ln.PopClient(clientNames)
		if err != nil {
			return err
		}
		cfg.InitialTarget = idx
		return nil
	})
	ip.Register("width", config.Once, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("width")
		w, err := ln.PopUsize()
		if err != nil {
			return err
		}
		cfg.Width = w
		haveWidth = true
		return nil
	})
	ip.Register("verbose", config.Once, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("verbose")
		v, err := ln.PopState()
		if err != nil {
			return err
		}
		cfg.Verbose = v
		return nil
	})
	event.RegisterRuleDirectives(ip, &ruleTemplate)
	event.RegisterByteDirective(ip, &ruleTemplate, func(seq []int) error {
		cfg.BytesEvent = seq
		return nil
	})

	ip.Register("event", config.Prefixed, func(_ any, prefix string, ln *config.Line) error {
		ln.SetHint("event")
		name, err := ln.Pop()
		if err != nil {
			return err
		}
		id, err := ln.PopCounter()
		if err != nil {
			return err
		}
		evPath, ok := config.CheckedPath(prefix, name, "event", false)
		if !ok {
			return fmt.Errorf("no config file found for event %q under %q", name, prefix)
		}
		ev, err := event.LoadEvent(evPath, id, ruleTemplate)
		if err != nil {
			return err
		}
		for _, existing := range cfg.Events {
			if existing.Identifier == ev.Identifier {
				return fmt.Errorf("duplicate event identifier %d", ev.Identifier)
			}
		}
		cfg.Events = append(cfg.Events, ev)
		return nil
	})

	if err := ip.Run(nil, path); err != nil {
		return nil, err
	}
	if !haveSource {
		return nil, fmt.Errorf("%s: missing required 'source' directive", path)
	}
	if !haveWidth {
		return nil, fmt.Errorf("%s: missing required 'width' directive", path)
	}
	if cfg.BytesEvent == nil {
		return nil, fmt.Errorf("%s: missing required 'byte event' directive", path)
	}
	return cfg, nil
}
