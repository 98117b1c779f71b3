// Package controller implements the HID-source event loop and the
// fan-out routing loop: it reads fixed-width reports from a local input
// source, dispatches each to the Event with the matching identifier, and
// forwards routed (target, modifiers, character) tuples to the client
// whose declared index matches the current target.
package controller

import "github.com/hostmux/muxd/event"

// Config is the static, parsed controller configuration (§3
// ControllerContext, minus the runtime sender handle and thread-local
// state, which Controller owns instead).
type Config struct {
	Source        string
	Width         int
	BytesEvent    []int
	Events        []*event.Event
	InitialTarget uint8
	Verbose       bool
}

// ReopenDelaySeconds is the fixed delay between HID-source reopen
// attempts (§4.F).
const ReopenDelaySeconds = 2

// eventByIdentifier indexes Config.Events by their declared identifier.
func (c *Config) eventByIdentifier() map[uint64]*event.Event {
	m := make(map[uint64]*event.Event, len(c.Events))
	for _, e := range c.Events {
		m[e.Identifier] = e
	}
	return m
}
