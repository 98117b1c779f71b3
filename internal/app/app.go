// Package app wires the top-level configuration directives (component H,
// the entrypoint) to the Config Interpreter, Client Manager, Event
// Translator, and Controller packages, and runs the resulting system.
package app

import (
	"fmt"

	"github.com/hostmux/muxd/clog"
	"github.com/hostmux/muxd/client"
	"github.com/hostmux/muxd/config"
	"github.com/hostmux/muxd/controller"
)

var log = clog.New("server")

// buildState is the explicit builder threaded through every top-level
// handler, per the "no smuggled mutable state" design note (§9).
type buildState struct {
	lookupDir     string
	manager       *client.Manager
	driverEnabled bool
	systemDir     string
	hasController bool
	controllerCfg controller.Config
}

// Run parses the top-level config file at path and starts the system. It
// does not return under normal operation: either the Manager's terminal
// Start (no controller declared) or the Controller's routing loop blocks
// forever.
func Run(path string) error {
	bs := &buildState{manager: client.NewManager()}

	ip := config.New()
	registerTopLevel(ip, bs)

	if err := ip.Run(bs, path); err != nil {
		return err
	}

	if !bs.hasController {
		bs.manager.Start()
		return nil
	}

	serial, ethernet := bs.manager.Drain()
	clients := client.All(serial, ethernet)
	for _, c := range clients {
		c.Start()
	}
	log.Debug("starting controller with %d clients", len(clients))
	controller.New(bs.controllerCfg, clients).Run()
	return nil
}

func registerTopLevel(ip *config.Interpreter, bs *buildState) {
	ip.Register("lookup", config.Once, func(ctx any, _ string, ln *config.Line) error {
		ln.SetHint("lookup")
		dir, err := ln.PopDirectory()
		if err != nil {
			return err
		}
		ctx.(*buildState).lookupDir = dir
		return nil
	})

	ip.Register("binary", config.Prefixed, func(ctx any, prefix string, ln *config.Line) error {
		ln.SetHint("binary")
		state := ctx.(*buildState)
		relPath, err := ln.Pop()
		if err != nil {
			return err
		}
		name, err := ln.PopName()
		if err != nil {
			return err
		}
		return state.manager.RegisterBinary(prefix+relPath, name)
	})

	ip.Register("client", config.Prefixed, func(ctx any, prefix string, ln *config.Line) error {
		ln.SetHint("client")
		state := ctx.(*buildState)
		name, err := ln.Pop()
		if err != nil {
			return err
		}
		index := uint8(len(state.manager.Names))
		return state.manager.Initialize(state.lookupDir, name, prefix+name, index)
	})

	ip.Register("controller", config.Prefixed, func(ctx any, prefix string, ln *config.Line) error {
		ln.SetHint("controller")
		state := ctx.(*buildState)
		if state.hasController {
			return fmt.Errorf("a controller is already configured")
		}
		relPath, err := ln.Pop()
		if err != nil {
			return err
		}
		cfg, err := controller.LoadConfig(prefix+relPath, state.manager.Names)
		if err != nil {
			return err
		}
		state.controllerCfg = *cfg
		state.hasController = true
		return nil
	})

	ip.Register("driver", config.Once, func(ctx any, _ string, ln *config.Line) error {
		ln.SetHint("driver")
		enabled, err := ln.PopState()
		if err != nil {
			return err
		}
		ctx.(*buildState).driverEnabled = enabled
		return nil
	})

	ip.Register("system", config.Once, func(ctx any, _ string, ln *config.Line) error {
		ln.SetHint("system")
		dir, err := ln.PopDirectory()
		if err != nil {
			return err
		}
		ctx.(*buildState).systemDir = dir
		return nil
	})
}
