package client

import (
	"fmt"

	"github.com/hostmux/muxd/config"
)

// Context is a client's static, per-client state: its declared name, the
// routing index assigned by declaration order, and the resolved binary
// path (if the client bound one via "use"). Locked lives on the
// concrete transport (SerialClient) since only the serial client's
// request loop ever sets it.
type Context struct {
	Name   string
	Binary string // empty if the client never bound a binary
	Index  uint8
}

// loadResult is everything the per-client config file produces.
type loadResult struct {
	ctx     Context
	mode    Mode
	baud    uint64
	hasBaud bool
}

const defaultBaud = 115200

// loadClientConfig interprets the client config file at path, given the
// global binary table for "use" resolution.
func loadClientConfig(path, name string, index uint8, binaries []config.BinaryFile) (*loadResult, error) {
	r := &loadResult{ctx: Context{Name: name, Index: index}, baud: defaultBaud}
	channel := config.ChannelStable

	var haveSerial, haveEthernet bool
	var binaryBase string
	var haveBinary bool

	ip := config.New()

	ip.Register("serial", config.Once, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("serial")
		dev, err := ln.Pop()
		if err != nil {
			return err
		}
		if haveEthernet {
			return fmt.Errorf("%s: client declares both 'serial' and 'ethernet'", path)
		}
		haveSerial = true
		r.mode = Mode{SerialPath: dev}
		return nil
	})
	ip.Register("ethernet", config.Once, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("ethernet")
		ip4, err := ln.PopIP()
		if err != nil {
			return err
		}
		if haveSerial {
			return fmt.Errorf("%s: client declares both 'serial' and 'ethernet'", path)
		}
		haveEthernet = true
		r.mode = Mode{EthernetIP: ip4, IsEthernet: true}
		return nil
	})
	ip.Register("channel", config.Once, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("channel")
		c, err := ln.PopChannel()
		if err != nil {
			return err
		}
		channel = c
		return nil
	})
	ip.Register("use", config.Once, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("use")
		p, err := ln.PopBinary(binaries)
		if err != nil {
			return err
		}
		binaryBase = p
		haveBinary = true
		return nil
	})
	ip.Register("baud", config.Once, func(_ any, _ string, ln *config.Line) error {
		ln.SetHint("baud")
		v, err := ln.PopU64()
		if err != nil {
			return err
		}
		r.baud = v
		r.hasBaud = true
		return nil
	})

	if err := ip.Run(nil, path); err != nil {
		return nil, err
	}

	if !haveSerial && !haveEthernet {
		return nil, fmt.Errorf("%s: client declares neither 'serial' nor 'ethernet'", path)
	}
	if haveBinary {
		r.ctx.Binary = binaryBase + channel.Suffix()
	}
	return r, nil
}
