// Command muxd is the device multiplexer and input-router entrypoint: a
// single positional argument names the top-level configuration file.
package main

import (
	"fmt"
	"os"

	"github.com/hostmux/muxd/clog"
	"github.com/hostmux/muxd/internal/app"
)

var log = clog.New("server")

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <config-file>\n", os.Args[0])
		os.Exit(1)
	}

	defer func() {
		if r := recover(); r != nil {
			if _, ok := clog.Recover(r); ok {
				os.Exit(1)
			}
		}
	}()

	if err := app.Run(os.Args[1]); err != nil {
		log.Critical("%v", err)
		os.Exit(1)
	}
}
