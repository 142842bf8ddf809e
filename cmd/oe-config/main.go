// Command oe-config provisions light-paths on an emulated optical network.
//
// It reads the link table from the emulator REST agent, the ONOS network
// configuration or a YAML file, computes shortest light-paths between
// endpoints and configures every ROADM and terminal along them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		stop()
		os.Exit(exitCode(err))
	}
}
