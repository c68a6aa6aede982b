// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// newApp creates the birdnest application. Exit codes are returned to the
// caller as cli.ExitCoder errors, instead of exiting from within the app.
func newApp() (app *cli.App) {
	app = cli.NewApp()
	app.Name = "birdnest"
	app.Usage = "16-bit register machine"
	app.Description = "Assemble, list and execute birdnest register machine programs."
	app.Commands = []*cli.Command{
		RunCommand,
		AsmCommand,
		DumpCommand,
	}
	app.ExitErrHandler = func(ctx *cli.Context, err error) {}

	return
}

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			if msg := exit.Error(); len(msg) != 0 {
				_, _ = fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exit.ExitCode())
		}
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
