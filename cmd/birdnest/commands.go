package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/ezrec/birdnest/emulator"
)

var (
	VerboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Verbose mode",
	}
	DefineFlag = &cli.StringSliceFlag{
		Name:    "define",
		Aliases: []string{"D"},
		Usage:   "Assembler equate, as `NAME=VALUE`",
	}
	DumpFlag = &cli.BoolFlag{
		Name:  "dump",
		Usage: "Hex dump the program after execution",
	}
	PProfCPUFlag = &cli.BoolFlag{
		Name:  "pprof.cpu",
		Usage: "Enable pprof cpu profiling",
	}
	OutputFlag = &cli.PathFlag{
		Name:     "output",
		Aliases:  []string{"o"},
		Usage:    "Path of the encoded program",
		Required: true,
	}
)

var OutFilePerm = os.FileMode(0o644)

// newEmulator creates an emulator, and assembles the program source named
// by the first argument. Without arguments, the example program is kept.
func newEmulator(ctx *cli.Context) (emu *emulator.Emulator, err error) {
	emu = emulator.NewEmulator()
	emu.Verbose = ctx.Bool(VerboseFlag.Name)

	for _, define := range ctx.StringSlice(DefineFlag.Name) {
		name, value, ok := strings.Cut(define, "=")
		if !ok || len(name) == 0 {
			err = fmt.Errorf("invalid define %q", define)
			return
		}
		emu.Define[name] = value
	}

	if ctx.NArg() > 1 {
		err = fmt.Errorf("unknown arguments: %v", ctx.Args().Tail())
		return
	}

	source := ctx.Args().First()
	if len(source) == 0 {
		return
	}

	inf, err := os.Open(source)
	if err != nil {
		return
	}
	defer inf.Close()

	err = emu.Assemble(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", source, err)
		return
	}

	return
}

func Run(ctx *cli.Context) error {
	if ctx.Bool(PProfCPUFlag.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}

	emu, err := newEmulator(ctx)
	if err != nil {
		return err
	}

	exitcode := emu.Run()

	if emu.Verbose {
		log.Printf("birdnest: %d instructions, exit %d", emu.Ticks, exitcode)
	}

	if ctx.Bool(DumpFlag.Name) {
		err = emu.Dump(os.Stdout)
		if err != nil {
			return err
		}
	}

	if exitcode != 0 {
		return cli.Exit("", exitcode)
	}

	return nil
}

var RunCommand = &cli.Command{
	Name:        "run",
	Usage:       "Run a program",
	Description: "Assemble and run a .bn program, or the example program when none is given.",
	ArgsUsage:   "[program.bn]",
	Action:      Run,
	Flags: []cli.Flag{
		VerboseFlag,
		DefineFlag,
		DumpFlag,
		PProfCPUFlag,
	},
}

func Asm(ctx *cli.Context) error {
	emu, err := newEmulator(ctx)
	if err != nil {
		return err
	}
	defer emu.Close()

	return os.WriteFile(ctx.Path(OutputFlag.Name), emu.Program.Binary(), OutFilePerm)
}

var AsmCommand = &cli.Command{
	Name:        "asm",
	Usage:       "Assemble a program",
	Description: "Assemble a .bn program into its encoded form.",
	ArgsUsage:   "[program.bn]",
	Action:      Asm,
	Flags: []cli.Flag{
		VerboseFlag,
		DefineFlag,
		OutputFlag,
	},
}

func Dump(ctx *cli.Context) error {
	emu, err := newEmulator(ctx)
	if err != nil {
		return err
	}
	defer emu.Close()

	err = emu.Listing(os.Stdout)
	if err != nil {
		return err
	}

	return emu.Dump(os.Stdout)
}

var DumpCommand = &cli.Command{
	Name:        "dump",
	Usage:       "List a program",
	Description: "List the instructions and encoding of a .bn program.",
	ArgsUsage:   "[program.bn]",
	Action:      Dump,
	Flags: []cli.Flag{
		VerboseFlag,
		DefineFlag,
	},
}
