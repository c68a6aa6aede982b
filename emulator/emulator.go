// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"encoding/hex"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"os"

	"github.com/ezrec/birdnest/internal"
	"github.com/ezrec/birdnest/vm"
)

// Emulator state. Machine + program + report destinations.
type Emulator struct {
	Verbose            bool        // If set, enables verbose logging.
	*vm.VirtualMachine             // Reference to the machine simulation.
	Program            *vm.Program // Reference to the currently loaded program listing.

	Define map[string]string // Additional assembler equates.

	Output     io.Writer // Halt register dump. Defaults to os.Stdout.
	Diagnostic io.Writer // Fault and halt diagnostics. Defaults to os.Stderr.
}

// NewEmulator creates a new emulator, holding the example program.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		VirtualMachine: vm.NewVirtualMachine(),
		Program:        ExampleProgram(),
		Define:         map[string]string{},
		Output:         os.Stdout,
		Diagnostic:     os.Stderr,
	}

	return
}

// ExampleProgram is 'mov ax, 0x04; ste; hlt'.
func ExampleProgram() *vm.Program {
	return vm.NewProgram(
		vm.MakeMove(vm.REG_AX, 0x04),
		vm.MakeFlagSet(vm.FLAG_EQUAL),
		vm.MustInstruction(vm.OP_HLT),
	)
}

// Defines returns an iterator over all of the defines. User defines
// follow, and so override, the machine defines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(
		emu.VirtualMachine.Defines(),
		maps.All(emu.Define),
	)
}

// Assemble parses assembly source into the emulator program.
func (emu *Emulator) Assemble(input io.Reader) (err error) {
	asm := &vm.Assembler{Verbose: emu.Verbose, Sizes: emu.VirtualMachine.Sizes}

	defines, keys := internal.SortedDefines(emu.Defines())
	for _, key := range keys {
		asm.Predefine(key, defines[key])
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.Program = prog
	return
}

// Close releases the machine memory.
func (emu *Emulator) Close() (err error) {
	return emu.VirtualMachine.Close()
}

// Reset zeroes the machine state, and loads the program.
func (emu *Emulator) Reset() (err error) {
	m := emu.VirtualMachine

	m.Verbose = emu.Verbose
	clear(m.Memory)
	clear(m.Register[:])
	m.Sp = 0
	m.Flags = 0
	m.Ip = 0
	m.Ticks = 0

	err = m.LoadProgram(emu.Program)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: reset, %d bytes loaded", m.Break)
	}

	return
}

// LineNo returns the source line number of the current instruction.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.VirtualMachine.Ip)
	if dbg.Line == nil {
		return 0
	}
	return dbg.LineNo
}

// Tick executes a single instruction.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.VirtualMachine.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	done, err = emu.VirtualMachine.Step()
	return
}

// Run loads and executes the program to completion, reports the outcome,
// and releases the machine memory. It returns the process exit code.
func (emu *Emulator) Run() (exitcode int) {
	defer emu.Close()

	err := emu.Reset()

	var done bool
	for !done && err == nil {
		done, err = emu.Tick()
	}

	if err != nil && emu.Verbose {
		log.Printf("emulator: %v", err)
		log.Printf("emulator: state\n%v", emu.VirtualMachine)
	}

	outcome, rerr := Report(emu.Output, emu.Diagnostic, emu.VirtualMachine, err)
	if rerr != nil {
		log.Printf("emulator: report: %v", rerr)
	}

	return outcome.ExitCode()
}

// Listing writes the program, one instruction per line, with its offset
// and encoding.
func (emu *Emulator) Listing(w io.Writer) (err error) {
	for addr, instr := range emu.Program.Instructions() {
		_, err = fmt.Fprintf(w, "%04x: %-15s %v\n", addr, fmt.Sprintf("% x", instr.Bytes()), instr)
		if err != nil {
			return
		}
	}

	return
}

// Dump writes a hex dump of the encoded program.
func (emu *Emulator) Dump(w io.Writer) (err error) {
	dumper := hex.Dumper(w)
	_, err = dumper.Write(emu.Program.Binary())
	if err != nil {
		return
	}
	return dumper.Close()
}
