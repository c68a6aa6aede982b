package vm

import (
	"iter"
)

// Line is a line of assembled source and the instructions it generated.
type Line struct {
	LineNo       int           // Source line number, or 0 if built in code.
	Addr         int           // Memory offset of the first instruction.
	Words        []string      // Source words.
	Instructions []Instruction // Generated instructions.
	LinkLabel    string        // Label to link into the last argument, if any.
	LinkAddress  string        // Label to link into the address argument, if any.
}

// Size returns the encoded length of the line.
func (line *Line) Size() (size int) {
	for _, instr := range line.Instructions {
		size += instr.Size
	}
	return
}

// Program is an ordered listing of instructions, ready to load.
type Program struct {
	Lines []Line
}

// NewProgram creates a program from a sequence of instructions.
func NewProgram(instrs ...Instruction) (prog *Program) {
	prog = &Program{}
	prog.Append(instrs...)
	return
}

// Append adds instructions at the end of the program, one per line.
func (prog *Program) Append(instrs ...Instruction) {
	for _, instr := range instrs {
		prog.Lines = append(prog.Lines, Line{
			Addr:         prog.Size(),
			Instructions: []Instruction{instr},
		})
	}
}

// Size returns the encoded length of the program, which is also the break
// address once loaded.
func (prog *Program) Size() int {
	if len(prog.Lines) == 0 {
		return 0
	}

	last := &prog.Lines[len(prog.Lines)-1]
	return last.Addr + last.Size()
}

// Instructions iterates over the program instructions, with their offsets.
func (prog *Program) Instructions() iter.Seq2[uint16, Instruction] {
	return func(yield func(addr uint16, instr Instruction) bool) {
		for _, line := range prog.Lines {
			addr := line.Addr
			for _, instr := range line.Instructions {
				if !yield(uint16(addr), instr) {
					return
				}
				addr += instr.Size
			}
		}
	}
}

// Binary returns the encoded program.
func (prog *Program) Binary() (data []byte) {
	for _, instr := range prog.Instructions() {
		data = append(data, instr.Bytes()...)
	}

	return
}

// Debug locates the program line covering a memory offset.
type Debug struct {
	*Line
	Index int // Index of the instruction within the line.
}

// Debug returns the line, and instruction within the line, at an offset.
// The Line is nil if no instruction starts at the offset.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n := range prog.Lines {
		line := &prog.Lines[n]
		at := line.Addr
		for index, instr := range line.Instructions {
			if int(addr) == at {
				dbg = Debug{Line: line, Index: index}
				return
			}
			at += instr.Size
		}
	}

	return
}

// LoadProgram loads an encoded program into the machine.
func (vm *VirtualMachine) LoadProgram(prog *Program) (err error) {
	return vm.Load(prog.Binary())
}
