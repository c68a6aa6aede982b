package vm

import (
	"encoding/binary"
	"errors"
	"log"
)

// sizes returns the instruction size table of the machine.
func (vm *VirtualMachine) sizes() *SizeTable {
	if vm.Sizes == nil {
		return &InstructionSizes
	}
	return vm.Sizes
}

// Fetch decodes the instruction at the instruction pointer.
//
// The instruction must be entirely below the break address, and its opcode
// must have a known size, otherwise the fetch is a segmentation fault.
func (vm *VirtualMachine) Fetch() (instr Instruction, err error) {
	if vm.Memory == nil {
		err = ErrClosed
		return
	}

	limit := min(vm.Break, len(vm.Memory))

	ip := int(vm.Ip)
	if ip >= limit {
		err = ErrSegmentation
		return
	}

	op := Opcode(vm.Memory[ip])
	size := vm.sizes().SizeOf(op)
	instr = Instruction{Opcode: op, Size: size}

	if _, _, ok := ArgCount(size); !ok {
		err = ErrSegmentation
		return
	}

	if ip+size > limit {
		err = ErrSegmentation
		return
	}

	args := vm.Memory[ip+1 : ip+size]
	switch size {
	case SIZE_OP:
		// No arguments.
	case SIZE_BYTE:
		instr.Args[0] = uint16(args[0])
	case SIZE_WORD:
		instr.Args[0] = binary.LittleEndian.Uint16(args[0:2])
	case SIZE_WORD_2:
		instr.Args[0] = binary.LittleEndian.Uint16(args[0:2])
		instr.Args[1] = binary.LittleEndian.Uint16(args[2:4])
	}

	return
}

// Dispatch executes a single decoded instruction, and returns true if the
// instruction halted the machine.
func (vm *VirtualMachine) Dispatch(instr Instruction) (halted bool, err error) {
	if vm.Verbose {
		log.Printf("%04x: %v", vm.Ip, instr)
	}

	class := instr.Class()

	if class.IsMove() && vm.Flags.Higher() && vm.Flags.Lower() {
		err = errors.Join(ErrIllegalInstruction, ErrFlagConflict)
		return
	}

	switch class {
	case CLASS_NOP:
		// pass
	case CLASS_UNKNOWN:
		// Sized, but without semantics.
	case CLASS_HALT:
		halted = true
	case CLASS_FLAG_SET:
		vm.Flags = vm.Flags.Set(instr.FlagDecode())
	case CLASS_FLAG_CLEAR:
		vm.Flags = vm.Flags.Clear(instr.FlagDecode())
	case CLASS_MOVE_REG:
		dst, value := instr.MoveDecode()
		vm.Register[dst] = moveByLane(vm.Flags, vm.Register[dst], value)
	case CLASS_MOVE_SP:
		// Higher and Lower do not apply to the stack pointer.
		vm.Sp = instr.Args[0]
	case CLASS_MOVE_MEM:
		// Reserved. Memory-addressed moves have no defined effect yet.
	case CLASS_MOVE_INVALID:
		err = errors.Join(ErrIllegalInstruction, ErrMoveTarget)
	default:
		panic("unknown class")
	}

	return
}

// moveByLane returns the result of moving value into a register holding
// prior, honoring the Higher and Lower byte-lane flags.
func moveByLane(flags Flags, prior uint16, value uint16) uint16 {
	switch {
	case flags.Higher():
		return (value&0xff)<<8 | (prior & 0x00ff)
	case flags.Lower():
		return (value & 0xff) | (prior & 0xff00)
	}
	return value
}

// Step fetches, decodes and executes the instruction at the instruction
// pointer, then advances the instruction pointer past it.
// On halt, the instruction pointer is left at the halt instruction.
func (vm *VirtualMachine) Step() (halted bool, err error) {
	instr, err := vm.Fetch()
	if err == nil {
		halted, err = vm.Dispatch(instr)
	}
	if err != nil {
		err = &ErrFault{Ip: vm.Ip, Opcode: instr.Opcode, Err: err}
		return
	}

	vm.Ticks++

	if halted {
		return
	}

	next := int(vm.Ip) + instr.Size
	if next >= MEMORY_SIZE {
		// Ran off the end of memory.
		err = &ErrFault{Ip: vm.Ip, Opcode: instr.Opcode, Err: ErrSegmentation}
		return
	}
	vm.Ip = uint16(next)

	return
}

// Execute runs the loaded program from offset 0 until it halts or faults.
// A nil error means the machine halted.
func (vm *VirtualMachine) Execute() (err error) {
	vm.Ip = 0

	for {
		var halted bool
		halted, err = vm.Step()
		if err != nil || halted {
			return
		}
	}
}
