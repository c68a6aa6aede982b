package vm

import (
	"errors"
	"fmt"
)

// Class is the semantic category of an opcode.
type Class int

//go:generate go tool stringer -linecomment -type=Class
const (
	CLASS_UNKNOWN      = Class(0) // unknown
	CLASS_NOP          = Class(1) // nop
	CLASS_HALT         = Class(2) // halt
	CLASS_FLAG_SET     = Class(3) // set
	CLASS_FLAG_CLEAR   = Class(4) // clear
	CLASS_MOVE_REG     = Class(5) // move
	CLASS_MOVE_SP      = Class(6) // movesp
	CLASS_MOVE_MEM     = Class(7) // movemem
	CLASS_MOVE_INVALID = Class(8) // moveinvalid
)

// ClassOf returns the category of an opcode.
func ClassOf(op Opcode) Class {
	switch {
	case op == OP_NOP:
		return CLASS_NOP
	case op == OP_HLT:
		return CLASS_HALT
	case op >= OP_MOV_AX && op <= OP_MOV_DX:
		return CLASS_MOVE_REG
	case op == OP_MOV_SP:
		return CLASS_MOVE_SP
	case op == OP_MOV_M:
		return CLASS_MOVE_MEM
	case op > OP_MOV_SP && op < OP_MOV_M:
		return CLASS_MOVE_INVALID
	case op >= OP_STE && op <= OP_STL:
		return CLASS_FLAG_SET
	case op >= OP_CLE && op <= OP_CLL:
		return CLASS_FLAG_CLEAR
	}

	return CLASS_UNKNOWN
}

// IsMove returns true for all members of the move family.
func (cl Class) IsMove() bool {
	switch cl {
	case CLASS_MOVE_REG, CLASS_MOVE_SP, CLASS_MOVE_MEM, CLASS_MOVE_INVALID:
		return true
	}
	return false
}

// Instruction is a decoded instruction.
type Instruction struct {
	Opcode Opcode
	Size   int       // Encoded length, in bytes.
	Args   [2]uint16 // Decoded arguments. Unused arguments are zero.
}

// Class returns the category of the instruction.
func (instr Instruction) Class() Class {
	return ClassOf(instr.Opcode)
}

// FlagDecode decodes the flag affected by a flag set or clear instruction.
func (instr Instruction) FlagDecode() (flag Flags) {
	// ste/cle: E, stg/clg: G, sth/clh: H, stl/cll: L
	return FLAG_EQUAL >> ((instr.Opcode - OP_STE) & 3)
}

// MoveDecode decodes the destination register and value of a move to a
// general-purpose register.
func (instr Instruction) MoveDecode() (dst Register, value uint16) {
	dst = Register(instr.Opcode - OP_MOV_AX)
	value = instr.Args[0]
	return
}

// MemoryDecode decodes the address and value of a memory move.
func (instr Instruction) MemoryDecode() (addr uint16, value uint16) {
	addr = instr.Args[0]
	value = instr.Args[1]
	return
}

// Bytes returns the encoded form of the instruction.
func (instr Instruction) Bytes() (data []byte) {
	data = append(data, byte(instr.Opcode))

	switch instr.Size {
	case SIZE_BYTE:
		data = append(data, byte(instr.Args[0]))
	case SIZE_WORD:
		data = append(data, byte(instr.Args[0]), byte(instr.Args[0]>>8))
	case SIZE_WORD_2:
		data = append(data,
			byte(instr.Args[0]), byte(instr.Args[0]>>8),
			byte(instr.Args[1]), byte(instr.Args[1]>>8))
	}

	return
}

// String returns the assembly language representation of the instruction.
func (instr Instruction) String() (out string) {
	switch instr.Class() {
	case CLASS_MOVE_REG:
		dst, value := instr.MoveDecode()
		out = fmt.Sprintf("mov %v, 0x%04x", dst, value)
	case CLASS_MOVE_SP:
		out = fmt.Sprintf("mov sp, 0x%04x", instr.Args[0])
	case CLASS_MOVE_MEM:
		addr, value := instr.MemoryDecode()
		out = fmt.Sprintf("mov [0x%04x], 0x%04x", addr, value)
	case CLASS_NOP, CLASS_HALT, CLASS_FLAG_SET, CLASS_FLAG_CLEAR:
		out = instr.Opcode.Mnemonic()
	default:
		out = fmt.Sprintf(".op 0x%02x", uint8(instr.Opcode))
		count, _, _ := ArgCount(instr.Size)
		for n := range count {
			out += fmt.Sprintf(" %#x", instr.Args[n])
		}
	}

	return
}

// MakeInstruction creates an instruction in the default instruction set,
// checking the argument count and width against the opcode size.
func MakeInstruction(op Opcode, args ...uint16) (Instruction, error) {
	return InstructionSizes.MakeInstruction(op, args...)
}

// MakeInstruction creates an instruction, checking the argument count and
// width against the opcode size in this table.
func (st *SizeTable) MakeInstruction(op Opcode, args ...uint16) (instr Instruction, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(op), err)
		}
	}()

	size := st.SizeOf(op)
	count, bits, ok := ArgCount(size)
	if !ok {
		err = ErrOpcodeSize
		return
	}

	if len(args) != count {
		err = ErrOpcodeArgCount
		return
	}

	for _, arg := range args {
		if bits == 8 && arg > 0xff {
			err = ErrOpcodeArgRange
			return
		}
	}

	instr = Instruction{Opcode: op, Size: size}
	copy(instr.Args[:], args)

	return
}

// MustInstruction is MakeInstruction for statically known instructions.
// It panics on an arity error.
func MustInstruction(op Opcode, args ...uint16) Instruction {
	instr, err := MakeInstruction(op, args...)
	if err != nil {
		panic(err)
	}
	return instr
}

// MakeMove creates a move of a value to a general-purpose register.
func MakeMove(dst Register, value uint16) Instruction {
	return MustInstruction(OP_MOV_AX+Opcode(dst), value)
}

// MakeFlagSet creates the instruction that sets a single flag.
func MakeFlagSet(flag Flags) Instruction {
	return MustInstruction(flagOpcode(OP_STE, flag))
}

// MakeFlagClear creates the instruction that clears a single flag.
func MakeFlagClear(flag Flags) Instruction {
	return MustInstruction(flagOpcode(OP_CLE, flag))
}

// flagOpcode returns the set or clear opcode for a single flag bit.
func flagOpcode(base Opcode, flag Flags) Opcode {
	switch flag {
	case FLAG_EQUAL:
		return base
	case FLAG_GREATER:
		return base + 1
	case FLAG_HIGHER:
		return base + 2
	case FLAG_LOWER:
		return base + 3
	}
	panic(fmt.Sprintf("not a single flag: %v", flag))
}
