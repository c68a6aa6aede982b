package vm

import (
	"fmt"
)

// Opcode identifies a single machine instruction.
type Opcode uint8

const (
	OP_NOP    = Opcode(0x01) // nop
	OP_HLT    = Opcode(0x02) // hlt
	OP_MOV_AX = Opcode(0x08) // mov ax
	OP_MOV_BX = Opcode(0x09) // mov bx
	OP_MOV_CX = Opcode(0x0a) // mov cx
	OP_MOV_DX = Opcode(0x0b) // mov dx
	OP_MOV_SP = Opcode(0x0c) // mov sp
	OP_MOV_M  = Opcode(0x0f) // mov [addr]
	OP_STE    = Opcode(0x10) // ste
	OP_STG    = Opcode(0x11) // stg
	OP_STH    = Opcode(0x12) // sth
	OP_STL    = Opcode(0x13) // stl
	OP_CLE    = Opcode(0x14) // cle
	OP_CLG    = Opcode(0x15) // clg
	OP_CLH    = Opcode(0x16) // clh
	OP_CLL    = Opcode(0x17) // cll

	// OP_MOV is the primary opcode of the move family.
	OP_MOV = OP_MOV_AX

	// OP_MOV_LAST is the last opcode folded into the move family.
	OP_MOV_LAST = OP_MOV_M
)

// Mnemonics of the flag opcodes, in opcode order.
var flagMnemonic = [8]string{"ste", "stg", "sth", "stl", "cle", "clg", "clh", "cll"}

// Mnemonic returns the assembly mnemonic of the opcode, or the empty string
// if the opcode has none.
func (op Opcode) Mnemonic() string {
	switch {
	case op == OP_NOP:
		return "nop"
	case op == OP_HLT:
		return "hlt"
	case op >= OP_MOV && op <= OP_MOV_LAST:
		return "mov"
	case op >= OP_STE && op <= OP_CLL:
		return flagMnemonic[op-OP_STE]
	}

	return ""
}

// String returns the mnemonic of the opcode, or its hex value.
func (op Opcode) String() string {
	mnemonic := op.Mnemonic()
	if len(mnemonic) == 0 {
		return fmt.Sprintf("op(0x%02x)", uint8(op))
	}
	if op >= OP_MOV && op <= OP_MOV_LAST {
		return fmt.Sprintf("%v.%02x", mnemonic, uint8(op))
	}
	return mnemonic
}

// Recognized instruction sizes, in bytes.
const (
	SIZE_NONE   = 0 // Opcode has no encoding.
	SIZE_OP     = 1 // Opcode only.
	SIZE_BYTE   = 2 // Opcode, 8-bit argument.
	SIZE_WORD   = 3 // Opcode, 16-bit argument.
	SIZE_WORD_2 = 5 // Opcode, two 16-bit arguments.
)

// SizeTable maps every opcode to its encoded length.
// Zero entries are opcodes without an encoding.
type SizeTable [256]uint8

// InstructionSizes is the size table of the birdnest instruction set.
// Opcode 0x00 is left unsized, so that zeroed memory never decodes.
var InstructionSizes = SizeTable{
	OP_NOP:    SIZE_OP,
	OP_HLT:    SIZE_OP,
	OP_MOV_AX: SIZE_WORD,
	OP_MOV_BX: SIZE_WORD,
	OP_MOV_CX: SIZE_WORD,
	OP_MOV_DX: SIZE_WORD,
	OP_MOV_SP: SIZE_WORD,
	OP_MOV_M:  SIZE_WORD_2,
	OP_STE:    SIZE_OP,
	OP_STG:    SIZE_OP,
	OP_STH:    SIZE_OP,
	OP_STL:    SIZE_OP,
	OP_CLE:    SIZE_OP,
	OP_CLG:    SIZE_OP,
	OP_CLH:    SIZE_OP,
	OP_CLL:    SIZE_OP,
}

// SizeOf returns the encoded length of the opcode, or SIZE_NONE.
func (st *SizeTable) SizeOf(op Opcode) int {
	return int(st[op])
}

// SizeOf returns the encoded length of the opcode in the default
// instruction set.
func SizeOf(op Opcode) int {
	return InstructionSizes.SizeOf(op)
}

// ArgCount returns the number of arguments, and their width in bits, of
// an instruction of the given encoded size.
func ArgCount(size int) (count int, bits int, ok bool) {
	switch size {
	case SIZE_OP:
		return 0, 0, true
	case SIZE_BYTE:
		return 1, 8, true
	case SIZE_WORD:
		return 1, 16, true
	case SIZE_WORD_2:
		return 2, 16, true
	}

	return
}
