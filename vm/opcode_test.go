package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeOf(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op   Opcode
		size int
	}){
		{OP_NOP, 1},
		{OP_HLT, 1},
		{OP_MOV_AX, 3},
		{OP_MOV_BX, 3},
		{OP_MOV_CX, 3},
		{OP_MOV_DX, 3},
		{OP_MOV_SP, 3},
		{Opcode(0x0d), 0},
		{Opcode(0x0e), 0},
		{OP_MOV_M, 5},
		{OP_STE, 1},
		{OP_STG, 1},
		{OP_STH, 1},
		{OP_STL, 1},
		{OP_CLE, 1},
		{OP_CLG, 1},
		{OP_CLH, 1},
		{OP_CLL, 1},
		{Opcode(0x00), 0},
		{Opcode(0xff), 0},
	}

	for _, entry := range table {
		assert.Equal(entry.size, SizeOf(entry.op), entry.op.String())
	}
}

func TestSizeOf_Recognized(t *testing.T) {
	assert := assert.New(t)

	for code := range 256 {
		size := SizeOf(Opcode(code))
		if size == SIZE_NONE {
			continue
		}
		_, _, ok := ArgCount(size)
		assert.True(ok, "opcode 0x%02x size %d", code, size)
	}
}

func TestArgCount(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		size  int
		count int
		bits  int
		ok    bool
	}){
		{0, 0, 0, false},
		{1, 0, 0, true},
		{2, 1, 8, true},
		{3, 1, 16, true},
		{4, 0, 0, false},
		{5, 2, 16, true},
		{6, 0, 0, false},
	}

	for _, entry := range table {
		count, bits, ok := ArgCount(entry.size)
		assert.Equal(entry.count, count, "size %d", entry.size)
		assert.Equal(entry.bits, bits, "size %d", entry.size)
		assert.Equal(entry.ok, ok, "size %d", entry.size)
	}
}

func TestOpcode_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("nop", OP_NOP.String())
	assert.Equal("hlt", OP_HLT.String())
	assert.Equal("mov.08", OP_MOV_AX.String())
	assert.Equal("mov.0f", OP_MOV_M.String())
	assert.Equal("stl", OP_STL.String())
	assert.Equal("cle", OP_CLE.String())
	assert.Equal("op(0x00)", Opcode(0).String())
	assert.Equal("", Opcode(0x42).Mnemonic())
}

func TestClassOf(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op    Opcode
		class Class
	}){
		{0x00, CLASS_UNKNOWN},
		{OP_NOP, CLASS_NOP},
		{OP_HLT, CLASS_HALT},
		{OP_MOV_AX, CLASS_MOVE_REG},
		{OP_MOV_BX, CLASS_MOVE_REG},
		{OP_MOV_CX, CLASS_MOVE_REG},
		{OP_MOV_DX, CLASS_MOVE_REG},
		{OP_MOV_SP, CLASS_MOVE_SP},
		{0x0d, CLASS_MOVE_INVALID},
		{0x0e, CLASS_MOVE_INVALID},
		{OP_MOV_M, CLASS_MOVE_MEM},
		{OP_STE, CLASS_FLAG_SET},
		{OP_STL, CLASS_FLAG_SET},
		{OP_CLE, CLASS_FLAG_CLEAR},
		{OP_CLL, CLASS_FLAG_CLEAR},
		{0x18, CLASS_UNKNOWN},
		{0xff, CLASS_UNKNOWN},
	}

	for _, entry := range table {
		assert.Equal(entry.class, ClassOf(entry.op), entry.op.String())
	}

	assert.True(CLASS_MOVE_INVALID.IsMove())
	assert.True(CLASS_MOVE_SP.IsMove())
	assert.False(CLASS_FLAG_SET.IsMove())
	assert.Equal("movesp", CLASS_MOVE_SP.String())
}
