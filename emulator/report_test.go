package emulator

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/birdnest/vm"
)

func TestReport(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		ax      uint16
		flags   vm.Flags
		result  error
		outcome vm.Outcome
		out     string
		diag    string
	}){
		{"halt", 0x0004, vm.FLAG_EQUAL, nil,
			vm.OUTCOME_HALT, "ax = 0004\nEqual flag set\n", "System halted\n"},
		{"halt_lanes", 0xabcd, vm.FLAG_HIGHER | vm.FLAG_LOWER, nil,
			vm.OUTCOME_HALT, "ax = abcd\n", "System halted\n"},
		{"illegal", 0x0004, vm.FLAG_EQUAL,
			&vm.ErrFault{Ip: 3, Opcode: vm.OP_MOV_AX, Err: vm.ErrIllegalInstruction},
			vm.OUTCOME_ILLEGAL_INSTRUCTION, "", "VM Illegal instruction\n"},
		{"segfault", 0, 0,
			&ErrRuntime{LineNo: 2, Err: &vm.ErrFault{Ip: 5, Err: vm.ErrSegmentation}},
			vm.OUTCOME_SEGMENTATION_FAULT, "", "VM Segmentation fault\n"},
		{"closed", 0, 0, vm.ErrClosed,
			vm.OUTCOME_SEGMENTATION_FAULT, "", "VM Segmentation fault\n"},
		{"other", 0, 0, errors.New("other"),
			vm.OUTCOME_SEGMENTATION_FAULT, "", "VM Segmentation fault\n"},
	}

	for _, entry := range table {
		machine := vm.NewVirtualMachine()
		machine.Register[vm.REG_AX] = entry.ax
		machine.Flags = entry.flags

		out := &bytes.Buffer{}
		diag := &bytes.Buffer{}

		outcome, err := Report(out, diag, machine, entry.result)
		assert.NoError(err, entry.name)
		assert.Equal(entry.outcome, outcome, entry.name)
		assert.Equal(entry.out, out.String(), entry.name)
		assert.Equal(entry.diag, diag.String(), entry.name)
	}
}

func TestOutcome_ExitCode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, vm.OUTCOME_HALT.ExitCode())
	assert.Equal(-1, vm.OUTCOME_ILLEGAL_INSTRUCTION.ExitCode())
	assert.Equal(-1, vm.OUTCOME_SEGMENTATION_FAULT.ExitCode())
}

func TestErrRuntime(t *testing.T) {
	assert := assert.New(t)

	err := &ErrRuntime{Err: vm.ErrSegmentation}
	assert.Equal(vm.ErrSegmentation.Error(), err.Error())
	assert.True(errors.Is(err, vm.ErrSegmentation))

	err = &ErrRuntime{LineNo: 12, Err: vm.ErrSegmentation}
	assert.Equal("line 12 segmentation fault", err.Error())
}
