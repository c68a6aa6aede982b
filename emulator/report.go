package emulator

import (
	"io"

	"github.com/ezrec/birdnest/translate"
	"github.com/ezrec/birdnest/vm"
)

// Report writes the diagnostics for the result of an execution, and
// returns its outcome.
//
// Faults write a single line to diag. A halt writes 'System halted' to
// diag, then the ax register and the Equal and Greater flag notes to out.
func Report(out io.Writer, diag io.Writer, machine *vm.VirtualMachine, result error) (outcome vm.Outcome, err error) {
	outcome = vm.OutcomeOf(result)

	switch outcome {
	case vm.OUTCOME_ILLEGAL_INSTRUCTION:
		err = translate.Fprintln(diag, "VM Illegal instruction")
	case vm.OUTCOME_SEGMENTATION_FAULT:
		err = translate.Fprintln(diag, "VM Segmentation fault")
	case vm.OUTCOME_HALT:
		err = translate.Fprintln(diag, "System halted")
		if err != nil {
			return
		}
		err = translate.Fprintln(out, "ax = %04x", machine.Reg(vm.REG_AX))
		if err != nil {
			return
		}
		if machine.Flags.Equal() {
			err = translate.Fprintln(out, "Equal flag set")
			if err != nil {
				return
			}
		}
		if machine.Flags.Greater() {
			err = translate.Fprintln(out, "Greater flag set")
		}
	}

	return
}
