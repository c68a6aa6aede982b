package vm

import (
	"errors"

	"github.com/ezrec/birdnest/translate"
)

var f = translate.From

var (
	// Machine faults
	ErrIllegalInstruction = errors.New(f("illegal instruction"))
	ErrSegmentation       = errors.New(f("segmentation fault"))

	// Machine state errors
	ErrProgramTooLarge = errors.New(f("program too large"))
	ErrClosed          = errors.New(f("machine closed"))

	// Instruction construction errors
	ErrOpcodeSize     = errors.New(f("opcode has no size"))
	ErrOpcodeArgCount = errors.New(f("wrong argument count"))
	ErrOpcodeArgRange = errors.New(f("argument out of range"))
	ErrFlagConflict   = errors.New(f("higher and lower flags both set"))
	ErrMoveTarget     = errors.New(f("move has no destination"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrMacroRecursion     = errors.New(f(".macro expansion too deep"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeMissing      = errors.New(f("opcode missing"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrTargetInvalid      = errors.New(f("target invalid"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrFault is a machine fault raised while executing the instruction at Ip.
type ErrFault struct {
	Ip     uint16
	Opcode Opcode
	Err    error
}

func (err *ErrFault) Error() string {
	return f("fault at %04x (%v): %v", err.Ip, err.Opcode, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

// Outcome is the terminal condition of an execution.
type Outcome int

//go:generate go tool stringer -linecomment -type=Outcome
const (
	OUTCOME_HALT                = Outcome(0) // halt
	OUTCOME_ILLEGAL_INSTRUCTION = Outcome(1) // illegal instruction
	OUTCOME_SEGMENTATION_FAULT  = Outcome(2) // segmentation fault
)

// Process exit codes of the outcomes.
const (
	EXIT_SUCCESS = 0
	EXIT_FAULT   = -1
)

// OutcomeOf classifies the result of VirtualMachine.Execute.
// Errors that are not machine faults are reported as segmentation faults,
// as the machine can not determine how to continue.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OUTCOME_HALT
	case errors.Is(err, ErrIllegalInstruction):
		return OUTCOME_ILLEGAL_INSTRUCTION
	default:
		return OUTCOME_SEGMENTATION_FAULT
	}
}

// ExitCode returns the process exit code for the outcome.
func (oc Outcome) ExitCode() int {
	if oc == OUTCOME_HALT {
		return EXIT_SUCCESS
	}
	return EXIT_FAULT
}

// ErrOpcode identifies the opcode of a failed operation.
type ErrOpcode Opcode

func (eo ErrOpcode) Error() string {
	return f("opcode 0x%02x %v", uint8(eo), Opcode(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
