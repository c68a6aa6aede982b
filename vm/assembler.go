// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Assembler is a single pass macro assembler for the birdnest machine.
type Assembler struct {
	Verbose bool       // If set, verbosely logs the assembler actions.
	Sizes   *SizeTable // Size table used to check instruction arity.
	Lines   []Line     // List of generated lines.

	predefine map[string]string   // Predefines
	depth     int                 // Current macro expansion depth.
	Label     map[string]int      // Map of labels to memory offsets.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// MACRO_DEPTH_MAX is the deepest permitted nesting of macro expansions.
const MACRO_DEPTH_MAX = 64

// Predefine defines a new equate, or redefines an existing equate, for
// all subsequent Parse calls.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// sysEquate returns the predefined system equates.
func sysEquate() (equ map[string]string) {
	equ = maps.Clone(_vm_defines)
	equ["LINENO"] = "0"
	return
}

// opMap maps the mnemonics of argument-less instructions.
var opMap = map[string]Opcode{
	"nop": OP_NOP,
	"hlt": OP_HLT,
	"ste": OP_STE,
	"stg": OP_STG,
	"sth": OP_STH,
	"stl": OP_STL,
	"cle": OP_CLE,
	"clg": OP_CLG,
	"clh": OP_CLH,
	"cll": OP_CLL,
}

// dstMap maps move destinations to their opcodes.
var dstMap = map[string]Opcode{
	"ax": OP_MOV_AX,
	"bx": OP_MOV_BX,
	"cx": OP_MOV_CX,
	"dx": OP_MOV_DX,
	"sp": OP_MOV_SP,
}

// sizes returns the size table the assembler checks against.
func (asm *Assembler) sizes() *SizeTable {
	if asm.Sizes == nil {
		return &InstructionSizes
	}
	return asm.Sizes
}

// valueOf returns the 16-bit value of a simple word.
// Negative values are encoded as two's complement.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
		if len(word) == 0 {
			err = ErrParseNumber("~")
			return
		}
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}

	label, ok := asm.Label[word]
	if ok {
		value = uint16(label)
	} else {
		var v64 int64
		v64, err = strconv.ParseInt(word, 0, 32)
		if err != nil {
			err = ErrParseNumber(word)
			return
		}
		if v64 > 0xffff || v64 < -0x8000 {
			err = ErrOpcodeArgRange
			return
		}
		value = uint16(v64)
	}

	if invert {
		value = ^value
	}

	return
}

// isSymbol returns true if the word could name a label.
func isSymbol(word string) bool {
	if len(word) == 0 {
		return false
	}
	c := word[0]
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// valueOrLink returns the value of a word, or a label to link later if the
// word names a label that is not yet defined.
func (asm *Assembler) valueOrLink(word string) (value uint16, link string, err error) {
	_, known := asm.Label[word]
	if !known && isSymbol(word) {
		link = word
		return
	}

	value, err = asm.valueOf(word)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value16 uint16
		value16, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 > 0xffff || st_int64 < -0x8000 {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

var (
	charRegexp  = regexp.MustCompile(`'\\?[^']'`)
	parenRegexp = regexp.MustCompile(`\$\([^\$]*\)`)
)

// splitWords splits a line into words, treating commas as blanks.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// parseLine parses a single line into opcode words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = charRegexp.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\x00"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%#x", str[0])
	})

	// Do $() evaluations
	line = parenRegexp.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil && err == nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		if asm.depth >= MACRO_DEPTH_MAX {
			err = ErrMacroRecursion
			return
		}
		asm.depth++
		defer func() { asm.depth-- }()

		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique to each expansion.
		local := fmt.Sprintf("%v_%v_", name, lineno)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the memory offset of the next generated instruction.
func (asm *Assembler) currentAddr() int {
	if len(asm.Lines) == 0 {
		return 0
	}

	last := &asm.Lines[len(asm.Lines)-1]

	return last.Addr + last.Size()
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Lines = asm.Lines[:0]
	asm.depth = 0
	asm.Label = make(map[string]int, 16)
	asm.Macro = make(map[string](*Macro))
	asm.Equate = sysEquate()
	maps.Copy(asm.Equate, asm.predefine)

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line, _, _ = strings.Cut(text, ";")
		line = strings.TrimSpace(line)
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
				Args:   words[2:],
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Lines {
		ln := &asm.Lines[n]
		linked := &ln.Instructions[len(ln.Instructions)-1]
		count, _, _ := ArgCount(linked.Size)

		links := []struct {
			label string
			arg   int
		}{
			{ln.LinkAddress, 0},
			{ln.LinkLabel, count - 1},
		}
		for _, link := range links {
			if len(link.label) == 0 {
				continue
			}
			addr, ok := asm.Label[link.label]
			if !ok {
				lineno, line = ln.LineNo, strings.Join(ln.Words, " ")
				err = ErrLabelMissing(link.label)
				return
			}
			linked.Args[link.arg] = uint16(addr)
		}
	}

	prog = &Program{
		Lines: slices.Clone(asm.Lines),
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var instrs []Instruction
	var label string
	var addrLabel string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || len(instrs) == 0 {
			return
		}
		line := Line{LineNo: lineno, Addr: asm.currentAddr(), Words: initial_words, Instructions: instrs, LinkLabel: label, LinkAddress: addrLabel}
		asm.Lines = append(asm.Lines, line)
	}()

	if op, ok := opMap[words[0]]; ok {
		if len(words) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		var instr Instruction
		instr, err = asm.sizes().MakeInstruction(op)
		instrs = append(instrs, instr)
		return
	}

	switch words[0] {
	case "mov":
		// mov DST VALUE
		if len(words) < 2 {
			err = ErrOpcodeMissing
			return
		}
		if len(words) < 3 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(words) > 3 {
			err = ErrOpcodeExtraArgs
			return
		}
		dst := words[1]
		var args []uint16
		var op Opcode
		if strings.HasPrefix(dst, "[") && strings.HasSuffix(dst, "]") {
			// mov [ADDR] VALUE
			var addr uint16
			addr, addrLabel, err = asm.valueOrLink(dst[1 : len(dst)-1])
			if err != nil {
				return
			}
			op = OP_MOV_M
			args = append(args, addr)
		} else {
			var ok bool
			op, ok = dstMap[dst]
			if !ok {
				err = ErrTargetInvalid
				return
			}
		}
		var value uint16
		value, label, err = asm.valueOrLink(words[2])
		if err != nil {
			return
		}
		args = append(args, value)
		var instr Instruction
		instr, err = asm.sizes().MakeInstruction(op, args...)
		if err != nil {
			return
		}
		instrs = append(instrs, instr)
	case ".op":
		// .op OPCODE ARGS...
		if len(words) < 2 {
			err = ErrOpcodeMissing
			return
		}
		var code uint16
		code, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if code > 0xff {
			err = ErrOpcodeArgRange
			return
		}
		var args []uint16
		for _, word := range words[2:] {
			var value uint16
			value, err = asm.valueOf(word)
			if err != nil {
				return
			}
			args = append(args, value)
		}
		var instr Instruction
		instr, err = asm.sizes().MakeInstruction(Opcode(code), args...)
		if err != nil {
			return
		}
		instrs = append(instrs, instr)
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}
