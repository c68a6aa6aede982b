// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"fmt"
	"iter"
	"log"
	"maps"
)

const (
	MEMORY_SIZE = 0x10000 // Memory size, in bytes. Addressable by a 16-bit IP.
)

// Flags is the condition flag register. Only the low 4 bits are used.
type Flags uint8

const (
	FLAG_EQUAL   = Flags(0x08) // E
	FLAG_GREATER = Flags(0x04) // G
	FLAG_HIGHER  = Flags(0x02) // H
	FLAG_LOWER   = Flags(0x01) // L

	FLAG_MASK = FLAG_EQUAL | FLAG_GREATER | FLAG_HIGHER | FLAG_LOWER
)

// Set returns the flags with the flag bit set.
func (fl Flags) Set(flag Flags) Flags {
	return fl | flag
}

// Clear returns the flags with the flag bit cleared.
func (fl Flags) Clear(flag Flags) Flags {
	return fl &^ flag
}

// Has returns true if the flag bit is set.
func (fl Flags) Has(flag Flags) bool {
	return fl&flag != 0
}

// Equal returns true if the Equal flag is set.
func (fl Flags) Equal() bool { return fl.Has(FLAG_EQUAL) }

// Greater returns true if the Greater flag is set.
func (fl Flags) Greater() bool { return fl.Has(FLAG_GREATER) }

// Higher returns true if the Higher flag is set.
func (fl Flags) Higher() bool { return fl.Has(FLAG_HIGHER) }

// Lower returns true if the Lower flag is set.
func (fl Flags) Lower() bool { return fl.Has(FLAG_LOWER) }

// String returns the flags as 'EGHL', with '-' for clear bits.
func (fl Flags) String() string {
	out := []byte("EGHL")
	for n, flag := range []Flags{FLAG_EQUAL, FLAG_GREATER, FLAG_HIGHER, FLAG_LOWER} {
		if !fl.Has(flag) {
			out[n] = '-'
		}
	}
	return string(out)
}

// Register is a general-purpose register index.
type Register int

//go:generate go tool stringer -linecomment -type=Register
const (
	REG_AX = Register(0) // ax
	REG_BX = Register(1) // bx
	REG_CX = Register(2) // cx
	REG_DX = Register(3) // dx
)

var _vm_defines = map[string]string{
	"MEMORY_SIZE":  fmt.Sprintf("%#x", MEMORY_SIZE),
	"FLAG_EQUAL":   fmt.Sprintf("%#x", uint8(FLAG_EQUAL)),
	"FLAG_GREATER": fmt.Sprintf("%#x", uint8(FLAG_GREATER)),
	"FLAG_HIGHER":  fmt.Sprintf("%#x", uint8(FLAG_HIGHER)),
	"FLAG_LOWER":   fmt.Sprintf("%#x", uint8(FLAG_LOWER)),
}

// VirtualMachine is the complete execution state of the register machine.
type VirtualMachine struct {
	Verbose bool // Set to enable verbose logging.

	Sizes *SizeTable // Instruction size table used by decode.

	Memory   []byte    // Memory. Program is loaded at offset 0.
	Register [4]uint16 // General-purpose registers, ax to dx.
	Sp       uint16    // Stack pointer.
	Flags    Flags     // Condition flags.
	Ip       uint16    // Offset of the executing instruction.
	Break    int       // Offset one past the last loaded program byte.

	Ticks int // Executed instruction counter.
}

// NewVirtualMachine creates a zero-initialized machine.
func NewVirtualMachine() (vm *VirtualMachine) {
	vm = &VirtualMachine{
		Sizes:  &InstructionSizes,
		Memory: make([]byte, MEMORY_SIZE),
	}

	return
}

// Defines for the machine.
func (vm *VirtualMachine) Defines() iter.Seq2[string, string] {
	return maps.All(_vm_defines)
}

// Load copies an encoded program into memory at offset 0, and sets the
// break address to its end.
func (vm *VirtualMachine) Load(program []byte) (err error) {
	if vm.Memory == nil {
		err = ErrClosed
		return
	}

	if len(program) > len(vm.Memory) {
		err = ErrProgramTooLarge
		return
	}

	copy(vm.Memory, program)
	vm.Break = len(program)

	if vm.Verbose {
		log.Printf("vm: loaded %d bytes", vm.Break)
	}

	return
}

// Close releases the machine memory. Closing twice is harmless.
func (vm *VirtualMachine) Close() (err error) {
	if vm.Memory == nil {
		return
	}

	if vm.Verbose {
		log.Printf("vm: release %d bytes", len(vm.Memory))
	}

	vm.Memory = nil
	vm.Break = 0

	return
}

// Closed returns true once the machine memory has been released.
func (vm *VirtualMachine) Closed() bool {
	return vm.Memory == nil
}

// Reg returns the value of a general-purpose register.
func (vm *VirtualMachine) Reg(reg Register) uint16 {
	return vm.Register[reg]
}

// String returns the current machine state as a string.
func (vm *VirtualMachine) String() (text string) {
	regs := []string{
		"ip", "brk", "flags",
		"ax", "bx", "cx", "dx", "sp",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "ip":
			strval = fmt.Sprintf("%04x", vm.Ip)
		case "brk":
			strval = fmt.Sprintf("%04x", vm.Break)
		case "flags":
			strval = vm.Flags.String()
		case "ax", "bx", "cx", "dx":
			strval = fmt.Sprintf("%04x", vm.Register[reg[0]-'a'])
		case "sp":
			strval = fmt.Sprintf("%04x", vm.Sp)
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}
