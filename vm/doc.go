// Package vm implements the birdnest register machine and its assembler.
//
// The machine has four 16-bit general-purpose registers (ax, bx, cx, dx),
// a 16-bit stack pointer (sp), a flags byte holding the Equal, Greater,
// Higher and Lower condition bits, an instruction pointer, and a flat
// 64KiB memory. Programs are loaded at offset 0, and the break address
// marks the end of the loaded program.
//
// Instructions are a single opcode byte followed by zero, one, or two
// arguments. The encoded length is implied by the opcode alone, through
// the instruction size table. 16-bit arguments are little-endian.
//
// Execution faults (illegal instruction, segmentation fault) are returned
// as errors, and never terminate the process.
package vm
