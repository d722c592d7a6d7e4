// Package cpu implements the mini virtual machine and assembler.
//
// The machine is a tiny subset of the Z80: seven 8-bit registers (A, B, C,
// D, E, H, L), a 16-bit program counter, and five opcodes (LD A,n, ADD A,B,
// ADD A,C, RET, and a CALL nn placeholder whose target is never resolved).
//
// The assembler translates one text line at a time into the bytecode buffer,
// supporting equates and compile-time $(...) expression evaluation.
package cpu
