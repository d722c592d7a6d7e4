package cpu

import (
	"fmt"
	"strings"
)

// Opcode is a single instruction byte.
type Opcode uint8

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_LD_A_N  = Opcode(0x3e) // LD A,n
	OP_ADD_A_B = Opcode(0x80) // ADD A,B
	OP_ADD_A_C = Opcode(0x81) // ADD A,C
	OP_RET     = Opcode(0xc9) // RET
	OP_CALL_NN = Opcode(0xcd) // CALL nn
)

// Size returns the encoded length of the instruction, including operand
// bytes, or 0 for an unknown opcode.
func (op Opcode) Size() int {
	switch op {
	case OP_LD_A_N:
		return 2
	case OP_ADD_A_B, OP_ADD_A_C, OP_RET:
		return 1
	case OP_CALL_NN:
		return 3
	}
	return 0
}

// Statement represents a line of assembled code with its source location and generated bytes.
type Statement struct {
	LineNo    int
	Pc        int
	Words     []string
	Codes     []byte
	LinkLabel string // CALL target, never resolved.
}

// Disassemble renders bytecode as one instruction per line.
func Disassemble(code []byte) (lines []string) {
	for pc := 0; pc < len(code); {
		op := Opcode(code[pc])
		size := op.Size()
		if size == 0 {
			lines = append(lines, fmt.Sprintf("%04x: %02x        .db 0x%02x", pc, code[pc], code[pc]))
			pc++
			continue
		}

		end := min(pc+size, len(code))
		var hex []string
		for _, b := range code[pc:end] {
			hex = append(hex, fmt.Sprintf("%02x", b))
		}

		text := op.String()
		switch op {
		case OP_LD_A_N:
			if end-pc == 2 {
				text = fmt.Sprintf("LD A,%d", code[pc+1])
			}
		case OP_CALL_NN:
			if end-pc == 3 {
				text = fmt.Sprintf("CALL 0x%04x", uint16(code[pc+1])|uint16(code[pc+2])<<8)
			}
		}

		lines = append(lines, fmt.Sprintf("%04x: %-9s %v", pc, strings.Join(hex, " "), text))
		pc = end
	}

	return
}
