package cpu

import (
	"errors"

	"github.com/ezrec/ucbasic/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrOperandMissing = errors.New(f("operand missing"))
	ErrMemorySize     = errors.New(f("bytecode exceeds memory"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeMissing      = errors.New(f("opcode missing"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrTargetMissing      = errors.New(f("target missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrValueRange         = errors.New(f("value out of byte range"))

	// Image errors
	ErrImageVersion  = errors.New(f("image version unsupported"))
	ErrImageMismatch = errors.New(f("image bytecode does not match its source"))
)

// ErrOpcode reports an unknown opcode at a program counter.
type ErrOpcode struct {
	Pc     uint16
	Opcode Opcode
}

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%02x at 0x%04x", uint8(eo.Opcode), eo.Pc)
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
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

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
