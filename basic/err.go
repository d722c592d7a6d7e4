package basic

import (
	"errors"

	"github.com/ezrec/ucbasic/translate"
)

var f = translate.From

var (
	ErrStackFull      = errors.New(f("call stack overflow"))
	ErrCommandUnknown = errors.New(f("unknown command"))
	ErrThenMissing    = errors.New(f("IF without THEN"))
	ErrEqualsMissing  = errors.New(f("LET without '='"))
	ErrToMissing      = errors.New(f("FOR without TO"))
	ErrNameMissing    = errors.New(f("variable name missing"))
	ErrProgramEmpty   = errors.New(f("program is empty"))
)

// ErrLineUndefined is a GOSUB to a label that no line carries.
type ErrLineUndefined string

func (err ErrLineUndefined) Error() string {
	return f("undefined line %v", string(err))
}

// ErrSyntax locates a malformed command.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrRuntime locates a fault that aborted the program.
type ErrRuntime struct {
	LineNo int
	Label  string
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %v %v", err.Label, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
