package emulator

import (
	"errors"

	"github.com/ezrec/ucbasic/translate"
)

var f = translate.From

var (
	ErrBusy          = errors.New(f("a program is already running"))
	ErrWorkerStopped = errors.New(f("emulator stopped"))
)

// ErrRuntime indicates the source line of a VM fault.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrPanic is a recovered panic from a worker request.
type ErrPanic struct {
	Value any
}

func (err *ErrPanic) Error() string {
	return f("panic: %v", err.Value)
}
