package io

import (
	"errors"

	"github.com/ezrec/ucbasic/translate"
)

var f = translate.From

var (
	// Sink errors
	ErrSinkClosed = errors.New(f("sink closed"))

	// Store errors
	ErrNameInvalid = errors.New(f("file name invalid"))
	ErrDriver      = errors.New(f("storage driver unknown"))
)

// ErrNotFound reports a missing program file.
type ErrNotFound string

func (err ErrNotFound) Error() string {
	return f("file %v not found", string(err))
}
