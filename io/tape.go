package io

import (
	"bufio"
	"io"
	"iter"
	"strings"
	"sync"
)

// Tape provides line oriented I/O over a byte stream.
// It wraps an io.Reader for input and io.Writer for output.
type Tape struct {
	Input   io.Reader
	Output  io.Writer
	Newline string // Line terminator, "\n" if empty.

	mutex  sync.Mutex
	closed bool
}

var _ Sink = (*Tape)(nil)

// EmitLine writes text followed by the line terminator.
func (tc *Tape) EmitLine(text string) (err error) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.closed || tc.Output == nil {
		err = ErrSinkClosed
		return
	}

	newline := tc.Newline
	if len(newline) == 0 {
		newline = "\n"
	}

	_, err = io.WriteString(tc.Output, text+newline)
	return
}

// Close marks the tape as closed; later writes fail with ErrSinkClosed.
func (tc *Tape) Close() (err error) {
	tc.mutex.Lock()
	tc.closed = true
	tc.mutex.Unlock()
	return
}

// Lines returns an iterator of input lines with the line terminator and
// surrounding whitespace removed.
func (tc *Tape) Lines() iter.Seq[string] {
	return func(yield func(line string) bool) {
		if tc.Input == nil {
			return
		}
		scanner := bufio.NewScanner(tc.Input)
		for scanner.Scan() {
			if !yield(strings.TrimSpace(scanner.Text())) {
				return
			}
		}
	}
}
