// Package io provides the collaborators shared by the BASIC engine and the
// mini VM: line oriented output sinks and program file storage.
package io

import (
	"slices"
	"sync"
)

// Sink is a line oriented text consumer.
type Sink interface {
	// EmitLine writes a single line of text, without a line terminator.
	EmitLine(text string) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(text string) error

// EmitLine calls the function.
func (fn SinkFunc) EmitLine(text string) error {
	return fn(text)
}

// Capture records emitted lines in memory.
type Capture struct {
	mutex sync.Mutex
	lines []string
}

var _ Sink = (*Capture)(nil)

// EmitLine appends a line.
func (cc *Capture) EmitLine(text string) (err error) {
	cc.mutex.Lock()
	cc.lines = append(cc.lines, text)
	cc.mutex.Unlock()
	return
}

// Lines returns a copy of the lines captured so far.
func (cc *Capture) Lines() []string {
	cc.mutex.Lock()
	defer cc.mutex.Unlock()

	return slices.Clone(cc.lines)
}

// Reset discards all captured lines.
func (cc *Capture) Reset() {
	cc.mutex.Lock()
	cc.lines = nil
	cc.mutex.Unlock()
}

// Discard is a sink that drops everything.
var Discard Sink = SinkFunc(func(string) error { return nil })
