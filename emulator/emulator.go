// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator hosts the BASIC engine and the mini VM behind a single
// output sink and program store.
package emulator

import (
	"bytes"
	"context"
	"iter"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ezrec/ucbasic/basic"
	"github.com/ezrec/ucbasic/cpu"
	"github.com/ezrec/ucbasic/internal"
	"github.com/ezrec/ucbasic/io"
)

// Emulator state. BASIC engine + assembler + VM, sharing one sink and store.
type Emulator struct {
	Verbose bool        // If set, enables verbose logging.
	Log     *log.Logger // Diagnostic log, log.Default() if nil.

	Sink  io.Sink  // Output of both engines.
	Store io.Store // Program and image files.

	Basic *basic.Engine  // BASIC program engine.
	Asm   *cpu.Assembler // Assembler holding the bytecode buffer.
	Cpu   *cpu.Cpu       // VM register file.
}

// NewEmulator creates a new emulator.
func NewEmulator(sink io.Sink, store io.Store) (emu *Emulator) {
	emu = &Emulator{
		Sink:  sink,
		Store: store,
		Basic: basic.NewEngine(sink),
		Asm:   &cpu.Assembler{},
		Cpu:   cpu.NewCpu(nil),
	}

	emu.Asm.Clear()

	return
}

func (emu *Emulator) logger() *log.Logger {
	if emu.Log != nil {
		return emu.Log
	}
	return log.Default()
}

// sync pushes the verbosity and logger down to the engines.
func (emu *Emulator) sync() {
	emu.Basic.Verbose = emu.Verbose
	emu.Basic.Log = emu.Log
	emu.Asm.Verbose = emu.Verbose
	emu.Asm.Log = emu.Log
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Log = emu.Log
}

// Close the emulator, and its store if it can be closed.
func (emu *Emulator) Close() (err error) {
	emu.Basic.Stop()

	closer, ok := emu.Store.(interface{ Close() error })
	if ok {
		err = closer.Close()
	}

	return
}

// RunBasic loads and runs a BASIC program from the store.
func (emu *Emulator) RunBasic(ctx context.Context, name string) (err error) {
	emu.sync()

	return emu.Basic.RunFile(ctx, emu.Store, name)
}

// StopBasic requests the running BASIC program to halt.
func (emu *Emulator) StopBasic() {
	emu.Basic.Stop()
}

// Running reports whether a BASIC program is executing.
func (emu *Emulator) Running() bool {
	return emu.Basic.Running()
}

// Files lists the store.
func (emu *Emulator) Files() (names []string, err error) {
	return emu.Store.List()
}

// AssembleLine appends one line to the bytecode buffer.
func (emu *Emulator) AssembleLine(text string) (err error) {
	emu.sync()

	return emu.Asm.AssembleLine(text)
}

// ClearAsm empties the bytecode buffer.
func (emu *Emulator) ClearAsm() {
	emu.Asm.Clear()
}

// Size returns the bytecode buffer length.
func (emu *Emulator) Size() int {
	return emu.Asm.Size()
}

// Listing disassembles the bytecode buffer.
func (emu *Emulator) Listing() []string {
	return cpu.Disassemble(emu.Asm.Bytecode())
}

// LineNo returns the source line of the instruction at pc.
func (emu *Emulator) LineNo(pc uint16) int {
	dbg := emu.Asm.Program().Debug(pc)
	if dbg.Statement == nil {
		return 0
	}
	return dbg.LineNo
}

// Tick performs a single VM instruction.
func (emu *Emulator) Tick() (done bool, err error) {
	pc := emu.Cpu.Pc
	lineno := emu.LineNo(pc)

	done, err = emu.Cpu.Tick()
	if err != nil {
		err = &ErrRuntime{LineNo: lineno, Err: err}
	}

	return
}

// Execute resets the VM and runs the bytecode buffer until it halts.
func (emu *Emulator) Execute() (err error) {
	emu.sync()

	emu.Cpu.Load(emu.Asm.Bytecode())
	emu.Cpu.Reset()

	for done := false; !done; {
		done, err = emu.Tick()
	}

	if emu.Verbose {
		emu.logger().Debug("emulator: executed", "ticks", emu.Cpu.Ticks, "a", emu.Cpu.A)
	}

	return
}

// Registers returns the register dump, one register per line.
func (emu *Emulator) Registers() iter.Seq[string] {
	return slices.Values(strings.Split(strings.TrimSuffix(emu.Cpu.String(), "\n"), "\n"))
}

// Variables returns the BASIC variables as "name = value" lines.
func (emu *Emulator) Variables() iter.Seq[string] {
	return func(yield func(string) bool) {
		for name, value := range emu.Basic.Vars.All() {
			if !yield(name + " = " + value) {
				return
			}
		}
	}
}

// Report returns the register dump followed by the BASIC variables.
func (emu *Emulator) Report() iter.Seq[string] {
	return internal.IterSeqConcat(emu.Registers(), emu.Variables())
}

// SaveImage writes the bytecode buffer and its source to the store.
func (emu *Emulator) SaveImage(name string) (err error) {
	data, err := cpu.MarshalImage(emu.Asm.Program().Image())
	if err != nil {
		return
	}

	return io.WriteFile(emu.Store, name, data)
}

// LoadImage replaces the bytecode buffer with an image from the store.
// The image source is reassembled, and must reproduce its bytecode.
func (emu *Emulator) LoadImage(name string) (err error) {
	data, err := io.ReadFile(emu.Store, name)
	if err != nil {
		return
	}

	img, err := cpu.UnmarshalImage(data)
	if err != nil {
		return
	}

	emu.sync()

	saved := slices.Clone(emu.Asm.Statement)
	defer func() {
		if err != nil {
			emu.Asm.Clear()
			emu.Asm.Statement = saved
		}
	}()

	prog, err := emu.Asm.Parse(strings.NewReader(strings.Join(img.Source, "\n")))
	if err != nil {
		return
	}

	if !bytes.Equal(prog.Bytecode(), img.Bytecode) {
		err = cpu.ErrImageMismatch
		return
	}

	return
}
