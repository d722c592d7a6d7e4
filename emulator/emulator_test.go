package emulator

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ucbasic/basic"
	"github.com/ezrec/ucbasic/cpu"
	"github.com/ezrec/ucbasic/internal/logger"
	"github.com/ezrec/ucbasic/io"
)

func newEmulator(t *testing.T) (emu *Emulator, sink *io.Capture) {
	sink = &io.Capture{}
	emu = NewEmulator(sink, io.NewDirStore(t.TempDir()))
	emu.Log = logger.Discard()
	emu.Basic.Pace = 0
	return
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newEmulator(t)

	assert.False(emu.Verbose)
	assert.False(emu.Running())
	assert.Equal(0, emu.Size())
	assert.Empty(emu.Listing())

	names, err := emu.Files()
	assert.NoError(err)
	assert.Empty(names)

	assert.NoError(emu.Close())
}

func TestEmulatorRunBasic(t *testing.T) {
	assert := assert.New(t)

	emu, sink := newEmulator(t)
	assert.NoError(io.WriteFile(emu.Store, "count.bas", []byte("10 FOR I TO 2\n20 PRINT I\n30 NEXT I\n")))

	err := emu.RunBasic(context.Background(), "count.bas")
	assert.NoError(err)
	assert.Equal([]string{"Running BASIC program...", "1", "2", "BASIC program ended."}, sink.Lines())
	assert.Equal(basic.STATE_HALTED, emu.Basic.State())

	sink.Reset()
	err = emu.RunBasic(context.Background(), "nope.bas")
	assert.Error(err)
	assert.Equal([]string{"File not found: nope.bas"}, sink.Lines())
}

func TestEmulatorExecute(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newEmulator(t)
	for _, line := range []string{"LD A,7", "ADD A,B", "ADD A,C", "RET"} {
		assert.NoError(emu.AssembleLine(line))
	}
	assert.Equal(5, emu.Size())

	assert.NoError(emu.Execute())
	assert.Equal(uint8(7), emu.Cpu.A)
	assert.Equal(uint16(5), emu.Cpu.Pc)

	assert.Equal([]string{
		"0000: 3e 07     LD A,7",
		"0002: 80        ADD A,B",
		"0003: 81        ADD A,C",
		"0004: c9        RET",
	}, emu.Listing())

	// A bad line is rejected and the buffer is kept.
	err := emu.AssembleLine("JP 0")
	assert.ErrorIs(err, cpu.ErrInstructionInvalid)
	assert.Equal(5, emu.Size())

	emu.ClearAsm()
	assert.Equal(0, emu.Size())
}

func TestEmulatorTick(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newEmulator(t)
	assert.NoError(emu.AssembleLine("LD A,1"))
	assert.NoError(emu.AssembleLine("CALL far"))
	assert.NoError(emu.AssembleLine("RET"))

	emu.Cpu.Load(emu.Asm.Bytecode())
	emu.Cpu.Reset()

	assert.Equal(1, emu.LineNo(emu.Cpu.Pc))
	done, err := emu.Tick()
	assert.False(done)
	assert.NoError(err)

	assert.Equal(2, emu.LineNo(emu.Cpu.Pc))
	done, err = emu.Tick()
	assert.False(done)
	assert.NoError(err)

	assert.Equal(3, emu.LineNo(emu.Cpu.Pc))
	done, err = emu.Tick()
	assert.True(done)
	assert.NoError(err)

	assert.Equal(0, emu.LineNo(emu.Cpu.Pc))
}

func TestEmulatorExecuteFault(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newEmulator(t)
	assert.NoError(emu.AssembleLine("LD A,3"))
	emu.Asm.Statement = append(emu.Asm.Statement, cpu.Statement{
		LineNo: 2,
		Pc:     2,
		Words:  []string{".db", "0xff"},
		Codes:  []byte{0xff},
	})

	err := emu.Execute()
	assert.ErrorIs(err, cpu.ErrOpcode{})

	var runtime *ErrRuntime
	assert.True(errors.As(err, &runtime))
	assert.Equal(2, runtime.LineNo)
	assert.Equal(uint8(3), emu.Cpu.A)
}

func TestEmulatorReport(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newEmulator(t)
	assert.NoError(io.WriteFile(emu.Store, "vars.bas", []byte("10 LET X=5\n20 LET N$=\"bob\"\n")))
	assert.NoError(emu.RunBasic(context.Background(), "vars.bas"))

	assert.NoError(emu.AssembleLine("LD A,0x2a"))
	assert.NoError(emu.Execute())

	lines := slices.Collect(emu.Report())
	assert.Equal(10, len(lines))
	assert.Equal(" pc: 0002", lines[0])
	assert.Equal("  a: 2A", lines[1])
	assert.Equal("X = 5", lines[8])
	assert.Equal("N$ = bob", lines[9])
}

func TestEmulatorImage(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newEmulator(t)
	program := []string{".equ N 7", "LD A,N", "ADD A,B", "CALL far", "RET"}
	for _, line := range program {
		assert.NoError(emu.AssembleLine(line))
	}
	code := emu.Asm.Bytecode()

	assert.NoError(emu.SaveImage("add.img"))

	emu.ClearAsm()
	assert.Equal(0, emu.Size())

	assert.NoError(emu.LoadImage("add.img"))
	assert.Equal(code, emu.Asm.Bytecode())

	names, err := emu.Files()
	assert.NoError(err)
	assert.Equal([]string{"add.img"}, names)
}

func TestEmulatorImageInvalid(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newEmulator(t)
	assert.NoError(emu.AssembleLine("RET"))

	err := emu.LoadImage("missing.img")
	assert.ErrorIs(err, io.ErrNotFound("missing.img"))

	// Source that does not reproduce the bytecode is refused.
	data, err := cpu.MarshalImage(&cpu.Image{
		Version:  cpu.IMAGE_VERSION,
		Source:   []string{"LD A,1"},
		Bytecode: []byte{0x3e, 0x02},
	})
	assert.NoError(err)
	assert.NoError(io.WriteFile(emu.Store, "bad.img", data))

	err = emu.LoadImage("bad.img")
	assert.ErrorIs(err, cpu.ErrImageMismatch)
	assert.Equal([]byte{0xc9}, emu.Asm.Bytecode())

	// As is source that does not assemble.
	data, err = cpu.MarshalImage(&cpu.Image{
		Version: cpu.IMAGE_VERSION,
		Source:  []string{"NOP"},
	})
	assert.NoError(err)
	assert.NoError(io.WriteFile(emu.Store, "nop.img", data))

	err = emu.LoadImage("nop.img")
	assert.ErrorIs(err, cpu.ErrInstructionInvalid)
	assert.Equal([]byte{0xc9}, emu.Asm.Bytecode())
}

func TestEmulatorSQLStore(t *testing.T) {
	assert := assert.New(t)

	store, err := io.OpenSQLStore(filepath.Join(t.TempDir(), "ucbasic.db"))
	if !assert.NoError(err) {
		return
	}

	sink := &io.Capture{}
	emu := NewEmulator(sink, store)
	emu.Log = logger.Discard()
	emu.Basic.Pace = 0

	assert.NoError(io.WriteFile(store, "hi.bas", []byte("10 PRINT \"HI\"\n")))
	assert.NoError(emu.RunBasic(context.Background(), "hi.bas"))
	assert.Equal([]string{"Running BASIC program...", "HI", "BASIC program ended."}, sink.Lines())

	assert.NoError(emu.AssembleLine("LD A,5"))
	assert.NoError(emu.SaveImage("five.img"))
	emu.ClearAsm()
	assert.NoError(emu.LoadImage("five.img"))
	assert.Equal([]byte{0x3e, 0x05}, emu.Asm.Bytecode())

	names, err := emu.Files()
	assert.NoError(err)
	assert.Equal([]string{"five.img", "hi.bas"}, names)

	assert.NoError(emu.Close())
}
