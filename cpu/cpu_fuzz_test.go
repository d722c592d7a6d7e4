package cpu

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ucbasic/internal/logger"
)

func FuzzCpu(f *testing.F) {
	f.Add([]byte{0x3e, 0x07, 0x80, 0xc9})
	f.Add([]byte{0xcd, 0x00, 0x00, 0x81})
	f.Add([]byte{0x3e})
	f.Add([]byte{0xff, 0x00})
	f.Add(bytes.Repeat([]byte{0x80}, MEMORY_SIZE))
	f.Add(append(bytes.Repeat([]byte{0x81}, MEMORY_SIZE-1), 0xcd))

	f.Fuzz(func(t *testing.T, code []byte) {
		cpu := NewCpu(code)
		cpu.Log = logger.Discard()

		_ = cpu.Execute()

		// Every instruction consumes at least one byte.
		assert.LessOrEqual(t, cpu.Ticks, len(code))
		assert.LessOrEqual(t, len(Disassemble(code)), len(code))
	})
}
