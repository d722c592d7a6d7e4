package cpu

import (
	"fmt"

	"github.com/charmbracelet/log"
)

const (
	MEMORY_SIZE = 0x10000 // Bytes addressable by the 16-bit PC.
)

// Cpu is the register file and fetch-decode-execute loop of the mini VM.
type Cpu struct {
	Verbose bool        // Set to enable verbose logging.
	Log     *log.Logger // Diagnostic log, log.Default() if nil.

	A, B, C, D, E, H, L uint8  // Register bank.
	Pc                  uint16 // Program counter.

	Bytecode []byte // Program memory.
	Ticks    int    // Instructions executed since reset.

	wrapped bool // PC has run past the top of memory.
}

// NewCpu creates a new CPU loaded with bytecode.
func NewCpu(bytecode []byte) (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Load(bytecode)

	return
}

func (cpu *Cpu) logger() *log.Logger {
	if cpu.Log != nil {
		return cpu.Log
	}
	return log.Default()
}

// Load replaces the program memory.
func (cpu *Cpu) Load(bytecode []byte) {
	cpu.Bytecode = bytecode
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 3s: %04X\n", "pc", cpu.Pc)
	regs := []struct {
		name  string
		value uint8
	}{
		{"a", cpu.A}, {"b", cpu.B}, {"c", cpu.C}, {"d", cpu.D},
		{"e", cpu.E}, {"h", cpu.H}, {"l", cpu.L},
	}
	for _, reg := range regs {
		text += fmt.Sprintf("% 3s: %02X\n", reg.name, reg.value)
	}

	return
}

// Reset the CPU state.
// - Clears the registers and program counter.
// - Zeros the tick counter.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		cpu.logger().Debug("cpu: reset")
	}

	cpu.A, cpu.B, cpu.C, cpu.D, cpu.E, cpu.H, cpu.L = 0, 0, 0, 0, 0, 0, 0
	cpu.Pc = 0
	cpu.Ticks = 0
	cpu.wrapped = false
}

// advance moves the PC forward, noting when it leaves the address space.
func (cpu *Cpu) advance(count int) {
	next := int(cpu.Pc) + count
	if next >= MEMORY_SIZE {
		cpu.wrapped = true
	}
	cpu.Pc = uint16(next)
}

// fetch reads the byte at the PC, advancing it.
func (cpu *Cpu) fetch() (value byte, ok bool) {
	if cpu.wrapped || int(cpu.Pc) >= len(cpu.Bytecode) {
		return
	}
	value = cpu.Bytecode[cpu.Pc]
	cpu.advance(1)
	ok = true
	return
}

// Tick executes a single instruction.
// done is set when the program returns, runs off the end of the bytecode or
// of the address space, or faults; on a fault the registers keep their
// last state.
func (cpu *Cpu) Tick() (done bool, err error) {
	if len(cpu.Bytecode) > MEMORY_SIZE {
		done = true
		err = ErrMemorySize
		return
	}

	pc := cpu.Pc
	code, ok := cpu.fetch()
	if !ok {
		done = true
		return
	}

	op := Opcode(code)
	if cpu.Verbose {
		cpu.logger().Debug("cpu", "pc", fmt.Sprintf("%04x", pc), "op", op.String())
	}

	cpu.Ticks++

	switch op {
	case OP_LD_A_N:
		value, ok := cpu.fetch()
		if !ok {
			done = true
			err = ErrOperandMissing
			break
		}
		cpu.A = value
	case OP_ADD_A_B:
		cpu.A += cpu.B
	case OP_ADD_A_C:
		cpu.A += cpu.C
	case OP_RET:
		done = true
	case OP_CALL_NN:
		// The call target is a placeholder: skip it.
		cpu.advance(2)
	default:
		done = true
		err = ErrOpcode{Pc: pc, Opcode: op}
	}

	if err != nil {
		cpu.logger().Error("cpu: halted", "pc", fmt.Sprintf("%04x", pc), "err", err)
	}

	return
}

// Run ticks the CPU until it halts, without resetting it first.
func (cpu *Cpu) Run() (err error) {
	for done := false; !done; {
		done, err = cpu.Tick()
	}

	return
}

// Execute resets the register file, then runs the loaded bytecode.
func (cpu *Cpu) Execute() (err error) {
	cpu.Reset()

	return cpu.Run()
}
