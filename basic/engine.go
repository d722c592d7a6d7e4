package basic

import (
	"context"
	"errors"
	"io/fs"
	"slices"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ezrec/ucbasic/io"
)

const (
	PACE = 500 * time.Millisecond // Default delay after each executed line.
)

// pendingStatement is an IF...THEN statement awaiting execution on the
// next step, as if it were the line at Pc.
type pendingStatement struct {
	text string
	pc   int
}

// Engine is the BASIC program engine: program lines, variables, program
// counter, call stack and the step loop.
type Engine struct {
	Verbose     bool          // Set to enable step tracing.
	Log         *log.Logger   // Diagnostic log, log.Default() if nil.
	Sink        io.Sink       // Program output, discarded if nil.
	Pace        time.Duration // Delay after each step.
	StrictGosub bool          // GOSUB to a missing line aborts the run.
	StackLimit  int           // Call stack depth, STACK_LIMIT if zero.

	Lines []string // Program line sequence.
	Vars  Vars     // Variable bindings.
	Pc    int      // Index into Lines.
	Stack Stack    // Call stack of return indexes.
	Loops []Loop   // Active FOR frames, innermost last.

	pending *pendingStatement
	state   atomic.Int32
}

// NewEngine creates an engine writing to sink with the default pacing.
func NewEngine(sink io.Sink) (engine *Engine) {
	engine = &Engine{
		Sink: sink,
		Pace: PACE,
	}

	return
}

func (engine *Engine) logger() *log.Logger {
	if engine.Log != nil {
		return engine.Log
	}
	return log.Default()
}

func (engine *Engine) trace(msg string, keyvals ...any) {
	if engine.Verbose {
		engine.logger().Debug(msg, keyvals...)
	}
}

// State returns the current execution state.
func (engine *Engine) State() State {
	return State(engine.state.Load())
}

// Running reports whether a program is executing.
func (engine *Engine) Running() bool {
	return engine.State() == STATE_RUNNING
}

// Load replaces the program lines and returns the engine to idle.
func (engine *Engine) Load(lines []string) {
	engine.Lines = slices.Clone(lines)
	engine.state.Store(int32(STATE_IDLE))
}

// Start resets the run state and enters Running: Pc at zero, call stack
// empty, no variables.
func (engine *Engine) Start() {
	engine.Pc = 0
	engine.Stack.Limit = engine.StackLimit
	engine.Stack.Reset()
	engine.Vars.Clear()
	engine.Loops = nil
	engine.pending = nil
	engine.state.Store(int32(STATE_RUNNING))

	engine.trace("basic: start", "lines", len(engine.Lines))
}

// Stop requests a running program to halt. It is observed before the
// next step.
func (engine *Engine) Stop() {
	if engine.state.CompareAndSwap(int32(STATE_RUNNING), int32(STATE_HALTED)) {
		engine.trace("basic: stop requested")
	}
}

func (engine *Engine) emit(text string) (err error) {
	if engine.Sink == nil {
		return
	}

	return engine.Sink.EmitLine(text)
}

// abort ends the run on a fatal condition, reporting it on the sink.
func (engine *Engine) abort(err error) error {
	engine.state.Store(int32(STATE_ABORTED))
	engine.logger().Error("basic: aborted", "err", err)
	return errors.Join(err, engine.emit(f("Error: %v", err)))
}

// Tick executes a single step. done is set once the program has halted
// or aborted; err is set only when the run aborted.
func (engine *Engine) Tick() (done bool, err error) {
	if !engine.Running() {
		done = true
		return
	}

	var text string
	var label string

	if engine.pending != nil {
		text = engine.pending.text
		engine.Pc = engine.pending.pc
		engine.pending = nil
		label, _, _ = SplitLabel(engine.Lines[engine.Pc])
		engine.trace("basic: pending", "line", label, "text", text)
	} else {
		if engine.Pc < 0 || engine.Pc >= len(engine.Lines) {
			engine.state.CompareAndSwap(int32(STATE_RUNNING), int32(STATE_HALTED))
			done = true
			return
		}

		line := engine.Lines[engine.Pc]
		engine.trace("basic: exec", "pc", engine.Pc, "line", line)

		var ok bool
		label, text, ok = SplitLabel(line)
		if !ok {
			engine.Pc++
			return
		}
	}

	pc := engine.Pc
	jumped, err := engine.execute(text)
	if err != nil {
		err = engine.abort(&ErrRuntime{LineNo: pc + 1, Label: label, Err: err})
		done = true
		return
	}

	if !jumped {
		engine.Pc++
	}

	done = !engine.Running()
	return
}

// execute runs one statement. jumped is set when the statement moved Pc
// to the line that runs next.
func (engine *Engine) execute(text string) (jumped bool, err error) {
	cmd := Decode(text)
	if cmd.Err != nil {
		engine.logger().Warn("basic: skipped",
			"err", &ErrSyntax{LineNo: engine.Pc + 1, Line: text, Err: cmd.Err})
		return
	}

	switch cmd.Kind {
	case KIND_PRINT:
		err = engine.print(cmd.Arg)
	case KIND_LET:
		if IsText(cmd.Name) {
			value, ok := unquote(cmd.Arg)
			if !ok {
				value = engine.Vars.EvalText(cmd.Arg)
			}
			engine.Vars.SetStr(cmd.Name, value)
			engine.trace("basic: let", "name", cmd.Name, "value", value)
		} else {
			value := engine.Vars.EvalNumeric(cmd.Arg)
			engine.Vars.SetNum(cmd.Name, value)
			engine.trace("basic: let", "name", cmd.Name, "value", value)
		}
	case KIND_IF:
		taken := engine.Vars.EvalCondition(cmd.Cond) != 0
		engine.trace("basic: if", "cond", cmd.Cond, "taken", taken)
		if !taken {
			break
		}
		stmt := Decode(cmd.Then)
		if stmt.Kind == KIND_PRINT && stmt.Err == nil {
			err = engine.print(stmt.Arg)
			break
		}
		engine.pending = &pendingStatement{text: cmd.Then, pc: engine.Pc}
	case KIND_FOR:
		engine.Vars.SetNum(cmd.Name, 1)
		bound := engine.Vars.EvalNumeric(cmd.Arg)
		if n := findLoop(engine.Loops, cmd.Name); n >= 0 {
			engine.Loops = engine.Loops[:n]
		}
		engine.Loops = append(engine.Loops, Loop{Name: cmd.Name, Bound: bound, Body: engine.Pc + 1})
		engine.trace("basic: for", "name", cmd.Name, "bound", bound)
	case KIND_NEXT:
		jumped = engine.next(cmd.Name)
	case KIND_GOSUB:
		target := findLabel(engine.Lines, cmd.Arg)
		if target < 0 && engine.StrictGosub {
			err = ErrLineUndefined(cmd.Arg)
			break
		}
		err = engine.Stack.Push(engine.Pc)
		if err != nil {
			break
		}
		if target < 0 {
			engine.logger().Warn("basic: gosub target missing", "line", cmd.Arg, "depth", len(engine.Stack.Data))
			break
		}
		engine.trace("basic: gosub", "line", cmd.Arg, "pc", target)
		engine.Pc = target
		jumped = true
	case KIND_RETURN:
		pc, ok := engine.Stack.Pop()
		if !ok {
			engine.trace("basic: return without gosub")
			break
		}
		engine.trace("basic: return", "pc", pc+1)
		engine.Pc = pc
	case KIND_END:
		engine.state.CompareAndSwap(int32(STATE_RUNNING), int32(STATE_HALTED))
		engine.trace("basic: end")
	case KIND_INPUT:
		err = engine.emit(f("INPUT: Enter value (not supported)"))
	}

	return
}

// print emits a PRINT argument: quoted text verbatim, text variables by
// value, everything else as a number.
func (engine *Engine) print(arg string) (err error) {
	output, ok := unquote(arg)
	if !ok {
		if IsText(arg) {
			output = engine.Vars.EvalText(arg)
		} else {
			output = FormatNumber(engine.Vars.EvalNumeric(arg))
		}
	}

	engine.trace("basic: print", "text", output)
	return engine.emit(output)
}

// next advances the innermost loop on name, jumping back to its body
// until the bound is passed.
func (engine *Engine) next(name string) (jumped bool) {
	n := findLoop(engine.Loops, name)
	if n < 0 {
		engine.trace("basic: next without for", "name", name)
		return
	}
	engine.Loops = engine.Loops[:n+1]
	loop := engine.Loops[n]

	value, ok := engine.Vars.GetNum(name)
	if ok && value < loop.Bound {
		engine.Vars.SetNum(name, value+1)
		engine.Pc = loop.Body
		jumped = true
		engine.trace("basic: next", "name", name, "value", value+1)
		return
	}

	engine.Vars.Delete(name)
	engine.Loops = engine.Loops[:n]
	engine.trace("basic: next end", "name", name)
	return
}

// Run starts the loaded program and steps it until it halts, aborts, or
// is cancelled. Cancellation is observed once per step.
func (engine *Engine) Run(ctx context.Context) (err error) {
	engine.Start()

	for {
		var done bool
		done, err = engine.Tick()
		if done {
			break
		}

		if engine.Pace > 0 {
			timer := time.NewTimer(engine.Pace)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}

		if ctx.Err() != nil {
			engine.Stop()
			err = ctx.Err()
			break
		}
	}

	return
}

// RunFile loads the named program from store and runs it, reporting
// progress and load failures on the sink.
func (engine *Engine) RunFile(ctx context.Context, store io.Store, name string) (err error) {
	engine.Load(nil)

	file, err := store.Open(name)
	if err != nil {
		engine.state.Store(int32(STATE_ABORTED))
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(err, engine.emit(f("File not found: %v", name)))
		} else {
			err = errors.Join(err, engine.emit(f("Error: %v", err)))
		}
		return
	}

	lines, err := Load(file)
	if cerr := file.Close(); cerr != nil {
		engine.logger().Debug("basic: close", "file", name, "err", cerr)
	}
	if err == nil && len(lines) == 0 {
		err = ErrProgramEmpty
	}
	if err != nil {
		engine.state.Store(int32(STATE_ABORTED))
		if errors.Is(err, ErrProgramEmpty) {
			err = errors.Join(err, engine.emit(f("No BASIC code!")))
		} else {
			err = errors.Join(err, engine.emit(f("Error: %v", err)))
		}
		return
	}

	engine.logger().Info("basic: loaded", "file", name, "lines", len(lines))

	engine.Load(lines)
	err = engine.emit(f("Running BASIC program..."))
	if err != nil {
		return
	}

	err = engine.Run(ctx)
	err = errors.Join(err, engine.emit(f("BASIC program ended.")))

	return
}
