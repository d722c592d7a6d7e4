// Package session implements the remote line oriented menu that drives
// the emulator, and its TCP and WebSocket transports.
package session

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ezrec/ucbasic/emulator"
	"github.com/ezrec/ucbasic/io"
	"github.com/ezrec/ucbasic/translate"
)

var f = translate.From

var menu = []string{
	"Commands:",
	"  ls              list program files",
	"  run <file>      run a BASIC program",
	"  stop            stop the running program",
	"  asm <line>      assemble a line into the bytecode buffer",
	"  asm clear       clear the bytecode buffer",
	"  exec            execute the bytecode buffer",
	"  regs            show the VM registers",
	"  vars            show the BASIC variables",
	"  size            show the bytecode size",
	"  list            disassemble the bytecode buffer",
	"  save <name>     save the bytecode buffer as an image",
	"  load <name>     load an image into the bytecode buffer",
	"  help            show this menu",
	"  quit            end the session",
}

// Session is one remote user's menu, driving a private emulator.
type Session struct {
	Id  uuid.UUID
	Log *log.Logger

	sink   io.Sink
	worker *emulator.Worker
	ctx    context.Context
	cancel context.CancelFunc
	mode   atomic.Int32
}

// New creates a session over an emulator. The session owns the emulator
// until Close.
func New(ctx context.Context, emu *emulator.Emulator) (sess *Session) {
	sess = &Session{
		Id:     uuid.New(),
		Log:    emu.Log,
		sink:   emu.Sink,
		worker: emulator.NewWorker(emu),
	}
	sess.ctx, sess.cancel = context.WithCancel(ctx)

	return
}

func (sess *Session) logger() *log.Logger {
	logger := sess.Log
	if logger == nil {
		logger = log.Default()
	}
	return logger.With("session", sess.Id.String())
}

// Mode returns the current input routing mode.
func (sess *Session) Mode() Mode {
	return Mode(sess.mode.Load())
}

// Busy reports whether a BASIC program run is in progress.
func (sess *Session) Busy() bool {
	return sess.worker.Busy()
}

// Close stops any running program and releases the emulator.
func (sess *Session) Close() {
	sess.cancel()
	sess.worker.Stop()
	sess.logger().Info("session: closed")
}

func (sess *Session) emit(lines ...string) (err error) {
	for _, line := range lines {
		err = sess.sink.EmitLine(line)
		if err != nil {
			return
		}
	}
	return
}

func (sess *Session) emitAll(lines iter.Seq[string]) (err error) {
	return sess.emit(slices.Collect(lines)...)
}

// Banner greets the user with the menu.
func (sess *Session) Banner() (err error) {
	sess.logger().Info("session: opened")

	err = sess.emit(f("ucbasic session %v", sess.Id.String()))
	if err != nil {
		return
	}

	return sess.emit(menu...)
}

// Handle processes one line of user input. quit is set when the user
// ends the session.
func (sess *Session) Handle(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)

	if sess.Mode() == MODE_BASIC {
		err = sess.handleBasic(line)
		return
	}

	if len(line) == 0 {
		return
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	sess.logger().Debug("session: command", "cmd", cmd, "arg", arg)

	switch strings.ToLower(cmd) {
	case "help", "menu", "back", "?":
		err = sess.emit(menu...)
	case "ls":
		err = sess.list()
	case "run":
		err = sess.run(arg)
	case "stop":
		err = sess.emit(f("No program running."))
	case "asm":
		err = sess.assemble(arg)
	case "exec":
		err = sess.exec()
	case "regs":
		err = sess.do(func(emu *emulator.Emulator) error {
			return sess.emitAll(emu.Registers())
		})
	case "vars":
		err = sess.do(func(emu *emulator.Emulator) error {
			return sess.emitAll(emu.Variables())
		})
	case "status":
		err = sess.do(func(emu *emulator.Emulator) error {
			return sess.emitAll(emu.Report())
		})
	case "size":
		err = sess.do(func(emu *emulator.Emulator) error {
			return sess.emit(f("Bytecode size: %d bytes", emu.Size()))
		})
	case "list":
		err = sess.do(func(emu *emulator.Emulator) error {
			listing := emu.Listing()
			if len(listing) == 0 {
				return sess.emit(f("(empty)"))
			}
			return sess.emit(listing...)
		})
	case "save":
		err = sess.image(arg, true)
	case "load":
		err = sess.image(arg, false)
	case "quit", "exit":
		quit = true
		err = sess.emit(f("Bye."))
	default:
		err = sess.emit(f("Unknown command: %v. Type 'help'.", cmd))
	}

	return
}

// handleBasic routes input while in BASIC mode: only stop and back are
// accepted.
func (sess *Session) handleBasic(line string) (err error) {
	switch line {
	case "stop":
		if !sess.Busy() {
			return sess.emit(f("No program running."))
		}
		sess.worker.Interrupt()
		return sess.emit(f("Stopping BASIC program..."))
	case "back", "menu":
		sess.mode.Store(int32(MODE_MENU))
		sess.worker.Interrupt()
		return sess.emit(menu...)
	}

	if sess.Busy() {
		return sess.emit(f("Program running. Type 'stop' or 'back'."))
	}
	return sess.emit(f("Type 'back' to menu."))
}

// do runs fn on the emulator worker, reporting failures to the user.
// Only sink failures are returned.
func (sess *Session) do(fn func(emu *emulator.Emulator) error) (err error) {
	err = sess.worker.Do(fn)
	if err == nil {
		return
	}

	var sinkErr error
	if errors.Is(err, io.ErrSinkClosed) {
		sinkErr = err
	}
	return errors.Join(sinkErr, sess.emit(f("Error: %v", err)))
}

func (sess *Session) list() (err error) {
	return sess.do(func(emu *emulator.Emulator) (err error) {
		names, err := emu.Files()
		if err != nil {
			return
		}
		if len(names) == 0 {
			return sess.emit(f("(no files)"))
		}
		return sess.emit(names...)
	})
}

func (sess *Session) run(name string) (err error) {
	if len(name) == 0 {
		return sess.emit(f("Usage: run <file>"))
	}

	sess.mode.Store(int32(MODE_BASIC))
	err = sess.worker.RunBasic(sess.ctx, name, func(err error) {
		if err != nil {
			sess.logger().Info("session: run ended", "file", name, "err", err)
		}
		if sess.Mode() == MODE_BASIC {
			if eerr := sess.emit(f("Type 'back' to menu.")); eerr != nil {
				sess.logger().Debug("session: emit", "err", eerr)
			}
		}
	})
	if err != nil {
		sess.mode.Store(int32(MODE_MENU))
		return sess.emit(f("Error: %v", err))
	}

	return
}

func (sess *Session) assemble(arg string) (err error) {
	switch {
	case len(arg) == 0:
		return sess.emit(f("Usage: asm <line> | asm clear"))
	case strings.EqualFold(arg, "clear"):
		return sess.do(func(emu *emulator.Emulator) error {
			emu.ClearAsm()
			return sess.emit(f("Bytecode cleared."))
		})
	}

	return sess.do(func(emu *emulator.Emulator) error {
		err := emu.AssembleLine(arg)
		if err != nil {
			return sess.emit(f("ASM error: %v", err))
		}
		return sess.emit(f("OK, size %d", emu.Size()))
	})
}

func (sess *Session) exec() (err error) {
	return sess.do(func(emu *emulator.Emulator) error {
		if emu.Size() == 0 {
			return sess.emit(f("No bytecode! Use 'asm' first."))
		}
		err := emu.Execute()
		if err != nil {
			err = sess.emit(f("VM error: %v", err))
		} else {
			err = sess.emit(f("VM halted."))
		}
		if err != nil {
			return err
		}
		return sess.emitAll(emu.Registers())
	})
}

func (sess *Session) image(name string, save bool) (err error) {
	if len(name) == 0 {
		if save {
			return sess.emit(f("Usage: save <name>"))
		}
		return sess.emit(f("Usage: load <name>"))
	}

	return sess.do(func(emu *emulator.Emulator) (err error) {
		if save {
			err = emu.SaveImage(name)
			if err != nil {
				return
			}
			return sess.emit(f("Saved %v", name))
		}

		err = emu.LoadImage(name)
		if err != nil {
			return
		}
		return sess.emit(f("Loaded %v, size %d", name, emu.Size()))
	})
}
