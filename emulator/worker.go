package emulator

import (
	"context"
	"sync"
	"sync/atomic"
)

// request is a unit of work to be executed on the worker goroutine.
type request struct {
	fn   func(*Emulator) error
	done chan error // nil for asynchronous requests
}

// Worker serializes all access to an Emulator through a single goroutine,
// so only one operation, and at most one program run, is active at a time.
type Worker struct {
	emu      *Emulator
	requests chan request
	quit     chan struct{}
	once     sync.Once
	busy     atomic.Bool

	mutex  sync.Mutex
	cancel context.CancelFunc // Cancels the current run.
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker(emu *Emulator) *Worker {
	w := &Worker{
		emu:      emu,
		requests: make(chan request, 16),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			err := w.execute(req.fn)
			if req.done != nil {
				req.done <- err
			}
		case <-w.quit:
			return
		}
	}
}

// execute runs a function on the emulator, recovering from panics.
func (w *Worker) execute(fn func(*Emulator) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.emu.logger().Error("emulator: panic", "value", r)
			err = &ErrPanic{Value: r}
		}
	}()

	return fn(w.emu)
}

func (w *Worker) submit(req request) (err error) {
	select {
	case <-w.quit:
		err = ErrWorkerStopped
		return
	default:
	}

	select {
	case w.requests <- req:
	case <-w.quit:
		err = ErrWorkerStopped
	}
	return
}

// Do submits a function for execution on the worker goroutine and blocks
// until it completes.
func (w *Worker) Do(fn func(*Emulator) error) (err error) {
	req := request{
		fn:   fn,
		done: make(chan error, 1),
	}

	err = w.submit(req)
	if err != nil {
		return
	}

	select {
	case err = <-req.done:
	case <-w.quit:
		err = ErrWorkerStopped
	}
	return
}

// RunBasic starts a BASIC program on the worker goroutine and returns
// immediately. finished, if not nil, is called with the run result.
func (w *Worker) RunBasic(ctx context.Context, name string, finished func(err error)) (err error) {
	if !w.busy.CompareAndSwap(false, true) {
		err = ErrBusy
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.mutex.Lock()
	w.cancel = cancel
	w.mutex.Unlock()

	err = w.submit(request{
		fn: func(emu *Emulator) (err error) {
			defer func() {
				cancel()
				w.busy.Store(false)
				if finished != nil {
					finished(err)
				}
			}()
			return emu.RunBasic(ctx, name)
		},
	})
	if err != nil {
		cancel()
		w.busy.Store(false)
	}

	return
}

// Busy reports whether a BASIC program run is queued or executing.
func (w *Worker) Busy() bool {
	return w.busy.Load()
}

// Interrupt asks a running, or queued, BASIC program to halt.
func (w *Worker) Interrupt() {
	w.mutex.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mutex.Unlock()

	w.emu.StopBasic()
}

// Stop interrupts any running program and shuts down the worker goroutine.
func (w *Worker) Stop() {
	w.once.Do(func() {
		w.Interrupt()
		close(w.quit)
	})
}

// Emulator returns the underlying emulator, for access that does not
// touch engine state.
func (w *Worker) Emulator() *Emulator {
	return w.emu
}
