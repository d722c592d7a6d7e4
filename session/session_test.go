package session

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ucbasic/config"
	"github.com/ezrec/ucbasic/internal/logger"
	"github.com/ezrec/ucbasic/io"
)

func newServer(t *testing.T) *Server {
	cfg := config.Default()
	cfg.Basic.Pace.Duration = 0

	return &Server{
		Log:    logger.Discard(),
		Store:  io.NewDirStore(t.TempDir()),
		Config: cfg,
	}
}

func newSession(t *testing.T, srv *Server) (sess *Session, sink *io.Capture) {
	sink = &io.Capture{}
	sess = srv.NewSession(context.Background(), sink)
	t.Cleanup(sess.Close)
	return
}

func handle(t *testing.T, sess *Session, sink *io.Capture, line string) []string {
	sink.Reset()
	quit, err := sess.Handle(line)
	assert.NoError(t, err, line)
	assert.False(t, quit, line)
	return sink.Lines()
}

func waitFor(t *testing.T, sink *io.Capture, line string) {
	assert.Eventually(t, func() bool {
		return slices.Contains(sink.Lines(), line)
	}, 5*time.Second, time.Millisecond, line)
}

func TestSessionBanner(t *testing.T) {
	assert := assert.New(t)

	sess, sink := newSession(t, newServer(t))
	assert.NoError(sess.Banner())

	lines := sink.Lines()
	assert.Equal(1+len(menu), len(lines))
	assert.Equal("ucbasic session "+sess.Id.String(), lines[0])
	assert.Equal(MODE_MENU, sess.Mode())
	assert.Equal("menu", sess.Mode().String())
}

func TestSessionAssembler(t *testing.T) {
	assert := assert.New(t)

	sess, sink := newSession(t, newServer(t))

	assert.Equal([]string{"Bytecode size: 0 bytes"}, handle(t, sess, sink, "size"))
	assert.Equal([]string{"(empty)"}, handle(t, sess, sink, "list"))
	assert.Equal([]string{"No bytecode! Use 'asm' first."}, handle(t, sess, sink, "exec"))

	assert.Equal([]string{"OK, size 2"}, handle(t, sess, sink, "asm LD A,7"))
	assert.Equal([]string{"OK, size 3"}, handle(t, sess, sink, "asm ADD A,B"))
	assert.Equal([]string{"OK, size 4"}, handle(t, sess, sink, "asm RET"))

	lines := handle(t, sess, sink, "asm NOP")
	assert.Equal(1, len(lines))
	assert.True(strings.HasPrefix(lines[0], "ASM error: "), lines[0])
	assert.Contains(lines[0], "instruction invalid")

	lines = handle(t, sess, sink, "exec")
	assert.Equal(9, len(lines))
	assert.Equal("VM halted.", lines[0])
	assert.Contains(lines, "  a: 07")

	assert.Equal([]string{
		"0000: 3e 07     LD A,7",
		"0002: 80        ADD A,B",
		"0003: c9        RET",
	}, handle(t, sess, sink, "list"))

	assert.Equal([]string{"Saved prog.img"}, handle(t, sess, sink, "save prog.img"))
	assert.Equal([]string{"Bytecode cleared."}, handle(t, sess, sink, "asm clear"))
	assert.Equal([]string{"Bytecode size: 0 bytes"}, handle(t, sess, sink, "size"))
	assert.Equal([]string{"Loaded prog.img, size 4"}, handle(t, sess, sink, "load prog.img"))
	assert.Equal([]string{"Error: file nope.img not found"}, handle(t, sess, sink, "load nope.img"))
	assert.Equal([]string{"prog.img"}, handle(t, sess, sink, "ls"))

	assert.Equal(8, len(handle(t, sess, sink, "regs")))
	assert.Equal([]string{"Usage: save <name>"}, handle(t, sess, sink, "save"))
	assert.Equal([]string{"Usage: asm <line> | asm clear"}, handle(t, sess, sink, "asm"))
}

func TestSessionMenu(t *testing.T) {
	assert := assert.New(t)

	sess, sink := newSession(t, newServer(t))

	assert.Equal(menu, handle(t, sess, sink, "help"))
	assert.Equal(menu, handle(t, sess, sink, "back"))
	assert.Empty(handle(t, sess, sink, "   "))
	assert.Equal([]string{"(no files)"}, handle(t, sess, sink, "ls"))
	assert.Equal([]string{"No program running."}, handle(t, sess, sink, "stop"))
	assert.Equal([]string{"Unknown command: frob. Type 'help'."}, handle(t, sess, sink, "frob 1 2"))
	assert.Equal([]string{"Usage: run <file>"}, handle(t, sess, sink, "run"))
	assert.Equal(MODE_MENU, sess.Mode())

	sink.Reset()
	quit, err := sess.Handle("quit")
	assert.NoError(err)
	assert.True(quit)
	assert.Equal([]string{"Bye."}, sink.Lines())
}

func TestSessionRun(t *testing.T) {
	assert := assert.New(t)

	srv := newServer(t)
	assert.NoError(io.WriteFile(srv.Store, "hello.bas", []byte("10 LET X=3\n20 PRINT \"HELLO\"\n")))

	sess, sink := newSession(t, srv)

	handle(t, sess, sink, "run hello.bas")
	assert.Equal(MODE_BASIC, sess.Mode())
	waitFor(t, sink, "Type 'back' to menu.")

	assert.Equal([]string{
		"Running BASIC program...",
		"HELLO",
		"BASIC program ended.",
		"Type 'back' to menu.",
	}, sink.Lines())

	// Only back leaves BASIC mode.
	assert.Equal([]string{"Type 'back' to menu."}, handle(t, sess, sink, "ls"))
	assert.Equal([]string{"No program running."}, handle(t, sess, sink, "stop"))
	assert.Equal(menu, handle(t, sess, sink, "back"))
	assert.Equal(MODE_MENU, sess.Mode())

	assert.Equal([]string{"X = 3"}, handle(t, sess, sink, "vars"))
}

func TestSessionRunMissing(t *testing.T) {
	assert := assert.New(t)

	sess, sink := newSession(t, newServer(t))

	handle(t, sess, sink, "run nope.bas")
	waitFor(t, sink, "Type 'back' to menu.")
	assert.Equal([]string{"File not found: nope.bas", "Type 'back' to menu."}, sink.Lines())
}

func TestSessionStop(t *testing.T) {
	assert := assert.New(t)

	srv := newServer(t)
	srv.Config.Basic.Pace.Duration = time.Hour
	assert.NoError(io.WriteFile(srv.Store, "slow.bas", []byte("10 PRINT 1\n20 PRINT 2\n")))

	sess, sink := newSession(t, srv)

	handle(t, sess, sink, "run slow.bas")
	waitFor(t, sink, "1")
	assert.True(sess.Busy())

	assert.Equal([]string{"Program running. Type 'stop' or 'back'."}, handle(t, sess, sink, "asm RET"))

	lines := handle(t, sess, sink, "stop")
	assert.Contains(lines, "Stopping BASIC program...")
	waitFor(t, sink, "Type 'back' to menu.")

	assert.Eventually(func() bool { return !sess.Busy() }, 5*time.Second, time.Millisecond)
	assert.NotContains(sink.Lines(), "2")

	assert.Equal(menu, handle(t, sess, sink, "back"))
	assert.Equal([]string{"OK, size 1"}, handle(t, sess, sink, "asm RET"))
}

func TestSessionBackWhileRunning(t *testing.T) {
	assert := assert.New(t)

	srv := newServer(t)
	srv.Config.Basic.Pace.Duration = time.Hour
	assert.NoError(io.WriteFile(srv.Store, "slow.bas", []byte("10 PRINT 1\n20 PRINT 2\n")))

	sess, sink := newSession(t, srv)

	handle(t, sess, sink, "run slow.bas")
	waitFor(t, sink, "1")

	lines := handle(t, sess, sink, "back")
	assert.Contains(lines, menu[0])
	assert.Equal(MODE_MENU, sess.Mode())

	waitFor(t, sink, "BASIC program ended.")
	assert.Eventually(func() bool { return !sess.Busy() }, 5*time.Second, time.Millisecond)
	assert.NotContains(sink.Lines(), "Type 'back' to menu.")

	assert.Equal([]string{"Bytecode size: 0 bytes"}, handle(t, sess, sink, "size"))
}

type lockedBuffer struct {
	mutex sync.Mutex
	buff  strings.Builder
}

func (lb *lockedBuffer) Write(data []byte) (int, error) {
	lb.mutex.Lock()
	defer lb.mutex.Unlock()
	return lb.buff.Write(data)
}

func (lb *lockedBuffer) String() string {
	lb.mutex.Lock()
	defer lb.mutex.Unlock()
	return lb.buff.String()
}

func TestSessionRunHintError(t *testing.T) {
	assert := assert.New(t)

	var logged lockedBuffer
	srv := newServer(t)
	srv.Log = logger.New(&logged, true, true)
	assert.NoError(io.WriteFile(srv.Store, "hello.bas", []byte("10 PRINT \"HELLO\"\n")))

	hint := "Type 'back' to menu."
	capture := &io.Capture{}
	sink := io.SinkFunc(func(text string) error {
		if text == hint {
			return errors.New("hint dropped")
		}
		return capture.EmitLine(text)
	})

	sess := srv.NewSession(context.Background(), sink)
	t.Cleanup(sess.Close)

	_, err := sess.Handle("run hello.bas")
	assert.NoError(err)

	assert.Eventually(func() bool {
		return strings.Contains(logged.String(), "hint dropped")
	}, 5*time.Second, time.Millisecond)
	assert.Contains(logged.String(), "session: emit")
	assert.NotContains(capture.Lines(), hint)
}
