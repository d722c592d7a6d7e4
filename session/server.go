package session

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/ezrec/ucbasic/config"
	"github.com/ezrec/ucbasic/emulator"
	"github.com/ezrec/ucbasic/io"
)

const (
	WRITE_WAIT       = 10 * time.Second // Deadline for a WebSocket write.
	MAX_MESSAGE_SIZE = 4096             // Largest accepted WebSocket message.
)

// Server accepts remote sessions. Every session gets its own emulator,
// sharing the program store.
type Server struct {
	Log    *log.Logger
	Store  io.Store
	Config *config.Config

	wg sync.WaitGroup
}

func (srv *Server) logger() *log.Logger {
	if srv.Log != nil {
		return srv.Log
	}
	return log.Default()
}

func (srv *Server) config() *config.Config {
	if srv.Config != nil {
		return srv.Config
	}
	return config.Default()
}

// NewSession creates a session writing to sink.
func (srv *Server) NewSession(ctx context.Context, sink io.Sink) (sess *Session) {
	cfg := srv.config()

	emu := emulator.NewEmulator(sink, srv.Store)
	emu.Log = srv.Log
	emu.Verbose = cfg.Log.Verbose
	cfg.Apply(emu.Basic)

	return New(ctx, emu)
}

// ServeConn runs a session over a byte stream connection until the user
// quits, the connection drops, or ctx is cancelled.
func (srv *Server) ServeConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	tape := &io.Tape{Input: conn, Output: conn, Newline: "\r\n"}
	defer tape.Close()

	sess := srv.NewSession(ctx, tape)
	defer sess.Close()

	sess.logger().Info("session: tcp", "remote", conn.RemoteAddr().String())

	err := sess.Banner()
	if err != nil {
		return
	}

	for line := range tape.Lines() {
		quit, err := sess.Handle(line)
		if err != nil {
			sess.logger().Warn("session: write failed", "err", err)
			return
		}
		if quit {
			return
		}
	}
}

// ServeTCP accepts telnet style connections until ctx is cancelled.
func (srv *Server) ServeTCP(ctx context.Context, ln net.Listener) (err error) {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	srv.logger().Info("server: telnet listening", "addr", ln.Addr().String())

	for {
		var conn net.Conn
		conn, err = ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				err = nil
			}
			break
		}

		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			srv.ServeConn(ctx, conn)
		}()
	}

	srv.wg.Wait()
	return
}

// wsSink emits each line as one WebSocket text message.
type wsSink struct {
	mutex sync.Mutex
	conn  *websocket.Conn
}

func (ws *wsSink) EmitLine(text string) (err error) {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	err = ws.conn.SetWriteDeadline(time.Now().Add(WRITE_WAIT))
	if err != nil {
		return
	}

	return ws.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// checkOrigin accepts the configured origins, or same host requests when
// none are configured.
func (srv *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(origin) == 0 {
		return true
	}

	allowed := srv.config().Session.AllowedOrigins
	if len(allowed) > 0 {
		return slices.Contains(allowed, origin)
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Handler returns the WebSocket session endpoint.
func (srv *Server) Handler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     srv.checkOrigin,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			srv.logger().Warn("server: websocket upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		conn.SetReadLimit(MAX_MESSAGE_SIZE)

		sess := srv.NewSession(r.Context(), &wsSink{conn: conn})
		defer sess.Close()

		sess.logger().Info("session: websocket", "remote", r.RemoteAddr)

		err = sess.Banner()
		if err != nil {
			return
		}

		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					sess.logger().Debug("session: websocket read", "err", err)
				}
				return
			}
			if kind != websocket.TextMessage {
				continue
			}

			for _, line := range strings.Split(string(data), "\n") {
				quit, err := sess.Handle(line)
				if err != nil || quit {
					conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(WRITE_WAIT))
					return
				}
			}
		}
	})
}

// ListenAndServe starts the configured listeners and blocks until ctx is
// cancelled or a listener fails.
func (srv *Server) ListenAndServe(ctx context.Context) (err error) {
	cfg := srv.config()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	count := 0

	if len(cfg.Session.Telnet) > 0 {
		var ln net.Listener
		ln, err = net.Listen("tcp", cfg.Session.Telnet)
		if err != nil {
			return
		}
		count++
		go func() {
			errs <- srv.ServeTCP(ctx, ln)
		}()
	}

	if len(cfg.Session.WebSocket) > 0 {
		mux := http.NewServeMux()
		mux.Handle(cfg.Session.WsPath, srv.Handler())
		hs := &http.Server{
			Addr:              cfg.Session.WebSocket,
			Handler:           mux,
			ReadHeaderTimeout: WRITE_WAIT,
		}
		count++
		go func() {
			srv.logger().Info("server: websocket listening", "addr", hs.Addr, "path", cfg.Session.WsPath)
			err := hs.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			errs <- err
		}()
		go func() {
			<-ctx.Done()
			hs.Close()
		}()
	}

	if count == 0 {
		err = ErrNoListener
		return
	}

	for range count {
		e := <-errs
		if e != nil && err == nil {
			err = e
			cancel()
		}
	}

	return
}
