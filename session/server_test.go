package session

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func TestServerTCP(t *testing.T) {
	assert := assert.New(t)

	srv := newServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ServeTCP(ctx, ln)
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	assert.NoError(err)
	defer conn.Close()

	reader := bufio.NewReader(conn)
	readUntil := func(want string) {
		assert.NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
		for {
			line, err := reader.ReadString('\n')
			if !assert.NoError(err, want) {
				return
			}
			assert.True(strings.HasSuffix(line, "\r\n"))
			if strings.TrimRight(line, "\r\n") == want {
				return
			}
		}
	}

	readUntil(menu[len(menu)-1])

	_, err = fmt.Fprint(conn, "asm LD A,7\r\nsize\r\n")
	assert.NoError(err)
	readUntil("OK, size 2")
	readUntil("Bytecode size: 2 bytes")

	_, err = fmt.Fprint(conn, "quit\r\n")
	assert.NoError(err)
	readUntil("Bye.")

	cancel()
	select {
	case err = <-done:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func dialWebSocket(t *testing.T, ts *httptest.Server, origin string) (conn *websocket.Conn, resp *http.Response, err error) {
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	header := http.Header{}
	if len(origin) > 0 {
		header.Set("Origin", origin)
	}
	conn, resp, err = websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return
}

func TestServerWebSocket(t *testing.T) {
	assert := assert.New(t)

	srv := newServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := dialWebSocket(t, ts, ts.URL)
	if !assert.NoError(err) {
		return
	}

	readUntil := func(want string) {
		assert.NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
		for {
			kind, data, err := conn.ReadMessage()
			if !assert.NoError(err, want) {
				return
			}
			assert.Equal(websocket.TextMessage, kind)
			if string(data) == want {
				return
			}
		}
	}

	readUntil(menu[len(menu)-1])

	assert.NoError(conn.WriteMessage(websocket.TextMessage, []byte("asm LD A,7\nsize")))
	readUntil("OK, size 2")
	readUntil("Bytecode size: 2 bytes")

	assert.NoError(conn.WriteMessage(websocket.TextMessage, []byte("quit")))
	readUntil("Bye.")

	_, _, err = conn.ReadMessage()
	assert.True(websocket.IsCloseError(err, websocket.CloseNormalClosure), err)
}

func TestServerWebSocketOrigin(t *testing.T) {
	assert := assert.New(t)

	srv := newServer(t)
	srv.Config.Session.AllowedOrigins = []string{"http://good.example"}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, resp, err := dialWebSocket(t, ts, "http://evil.example")
	assert.Error(err)
	if assert.NotNil(resp) {
		assert.Equal(http.StatusForbidden, resp.StatusCode)
	}

	_, _, err = dialWebSocket(t, ts, "http://good.example")
	assert.NoError(err)

	// Without an allow list only the same host is accepted.
	ts = httptest.NewServer(newServer(t).Handler())
	defer ts.Close()

	_, _, err = dialWebSocket(t, ts, "http://good.example")
	assert.Error(err)

	_, _, err = dialWebSocket(t, ts, ts.URL)
	assert.NoError(err)

	_, _, err = dialWebSocket(t, ts, "")
	assert.NoError(err)
}

func TestServerNoListener(t *testing.T) {
	assert := assert.New(t)

	srv := newServer(t)
	srv.Config.Session.Telnet = ""
	srv.Config.Session.WebSocket = ""

	err := srv.ListenAndServe(context.Background())
	assert.ErrorIs(err, ErrNoListener)
}

func TestServerListenAndServe(t *testing.T) {
	assert := assert.New(t)

	srv := newServer(t)
	srv.Config.Session.Telnet = "127.0.0.1:0"
	srv.Config.Session.WebSocket = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
