package miniftp

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mockServer is a scripted FTP server on a loopback listener. Each accepted
// control connection gets the greeting, then every command line is recorded
// and dispatched to a handler.
type mockServer struct {
	t        *testing.T
	listener net.Listener
	addr     string
	greeting string

	// handlers are keyed by upper-case command; unknown commands get 502
	handlers map[string]func(c *textproto.Conn, args string)

	// data is the passive listener advertised in PASV replies
	data net.Listener

	mu       sync.Mutex
	commands []string
	done     chan struct{}
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	data, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &mockServer{
		t:        t,
		listener: l,
		data:     data,
		addr:     l.Addr().String(),
		greeting: "220 Service ready",
		handlers: make(map[string]func(*textproto.Conn, string)),
		done:     make(chan struct{}),
	}
	s.handlers["USER"] = func(c *textproto.Conn, _ string) {
		_ = c.PrintfLine("331 User name okay, need password.")
	}
	s.handlers["PASS"] = func(c *textproto.Conn, _ string) {
		_ = c.PrintfLine("230 User logged in, proceed.")
	}
	s.handlers["PASV"] = func(c *textproto.Conn, _ string) {
		_ = c.PrintfLine("%s", s.pasvReply())
	}
	return s
}

func (s *mockServer) handle(cmd string, h func(c *textproto.Conn, args string)) {
	s.handlers[cmd] = h
}

func (s *mockServer) start() {
	s.t.Cleanup(s.stop)
	go func() {
		defer close(s.done)
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tc := textproto.NewConn(conn)
		_ = tc.PrintfLine("%s", s.greeting)

		for {
			line, err := tc.ReadLine()
			if err != nil {
				return
			}

			cmd, args, _ := strings.Cut(line, " ")
			cmd = strings.ToUpper(cmd)

			s.mu.Lock()
			s.commands = append(s.commands, line)
			s.mu.Unlock()

			if h, ok := s.handlers[cmd]; ok {
				h(tc, args)
				continue
			}
			if cmd == "QUIT" {
				_ = tc.PrintfLine("221 Goodbye.")
				return
			}
			_ = tc.PrintfLine("502 Command not implemented.")
		}
	}()
}

func (s *mockServer) stop() {
	s.listener.Close()
	s.data.Close()
	<-s.done
}

// received returns the command lines seen so far.
func (s *mockServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// pasvReply advertises the passive listener.
func (s *mockServer) pasvReply() string {
	port := s.data.Addr().(*net.TCPAddr).Port
	return fmt.Sprintf("227 Entering Passive Mode (127,0,0,1,%d,%d).", port/256, port%256)
}

func (s *mockServer) acceptData() net.Conn {
	conn, err := s.data.Accept()
	if err != nil {
		s.t.Errorf("accept data connection: %v", err)
		return nil
	}
	return conn
}

// serveDownload answers a data command with 150, writes payload on the data
// channel, closes it and confirms with 226.
func (s *mockServer) serveDownload(payload []byte) func(*textproto.Conn, string) {
	return func(c *textproto.Conn, _ string) {
		_ = c.PrintfLine("150 Opening data connection.")
		d := s.acceptData()
		if d == nil {
			return
		}
		_, _ = d.Write(payload)
		d.Close()
		_ = c.PrintfLine("226 Transfer complete.")
	}
}

// serveUpload answers STOR with 150, reads the data channel to EOF, hands
// the bytes to got and confirms with final.
func (s *mockServer) serveUpload(got chan<- []byte, final string) func(*textproto.Conn, string) {
	return func(c *textproto.Conn, _ string) {
		_ = c.PrintfLine("150 Ok to send data.")
		d := s.acceptData()
		if d == nil {
			return
		}
		b, _ := io.ReadAll(d)
		d.Close()
		got <- b
		_ = c.PrintfLine("%s", final)
	}
}

// connectMock connects to s without logging in.
func connectMock(t *testing.T, s *mockServer, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithTimeout(2 * time.Second)}, opts...)
	c, err := Dial(s.addr, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Quit() })
	return c
}

// dialMock connects and logs in to s.
func dialMock(t *testing.T, s *mockServer, opts ...Option) *Client {
	t.Helper()
	c := connectMock(t, s, opts...)

	_, err := c.Login("anonymous", "anonymous@")
	require.NoError(t, err)
	return c
}

// eventLog records the order in which a test transport is used.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// index returns the position of the first event with the given prefix, or -1.
func (l *eventLog) index(prefix string) int {
	for i, e := range l.snapshot() {
		if strings.HasPrefix(e, prefix) {
			return i
		}
	}
	return -1
}

// recordingConn logs reads, writes and closes of a named connection.
type recordingConn struct {
	net.Conn
	name    string
	log     *eventLog
	readErr error // returned by Read once set

	mu     sync.Mutex
	closed bool
}

func (c *recordingConn) Read(b []byte) (int, error) {
	if c.readErr != nil {
		c.log.add("%s:read-error", c.name)
		return 0, c.readErr
	}
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.log.add("%s:read:%s", c.name, strings.TrimSpace(string(b[:n])))
	}
	return n, err
}

func (c *recordingConn) Write(b []byte) (int, error) {
	c.log.add("%s:write:%s", c.name, strings.TrimSpace(string(b)))
	return c.Conn.Write(b)
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.log.add("%s:close", c.name)
	return c.Conn.Close()
}

func (c *recordingConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// pipeDialer hands out prepared connections in order, ignoring the address.
type pipeDialer struct {
	mu    sync.Mutex
	conns []net.Conn
	addrs []string
}

func (d *pipeDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addrs = append(d.addrs, addr)
	if len(d.conns) == 0 {
		return nil, fmt.Errorf("dial %s: no more scripted connections", addr)
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}
