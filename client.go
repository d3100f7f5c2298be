package miniftp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gonzalop/miniftp/internal/ratelimit"
)

// DefaultPort is used when an address carries no port.
const DefaultPort = "21"

// Client represents an FTP session: one control channel plus the data
// channels it negotiates on demand.
type Client struct {
	// conn is the underlying network connection (control channel)
	conn net.Conn

	// reader frames replies from the control channel
	reader *replyReader

	// host and port for the control connection
	host string
	port string

	// timeout bounds dialing and every read or write
	timeout time.Duration

	// logger is used for debug logging
	logger *slog.Logger

	// dialer is used to establish both control and data connections
	dialer Dialer

	// activeMode records a request for PORT data connections, which are refused
	activeMode bool

	// bufferSize is the chunk size of the transfer engine
	bufferSize int

	// limiter throttles data channels when a bandwidth limit is set
	limiter *ratelimit.Limiter

	// progress is told the running byte count after each chunk
	progress func(int64)

	// mu serializes command/reply cycles, including whole data transfers
	mu sync.Mutex
}

// New returns an unconnected client for addr ("host" or "host:port").
// Call Connect before issuing commands.
func New(addr string, options ...Option) (*Client, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		if !strings.Contains(err.Error(), "missing port") {
			return nil, fmt.Errorf("invalid address: %w", err)
		}
		host, port = strings.Trim(addr, "[]"), DefaultPort
	}
	if host == "" {
		return nil, fmt.Errorf("invalid address: %q has no host", addr)
	}

	c := &Client{
		host:       host,
		port:       port,
		timeout:    30 * time.Second,
		dialer:     &net.Dialer{},
		logger:     slog.New(slog.DiscardHandler),
		bufferSize: defaultBufferSize,
	}

	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	return c, nil
}

// Dial creates a client for addr and connects it.
//
// Example:
//
//	client, err := miniftp.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Quit()
func Dial(addr string, options ...Option) (*Client, error) {
	c, err := New(addr, options...)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// Addr returns the control channel address.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.host, c.port)
}

// Connect opens the control channel and consumes the server greeting.
// A greeting outside 2xx closes the connection and returns a ProtocolError.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	addr := c.Addr()
	c.logger.Debug("connecting to ftp server", "addr", addr)

	conn, err := c.dial(ctx, addr)
	if err != nil {
		return &ConnectError{Addr: addr, Err: err}
	}
	c.conn = conn
	c.reader = newReplyReader(conn)

	resp, err := c.readReply("CONNECT")
	if err != nil {
		_ = c.release()
		return err
	}

	c.logger.Debug("ftp greeting", "code", resp.Code, "message", resp.Message)

	if !resp.Is2xx() {
		_ = c.release()
		return unexpected("CONNECT", resp)
	}

	return nil
}

// Connected reports whether the control channel is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// release closes the control channel. The caller must hold c.mu.
func (c *Client) release() error {
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// Login authenticates with the FTP server using the provided username and password.
// PASS is only sent when USER answers 331. The final reply is returned.
func (c *Client) Login(username, password string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sendCommand("USER", username)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.Code == 230:
		// No password required
		return resp, nil
	case resp.Is4xx() || resp.Is5xx():
		return resp, &AuthError{Command: "USER", Response: resp.Message, Code: resp.Code}
	case resp.Code != 331:
		return resp, unexpected("USER", resp)
	}

	resp, err = c.sendCommand("PASS", password)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.Is2xx():
		return resp, nil
	case resp.Is4xx() || resp.Is5xx():
		return resp, &AuthError{Command: "PASS", Response: resp.Message, Code: resp.Code}
	}
	return resp, unexpected("PASS", resp)
}

// Quit sends QUIT and closes the control channel. A missing or failed reply
// is ignored since the connection is discarded either way.
func (c *Client) Quit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	if _, err := c.sendCommand("QUIT"); err != nil {
		c.logger.Debug("ignoring QUIT failure", "error", err)
	}

	return c.release()
}

// Noop sends a NOOP (no operation) command to the server.
func (c *Client) Noop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.expect2xx("NOOP")
	return err
}
