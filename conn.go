package miniftp

import (
	"context"
	"net"
	"time"
)

// Dialer opens the control and data connections. *net.Dialer satisfies it;
// tests and proxies can supply their own.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// deadlineConn wraps a net.Conn and sets a read/write deadline before every operation.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (n int, err error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (n int, err error) {
	if c.timeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}

// CloseWrite forwards to the wrapped connection so a half-close still
// reaches the socket.
func (c *deadlineConn) CloseWrite() error {
	return closeWrite(c.Conn)
}

// closeWrite shuts down the write side of conn when the transport supports
// it (TCP does). Transports without a half-close report nothing to do.
func closeWrite(conn net.Conn) error {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}

// dial opens a connection to addr bounded by the client timeout and wraps it
// with per-operation deadlines.
func (c *Client) dial(ctx context.Context, addr string) (net.Conn, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		return &deadlineConn{Conn: conn, timeout: c.timeout}, nil
	}
	return conn, nil
}
