package miniftp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gonzalop/miniftp/internal/ratelimit"
)

// Option is a functional option for configuring an FTP client.
type Option func(*Client) error

// WithTimeout sets the timeout for connection and operations.
// This applies to dialing the control and data channels and to every
// subsequent read or write on them. Zero disables deadlines.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout < 0 {
			return fmt.Errorf("negative timeout: %v", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

// WithLogger enables debug logging using the provided logger.
// All FTP commands and responses will be logged at debug level,
// with the PASS argument redacted.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	client, _ := miniftp.Dial("ftp.example.com:21", miniftp.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		c.logger = logger
		return nil
	}
}

// WithDialer sets a custom Dialer for establishing connections.
// A *net.Dialer can be used to configure source addresses, keep-alive settings, etc.
func WithDialer(dialer Dialer) Option {
	return func(c *Client) error {
		if dialer == nil {
			return fmt.Errorf("nil dialer")
		}
		c.dialer = dialer
		return nil
	}
}

// WithActiveMode requests active mode (PORT) data connections.
// Active mode is not implemented: every data transfer on such a client fails
// with an UnsupportedModeError before any command is sent.
func WithActiveMode() Option {
	return func(c *Client) error {
		c.activeMode = true
		return nil
	}
}

// WithBufferSize sets the chunk size the transfer engine reads and writes.
func WithBufferSize(size int) Option {
	return func(c *Client) error {
		if size <= 0 {
			return fmt.Errorf("invalid buffer size: %d", size)
		}
		c.bufferSize = size
		return nil
	}
}

// WithBandwidthLimit throttles data channels to bytesPerSecond.
// Zero or a negative value leaves transfers unthrottled.
func WithBandwidthLimit(bytesPerSecond int64) Option {
	return func(c *Client) error {
		c.limiter = ratelimit.New(bytesPerSecond)
		return nil
	}
}

// WithProgress registers a callback invoked after every transferred chunk
// with the running byte count of the current transfer.
func WithProgress(fn func(bytesTransferred int64)) Option {
	return func(c *Client) error {
		c.progress = fn
		return nil
	}
}
