package miniftp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/gonzalop/miniftp/internal/ratelimit"
)

// defaultBufferSize is the transfer engine chunk size.
const defaultBufferSize = 4096

// direction is the way bytes flow over a data channel.
type direction int

const (
	directionList direction = iota
	directionDownload
	directionUpload
)

// transferRequest describes one data-bearing command.
type transferRequest struct {
	direction direction
	path      string
	sink      io.Writer
	source    io.Reader
}

func (r *transferRequest) command() string {
	switch r.direction {
	case directionList:
		return "LIST"
	case directionDownload:
		return "RETR"
	}
	return "STOR"
}

// transferEngine moves bytes between a data channel and a local sink or
// source in fixed-size chunks. It owns the data channel it is handed and
// always closes it, on success or failure.
type transferEngine struct {
	bufferSize int
	limiter    *ratelimit.Limiter
	progress   func(int64)
}

// drain copies the data channel into dst until the peer closes it.
// A zero-length read is treated as end of stream.
func (e *transferEngine) drain(command string, dc net.Conn, dst io.Writer) (int64, error) {
	src := ratelimit.NewReader(dc, e.limiter)
	if e.progress != nil {
		dst = &ProgressWriter{Writer: dst, Callback: e.progress}
	}
	buf := make([]byte, e.bufferSize)

	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				_ = dc.Close()
				return total, e.fail(command, fmt.Errorf("write to sink: %w", werr))
			}
			total += int64(n)
		}
		if errors.Is(err, io.EOF) || (n == 0 && err == nil) {
			break
		}
		if err != nil {
			_ = dc.Close()
			return total, e.fail(command, err)
		}
	}

	_ = dc.Close()
	return total, nil
}

// fill copies src into the data channel until src is exhausted, then
// half-closes and closes the channel so the server sees end of file.
func (e *transferEngine) fill(command string, dc net.Conn, src io.Reader) (int64, error) {
	dst := ratelimit.NewWriter(dc, e.limiter)
	if e.progress != nil {
		src = &ProgressReader{Reader: src, Callback: e.progress}
	}
	buf := make([]byte, e.bufferSize)

	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				_ = dc.Close()
				return total, e.fail(command, werr)
			}
			total += int64(n)
		}
		if errors.Is(err, io.EOF) || (n == 0 && err == nil) {
			break
		}
		if err != nil {
			_ = dc.Close()
			return total, e.fail(command, fmt.Errorf("read from source: %w", err))
		}
	}

	if err := closeWrite(dc); err != nil {
		_ = dc.Close()
		return total, e.fail(command, fmt.Errorf("half-close: %w", err))
	}
	if err := dc.Close(); err != nil {
		return total, e.fail(command, fmt.Errorf("close: %w", err))
	}
	return total, nil
}

func (e *transferEngine) fail(command string, err error) error {
	if isTimeout(err) {
		return &TimeoutError{Op: command, Err: err}
	}
	return &TransferError{Command: command, Err: err}
}

// transfer runs the full choreography of a data-bearing command: open the
// data channel, send the command, require a 1xx reply, stream, close the
// data channel, then read the final reply. The control channel is held for
// the whole exchange.
func (c *Client) transfer(req *transferRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	command := req.command()

	dc, err := c.openDataChannel()
	if err != nil {
		return err
	}

	var resp *Response
	if req.path == "" {
		resp, err = c.sendCommand(command)
	} else {
		resp, err = c.sendCommand(command, req.path)
	}
	if err != nil {
		_ = dc.Close()
		return err
	}

	if !resp.Is1xx() {
		_ = dc.Close()
		return &TransferError{Command: command, Response: resp.Message, Code: resp.Code}
	}

	engine := &transferEngine{
		bufferSize: c.bufferSize,
		limiter:    c.limiter,
		progress:   c.progress,
	}

	var n int64
	if req.direction == directionUpload {
		n, err = engine.fill(command, dc, req.source)
	} else {
		n, err = engine.drain(command, dc, req.sink)
	}
	if err != nil {
		// The final reply is left unread; the caller decides whether to resync.
		return err
	}

	final, err := c.readReply(command)
	if err != nil {
		return err
	}

	c.logger.Debug("ftp data transfer complete", "cmd", command, "bytes", n, "code", final.Code)

	if !final.Is2xx() {
		return &TransferError{Command: command, Response: final.Message, Code: final.Code}
	}
	return nil
}

// List returns the raw LIST output for path. An empty path lists the
// current directory. Use ParseListing to turn the text into entries.
func (c *Client) List(path string) (string, error) {
	var buf bytes.Buffer
	err := c.transfer(&transferRequest{direction: directionList, path: path, sink: &buf})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Retrieve downloads the remote path into w. Data is streamed chunk by chunk,
// so arbitrarily large files use bounded memory.
//
// Example:
//
//	file, err := os.Create("local.txt")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
//	err = client.Retrieve("remote.txt", file)
func (c *Client) Retrieve(remotePath string, w io.Writer) error {
	return c.transfer(&transferRequest{direction: directionDownload, path: remotePath, sink: w})
}

// Store uploads everything read from r to the remote path.
//
// Example:
//
//	file, err := os.Open("local.txt")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
//	err = client.Store("remote.txt", file)
func (c *Client) Store(remotePath string, r io.Reader) error {
	return c.transfer(&transferRequest{direction: directionUpload, path: remotePath, source: r})
}

// RetrieveTo downloads a remote file to a local path.
// The local file is removed if the download fails.
func (c *Client) RetrieveTo(remotePath, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}

	err = c.Retrieve(remotePath, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close local file: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(localPath)
		return err
	}
	return nil
}

// StoreFrom uploads a local file to the remote path.
func (c *Client) StoreFrom(remotePath, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer f.Close()

	return c.Store(remotePath, f)
}
