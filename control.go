package miniftp

import (
	"errors"
	"fmt"
	"strings"
)

// sendCommand sends an FTP command and returns the response.
// The caller must hold c.mu.
func (c *Client) sendCommand(command string, args ...string) (*Response, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}

	// Build the full command
	cmd := command
	if len(args) > 0 {
		cmd = command + " " + strings.Join(args, " ")
	}

	if command == "PASS" {
		c.logger.Debug("ftp command", "cmd", "PASS ****")
	} else {
		c.logger.Debug("ftp command", "cmd", cmd)
	}

	if _, err := fmt.Fprintf(c.conn, "%s\r\n", cmd); err != nil {
		return nil, c.controlError(command, err)
	}

	return c.readReply(command)
}

// readReply reads one reply from the control channel on behalf of command.
// The caller must hold c.mu.
func (c *Client) readReply(command string) (*Response, error) {
	if c.reader == nil {
		return nil, ErrNotConnected
	}

	resp, err := c.reader.readReply()
	if err != nil {
		return nil, c.controlError(command, err)
	}

	c.logger.Debug("ftp response", "code", resp.Code, "message", resp.Message)
	return resp, nil
}

// controlError classifies a control-channel failure.
func (c *Client) controlError(command string, err error) error {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		if pe.Command == "" {
			pe.Command = command
		}
		return pe
	}
	if isTimeout(err) {
		return &TimeoutError{Op: command, Err: err}
	}
	return fmt.Errorf("ftp: %s: %w", command, err)
}

// expect2xx sends a command and verifies the response is in the 2xx range (success).
// The response is returned alongside any ProtocolError so callers can inspect it.
func (c *Client) expect2xx(command string, args ...string) (*Response, error) {
	resp, err := c.sendCommand(command, args...)
	if err != nil {
		return nil, err
	}

	if !resp.Is2xx() {
		return resp, unexpected(command, resp)
	}

	return resp, nil
}
