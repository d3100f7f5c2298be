package miniftp

import (
	"fmt"
	"strings"
)

// MakeDir creates a new directory with MKD and returns the server reply.
func (c *Client) MakeDir(name string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.expect2xx("MKD", name)
}

// RemoveDir removes a directory with RMD and returns the server reply.
func (c *Client) RemoveDir(name string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.expect2xx("RMD", name)
}

// Delete deletes a file with DELE.
func (c *Client) Delete(path string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.expect2xx("DELE", path)
}

// ChangeDir changes the current working directory.
func (c *Client) ChangeDir(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.expect2xx("CWD", path)
	return err
}

// CurrentDir returns the current working directory.
func (c *Client) CurrentDir() (string, error) {
	c.mu.Lock()
	resp, err := c.expect2xx("PWD")
	c.mu.Unlock()
	if err != nil {
		return "", err
	}

	// Example: 257 "/home/user" is the current directory
	msg := resp.Message
	start := strings.Index(msg, "\"")
	if start == -1 {
		return "", fmt.Errorf("invalid PWD response: %s", msg)
	}
	end := strings.Index(msg[start+1:], "\"")
	if end == -1 {
		return "", fmt.Errorf("invalid PWD response: %s", msg)
	}

	return msg[start+1 : start+1+end], nil
}

// Rename renames a file or directory.
//
// RNTO is only sent when RNFR answers 350. Any other RNFR reply is returned
// as is together with a ProtocolError. If RNTO fails the remote object keeps
// its original name; no rollback is attempted.
func (c *Client) Rename(from, to string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sendCommand("RNFR", from)
	if err != nil {
		return nil, err
	}

	if resp.Code != 350 {
		return resp, unexpected("RNFR", resp)
	}

	return c.expect2xx("RNTO", to)
}
