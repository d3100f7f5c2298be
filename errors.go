package miniftp

import (
	"errors"
	"fmt"
	"net"
)

// ErrNotConnected is returned by every operation invoked on a client whose
// control channel has not been established or has already been released.
var ErrNotConnected = errors.New("ftp: not connected")

// ProtocolErrorKind classifies a ProtocolError.
type ProtocolErrorKind int

const (
	// ProtocolUnexpectedReply means a well-formed reply carried a code the
	// command does not accept.
	ProtocolUnexpectedReply ProtocolErrorKind = iota

	// ProtocolTruncated means the control channel closed before a complete
	// reply line was read.
	ProtocolTruncated

	// ProtocolMalformedReply means a reply line could not be parsed.
	ProtocolMalformedReply

	// ProtocolMalformedAddress means a PASV reply did not contain a valid
	// h1,h2,h3,h4,p1,p2 tuple.
	ProtocolMalformedAddress
)

func (k ProtocolErrorKind) String() string {
	switch k {
	case ProtocolUnexpectedReply:
		return "unexpected reply"
	case ProtocolTruncated:
		return "truncated reply"
	case ProtocolMalformedReply:
		return "malformed reply"
	case ProtocolMalformedAddress:
		return "malformed passive address"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ProtocolError represents an FTP protocol error with full context of the
// command/response conversation.
type ProtocolError struct {
	// Command is the FTP command that was sent (e.g., "MKD", "PASV")
	Command string

	// Response is the reply text received from the server, if any
	Response string

	// Code is the numeric FTP response code (zero when no reply was parsed)
	Code int

	// Kind tells why the conversation was rejected
	Kind ProtocolErrorKind
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("ftp: %s failed: %s: %q", e.Command, e.Kind, e.Response)
	}
	return fmt.Sprintf("ftp: %s failed: %s (code %d)", e.Command, e.Response, e.Code)
}

// Is2xx returns true if the error code is in the 2xx range (success).
func (e *ProtocolError) Is2xx() bool {
	return e.Code >= 200 && e.Code < 300
}

// Is3xx returns true if the error code is in the 3xx range (intermediate).
func (e *ProtocolError) Is3xx() bool {
	return e.Code >= 300 && e.Code < 400
}

// Is4xx returns true if the error code is in the 4xx range (temporary failure).
func (e *ProtocolError) Is4xx() bool {
	return e.Code >= 400 && e.Code < 500
}

// Is5xx returns true if the error code is in the 5xx range (permanent failure).
func (e *ProtocolError) Is5xx() bool {
	return e.Code >= 500 && e.Code < 600
}

// IsTemporary returns true if the error is a temporary failure (4xx).
// This can be used to implement retry logic.
func (e *ProtocolError) IsTemporary() bool {
	return e.Is4xx()
}

// IsPermanent returns true if the error is a permanent failure (5xx).
func (e *ProtocolError) IsPermanent() bool {
	return e.Is5xx()
}

// ConnectError reports a failure to establish the control or a data channel.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("ftp: connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// AuthError is returned by Login when USER or PASS is rejected with a 4xx or
// 5xx reply.
type AuthError struct {
	Command  string
	Response string
	Code     int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("ftp: %s rejected: %s (code %d)", e.Command, e.Response, e.Code)
}

// TransferError reports a failed LIST, RETR or STOR. Either Err is set (the
// data channel broke mid-stream) or Code/Response hold the reply that refused
// or failed to confirm the transfer.
type TransferError struct {
	Command  string
	Response string
	Code     int
	Err      error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ftp: %s transfer failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("ftp: %s transfer failed: %s (code %d)", e.Command, e.Response, e.Code)
}

func (e *TransferError) Unwrap() error { return e.Err }

// UnsupportedModeError is returned when a data transfer is requested in a
// mode this client does not implement.
type UnsupportedModeError struct {
	Mode string
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("ftp: %s mode data connections are not supported", e.Mode)
}

// TimeoutError is returned when a blocking read or write exceeds the
// configured timeout. The session should be closed afterwards.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("ftp: %s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Timeout lets callers treat TimeoutError like a net.Error.
func (e *TimeoutError) Timeout() bool { return true }

// isTimeout reports whether err is a deadline expiry.
func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// unexpected builds the ProtocolError for a reply with an unacceptable code.
func unexpected(command string, resp *Response) *ProtocolError {
	return &ProtocolError{
		Command:  command,
		Response: resp.Message,
		Code:     resp.Code,
		Kind:     ProtocolUnexpectedReply,
	}
}
