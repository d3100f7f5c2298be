package miniftp

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
)

const (
	// replyChunkSize is how many bytes are pulled from the control channel per read.
	replyChunkSize = 1024

	// maxReplyLine bounds the framing buffer; a longer line is rejected.
	maxReplyLine = 64 * 1024
)

// Response represents an FTP server reply.
type Response struct {
	// Code is the three-digit response code (e.g., 220, 550)
	Code int

	// Message is the text following the code
	Message string

	// Line is the raw reply line without its delimiter
	Line string
}

// Is1xx returns true if the response code is in the 1xx range (preliminary).
func (r *Response) Is1xx() bool {
	return r.Code >= 100 && r.Code < 200
}

// Is2xx returns true if the response code is in the 2xx range (success).
func (r *Response) Is2xx() bool {
	return r.Code >= 200 && r.Code < 300
}

// Is3xx returns true if the response code is in the 3xx range (intermediate).
func (r *Response) Is3xx() bool {
	return r.Code >= 300 && r.Code < 400
}

// Is4xx returns true if the response code is in the 4xx range (temporary failure).
func (r *Response) Is4xx() bool {
	return r.Code >= 400 && r.Code < 500
}

// Is5xx returns true if the response code is in the 5xx range (permanent failure).
func (r *Response) Is5xx() bool {
	return r.Code >= 500 && r.Code < 600
}

// String returns the raw reply line.
func (r *Response) String() string {
	return r.Line
}

// frameState is what the framing buffer can say about its contents.
type frameState int

const (
	frameIncomplete frameState = iota // no delimiter buffered yet
	frameComplete                     // a full line is available
)

// replyReader frames control-channel bytes into reply lines. It never assumes
// one Read returns one reply: partial lines accumulate in buf, and bytes past
// the first delimiter stay buffered for the next reply.
//
// Multi-line replies ("220-..." continuation) are not assembled. Only the
// first line is returned and any continuation lines are read as later replies.
type replyReader struct {
	r     io.Reader
	buf   []byte
	chunk []byte
}

func newReplyReader(r io.Reader) *replyReader {
	return &replyReader{
		r:     r,
		chunk: make([]byte, replyChunkSize),
	}
}

// frame extracts the first delimiter-terminated line from the buffer.
func (rr *replyReader) frame() (string, frameState) {
	i := bytes.IndexByte(rr.buf, '\n')
	if i < 0 {
		return "", frameIncomplete
	}
	line := strings.TrimRight(string(rr.buf[:i]), "\r")
	rr.buf = rr.buf[i+1:]
	if len(rr.buf) == 0 {
		rr.buf = nil
	}
	return line, frameComplete
}

// readReply blocks until a complete reply line is framed or the stream fails.
// A stream that ends first yields a ProtocolTruncated error; other read errors
// are returned unchanged so the caller can classify timeouts.
func (rr *replyReader) readReply() (*Response, error) {
	for {
		if line, state := rr.frame(); state == frameComplete {
			return parseReplyLine(line)
		}
		if len(rr.buf) > maxReplyLine {
			return nil, &ProtocolError{
				Response: string(rr.buf[:64]),
				Kind:     ProtocolMalformedReply,
			}
		}

		n, err := rr.r.Read(rr.chunk)
		rr.buf = append(rr.buf, rr.chunk[:n]...)
		if err == nil {
			continue
		}
		if n > 0 {
			// Frame what arrived with the error before reporting it.
			if line, state := rr.frame(); state == frameComplete {
				return parseReplyLine(line)
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &ProtocolError{
				Response: string(rr.buf),
				Kind:     ProtocolTruncated,
			}
		}
		return nil, err
	}
}

// parseReplyLine splits "DDD text" into code and message. A fourth character
// of '-' marks a continuation line, accepted as-is.
func parseReplyLine(line string) (*Response, error) {
	if len(line) < 3 {
		return nil, &ProtocolError{Response: line, Kind: ProtocolMalformedReply}
	}
	for i := range 3 {
		if line[i] < '0' || line[i] > '9' {
			return nil, &ProtocolError{Response: line, Kind: ProtocolMalformedReply}
		}
	}
	if len(line) > 3 && line[3] != ' ' && line[3] != '-' {
		return nil, &ProtocolError{Response: line, Kind: ProtocolMalformedReply}
	}

	code, _ := strconv.Atoi(line[:3])
	msg := ""
	if len(line) > 4 {
		msg = line[4:]
	}
	return &Response{Code: code, Message: msg, Line: line}, nil
}
