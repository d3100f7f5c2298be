package miniftp

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// PassiveAddress is the data channel endpoint advertised by a PASV reply
// as h1,h2,h3,h4,p1,p2.
type PassiveAddress struct {
	IP       [4]byte
	PortHigh byte
	PortLow  byte
}

// Port returns p1*256 + p2.
func (a PassiveAddress) Port() int {
	return int(a.PortHigh)*256 + int(a.PortLow)
}

// Host returns the dotted IPv4 address.
func (a PassiveAddress) Host() string {
	return fmt.Sprintf("%d.%d.%d.%d", a.IP[0], a.IP[1], a.IP[2], a.IP[3])
}

// String returns "h1.h2.h3.h4:port".
func (a PassiveAddress) String() string {
	return net.JoinHostPort(a.Host(), strconv.Itoa(a.Port()))
}

// Unspecified reports whether the server advertised 0.0.0.0.
func (a PassiveAddress) Unspecified() bool {
	return a.IP == [4]byte{}
}

// parsePassiveAddress finds the six-number tuple in a PASV reply text.
// Example: "Entering Passive Mode (192,168,1,1,195,149)" gives 192.168.1.1:50069.
// The text is tokenized into runs of comma-separated decimal fields; the
// first run with exactly six fields is the address.
func parsePassiveAddress(text string) (PassiveAddress, error) {
	for i := 0; i < len(text); {
		if !isDigit(text[i]) {
			i++
			continue
		}
		fields, n := scanFields(text[i:])
		i += n
		if len(fields) != 6 {
			continue
		}

		var a PassiveAddress
		for k, v := range fields {
			if v > 255 {
				return PassiveAddress{}, malformedAddress(text)
			}
			switch {
			case k < 4:
				a.IP[k] = byte(v)
			case k == 4:
				a.PortHigh = byte(v)
			default:
				a.PortLow = byte(v)
			}
		}
		return a, nil
	}
	return PassiveAddress{}, malformedAddress(text)
}

// scanFields consumes a run of comma-separated decimal fields starting at a
// digit and returns their values and the number of bytes consumed. Spaces
// after a comma are allowed. Fields longer than three digits are reported as
// 1000 so the caller rejects them.
func scanFields(s string) ([]int, int) {
	var fields []int
	pos := 0
	for {
		start := pos
		v := 0
		for pos < len(s) && isDigit(s[pos]) {
			if pos-start < 3 {
				v = v*10 + int(s[pos]-'0')
			} else {
				v = 1000
			}
			pos++
		}
		fields = append(fields, v)

		next := pos
		if next >= len(s) || s[next] != ',' {
			return fields, pos
		}
		next++
		for next < len(s) && s[next] == ' ' {
			next++
		}
		if next >= len(s) || !isDigit(s[next]) {
			return fields, pos
		}
		pos = next
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func malformedAddress(text string) *ProtocolError {
	return &ProtocolError{
		Command:  "PASV",
		Response: text,
		Kind:     ProtocolMalformedAddress,
	}
}

// resolveDataAddr resolves the data connection address.
// If the PASV response contains 0.0.0.0, it replaces it with the control connection host.
func resolveDataAddr(pasv PassiveAddress, controlHost string) string {
	if pasv.Unspecified() {
		return net.JoinHostPort(controlHost, strconv.Itoa(pasv.Port()))
	}
	return pasv.String()
}

// openDataChannel negotiates a passive data connection and dials it.
// Ownership of the returned connection passes to the caller.
// The caller must hold c.mu.
func (c *Client) openDataChannel() (net.Conn, error) {
	if c.activeMode {
		return nil, &UnsupportedModeError{Mode: "active"}
	}

	resp, err := c.sendCommand("PASV")
	if err != nil {
		return nil, err
	}

	// 227 is the norm; a few servers answer PASV with other 2xx or 3xx codes.
	if !resp.Is2xx() && !resp.Is3xx() {
		return nil, unexpected("PASV", resp)
	}

	pasv, err := parsePassiveAddress(resp.Message)
	if err != nil {
		return nil, err
	}

	addr := resolveDataAddr(pasv, c.host)
	c.logger.Debug("opening data channel", "addr", addr)

	conn, err := c.dial(context.Background(), addr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}
	return conn, nil
}
