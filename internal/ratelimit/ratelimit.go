// Package ratelimit provides a token bucket that throttles FTP data channels.
//
// A nil *Limiter is valid and never blocks, so callers can wrap readers and
// writers unconditionally.
package ratelimit

import (
	"io"
	"sync"
	"time"
)

const (
	// maxWait caps a single sleep so a large request cannot stall for long.
	maxWait = time.Second

	// readChunk and writeChunk bound how many bytes are charged per call.
	readChunk  = 8 * 1024
	writeChunk = 64 * 1024
)

// Limiter is a token bucket holding at most one second worth of bytes.
type Limiter struct {
	rate   float64 // bytes per second
	burst  float64
	tokens float64
	last   time.Time
	mu     sync.Mutex

	// sleep is replaced in tests.
	sleep func(time.Duration)
}

// New returns a limiter for bytesPerSecond, or nil (unlimited) when the
// rate is not positive.
func New(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	rate := float64(bytesPerSecond)
	return &Limiter{
		rate:   rate,
		burst:  rate,
		tokens: rate,
		last:   time.Now(),
		sleep:  time.Sleep,
	}
}

// refill credits tokens for the time elapsed since the last update.
// The caller must hold l.mu.
func (l *Limiter) refill(now time.Time) {
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.last = now
}

// Wait blocks until n bytes may pass.
func (l *Limiter) Wait(n int) {
	if l == nil || n <= 0 {
		return
	}
	need := float64(n)

	l.mu.Lock()
	l.refill(time.Now())
	if l.tokens >= need {
		l.tokens -= need
		l.mu.Unlock()
		return
	}
	wait := time.Duration((need - l.tokens) / l.rate * float64(time.Second))
	if wait > maxWait {
		wait = maxWait
	}
	l.mu.Unlock()

	l.sleep(wait)

	l.mu.Lock()
	l.refill(time.Now())
	if l.tokens >= need {
		l.tokens -= need
	} else {
		l.tokens = 0
	}
	l.mu.Unlock()
}

type reader struct {
	r io.Reader
	l *Limiter
}

// NewReader throttles reads from r. With a nil limiter r is returned as is.
func NewReader(r io.Reader, l *Limiter) io.Reader {
	if l == nil {
		return r
	}
	return &reader{r: r, l: l}
}

func (r *reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) > readChunk {
		p = p[:readChunk]
	}
	r.l.Wait(len(p))
	return r.r.Read(p)
}

type writer struct {
	w io.Writer
	l *Limiter
}

// NewWriter throttles writes to w. With a nil limiter w is returned as is.
func NewWriter(w io.Writer, l *Limiter) io.Writer {
	if l == nil {
		return w
	}
	return &writer{w: w, l: l}
}

func (w *writer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		end := min(written+writeChunk, len(p))
		w.l.Wait(end - written)
		n, err := w.w.Write(p[written:end])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
