package miniftp

import "io"

// ProgressReader wraps an io.Reader and reports progress via a callback.
// The transfer engine wraps upload sources with it when WithProgress is set;
// callers may also wrap their own readers.
type ProgressReader struct {
	// Reader is the underlying reader
	Reader io.Reader

	// Callback is called after each non-empty Read with the total bytes read so far
	Callback func(bytesTransferred int64)

	total int64
}

// Read implements io.Reader.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.total += int64(n)
		if pr.Callback != nil {
			pr.Callback(pr.total)
		}
	}
	return n, err
}

// Total returns the number of bytes read so far.
func (pr *ProgressReader) Total() int64 { return pr.total }

// ProgressWriter wraps an io.Writer and reports progress via a callback.
// Download sinks are wrapped with it when WithProgress is set.
type ProgressWriter struct {
	// Writer is the underlying writer
	Writer io.Writer

	// Callback is called after each non-empty Write with the total bytes written so far
	Callback func(bytesTransferred int64)

	total int64
}

// Write implements io.Writer.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	if n > 0 {
		pw.total += int64(n)
		if pw.Callback != nil {
			pw.Callback(pw.total)
		}
	}
	return n, err
}

// Total returns the number of bytes written so far.
func (pw *ProgressWriter) Total() int64 { return pw.total }
