package logging

import (
	"bytes"
	"io"
)

// PrefixWriter wraps an io.Writer and adds a prefix to each line.
type PrefixWriter struct {
	prefix  []byte
	writer  io.Writer
	partial []byte
}

// NewPrefixWriter creates a new PrefixWriter.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{
		prefix: []byte(prefix),
		writer: w,
	}
}

// Write implements the io.Writer interface. Complete lines are written with
// the prefix prepended; a trailing partial line is held back until its
// newline arrives.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	n := len(p)
	data := p
	if len(pw.partial) > 0 {
		data = append(pw.partial, p...)
		pw.partial = nil
	}

	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		if _, err := pw.writer.Write(pw.prefix); err != nil {
			return 0, err
		}
		if _, err := pw.writer.Write(data[:idx+1]); err != nil {
			return 0, err
		}
		data = data[idx+1:]
	}

	if len(data) > 0 {
		pw.partial = append(pw.partial, data...)
	}

	return n, nil
}
