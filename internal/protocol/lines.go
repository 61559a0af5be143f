package protocol

import (
	"bytes"
	"fmt"
)

// LineBuffer reassembles newline-terminated messages from arbitrary read
// chunks. A line is the unit both sides parse, independent of how the
// underlying stream delivered its bytes.
type LineBuffer struct {
	buf    bytes.Buffer
	limits Limits
}

func NewLineBuffer(limits Limits) *LineBuffer {
	if limits.MaxLineBytes <= 0 {
		limits = DefaultLimits()
	}
	return &LineBuffer{limits: limits}
}

// Feed appends chunk and returns every complete line it closed, newline
// stripped. A partial line that grows past MaxLineBytes fails the stream;
// the caller is expected to drop the connection.
func (b *LineBuffer) Feed(chunk []byte) ([][]byte, error) {
	b.buf.Write(chunk)

	var lines [][]byte
	for {
		raw := b.buf.Bytes()
		idx := bytes.IndexByte(raw, '\n')
		if idx < 0 {
			break
		}
		line := make([]byte, idx)
		copy(line, raw[:idx])
		b.buf.Next(idx + 1)
		if len(line) > b.limits.MaxLineBytes {
			return lines, fmt.Errorf("%w: %d bytes", ErrLineTooLong, len(line))
		}
		lines = append(lines, bytes.TrimSuffix(line, []byte{'\r'}))
	}
	if b.buf.Len() > b.limits.MaxLineBytes {
		return lines, fmt.Errorf("%w: partial line at %d bytes", ErrLineTooLong, b.buf.Len())
	}
	return lines, nil
}

// Pending returns the number of buffered bytes not yet closed by a newline.
func (b *LineBuffer) Pending() int {
	return b.buf.Len()
}
