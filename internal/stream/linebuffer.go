// Package stream reassembles newline-delimited sentences from a transport
// that has no message framing of its own. TCP may split or coalesce lines
// arbitrarily; the buffer retains the trailing partial line between chunks.
package stream

import (
	"bytes"
	"strings"
)

// DefaultMaxBytes bounds the reassembly buffer. NMEA sentences are < 82
// bytes, so a terminator-free run this long means the peer is not speaking
// the protocol.
const DefaultMaxBytes = 4096

type LineBuffer struct {
	max int
	buf []byte
}

func NewLineBuffer(max int) *LineBuffer {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	return &LineBuffer{max: max}
}

// Push appends chunk and returns the complete, trimmed, non-empty lines now
// available. overflow reports that the residual buffer exceeded the ceiling
// without a terminator; the buffered bytes are discarded so memory stays
// bounded under pathological input.
func (b *LineBuffer) Push(chunk []byte) (lines []string, overflow bool) {
	b.buf = append(b.buf, chunk...)
	for {
		i := bytes.IndexByte(b.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(b.buf[:i]))
		b.buf = b.buf[i+1:]
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(b.buf) > b.max {
		b.buf = b.buf[:0]
		overflow = true
	}
	return lines, overflow
}

// Pending returns the number of buffered bytes awaiting a terminator.
func (b *LineBuffer) Pending() int {
	return len(b.buf)
}
