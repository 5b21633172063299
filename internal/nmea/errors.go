package nmea

import "fmt"

// ErrorKind classifies a pipeline failure. Per-sentence kinds are recovered
// locally (the sentence is dropped, the stream continues); connection kinds
// end the current connection.
type ErrorKind string

const (
	ErrInvalidFormat  ErrorKind = "invalid_format"
	ErrChecksumFailed ErrorKind = "checksum_failed"
	ErrParse          ErrorKind = "parse_error"
	ErrBufferOverflow ErrorKind = "buffer_overflow"
	ErrConnection     ErrorKind = "connection_error"
	ErrTimeout        ErrorKind = "timeout"
	ErrUnknown        ErrorKind = "unknown"
)

// Error is a structured pipeline error. Sentence carries the offending raw
// sentence when one exists.
type Error struct {
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
	Sentence string    `json:"sentence,omitempty"`
}

func (e *Error) Error() string {
	if e.Sentence != "" {
		return fmt.Sprintf("nmea: %s: %s (%q)", e.Kind, e.Message, e.Sentence)
	}
	return fmt.Sprintf("nmea: %s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, sentence string, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Sentence: sentence}
}
