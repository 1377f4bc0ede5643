package protocol

import (
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrTruncated      = errors.New("protocol: truncated data")
	ErrWireType       = errors.New("protocol: wire type mismatch")
	ErrMalformed      = errors.New("protocol: malformed message")
	ErrPayloadMissing = errors.New("protocol: payload does not match tag")
)

// DecodeError locates a decode failure inside the status message tree.
type DecodeError struct {
	Message string
	Field   protowire.Number
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Field == 0 {
		return fmt.Sprintf("%v (message=%s)", e.Err, e.Message)
	}
	return fmt.Sprintf("%v (message=%s field=%d)", e.Err, e.Message, e.Field)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(message string, field protowire.Number, err error) error {
	return &DecodeError{Message: message, Field: field, Err: err}
}

// consumeErr maps a negative protowire length to a package sentinel.
func consumeErr(message string, field protowire.Number, n int) error {
	if errors.Is(protowire.ParseError(n), io.ErrUnexpectedEOF) {
		return decodeErr(message, field, ErrTruncated)
	}
	return decodeErr(message, field, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n)))
}
