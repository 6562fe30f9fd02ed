package amf3

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the decoder. Callers should compare with
// errors.Is, since every decode failure is wrapped in a *DecodeError
// carrying the byte offset at which it occurred (-1 for reference-table
// lookup failures, which RefTables reports without a cursor position).
var (
	// ErrInsufficientData is returned when a read would run past the end
	// of the buffer. Recoverable by the caller via RefTables snapshot/
	// truncate and a cursor rewind (see pkg/capture).
	ErrInsufficientData = errors.New("amf3: insufficient data")

	// ErrInvalidReference is returned when a reference index read from
	// the stream is out of range for its table.
	ErrInvalidReference = errors.New("amf3: invalid reference")

	// ErrUnknownMarker is returned for a type-marker byte outside the
	// defined AMF3 set, and also for externalizable objects, which this
	// decoder does not know how to deserialize.
	ErrUnknownMarker = errors.New("amf3: unknown marker")
)

// DecodeError wraps a sentinel decode error with the cursor position at
// which it was detected, for diagnostics.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("amf3: offset %d: %s", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(offset int, err error) error {
	return &DecodeError{Offset: offset, Err: err}
}
