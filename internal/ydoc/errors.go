package ydoc

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEmpty is returned for a zero-length update.
	ErrEmpty = errors.New("empty update")
	// ErrTruncated is returned when the buffer ends inside a value.
	ErrTruncated = errors.New("unexpected end of update")
	// ErrOverflow is returned when a variable-length integer does not fit in 64 bits.
	ErrOverflow = errors.New("varint overflows 64 bits")
	// ErrUnknownContent is returned for an item content ref outside the v1 schema.
	ErrUnknownContent = errors.New("unknown item content ref")
	// ErrUnknownType is returned for a shared type ref outside the v1 schema.
	ErrUnknownType = errors.New("unknown shared type ref")
	// ErrUnknownAny is returned for an unknown tag in an encoded Any value.
	ErrUnknownAny = errors.New("unknown any tag")
	// ErrInvalidJSON is returned when a JSON payload embedded in the update does not parse.
	ErrInvalidJSON = errors.New("invalid json payload")
)

// Error locates a decode failure inside the update buffer.
type Error struct {
	Offset int
	Where  string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at byte %d: %v", e.Where, e.Offset, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
