package vm

import (
	"errors"
	"fmt"
)

// Stream and image errors
var (
	ErrMalformed    = errors.New("vm: malformed output value")
	ErrStreamClosed = errors.New("vm: stream closed")
	ErrInvalidImage = errors.New("vm: invalid magic number: not a term image")
	ErrImageVersion = errors.New("vm: term image version mismatch")
	ErrCorruptImage = errors.New("vm: corrupt term image")
)

// DecodeError reports a list cell whose probe did not decode to a value the
// output protocol accepts. Probe is "head" for the first probe of a cell and
// "tail" for the second one taken after an end verdict.
type DecodeError struct {
	Probe   string
	Verdict Verdict
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("vm: %s probe decoded as %s", e.Probe, e.Verdict)
}

func (e *DecodeError) Unwrap() error {
	return ErrMalformed
}

// InputError wraps a failure of the input source.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return "vm: reading input: " + e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}
