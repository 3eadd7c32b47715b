package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedOperation is returned when an operation or precondition
	// descriptor does not conform to the wire protocol. A transaction
	// containing a malformed descriptor is rejected as a whole.
	ErrMalformedOperation = errors.New("malformed operation")
)

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedOperation, fmt.Sprintf(format, args...))
}
