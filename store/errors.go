package store

import (
	"errors"

	"github.com/jrife/agency/node"
	"github.com/jrife/agency/protocol"
)

var (
	// ErrPreconditionFailed is returned for a transaction whose
	// preconditions did not hold. The transaction is rejected.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrPathNotFound is reported per read entry for a missing path
	ErrPathNotFound = node.ErrPathNotFound
	// ErrTypeMismatch is returned when an operation does not fit the
	// value of its target. The transaction is rejected.
	ErrTypeMismatch = node.ErrTypeMismatch
	// ErrMalformedOperation is returned when a descriptor does not
	// conform to the protocol. The transaction is rejected.
	ErrMalformedOperation = protocol.ErrMalformedOperation
)
