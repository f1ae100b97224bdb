package crawler

import (
	"errors"
	"fmt"
)

// Configuration errors. They poison the crawler: Run returns them without
// issuing a single RPC call.
var (
	// ErrDuplicateLabel is returned when two selectors share a label.
	ErrDuplicateLabel = errors.New("duplicate selector label")

	// ErrForwardLabelReference is returned when an alias selector names a
	// label that has not been declared before it.
	ErrForwardLabelReference = errors.New("alias references an undeclared label")
)

// ErrPageExhausted is returned when every transaction fetch within one
// signature page failed.
var ErrPageExhausted = errors.New("every transaction fetch in the page failed")

// RPCError is a fatal signature-pagination failure.
type RPCError struct {
	Op  string
	Err error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Op, e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}
