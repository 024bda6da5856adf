package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport classifies every failure that produced no usable body.
	ErrTransport = errors.New("transport failure")
	// ErrContract marks a body that parsed but broke the response contract.
	ErrContract = errors.New("response contract violation")
)

// TransportError wraps network, decode and contract failures. Status is the
// HTTP status when a response arrived, 0 otherwise.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransport) match any TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
