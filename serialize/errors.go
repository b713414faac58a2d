package serialize

import "fmt"

// SerializationError is returned when a payload value cannot be encoded into,
// or decoded from, its wire envelope.
type SerializationError struct {
	// ID is the envelope id involved, when known.
	ID string
	// Op is the failing operation: "register", "encode" or "decode".
	Op string
	// Reason describes the failure.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

// Unwrap implements xerrors.Wrapper and returns the underlying error.
func (err *SerializationError) Unwrap() error {
	return err.Err
}

// Error implements builtins.error.
func (err *SerializationError) Error() string {
	msg := fmt.Sprintf("serialization %v failed", err.Op)
	if err.ID != "" {
		msg = fmt.Sprintf("%v for id '%v'", msg, err.ID)
	}
	if err.Reason != "" {
		msg = fmt.Sprintf("%v: %v", msg, err.Reason)
	}
	if err.Err != nil {
		msg = fmt.Sprintf("%v: %v", msg, err.Err)
	}
	return msg
}
