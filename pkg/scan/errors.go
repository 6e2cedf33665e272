package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrRetriesExhausted is returned when the loop ends without a result.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// ParseError is returned when the final attempt's body is not JSON.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid JSON response from target: %v", e.Err)
	}
	return "invalid JSON response from target"
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure to get any response from the upstream.
type TransportError struct {
	Attempt int
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream attempt %d: %v", e.Attempt, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
