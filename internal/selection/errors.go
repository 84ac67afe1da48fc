// Package selection picks the recommended vendor from priced quotes.
package selection

import (
	"errors"
	"fmt"
)

// ErrNoCandidates is returned when there are no quotes to choose from.
var ErrNoCandidates = errors.New("no vendor quotes to select from")

// Error represents an error that occurs during vendor selection
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}
