package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoCatalog is returned when a run starts without a product catalog.
var ErrNoCatalog = errors.New("product catalog is required")

// StageError wraps the failure of one pipeline stage.
type StageError struct {
	Stage string
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// PanicError carries a recovered panic value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
