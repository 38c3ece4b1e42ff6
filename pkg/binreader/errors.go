package binreader

import (
	"errors"
	"fmt"
)

// Reader errors.
var (
	ErrValidation     = errors.New("unrecognized value")
	ErrStackUnderflow = errors.New("position stack underflow")
	ErrOutOfRange     = errors.New("offset out of range")
	ErrNegativeCount  = errors.New("negative element count")
)

// ValidationError reports a known-constant field holding a value outside its
// accepted set. It usually means an unsupported variant of the format rather
// than corruption.
type ValidationError struct {
	Field   string
	Offset  int64
	Allowed []any
	Actual  any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s at 0x%X: expected one of %v, got %v", e.Field, e.Offset, e.Allowed, e.Actual)
}

// Unwrap makes errors.Is(err, ErrValidation) work.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
