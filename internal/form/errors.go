package form

import (
	"errors"
	"fmt"

	"github.com/junsantilla/cvalley/internal/model"
)

var (
	ErrNotReady           = errors.New("form controller is not ready")
	ErrValidationRejected = errors.New("validation rejected")
	ErrUnknownField       = errors.New("unknown field")
	ErrUnknownSection     = errors.New("unknown section")
	ErrIndexOutOfRange    = errors.New("entry index out of range")
	ErrEntryNotFound      = errors.New("entry not found")
)

// ValidationError describes a write that broke a field constraint.
type ValidationError struct {
	Section model.Section
	Field   string
	MaxLen  int
	Len     int
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s.%s: %s", e.Section, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s.%s: length %d exceeds maximum %d", e.Section, e.Field, e.Len, e.MaxLen)
}

func (e *ValidationError) Unwrap() error { return ErrValidationRejected }

// Result is what every mutator returns. A rejected write leaves the document
// untouched and carries the reason in Err.
type Result struct {
	Index int
	ID    string
	Err   error
}

func (r Result) OK() bool { return r.Err == nil }

func rejected(err error) Result { return Result{Index: -1, Err: err} }
