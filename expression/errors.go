package expression

import (
	"errors"
	"fmt"
)

var (
	// ErrCompile is returned by New for expressions that do not parse or type check.
	ErrCompile = errors.New("failed to compile CEL expression")

	// ErrExecution is returned when evaluation fails or yields false.
	ErrExecution = errors.New("CEL expression failed")

	// ErrNonBooleanResult is returned when the expression yields a non boolean value.
	ErrNonBooleanResult = errors.New("CEL expression must evaluate to a boolean value")
)

// Error carries the failing expression. Kind is one of the sentinel errors
// above and is matched by errors.Is.
type Error struct {
	Kind       error
	Expression string
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: expression '%s'", e.Kind, e.Expression)
	}
	return fmt.Sprintf("%v: expression '%s': %v", e.Kind, e.Expression, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}
