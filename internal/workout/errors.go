package workout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation  = errors.New("invalid workout input")
	ErrDuplicateID = errors.New("duplicate workout id")
)

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError aggregates every rejected field of one submission.
type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) add(field, reason string) {
	e.Problems = append(e.Problems, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+" "+p.Reason)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UserMessage is the single sentence shown next to the form.
func (e *ValidationError) UserMessage() string {
	fields := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		fields = append(fields, p.Field)
	}
	return "Please enter valid inputs (" + strings.Join(fields, ", ") + ")."
}

// errOrNil keeps a nil *ValidationError from becoming a non-nil error.
func (e *ValidationError) errOrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateID, e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }
