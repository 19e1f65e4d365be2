package types

import (
	"errors"
	"fmt"
)

// ErrDuplicateName is matched by DuplicateNameError through errors.Is.
var ErrDuplicateName = errors.New("duplicate name")

// ErrUnknownKind is matched by UnknownKindError through errors.Is.
var ErrUnknownKind = errors.New("unknown kind")

// DuplicateNameError is returned when a kind name is declared twice.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("kind %q is already declared", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// UnknownKindError is returned when a type name does not resolve.
type UnknownKindError struct {
	Name string
	// Context names the declaration that referenced Name, if any.
	Context string
}

func (e *UnknownKindError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("kind %q referenced by %q is not declared", e.Name, e.Context)
	}
	return fmt.Sprintf("kind %q is not declared", e.Name)
}

func (e *UnknownKindError) Is(target error) bool { return target == ErrUnknownKind }

// InvalidNameError is returned for names that could not round-trip through
// Parse.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid kind name %q", e.Name)
}
