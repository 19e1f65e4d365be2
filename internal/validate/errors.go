package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/pipegraph/internal/pipeline"
)

// Sentinels matched by the typed errors of this package through errors.Is.
var (
	ErrCycle                = errors.New("dependency cycle")
	ErrDuplicateBinding     = errors.New("duplicate binding")
	ErrUnboundRequiredInput = errors.New("unbound required input")
	ErrTypeMismatch         = pipeline.ErrTypeMismatch
)

// TypeMismatchError is shared with the builder, which reports mismatching
// defaults with it.
type TypeMismatchError = pipeline.TypeMismatchError

// CycleError reports a step that transitively depends on itself. Path lists
// the steps along the first back edge found and ends where it started. Err
// is the cycle as reported by the step dependency graph.
type CycleError struct {
	Path []string
	Err  error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle between steps: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

func (e *CycleError) Unwrap() error { return e.Err }

// Steps returns the distinct step ids on the cycle.
func (e *CycleError) Steps() []string {
	if len(e.Path) < 2 {
		return append([]string(nil), e.Path...)
	}
	return append([]string(nil), e.Path[:len(e.Path)-1]...)
}

// DuplicateBindingError reports a port bound more than once.
type DuplicateBindingError struct {
	Step    string
	Port    string
	Sources []string
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("step %q: port %q is bound %d times (%s)", e.Step, e.Port, len(e.Sources), strings.Join(e.Sources, ", "))
}

func (e *DuplicateBindingError) Is(target error) bool { return target == ErrDuplicateBinding }

// UnboundRequiredInputError reports a required step input with no binding.
type UnboundRequiredInputError struct {
	Step string
	Port string
}

func (e *UnboundRequiredInputError) Error() string {
	return fmt.Sprintf("step %q: required input %q is not bound", e.Step, e.Port)
}

func (e *UnboundRequiredInputError) Is(target error) bool { return target == ErrUnboundRequiredInput }
