// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package pipeline

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/pipegraph/internal/types"
)

// Sentinels matched by the typed errors of this package through errors.Is.
var (
	ErrDuplicateName    = errors.New("duplicate name")
	ErrUnknownReference = errors.New("unknown reference")
	ErrFrozenGraph      = errors.New("graph is frozen")
	ErrScatterType      = errors.New("invalid scatter")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrInvalidStep      = errors.New("invalid step")
	ErrInvalidName      = errors.New("invalid name")
)

// DuplicateNameError reports a name declared twice in one namespace.
type DuplicateNameError struct {
	// Kind is "input", "step", "output" or "port".
	Kind string
	Name string
	// Owner is the step id for ports.
	Owner string
}

func (e *DuplicateNameError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("duplicate %s %q on step %q", e.Kind, e.Name, e.Owner)
	}
	return fmt.Sprintf("duplicate %s %q", e.Kind, e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// UnknownReferenceError reports a name that does not resolve to a declaration.
type UnknownReferenceError struct {
	// Ref is the name as written, e.g. "align.out" or "reads".
	Ref string
	// Referrer is the step id or "output NAME" that made the reference.
	Referrer string
	Reason   string
}

func (e *UnknownReferenceError) Error() string {
	msg := fmt.Sprintf("unknown reference %q", e.Ref)
	if e.Referrer != "" {
		msg += fmt.Sprintf(" in %s", e.Referrer)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *UnknownReferenceError) Is(target error) bool { return target == ErrUnknownReference }

// FrozenGraphError is returned by every builder call made after Build.
type FrozenGraphError struct {
	Op string
}

func (e *FrozenGraphError) Error() string {
	return fmt.Sprintf("%s: graph is already built", e.Op)
}

func (e *FrozenGraphError) Is(target error) bool { return target == ErrFrozenGraph }

// ScatterTypeError reports a malformed scatter specification or a scattered
// port that does not receive an array.
type ScatterTypeError struct {
	Step string
	Port string
	// Type is the offending source type, zero when not applicable.
	Type   types.Type
	Reason string
}

func (e *ScatterTypeError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("step %q: scatter %s", e.Step, e.Reason)
	}
	if e.Type.IsZero() {
		return fmt.Sprintf("step %q: scatter on port %q %s", e.Step, e.Port, e.Reason)
	}
	return fmt.Sprintf("step %q: scatter on port %q %s (got %s)", e.Step, e.Port, e.Reason, e.Type)
}

func (e *ScatterTypeError) Is(target error) bool { return target == ErrScatterType }

// TypeMismatchError reports a value or source whose type cannot be bound to
// its destination.
type TypeMismatchError struct {
	// Target is the destination, e.g. "step align port reads", "input
	// compression_level" or "output bam".
	Target string
	// Source is the source expression, or the literal rendered as text.
	Source     string
	SourceType types.Type
	DestType   types.Type
	Scattered  bool
	Err        error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("%s: cannot bind %s", e.Target, e.Source)
	if !e.SourceType.IsZero() {
		msg += fmt.Sprintf(" of type %s", e.SourceType)
	}
	msg += fmt.Sprintf(" to %s", e.DestType)
	if e.Scattered {
		msg += " (scattered)"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

func (e *TypeMismatchError) Unwrap() error { return e.Err }
