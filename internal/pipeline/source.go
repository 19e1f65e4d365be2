// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package pipeline

import (
	"github.com/specialistvlad/pipegraph/internal/ref"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Source is where a bound value comes from: a reference to a graph input or
// step output, or a literal value.
type Source struct {
	ref     ref.Ref
	literal cty.Value
	isLit   bool
}

// FromInput returns a source reading the graph input called name.
func FromInput(name string) Source { return Source{ref: ref.Input(name)} }

// FromStep returns a source reading an output port of a step.
func FromStep(step, port string) Source { return Source{ref: ref.Output(step, port)} }

// Literal returns a source carrying a constant value.
func Literal(v cty.Value) Source { return Source{literal: v, isLit: true} }

// IsLiteral reports whether s carries a constant.
func (s Source) IsLiteral() bool { return s.isLit }

// Ref returns the reference of a non-literal source.
func (s Source) Ref() ref.Ref { return s.ref }

// Value returns the constant of a literal source, cty.NilVal otherwise.
func (s Source) Value() cty.Value {
	if !s.isLit {
		return cty.NilVal
	}
	return s.literal
}

// StepID returns the producing step id, or "" for inputs and literals.
func (s Source) StepID() string {
	if s.isLit {
		return ""
	}
	return s.ref.Step
}

// String renders references in canonical form and literals as JSON.
func (s Source) String() string {
	if !s.isLit {
		return s.ref.String()
	}
	return LiteralString(s.literal)
}

// LiteralString renders a literal value as compact JSON.
func LiteralString(v cty.Value) string {
	if v.Type() == cty.NilType {
		return "null"
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(b)
}
