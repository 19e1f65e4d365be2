// Package types is the type registry of the pipeline graph. It declares the
// data kinds that flow between steps (scalars, files, files bundled with
// companion index files, and arrays of any of these) and the compatibility
// relation used to check every binding.
package types

import (
	"fmt"
	"strings"
)

// Kind classifies a Type.
type Kind int

const (
	// Scalar is a plain value such as a string, number or boolean.
	Scalar Kind = iota
	// File is a single artifact on disk.
	File
	// Indexed is a primary artifact that travels with companion artifacts.
	Indexed
	// Array is an ordered, arbitrarily-sized sequence of its element type.
	Array
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case File:
		return "file"
	case Indexed:
		return "indexed"
	case Array:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Type is an immutable semantic data kind. The zero Type is invalid.
type Type struct {
	kind        Kind
	name        string
	elem        *Type
	base        string
	secondaries []string
}

// ArrayOf returns Array(elem).
func ArrayOf(elem Type) Type {
	e := elem
	return Type{kind: Array, elem: &e}
}

// Kind returns the classification of t.
func (t Type) Kind() Kind { return t.kind }

// Name returns the declared name of a non-array type, or "" for arrays.
func (t Type) Name() string { return t.name }

// IsZero reports whether t is the invalid zero Type.
func (t Type) IsZero() bool { return t.kind == Scalar && t.name == "" && t.elem == nil }

// IsArray reports whether t is Array(T) for some T.
func (t Type) IsArray() bool { return t.kind == Array }

// IsFile reports whether values of t are artifacts on disk.
func (t Type) IsFile() bool { return t.kind == File || t.kind == Indexed }

// Elem returns T for Array(T). It panics for non-array types.
func (t Type) Elem() Type {
	if t.kind != Array {
		panic(fmt.Sprintf("types: Elem called on non-array type %s", t))
	}
	return *t.elem
}

// Base returns the name of the kind t refines, or "".
func (t Type) Base() string { return t.base }

// Secondaries returns the companion suffixes of an indexed kind.
func (t Type) Secondaries() []string {
	out := make([]string, len(t.secondaries))
	copy(out, t.secondaries)
	return out
}

// Equal reports structural identity.
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind {
		return false
	}
	if t.kind == Array {
		return t.elem.Equal(*other.elem)
	}
	return t.name == other.name
}

// String renders t in the form accepted by Registry.Parse.
func (t Type) String() string {
	if t.kind == Array {
		return "Array(" + t.elem.String() + ")"
	}
	if t.name == "" {
		return "<invalid>"
	}
	return t.name
}

func validName(name string) bool {
	if name == "" || strings.ContainsAny(name, "() \t,") {
		return false
	}
	return !strings.EqualFold(name, "array")
}
