package types

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Structure describes a kind being declared.
type Structure struct {
	// Base names an already-declared kind this one refines. A refined kind
	// is accepted wherever its base is accepted.
	Base string
	// File marks values of the kind as artifacts on disk. Inherited from Base.
	File bool
	// Secondaries lists companion suffixes that travel with the primary
	// artifact. A non-empty list makes the kind Indexed.
	Secondaries []string
	// Value is the cty type used for literal values of the kind. Files and
	// unset values default to cty.String. Inherited from Base.
	Value cty.Type
	Doc   string
}

type entry struct {
	typ   Type
	value cty.Type
	doc   string
}

// Registry holds the declared kinds. It is not safe for concurrent mutation;
// lookups after declaration are read-only.
type Registry struct {
	kinds map[string]*entry
	order []string
}

// NewRegistry returns a registry with the built-in kinds already declared.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	declareBuiltins(r)
	return r
}

// NewEmptyRegistry returns a registry with no kinds at all.
func NewEmptyRegistry() *Registry {
	return &Registry{kinds: make(map[string]*entry)}
}

// Declare registers a named kind.
func (r *Registry) Declare(name string, s Structure) (Type, error) {
	if !validName(name) {
		return Type{}, &InvalidNameError{Name: name}
	}
	if _, exists := r.kinds[name]; exists {
		return Type{}, &DuplicateNameError{Name: name}
	}

	kind := Scalar
	value := s.Value
	file := s.File
	if s.Base != "" {
		base, ok := r.kinds[s.Base]
		if !ok {
			return Type{}, &UnknownKindError{Name: s.Base, Context: name}
		}
		if base.typ.IsFile() {
			file = true
		}
		if value == cty.NilType {
			value = base.value
		}
	}
	if file {
		kind = File
	}
	if len(s.Secondaries) > 0 {
		kind = Indexed
	}
	if value == cty.NilType {
		value = cty.String
	}

	secondaries := make([]string, len(s.Secondaries))
	copy(secondaries, s.Secondaries)

	t := Type{kind: kind, name: name, base: s.Base, secondaries: secondaries}
	r.kinds[name] = &entry{typ: t, value: value, doc: s.Doc}
	r.order = append(r.order, name)
	return t, nil
}

// MustDeclare is Declare that panics, for static tables of kinds.
func (r *Registry) MustDeclare(name string, s Structure) Type {
	t, err := r.Declare(name, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the kind declared under name.
func (r *Registry) Lookup(name string) (Type, bool) {
	e, ok := r.kinds[name]
	if !ok {
		return Type{}, false
	}
	return e.typ, true
}

// MustLookup is Lookup that panics on unknown names.
func (r *Registry) MustLookup(name string) Type {
	t, ok := r.Lookup(name)
	if !ok {
		panic(&UnknownKindError{Name: name})
	}
	return t
}

// Doc returns the documentation attached to a declared kind.
func (r *Registry) Doc(name string) string {
	if e, ok := r.kinds[name]; ok {
		return e.doc
	}
	return ""
}

// Names returns every declared kind name in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Compatible reports whether a value of type source may be bound to a port
// of type dest outside of any scatter context.
func (r *Registry) Compatible(source, dest Type) bool {
	if source.IsZero() || dest.IsZero() {
		return false
	}
	if source.Equal(dest) {
		return true
	}
	if source.IsArray() || dest.IsArray() {
		if source.IsArray() && dest.IsArray() {
			return r.Compatible(source.Elem(), dest.Elem())
		}
		return false
	}

	switch dest.name {
	case NameFile:
		if source.IsFile() {
			return true
		}
	case NameString:
		if source.name == NameFilename {
			return true
		}
	case NameFilename:
		if source.name == NameString {
			return true
		}
	case NameFloat:
		if source.name == NameInt {
			return true
		}
	}

	for cur := source.base; cur != ""; {
		if cur == dest.name {
			return true
		}
		e, ok := r.kinds[cur]
		if !ok {
			break
		}
		cur = e.typ.base
	}
	return false
}

// CompatibleScattered reports whether source may feed dest through an
// explicit scatter: source must be Array(S) with S compatible with dest.
func (r *Registry) CompatibleScattered(source, dest Type) bool {
	if !source.IsArray() {
		return false
	}
	return r.Compatible(source.Elem(), dest)
}

// Parse reads a type name such as "BamBai" or "Array(Array(String))".
func (r *Registry) Parse(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if inner, ok := cutArray(s); ok {
		elem, err := r.Parse(inner)
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(elem), nil
	}
	t, ok := r.Lookup(s)
	if !ok {
		return Type{}, &UnknownKindError{Name: s}
	}
	return t, nil
}

func cutArray(s string) (string, bool) {
	for _, prefix := range []string{"Array(", "array("} {
		if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ")") {
			return s[len(prefix) : len(s)-1], true
		}
	}
	return "", false
}

// ValueType returns the cty type used to carry literal values of t.
func (r *Registry) ValueType(t Type) cty.Type {
	if t.IsArray() {
		return cty.List(r.ValueType(t.Elem()))
	}
	if e, ok := r.kinds[t.name]; ok {
		return e.value
	}
	return cty.DynamicPseudoType
}

// ConvertValue converts a literal to the representation of t.
func (r *Registry) ConvertValue(v cty.Value, t Type) (cty.Value, error) {
	want := r.ValueType(t)
	if v.IsNull() {
		return cty.NullVal(want), nil
	}
	out, err := convert.Convert(v, want)
	if err != nil {
		return cty.NilVal, fmt.Errorf("value of type %s cannot be used as %s: %w", v.Type().FriendlyName(), t, err)
	}
	return out, nil
}

// AcceptsLiteral reports whether a literal value may be bound to a port of
// type dest. The type inferred by TypeOfValue must be Compatible with dest,
// except that a String literal also names a path for any file kind or
// Directory. An empty collection matches any array and null matches
// anything.
func (r *Registry) AcceptsLiteral(v cty.Value, dest Type) bool {
	if v.IsNull() || !v.IsKnown() {
		return true
	}
	ty := v.Type()
	if (ty.IsListType() || ty.IsTupleType() || ty.IsSetType()) && v.LengthInt() == 0 {
		return dest.IsArray()
	}
	src, ok := r.TypeOfValue(v)
	if !ok {
		return false
	}
	return r.literalCompatible(src, dest)
}

func (r *Registry) literalCompatible(src, dest Type) bool {
	if r.Compatible(src, dest) {
		return true
	}
	if src.IsArray() || dest.IsArray() {
		return src.IsArray() && dest.IsArray() && r.literalCompatible(src.Elem(), dest.Elem())
	}
	return src.name == NameString && (dest.IsFile() || dest.name == NameDirectory)
}

// TypeOfValue infers the registry type carried by a literal: strings become
// String, numbers Float (Int when whole), booleans Boolean, and lists or
// tuples Array of their first element type. Empty collections are
// Array(String).
func (r *Registry) TypeOfValue(v cty.Value) (Type, bool) {
	ty := v.Type()
	switch {
	case ty == cty.String:
		return r.Lookup(NameString)
	case ty == cty.Bool:
		return r.Lookup(NameBoolean)
	case ty == cty.Number:
		if v.IsKnown() && !v.IsNull() && v.AsBigFloat().IsInt() {
			return r.Lookup(NameInt)
		}
		return r.Lookup(NameFloat)
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		if !v.IsKnown() || v.IsNull() || v.LengthInt() == 0 {
			s, ok := r.Lookup(NameString)
			return ArrayOf(s), ok
		}
		var first Type
		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			et, ok := r.TypeOfValue(ev)
			if !ok {
				return Type{}, false
			}
			if first.IsZero() {
				first = et
				continue
			}
			// Mixed Int/Float literals widen to Float.
			if !first.Equal(et) {
				if r.Compatible(first, et) {
					first = et
				} else if !r.Compatible(et, first) {
					return Type{}, false
				}
			}
		}
		return ArrayOf(first), true
	}
	return Type{}, false
}
