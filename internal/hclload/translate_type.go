package hclload

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/pipegraph/internal/types"
	"github.com/zclconf/go-cty/cty"
)

// typeFromExpr reads a type expression. Accepted forms are a bare kind name
// (BamBai, or string for String), array(T) with any nesting, and a quoted
// type name such as "Array(BamBai)".
func typeFromExpr(reg *types.Registry, expr hcl.Expression) (types.Type, error) {
	if kw := hcl.ExprAsKeyword(expr); kw != "" {
		return lookupKind(reg, kw)
	}

	if call, diags := hcl.ExprCall(expr); !diags.HasErrors() {
		if !strings.EqualFold(call.Name, "array") {
			return types.Type{}, fmt.Errorf("unknown type constructor %q: only array(T) is supported", call.Name)
		}
		if len(call.Arguments) != 1 {
			return types.Type{}, fmt.Errorf("array() requires exactly one argument, got %d", len(call.Arguments))
		}
		elem, err := typeFromExpr(reg, call.Arguments[0])
		if err != nil {
			return types.Type{}, fmt.Errorf("in array element: %w", err)
		}
		return types.ArrayOf(elem), nil
	}

	v, diags := expr.Value(nil)
	if !diags.HasErrors() && v.Type() == cty.String && v.IsKnown() && !v.IsNull() {
		return reg.Parse(v.AsString())
	}
	return types.Type{}, fmt.Errorf("unsupported type expression at %s: use a kind name or array(T)", expr.Range())
}

// lookupKind finds a declared kind by exact name first and then ignoring
// case, so that string and boolean read as String and Boolean.
func lookupKind(reg *types.Registry, name string) (types.Type, error) {
	if t, ok := reg.Lookup(name); ok {
		return t, nil
	}
	for _, n := range reg.Names() {
		if strings.EqualFold(n, name) {
			return reg.MustLookup(n), nil
		}
	}
	if strings.EqualFold(name, "bool") {
		return lookupKind(reg, types.NameBoolean)
	}
	return types.Type{}, &types.UnknownKindError{Name: name}
}
