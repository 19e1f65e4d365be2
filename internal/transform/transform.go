package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/pipegraph/internal/pipeline"
	"github.com/specialistvlad/pipegraph/internal/types"
	"github.com/zclconf/go-cty/cty"
)

// Transform is an in-process computed step.
type Transform interface {
	Name() string
	Inputs() []pipeline.Port
	Outputs() []pipeline.Port
	Invoke(ctx context.Context, inputs map[string]cty.Value) (map[string]cty.Value, error)
}

// Module is implemented by packages that contribute transforms.
type Module interface {
	Register(r *Registry)
}

// Registry maps transform names to implementations.
type Registry struct {
	transforms map[string]Transform
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{transforms: make(map[string]Transform)}
}

// Register adds t. Registering a name twice is a programming error and
// panics.
func (r *Registry) Register(t Transform) {
	name := t.Name()
	if _, exists := r.transforms[name]; exists {
		panic(fmt.Sprintf("transform with name '%s' already registered", name))
	}
	slog.Debug("Registering transform.", "name", name)
	r.transforms[name] = t
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (Transform, bool) {
	t, ok := r.transforms[name]
	return t, ok
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.transforms))
	for name := range r.transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contract returns the ports of a registered transform. It lets a Registry
// serve as pipeline.Contracts.
func (r *Registry) Contract(name string) (inputs, outputs []pipeline.Port, ok bool) {
	t, ok := r.transforms[name]
	if !ok {
		return nil, nil, false
	}
	return t.Inputs(), t.Outputs(), true
}

// ErrContract is matched by ContractError through errors.Is.
var ErrContract = errors.New("transform contract violated")

// ContractError reports values that do not match a transform's declared
// ports.
type ContractError struct {
	Transform string
	Port      string
	Reason    string
	Err       error
}

func (e *ContractError) Error() string {
	msg := fmt.Sprintf("transform %q: port %q %s", e.Transform, e.Port, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ContractError) Is(target error) bool { return target == ErrContract }

func (e *ContractError) Unwrap() error { return e.Err }

// Call invokes t with inputs after converting them to the declared port
// types. Missing inputs take their default, or null when optional. The
// outputs are checked for presence and converted the same way.
func Call(ctx context.Context, t Transform, reg *types.Registry, inputs map[string]cty.Value) (map[string]cty.Value, error) {
	name := t.Name()
	declared := t.Inputs()

	in := make(map[string]cty.Value, len(declared))
	known := make(map[string]bool, len(declared))
	for _, p := range declared {
		known[p.Name] = true
		v, ok := inputs[p.Name]
		switch {
		case ok:
		case p.Default != nil:
			v = *p.Default
		case p.Optional:
			in[p.Name] = cty.NullVal(reg.ValueType(p.Type))
			continue
		default:
			return nil, &ContractError{Transform: name, Port: p.Name, Reason: "is required"}
		}
		converted, err := reg.ConvertValue(v, p.Type)
		if err != nil {
			return nil, &ContractError{Transform: name, Port: p.Name, Reason: "has the wrong type", Err: err}
		}
		in[p.Name] = converted
	}
	for port := range inputs {
		if !known[port] {
			return nil, &ContractError{Transform: name, Port: port, Reason: "is not declared"}
		}
	}

	out, err := t.Invoke(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("transform %q: %w", name, err)
	}

	result := make(map[string]cty.Value, len(out))
	for _, p := range t.Outputs() {
		v, ok := out[p.Name]
		if !ok {
			return nil, &ContractError{Transform: name, Port: p.Name, Reason: "was not produced"}
		}
		converted, err := reg.ConvertValue(v, p.Type)
		if err != nil {
			return nil, &ContractError{Transform: name, Port: p.Name, Reason: "produced the wrong type", Err: err}
		}
		result[p.Name] = converted
	}
	return result, nil
}
