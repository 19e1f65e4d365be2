package scatter

import (
	"errors"

	"github.com/specialistvlad/pipegraph/internal/pipeline"
	"github.com/specialistvlad/pipegraph/internal/types"
	"github.com/zclconf/go-cty/cty"
)

type portKey struct {
	step string
	port string
}

type bindingKey struct {
	step  string
	index int
}

// Resolution holds the effective types of one graph.
type Resolution struct {
	graph        *pipeline.Graph
	order        []string
	cyclic       []string
	scattered    map[string]bool
	outputs      map[portKey]types.Type
	sources      map[bindingKey]types.Type
	graphOutputs map[string]types.Type
}

// Graph returns the graph the resolution was computed for.
func (r *Resolution) Graph() *pipeline.Graph { return r.graph }

// Order returns the step ids in the order they were resolved: a stable
// topological order followed by the steps on or behind a cycle.
func (r *Resolution) Order() []string {
	out := append([]string(nil), r.order...)
	return append(out, r.cyclic...)
}

// Scattered reports whether step has a scatter specification.
func (r *Resolution) Scattered(step string) bool { return r.scattered[step] }

// OutputType returns the effective type of an output port.
func (r *Resolution) OutputType(step, port string) (types.Type, bool) {
	t, ok := r.outputs[portKey{step, port}]
	return t, ok
}

// SourceType returns the effective type of the source of the i-th binding of
// step, as listed by Step.Bindings. Literal sources whose type cannot be
// inferred report false.
func (r *Resolution) SourceType(step string, i int) (types.Type, bool) {
	t, ok := r.sources[bindingKey{step, i}]
	return t, ok
}

// GraphOutputType returns the effective type of a graph output.
func (r *Resolution) GraphOutputType(name string) (types.Type, bool) {
	t, ok := r.graphOutputs[name]
	return t, ok
}

// Resolve computes the effective types of every step output, binding source
// and graph output. Scatter errors are collected and returned joined,
// together with the resolution, which is complete even when errors occur.
func Resolve(g *pipeline.Graph, reg *types.Registry) (*Resolution, error) {
	r := &Resolution{
		graph:        g,
		scattered:    make(map[string]bool),
		outputs:      make(map[portKey]types.Type),
		sources:      make(map[bindingKey]types.Type),
		graphOutputs: make(map[string]types.Type),
	}
	r.order, r.cyclic = g.DependencyGraph().TopologicalOrder()

	var errs []error
	for _, id := range r.Order() {
		s, _ := g.Step(id)
		errs = append(errs, r.resolveStep(s, reg)...)
	}

	for _, o := range g.Outputs() {
		if t, ok := r.typeOf(o.Source, reg); ok {
			r.graphOutputs[o.Name] = t
		}
	}

	return r, errors.Join(errs...)
}

func (r *Resolution) resolveStep(s *pipeline.Step, reg *types.Registry) []error {
	bindings := s.Bindings()
	for i, b := range bindings {
		if t, ok := r.typeOf(b.Source, reg); ok {
			r.sources[bindingKey{s.ID(), i}] = t
		}
	}

	spec, scattered := s.Scatter()
	var errs []error
	if scattered {
		r.scattered[s.ID()] = true
		errs = r.checkScatter(s, spec, bindings)
	}

	for _, p := range s.Outputs() {
		t := p.Type
		if scattered {
			t = types.ArrayOf(t)
		}
		r.outputs[portKey{s.ID(), p.Name}] = t
	}
	return errs
}

func (r *Resolution) checkScatter(s *pipeline.Step, spec pipeline.ScatterSpec, bindings []pipeline.Binding) []error {
	var errs []error
	lengths := make(map[string]int)
	allLiteral := true

	for _, port := range spec.Ports {
		var (
			srcType types.Type
			known   bool
			bound   bool
			literal cty.Value
		)
		for i, b := range bindings {
			if b.Port != port {
				continue
			}
			bound = true
			srcType, known = r.sources[bindingKey{s.ID(), i}]
			if b.Source.IsLiteral() {
				literal = b.Source.Value()
			}
			break
		}
		if !bound {
			allLiteral = false
			errs = append(errs, &pipeline.ScatterTypeError{Step: s.ID(), Port: port, Reason: "has no binding"})
			continue
		}
		if !known {
			// An uninferable literal is reported by type checking.
			allLiteral = false
			continue
		}
		if !srcType.IsArray() {
			errs = append(errs, &pipeline.ScatterTypeError{Step: s.ID(), Port: port, Type: srcType, Reason: "needs an array"})
			allLiteral = false
			continue
		}
		if literal.Type() == cty.NilType || !literal.IsKnown() || literal.IsNull() || !literal.CanIterateElements() {
			allLiteral = false
			continue
		}
		lengths[port] = literal.LengthInt()
	}

	if allLiteral && len(lengths) > 1 {
		first := -1
		for _, port := range spec.Ports {
			if first < 0 {
				first = lengths[port]
				continue
			}
			if lengths[port] != first {
				errs = append(errs, &ScatterLengthError{Step: s.ID(), Lengths: lengths})
				break
			}
		}
	}
	return errs
}

// typeOf returns the effective type of a source. Step outputs that are not
// resolved yet, which only happens on a cycle, fall back to their declared
// type.
func (r *Resolution) typeOf(src pipeline.Source, reg *types.Registry) (types.Type, bool) {
	if src.IsLiteral() {
		return reg.TypeOfValue(src.Value())
	}
	ref := src.Ref()
	if ref.IsInput() {
		p, ok := r.graph.Input(ref.Port)
		return p.Type, ok
	}
	if t, ok := r.outputs[portKey{ref.Step, ref.Port}]; ok {
		return t, true
	}
	s, ok := r.graph.Step(ref.Step)
	if !ok {
		return types.Type{}, false
	}
	p, ok := s.Output(ref.Port)
	return p.Type, ok
}
