package validate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/dag"
	"github.com/specialistvlad/pipegraph/internal/pipeline"
	"github.com/specialistvlad/pipegraph/internal/scatter"
	"github.com/specialistvlad/pipegraph/internal/types"
)

// Report is the outcome of one validation.
type Report struct {
	graph      *pipeline.Graph
	resolution *scatter.Resolution
	errs       []error
}

// Graph returns the graph that was validated.
func (r *Report) Graph() *pipeline.Graph { return r.graph }

// Resolution returns the effective types the checks were made against.
func (r *Report) Resolution() *scatter.Resolution { return r.resolution }

// Valid reports whether no defect was found.
func (r *Report) Valid() bool { return len(r.errs) == 0 }

// Errors returns every defect in the order found.
func (r *Report) Errors() []error { return append([]error(nil), r.errs...) }

// Err returns all defects joined, or nil for a valid graph.
func (r *Report) Err() error { return errors.Join(r.errs...) }

// Summary renders a one-line count of the defects per kind.
func (r *Report) Summary() string {
	if r.Valid() {
		return "valid"
	}
	counts := make(map[string]int)
	for _, err := range r.errs {
		counts[kindOf(err)]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return fmt.Sprintf("%d errors: %s", len(r.errs), strings.Join(parts, " "))
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, ErrCycle):
		return "cycle"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrDuplicateBinding):
		return "duplicate_binding"
	case errors.Is(err, ErrUnboundRequiredInput):
		return "unbound_input"
	case errors.Is(err, pipeline.ErrScatterType), errors.Is(err, scatter.ErrScatterLength):
		return "scatter"
	default:
		return "other"
	}
}

// Validate runs every check over g and returns the collected report.
func Validate(ctx context.Context, g *pipeline.Graph, reg *types.Registry) *Report {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Validate: starting.", "graph", g.Name(), "steps", len(g.Steps()))

	res, err := scatter.Resolve(g, reg)
	r := &Report{graph: g, resolution: res}
	r.add(err)

	var cycle *dag.CycleError
	if err := g.DependencyGraph().DetectCycles(); errors.As(err, &cycle) {
		r.add(&CycleError{Path: cycle.Path, Err: err})
	}

	for _, s := range g.Steps() {
		r.checkStep(s, reg)
	}
	r.checkOutputs(reg)

	logger.Debug("Validate: finished.", "graph", g.Name(), "summary", r.Summary())
	return r
}

// add records err, flattening joined errors.
func (r *Report) add(err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			r.add(e)
		}
		return
	}
	r.errs = append(r.errs, err)
}

func (r *Report) checkStep(s *pipeline.Step, reg *types.Registry) {
	spec, _ := s.Scatter()
	bound := make(map[string][]string)
	var order []string

	for i, b := range s.Bindings() {
		if _, seen := bound[b.Port]; !seen {
			order = append(order, b.Port)
		}
		bound[b.Port] = append(bound[b.Port], b.Source.String())

		dest, _ := s.Input(b.Port)
		r.checkBinding(s.ID(), i, b, dest, spec.Has(b.Port), reg)
	}

	for _, port := range order {
		if sources := bound[port]; len(sources) > 1 {
			r.add(&DuplicateBindingError{Step: s.ID(), Port: port, Sources: sources})
		}
	}

	for _, p := range s.Inputs() {
		if _, ok := bound[p.Name]; !ok && p.Required() {
			r.add(&UnboundRequiredInputError{Step: s.ID(), Port: p.Name})
		}
	}
}

func (r *Report) checkBinding(stepID string, i int, b pipeline.Binding, dest pipeline.Port, scattered bool, reg *types.Registry) {
	target := fmt.Sprintf("step %q port %q", stepID, b.Port)
	src, known := r.resolution.SourceType(stepID, i)

	if b.Source.IsLiteral() {
		want := dest.Type
		if scattered {
			if known && !src.IsArray() {
				// Already reported as a scatter error.
				return
			}
			want = types.ArrayOf(dest.Type)
		}
		v := b.Source.Value()
		if !reg.AcceptsLiteral(v, want) {
			r.add(&TypeMismatchError{Target: target, Source: b.Source.String(), SourceType: src, DestType: dest.Type, Scattered: scattered})
			return
		}
		if _, err := reg.ConvertValue(v, want); err != nil {
			r.add(&TypeMismatchError{Target: target, Source: b.Source.String(), SourceType: src, DestType: dest.Type, Scattered: scattered, Err: err})
		}
		return
	}

	if !known {
		return
	}
	if scattered {
		if !src.IsArray() {
			// Already reported as a scatter error.
			return
		}
		if !reg.CompatibleScattered(src, dest.Type) {
			r.add(&TypeMismatchError{Target: target, Source: b.Source.String(), SourceType: src, DestType: dest.Type, Scattered: true})
		}
		return
	}
	if !reg.Compatible(src, dest.Type) {
		r.add(&TypeMismatchError{Target: target, Source: b.Source.String(), SourceType: src, DestType: dest.Type})
	}
}

func (r *Report) checkOutputs(reg *types.Registry) {
	for _, o := range r.graph.Outputs() {
		if o.Type.IsZero() {
			continue
		}
		src, ok := r.resolution.GraphOutputType(o.Name)
		if !ok {
			continue
		}
		if !reg.Compatible(src, o.Type) {
			r.add(&TypeMismatchError{Target: fmt.Sprintf("output %q", o.Name), Source: o.Source.String(), SourceType: src, DestType: o.Type})
		}
	}
}
