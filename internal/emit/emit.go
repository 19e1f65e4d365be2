package emit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/pipeline"
	"github.com/specialistvlad/pipegraph/internal/scatter"
	"github.com/specialistvlad/pipegraph/internal/validate"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ErrEmission is matched by EmissionError through errors.Is.
var ErrEmission = errors.New("emission refused")

// EmissionError reports a graph that may not be emitted.
type EmissionError struct {
	Graph  string
	Reason string
	// Err carries the validation errors of an invalid graph.
	Err error
}

func (e *EmissionError) Error() string {
	msg := fmt.Sprintf("cannot emit graph %q: %s", e.Graph, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EmissionError) Is(target error) bool { return target == ErrEmission }

func (e *EmissionError) Unwrap() error { return e.Err }

// namespace scopes description ids.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/specialistvlad/pipegraph/description"))

// Emit lowers g into a Description. report must be the valid result of
// validating g itself.
func Emit(ctx context.Context, g *pipeline.Graph, report *validate.Report) (*Description, error) {
	switch {
	case report == nil:
		return nil, &EmissionError{Graph: g.Name(), Reason: "graph was never validated"}
	case report.Graph() != g:
		return nil, &EmissionError{Graph: g.Name(), Reason: "validation report belongs to another graph"}
	case !report.Valid():
		return nil, &EmissionError{Graph: g.Name(), Reason: "graph is invalid", Err: report.Err()}
	}
	logger := ctxlog.FromContext(ctx)
	res := report.Resolution()

	d := &Description{
		Name:    g.Name(),
		Version: g.Version(),
		Doc:     g.Doc(),
		Tasks:   []Task{},
	}

	for _, p := range g.Inputs() {
		in := Input{Name: p.Name, Type: p.Type.String(), Optional: p.Optional, Doc: p.Doc}
		if p.Default != nil {
			v, err := literalValue(*p.Default)
			if err != nil {
				return nil, fmt.Errorf("input %q: %w", p.Name, err)
			}
			in.Default = v
		}
		d.Inputs = append(d.Inputs, in)
	}

	for _, id := range res.Order() {
		s, _ := g.Step(id)
		task, err := lowerStep(g, res, s)
		if err != nil {
			return nil, err
		}
		d.Tasks = append(d.Tasks, task)
	}

	for _, o := range g.Outputs() {
		t, _ := res.GraphOutputType(o.Name)
		if !o.Type.IsZero() {
			t = o.Type
		}
		d.Outputs = append(d.Outputs, Output{Name: o.Name, Type: t.String(), Source: o.Source.String(), Doc: o.Doc})
	}

	canonical, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("error encoding description: %w", err)
	}
	d.ID = uuid.NewSHA1(namespace, canonical).String()

	logger.Debug("Emit: description ready.", "graph", g.Name(), "id", d.ID, "tasks", len(d.Tasks))
	return d, nil
}

func lowerStep(g *pipeline.Graph, res *scatter.Resolution, s *pipeline.Step) (Task, error) {
	task := Task{
		ID:        s.ID(),
		Kind:      s.Kind().String(),
		Doc:       s.Doc(),
		DependsOn: g.Dependencies(s.ID()),
	}

	if tool := s.Tool(); tool != nil {
		task.Invocation = Invocation{
			Tool:      tool.Name,
			Version:   tool.Version,
			Container: tool.Container,
			Command:   tool.BaseCommand,
		}
		for _, a := range tool.Arguments {
			task.Invocation.Arguments = append(task.Invocation.Arguments, Argument{
				Input:     a.Port,
				Prefix:    a.Prefix,
				Position:  a.Position,
				PrefixAll: a.PrefixAllElements,
			})
		}
	} else {
		task.Invocation = Invocation{Transform: s.Transform()}
	}

	spec, scattered := s.Scatter()
	if scattered {
		task.Scatter = &Scatter{Inputs: spec.Ports, Method: spec.Method()}
	}

	bindings := s.Bindings()
	for _, p := range s.Inputs() {
		in := TaskInput{Name: p.Name, Type: p.Type.String(), Optional: p.Optional, Scattered: spec.Has(p.Name)}
		for _, b := range bindings {
			if b.Port != p.Name {
				continue
			}
			if b.Source.IsLiteral() {
				v, err := literalValue(b.Source.Value())
				if err != nil {
					return Task{}, fmt.Errorf("step %q port %q: %w", s.ID(), p.Name, err)
				}
				in.Value = v
			} else {
				in.Source = b.Source.String()
			}
			break
		}
		if p.Default != nil {
			v, err := literalValue(*p.Default)
			if err != nil {
				return Task{}, fmt.Errorf("step %q port %q: %w", s.ID(), p.Name, err)
			}
			in.Default = v
		}
		task.Inputs = append(task.Inputs, in)
	}

	for _, p := range s.Outputs() {
		t, ok := res.OutputType(s.ID(), p.Name)
		if !ok {
			t = p.Type
		}
		task.Outputs = append(task.Outputs, TaskOutput{Name: p.Name, Type: t.String()})
	}
	return task, nil
}

// literalValue turns a cty value into plain Go data for encoding.
func literalValue(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, fmt.Errorf("error encoding literal: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("error encoding literal: %w", err)
	}
	return out, nil
}
