// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/pipegraph/internal/ref"
	"github.com/specialistvlad/pipegraph/internal/types"
	"github.com/zclconf/go-cty/cty"
)

// Contracts supplies the port contract of a named transform.
type Contracts interface {
	Contract(name string) (inputs, outputs []Port, ok bool)
}

// Option configures a Builder.
type Option func(*Builder)

// WithVersion sets the graph version.
func WithVersion(v string) Option { return func(b *Builder) { b.version = v } }

// WithDoc sets the graph documentation.
func WithDoc(doc string) Option { return func(b *Builder) { b.doc = doc } }

// WithDeferredReferences allows references to declarations that come later.
// Unknown references are then reported by Build.
func WithDeferredReferences() Option { return func(b *Builder) { b.deferred = true } }

// WithContracts lets computed steps that declare no ports take their
// contract from c.
func WithContracts(c Contracts) Option { return func(b *Builder) { b.contracts = c } }

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

// PortOption configures a graph input.
type PortOption func(*Port)

// Optional marks the input as not requiring a value.
func Optional() PortOption { return func(p *Port) { p.Optional = true } }

// Default sets the value used when nothing is supplied.
func Default(v cty.Value) PortOption { return func(p *Port) { p.Default = &v } }

// Doc documents the input.
func Doc(doc string) PortOption { return func(p *Port) { p.Doc = doc } }

// OutputOption configures a graph output.
type OutputOption func(*Output)

// OutputDoc documents the output.
func OutputDoc(doc string) OutputOption { return func(o *Output) { o.Doc = doc } }

// OutputType declares the type the output must carry.
func OutputType(t types.Type) OutputOption { return func(o *Output) { o.Type = t } }

// BindingSpec binds Source to the input port Port of the step being added.
type BindingSpec struct {
	Port   string
	Source Source
}

// Bind is shorthand for a BindingSpec.
func Bind(port string, src Source) BindingSpec { return BindingSpec{Port: port, Source: src} }

// StepSpec declares a step.
type StepSpec struct {
	ID      string
	Kind    StepKind
	Doc     string
	Inputs  []Port
	Outputs []Port
	// Bindings are kept in order. A port bound twice is kept twice and
	// reported by validation.
	Bindings []BindingSpec
	// Scatter is nil for a step that does not scatter.
	Scatter []string
	// Tool describes an External step.
	Tool *Tool
	// Transform names the transform of a Computed step.
	Transform string
}

// Builder accumulates declarations and produces a frozen Graph.
type Builder struct {
	name      string
	version   string
	doc       string
	reg       *types.Registry
	contracts Contracts
	deferred  bool
	logger    *slog.Logger

	frozen  bool
	inputs  []Port
	steps   []*Step
	outputs []Output

	inputIndex map[string]int
	stepIndex  map[string]int
}

// NewBuilder returns a builder for a graph called name. A nil registry means
// the built-in kinds only.
func NewBuilder(name string, reg *types.Registry, opts ...Option) *Builder {
	if reg == nil {
		reg = types.NewRegistry()
	}
	b := &Builder{
		name:       name,
		reg:        reg,
		logger:     slog.Default(),
		inputIndex: make(map[string]int),
		stepIndex:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Registry returns the type registry the builder checks defaults against.
func (b *Builder) Registry() *types.Registry { return b.reg }

func (b *Builder) nameTaken(name string) bool {
	_, isInput := b.inputIndex[name]
	_, isStep := b.stepIndex[name]
	return isInput || isStep
}

// AddInput declares a graph input.
func (b *Builder) AddInput(name string, t types.Type, opts ...PortOption) error {
	if b.frozen {
		return &FrozenGraphError{Op: "AddInput"}
	}
	if !ref.ValidName(name) {
		return fmt.Errorf("%w: input %q", ErrInvalidName, name)
	}
	if t.IsZero() {
		return fmt.Errorf("input %q has no type", name)
	}
	if b.nameTaken(name) {
		return &DuplicateNameError{Kind: "input", Name: name}
	}

	p := Port{Name: name, Type: t}
	for _, opt := range opts {
		opt(&p)
	}
	if err := b.convertDefault(&p, "input "+name); err != nil {
		return err
	}

	b.inputIndex[name] = len(b.inputs)
	b.inputs = append(b.inputs, p)
	b.logger.Debug("Builder: input declared.", "input", name, "type", t.String())
	return nil
}

func (b *Builder) convertDefault(p *Port, target string) error {
	if p.Default == nil {
		return nil
	}
	v, err := b.reg.ConvertValue(*p.Default, p.Type)
	if err != nil {
		return &TypeMismatchError{Target: target, Source: LiteralString(*p.Default), DestType: p.Type, Err: err}
	}
	p.Default = &v
	return nil
}

// AddStep declares a step. All names the step uses are checked here.
func (b *Builder) AddStep(spec StepSpec) error {
	if b.frozen {
		return &FrozenGraphError{Op: "AddStep"}
	}
	if !ref.ValidName(spec.ID) {
		return fmt.Errorf("%w: step %q", ErrInvalidName, spec.ID)
	}
	if b.nameTaken(spec.ID) {
		return &DuplicateNameError{Kind: "step", Name: spec.ID}
	}
	referrer := fmt.Sprintf("step %q", spec.ID)

	switch spec.Kind {
	case External:
		if spec.Tool == nil || spec.Transform != "" {
			return fmt.Errorf("%w: external step %q needs a tool and no transform", ErrInvalidStep, spec.ID)
		}
	case Computed:
		if spec.Transform == "" || spec.Tool != nil {
			return fmt.Errorf("%w: computed step %q needs a transform and no tool", ErrInvalidStep, spec.ID)
		}
	default:
		return fmt.Errorf("%w: step %q has unknown kind %s", ErrInvalidStep, spec.ID, spec.Kind)
	}

	inputs, outputs := clonePorts(spec.Inputs), clonePorts(spec.Outputs)
	if spec.Kind == Computed && len(inputs) == 0 && len(outputs) == 0 && b.contracts != nil {
		in, out, ok := b.contracts.Contract(spec.Transform)
		if !ok {
			return &UnknownReferenceError{Ref: spec.Transform, Referrer: referrer, Reason: "transform is not registered"}
		}
		inputs, outputs = clonePorts(in), clonePorts(out)
	}
	if err := b.checkPorts(spec.ID, inputs); err != nil {
		return err
	}
	if err := b.checkPorts(spec.ID, outputs); err != nil {
		return err
	}

	s := &Step{
		id:        spec.ID,
		kind:      spec.Kind,
		doc:       spec.Doc,
		inputs:    inputs,
		outputs:   outputs,
		tool:      spec.Tool.clone(),
		transform: spec.Transform,
	}

	for _, bs := range spec.Bindings {
		if _, ok := findPort(inputs, bs.Port); !ok {
			return &UnknownReferenceError{Ref: bs.Port, Referrer: referrer, Reason: "step declares no such input port"}
		}
		if bs.Source.IsLiteral() {
			if bs.Source.Value().Type() == cty.NilType {
				return fmt.Errorf("%w: step %q binds an empty literal to %q", ErrInvalidStep, spec.ID, bs.Port)
			}
		} else if !b.deferred {
			if err := b.checkRef(bs.Source.Ref(), referrer); err != nil {
				return err
			}
		}
		s.bindings = append(s.bindings, Binding{Step: spec.ID, Port: bs.Port, Source: bs.Source})
	}

	if spec.Scatter != nil {
		scatter, err := checkScatter(spec.ID, spec.Scatter, inputs)
		if err != nil {
			return err
		}
		s.scatter = scatter
	}

	if s.tool != nil {
		for _, arg := range s.tool.Arguments {
			if _, ok := findPort(inputs, arg.Port); !ok {
				return &UnknownReferenceError{Ref: arg.Port, Referrer: referrer, Reason: "tool argument names no input port"}
			}
		}
	}

	b.stepIndex[spec.ID] = len(b.steps)
	b.steps = append(b.steps, s)
	b.logger.Debug("Builder: step declared.", "step", spec.ID, "kind", spec.Kind.String(), "bindings", len(s.bindings))
	return nil
}

func (b *Builder) checkPorts(stepID string, ports []Port) error {
	seen := make(map[string]bool, len(ports))
	for i := range ports {
		p := &ports[i]
		if !ref.ValidName(p.Name) {
			return fmt.Errorf("%w: port %q on step %q", ErrInvalidName, p.Name, stepID)
		}
		if p.Type.IsZero() {
			return fmt.Errorf("port %q on step %q has no type", p.Name, stepID)
		}
		if seen[p.Name] {
			return &DuplicateNameError{Kind: "port", Name: p.Name, Owner: stepID}
		}
		seen[p.Name] = true
		if err := b.convertDefault(p, fmt.Sprintf("step %q port %q", stepID, p.Name)); err != nil {
			return err
		}
	}
	return nil
}

func checkScatter(stepID string, ports []string, inputs []Port) (*ScatterSpec, error) {
	if len(ports) == 0 {
		return nil, &ScatterTypeError{Step: stepID, Reason: "names no port"}
	}
	seen := make(map[string]bool, len(ports))
	for _, p := range ports {
		if seen[p] {
			return nil, &ScatterTypeError{Step: stepID, Port: p, Reason: "is named twice"}
		}
		seen[p] = true
		if _, ok := findPort(inputs, p); !ok {
			return nil, &UnknownReferenceError{Ref: p, Referrer: fmt.Sprintf("scatter of step %q", stepID), Reason: "step declares no such input port"}
		}
	}
	return &ScatterSpec{Ports: append([]string(nil), ports...)}, nil
}

func (b *Builder) checkRef(r ref.Ref, referrer string) error {
	if r.IsInput() {
		if _, ok := b.inputIndex[r.Port]; !ok {
			return &UnknownReferenceError{Ref: r.String(), Referrer: referrer, Reason: "no such graph input"}
		}
		return nil
	}
	i, ok := b.stepIndex[r.Step]
	if !ok {
		return &UnknownReferenceError{Ref: r.String(), Referrer: referrer, Reason: "no such step"}
	}
	if _, ok := b.steps[i].Output(r.Port); !ok {
		return &UnknownReferenceError{Ref: r.String(), Referrer: referrer, Reason: "step declares no such output port"}
	}
	return nil
}

// AddOutput declares a graph output fed by a reference.
func (b *Builder) AddOutput(name string, src Source, opts ...OutputOption) error {
	if b.frozen {
		return &FrozenGraphError{Op: "AddOutput"}
	}
	if !ref.ValidName(name) {
		return fmt.Errorf("%w: output %q", ErrInvalidName, name)
	}
	for _, o := range b.outputs {
		if o.Name == name {
			return &DuplicateNameError{Kind: "output", Name: name}
		}
	}
	referrer := fmt.Sprintf("output %q", name)
	if src.IsLiteral() {
		return &UnknownReferenceError{Ref: src.String(), Referrer: referrer, Reason: "outputs must reference an input or a step output"}
	}
	if !b.deferred {
		if err := b.checkRef(src.Ref(), referrer); err != nil {
			return err
		}
	}

	o := Output{Name: name, Source: src}
	for _, opt := range opts {
		opt(&o)
	}
	b.outputs = append(b.outputs, o)
	b.logger.Debug("Builder: output declared.", "output", name, "source", src.String())
	return nil
}

// Build freezes the builder and returns the graph. With deferred references
// every unresolved reference is reported at once and the builder stays open.
func (b *Builder) Build() (*Graph, error) {
	if b.frozen {
		return nil, &FrozenGraphError{Op: "Build"}
	}

	if b.deferred {
		var errs []error
		for _, s := range b.steps {
			for _, bind := range s.bindings {
				if bind.Source.IsLiteral() {
					continue
				}
				if err := b.checkRef(bind.Source.Ref(), fmt.Sprintf("step %q", s.id)); err != nil {
					errs = append(errs, err)
				}
			}
		}
		for _, o := range b.outputs {
			if err := b.checkRef(o.Source.Ref(), fmt.Sprintf("output %q", o.Name)); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
	}

	b.frozen = true
	g := &Graph{
		name:       b.name,
		version:    b.version,
		doc:        b.doc,
		inputs:     clonePorts(b.inputs),
		steps:      append([]*Step(nil), b.steps...),
		outputs:    append([]Output(nil), b.outputs...),
		inputIndex: make(map[string]int, len(b.inputIndex)),
		stepIndex:  make(map[string]int, len(b.stepIndex)),
	}
	for k, v := range b.inputIndex {
		g.inputIndex[k] = v
	}
	for k, v := range b.stepIndex {
		g.stepIndex[k] = v
	}
	b.logger.Debug("Builder: graph built.", "graph", b.name, "inputs", len(g.inputs), "steps", len(g.steps), "outputs", len(g.outputs))
	return g, nil
}
