// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package pipeline

import "fmt"

// StepKind tags a step as External or Computed.
type StepKind int

const (
	// External steps run an opaque command out of process.
	External StepKind = iota
	// Computed steps run a registered in-process transform.
	Computed
)

func (k StepKind) String() string {
	switch k {
	case External:
		return "external"
	case Computed:
		return "computed"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// ParseStepKind is the inverse of StepKind.String.
func ParseStepKind(s string) (StepKind, error) {
	switch s {
	case "external":
		return External, nil
	case "computed":
		return Computed, nil
	}
	return 0, fmt.Errorf("unknown step kind %q", s)
}

// Argument maps an input port of an external step to its place on the
// command line.
type Argument struct {
	Port     string
	Prefix   string
	Position int
	// PrefixAllElements repeats Prefix before every element of an array.
	PrefixAllElements bool
}

// Tool is the invocation descriptor of an external step. The graph never
// inspects it beyond checking that arguments name declared ports.
type Tool struct {
	Name        string
	Version     string
	Container   string
	BaseCommand []string
	Arguments   []Argument
}

func (t *Tool) clone() *Tool {
	if t == nil {
		return nil
	}
	c := *t
	c.BaseCommand = append([]string(nil), t.BaseCommand...)
	c.Arguments = append([]Argument(nil), t.Arguments...)
	return &c
}

// Binding connects a Source to one input port of a step.
type Binding struct {
	Step   string
	Port   string
	Source Source
}

// ScatterSpec lists the input ports a step fans out over. Ports scatter in
// lock-step: element i of every named port feeds instance i.
type ScatterSpec struct {
	Ports []string
}

// Has reports whether port is scattered.
func (s ScatterSpec) Has(port string) bool {
	for _, p := range s.Ports {
		if p == port {
			return true
		}
	}
	return false
}

// Method names the scatter combination, always "dotproduct".
func (s ScatterSpec) Method() string { return "dotproduct" }

// Step is a frozen node of a Graph. Its identity is its id.
type Step struct {
	id        string
	kind      StepKind
	doc       string
	inputs    []Port
	outputs   []Port
	bindings  []Binding
	scatter   *ScatterSpec
	tool      *Tool
	transform string
}

// ID returns the unique step id.
func (s *Step) ID() string { return s.id }

// Kind reports whether the step is External or Computed.
func (s *Step) Kind() StepKind { return s.kind }

// Doc returns the step documentation.
func (s *Step) Doc() string { return s.doc }

// Inputs returns the declared input ports in declaration order.
func (s *Step) Inputs() []Port { return clonePorts(s.inputs) }

// Outputs returns the declared output ports in declaration order.
func (s *Step) Outputs() []Port { return clonePorts(s.outputs) }

// Input returns the declared input port called name.
func (s *Step) Input(name string) (Port, bool) { return findPort(s.inputs, name) }

// Output returns the declared output port called name.
func (s *Step) Output(name string) (Port, bool) { return findPort(s.outputs, name) }

// Bindings returns the step's bindings in declaration order, duplicates
// included.
func (s *Step) Bindings() []Binding {
	return append([]Binding(nil), s.bindings...)
}

// Scatter returns the scatter specification, if any.
func (s *Step) Scatter() (ScatterSpec, bool) {
	if s.scatter == nil {
		return ScatterSpec{}, false
	}
	return ScatterSpec{Ports: append([]string(nil), s.scatter.Ports...)}, true
}

// Tool returns a copy of the invocation descriptor of an external step.
func (s *Step) Tool() *Tool { return s.tool.clone() }

// Transform returns the transform name of a computed step.
func (s *Step) Transform() string { return s.transform }
