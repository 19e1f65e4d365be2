// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package pipeline

import "github.com/specialistvlad/pipegraph/internal/dag"

// Graph is an immutable pipeline graph produced by Builder.Build.
type Graph struct {
	name    string
	version string
	doc     string

	inputs  []Port
	steps   []*Step
	outputs []Output

	inputIndex map[string]int
	stepIndex  map[string]int
}

// Edge is a step-to-step dependency: To reads at least one output of From.
type Edge struct {
	From string
	To   string
}

// Name returns the pipeline name.
func (g *Graph) Name() string { return g.name }

// Version returns the pipeline version, or "".
func (g *Graph) Version() string { return g.version }

// Doc returns the pipeline documentation.
func (g *Graph) Doc() string { return g.doc }

// Inputs returns the graph inputs in declaration order.
func (g *Graph) Inputs() []Port { return clonePorts(g.inputs) }

// Input returns the graph input called name.
func (g *Graph) Input(name string) (Port, bool) {
	i, ok := g.inputIndex[name]
	if !ok {
		return Port{}, false
	}
	return g.inputs[i], true
}

// Steps returns the steps in declaration order.
func (g *Graph) Steps() []*Step {
	return append([]*Step(nil), g.steps...)
}

// Step returns the step with the given id.
func (g *Graph) Step(id string) (*Step, bool) {
	i, ok := g.stepIndex[id]
	if !ok {
		return nil, false
	}
	return g.steps[i], true
}

// Outputs returns the graph outputs in declaration order.
func (g *Graph) Outputs() []Output {
	return append([]Output(nil), g.outputs...)
}

// Output returns the graph output called name.
func (g *Graph) Output(name string) (Output, bool) {
	for _, o := range g.outputs {
		if o.Name == name {
			return o, true
		}
	}
	return Output{}, false
}

// Bindings returns every binding of every step in declaration order.
func (g *Graph) Bindings() []Binding {
	var all []Binding
	for _, s := range g.steps {
		all = append(all, s.bindings...)
	}
	return all
}

// Dependencies returns the ids of the steps bound into stepID, in binding
// order and without duplicates. A step reading its own output lists itself.
func (g *Graph) Dependencies(stepID string) []string {
	s, ok := g.Step(stepID)
	if !ok {
		return nil
	}
	var deps []string
	seen := make(map[string]bool)
	for _, b := range s.bindings {
		from := b.Source.StepID()
		if from == "" || seen[from] {
			continue
		}
		if _, ok := g.stepIndex[from]; !ok {
			continue
		}
		seen[from] = true
		deps = append(deps, from)
	}
	return deps
}

// Edges returns all step-to-step dependencies, grouped by consumer in
// declaration order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, s := range g.steps {
		for _, dep := range g.Dependencies(s.id) {
			edges = append(edges, Edge{From: dep, To: s.id})
		}
	}
	return edges
}

// DependencyGraph returns the step dependency graph: one node per step in
// declaration order and one edge per entry of Edges.
func (g *Graph) DependencyGraph() *dag.Graph {
	d := dag.New()
	for _, s := range g.steps {
		d.AddNode(s.id)
	}
	for _, e := range g.Edges() {
		// Both ends are steps of g, so AddEdge cannot fail.
		_ = d.AddEdge(e.From, e.To)
	}
	return d
}
