package emit

// Description is the portable form of a pipeline graph.
type Description struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Version string   `json:"version,omitempty" yaml:"version,omitempty"`
	Doc     string   `json:"doc,omitempty" yaml:"doc,omitempty"`
	Inputs  []Input  `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Tasks   []Task   `json:"tasks" yaml:"tasks"`
	Outputs []Output `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Input is a graph input.
type Input struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Default  any    `json:"default,omitempty" yaml:"default,omitempty"`
	Doc      string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Task is one step of the graph.
type Task struct {
	ID         string       `json:"id" yaml:"id"`
	Kind       string       `json:"kind" yaml:"kind"`
	Doc        string       `json:"doc,omitempty" yaml:"doc,omitempty"`
	Invocation Invocation   `json:"invocation" yaml:"invocation"`
	Inputs     []TaskInput  `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs    []TaskOutput `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Scatter    *Scatter     `json:"scatter,omitempty" yaml:"scatter,omitempty"`
	DependsOn  []string     `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Invocation tells the runner how to execute a task. External tasks carry
// the command template; computed tasks name the transform.
type Invocation struct {
	Tool      string     `json:"tool,omitempty" yaml:"tool,omitempty"`
	Version   string     `json:"version,omitempty" yaml:"version,omitempty"`
	Container string     `json:"container,omitempty" yaml:"container,omitempty"`
	Command   []string   `json:"command,omitempty" yaml:"command,omitempty"`
	Arguments []Argument `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Transform string     `json:"transform,omitempty" yaml:"transform,omitempty"`
}

// Argument places an input on the command line.
type Argument struct {
	Input     string `json:"input" yaml:"input"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Position  int    `json:"position,omitempty" yaml:"position,omitempty"`
	PrefixAll bool   `json:"prefix_all,omitempty" yaml:"prefix_all,omitempty"`
}

// TaskInput is an input port with its binding.
type TaskInput struct {
	Name string `json:"name" yaml:"name"`
	// Type is the per-instance type of the port.
	Type      string `json:"type" yaml:"type"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	Value     any    `json:"value,omitempty" yaml:"value,omitempty"`
	Default   any    `json:"default,omitempty" yaml:"default,omitempty"`
	Optional  bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Scattered bool   `json:"scattered,omitempty" yaml:"scattered,omitempty"`
}

// TaskOutput is an output port with its effective type.
type TaskOutput struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Scatter lists the inputs a task fans out over.
type Scatter struct {
	Inputs []string `json:"inputs" yaml:"inputs"`
	Method string   `json:"method" yaml:"method"`
}

// Output is a graph output.
type Output struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Source string `json:"source" yaml:"source"`
	Doc    string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Edge is a dependency between two tasks.
type Edge struct {
	From string
	To   string
}

// Order returns the task ids in listed order.
func (d *Description) Order() []string {
	ids := make([]string, len(d.Tasks))
	for i, t := range d.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// Edges returns every dependency, grouped by dependent task in listed order.
func (d *Description) Edges() []Edge {
	var edges []Edge
	for _, t := range d.Tasks {
		for _, dep := range t.DependsOn {
			edges = append(edges, Edge{From: dep, To: t.ID})
		}
	}
	return edges
}

// Task returns the task with the given id.
func (d *Description) Task(id string) (Task, bool) {
	for _, t := range d.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
