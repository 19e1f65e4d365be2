package hclload

import "github.com/hashicorp/hcl/v2"

// rootSchema picks the pipeline block out of a file before the rest of the
// body is decoded.
var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "pipeline", LabelNames: []string{"name"}},
	},
}

// pipelineBlock is the body of the single `pipeline "name" {}` block.
type pipelineBlock struct {
	Version string `hcl:"version,optional"`
	Doc     string `hcl:"doc,optional"`
}

// fileRoot decodes every other top-level block of a file.
type fileRoot struct {
	Types   []*typeBlock   `hcl:"type,block"`
	Inputs  []*inputBlock  `hcl:"input,block"`
	Tools   []*toolBlock   `hcl:"tool,block"`
	Steps   []*stepBlock   `hcl:"step,block"`
	Outputs []*outputBlock `hcl:"output,block"`
}

type typeBlock struct {
	Name        string    `hcl:"name,label"`
	Base        string    `hcl:"base,optional"`
	File        bool      `hcl:"file,optional"`
	Secondaries []string  `hcl:"secondaries,optional"`
	Doc         string    `hcl:"doc,optional"`
	DefRange    hcl.Range `hcl:",def_range"`
}

type inputBlock struct {
	Name     string         `hcl:"name,label"`
	Type     hcl.Expression `hcl:"type"`
	Default  hcl.Expression `hcl:"default,optional"`
	Optional bool           `hcl:"optional,optional"`
	Doc      string         `hcl:"doc,optional"`
	DefRange hcl.Range      `hcl:",def_range"`
}

type toolBlock struct {
	Name      string       `hcl:"name,label"`
	Version   string       `hcl:"version,optional"`
	Container string       `hcl:"container,optional"`
	Command   []string     `hcl:"command,optional"`
	Inputs    []*portBlock `hcl:"input,block"`
	Outputs   []*portBlock `hcl:"output,block"`
	DefRange  hcl.Range    `hcl:",def_range"`
}

// portBlock declares an input or output port of a tool. The command-line
// attributes only apply to inputs.
type portBlock struct {
	Name      string         `hcl:"name,label"`
	Type      hcl.Expression `hcl:"type"`
	Default   hcl.Expression `hcl:"default,optional"`
	Optional  bool           `hcl:"optional,optional"`
	Doc       string         `hcl:"doc,optional"`
	Prefix    string         `hcl:"prefix,optional"`
	Position  int            `hcl:"position,optional"`
	PrefixAll bool           `hcl:"prefix_all,optional"`
	DefRange  hcl.Range      `hcl:",def_range"`
}

type stepBlock struct {
	ID        string         `hcl:"id,label"`
	Tool      string         `hcl:"tool,optional"`
	Transform string         `hcl:"transform,optional"`
	Doc       string         `hcl:"doc,optional"`
	In        hcl.Expression `hcl:"in,optional"`
	Scatter   []string       `hcl:"scatter,optional"`
	DefRange  hcl.Range      `hcl:",def_range"`
}

type outputBlock struct {
	Name     string         `hcl:"name,label"`
	Source   hcl.Expression `hcl:"source"`
	Type     hcl.Expression `hcl:"type,optional"`
	Doc      string         `hcl:"doc,optional"`
	DefRange hcl.Range      `hcl:",def_range"`
}
