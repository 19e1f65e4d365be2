package hclload

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/fsutil"
	"github.com/specialistvlad/pipegraph/internal/pipeline"
	"github.com/specialistvlad/pipegraph/internal/types"
	"github.com/zclconf/go-cty/cty"
)

// Extension is the file extension of pipeline definitions.
const Extension = ".hcl"

var (
	// ErrNoFiles is returned when the given paths hold no definition files.
	ErrNoFiles = errors.New("no pipeline definition files found")
	// ErrNoPipeline is returned when no file declares a pipeline block.
	ErrNoPipeline = errors.New("no pipeline block found")
)

// Loader reads HCL pipeline definitions.
type Loader struct {
	reg       *types.Registry
	contracts pipeline.Contracts
}

// Option configures a Loader.
type Option func(*Loader)

// WithContracts lets computed steps take their ports from c.
func WithContracts(c pipeline.Contracts) Option { return func(l *Loader) { l.contracts = c } }

// NewLoader returns a loader declaring type blocks into reg.
func NewLoader(reg *types.Registry, opts ...Option) *Loader {
	if reg == nil {
		reg = types.NewRegistry()
	}
	l := &Loader{reg: reg}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type definition struct {
	name     string
	pipeline pipelineBlock
	root     fileRoot
}

// Load parses every .hcl file under paths and builds the graph they define.
func (l *Loader) Load(ctx context.Context, paths ...string) (*pipeline.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	def, err := l.parse(files)
	if err != nil {
		return nil, err
	}

	g, err := l.build(ctx, def)
	if err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.", "pipeline", g.Name(), "inputs", len(g.Inputs()), "steps", len(g.Steps()), "outputs", len(g.Outputs()))
	return g, nil
}

func (l *Loader) parse(files []string) (*definition, error) {
	parser := hclparse.NewParser()
	def := &definition{}
	var pipelineBlockRange *hcl.Range
	var diags hcl.Diagnostics

	for _, file := range files {
		f, d := parser.ParseHCLFile(file)
		if d.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, d)
		}

		content, remain, d := f.Body.PartialContent(rootSchema)
		diags = append(diags, d...)

		block, d := findUniqueBlock(content.Blocks, "pipeline")
		diags = append(diags, d...)
		if block != nil {
			if pipelineBlockRange != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate \"pipeline\" block",
					Detail:   "Only one \"pipeline\" block is allowed; the first is at " + pipelineBlockRange.String() + ".",
					Subject:  &block.DefRange,
				})
			} else {
				pipelineBlockRange = &block.DefRange
				def.name = block.Labels[0]
				diags = append(diags, gohcl.DecodeBody(block.Body, nil, &def.pipeline)...)
			}
		}

		var root fileRoot
		diags = append(diags, gohcl.DecodeBody(remain, nil, &root)...)
		def.root.Types = append(def.root.Types, root.Types...)
		def.root.Inputs = append(def.root.Inputs, root.Inputs...)
		def.root.Tools = append(def.root.Tools, root.Tools...)
		def.root.Steps = append(def.root.Steps, root.Steps...)
		def.root.Outputs = append(def.root.Outputs, root.Outputs...)
	}

	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode pipeline definition: %w", diags)
	}
	if pipelineBlockRange == nil {
		return nil, ErrNoPipeline
	}
	return def, nil
}

func (l *Loader) build(ctx context.Context, def *definition) (*pipeline.Graph, error) {
	logger := ctxlog.FromContext(ctx).With("pipeline", def.name)
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := l.declareTypes(def.root.Types); err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithVersion(def.pipeline.Version),
		pipeline.WithDoc(def.pipeline.Doc),
		pipeline.WithDeferredReferences(),
		pipeline.WithLogger(logger),
	}
	if l.contracts != nil {
		opts = append(opts, pipeline.WithContracts(l.contracts))
	}
	b := pipeline.NewBuilder(def.name, l.reg, opts...)

	tools := make(map[string]*toolBlock, len(def.root.Tools))
	var errs []error
	for _, t := range def.root.Tools {
		if prev, ok := tools[t.Name]; ok {
			errs = append(errs, fmt.Errorf("%s: tool %q already declared at %s", t.DefRange, t.Name, prev.DefRange))
			continue
		}
		tools[t.Name] = t
	}

	for _, in := range def.root.Inputs {
		if err := l.addInput(ctx, b, in); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", in.DefRange, err))
		}
	}
	for _, s := range def.root.Steps {
		if err := l.addStep(ctx, b, s, tools); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.DefRange, err))
		}
	}
	for _, o := range def.root.Outputs {
		if err := l.addOutput(ctx, b, o); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.DefRange, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b.Build()
}

// declareTypes declares type blocks in dependency order, so a type may
// refine one declared later or in another file.
func (l *Loader) declareTypes(blocks []*typeBlock) error {
	pending := blocks
	for len(pending) > 0 {
		var next []*typeBlock
		for _, t := range pending {
			if _, ok := l.reg.Lookup(t.Base); t.Base != "" && !ok {
				next = append(next, t)
				continue
			}
			if err := l.declareType(t); err != nil {
				return err
			}
		}
		if len(next) == len(pending) {
			// No progress: the first remaining block names an unknown base.
			return l.declareType(next[0])
		}
		pending = next
	}
	return nil
}

func (l *Loader) declareType(t *typeBlock) error {
	_, err := l.reg.Declare(t.Name, types.Structure{
		Base:        t.Base,
		File:        t.File,
		Secondaries: t.Secondaries,
		Doc:         t.Doc,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", t.DefRange, err)
	}
	return nil
}

func (l *Loader) addInput(ctx context.Context, b *pipeline.Builder, in *inputBlock) error {
	t, err := typeFromExpr(l.reg, in.Type)
	if err != nil {
		return fmt.Errorf("input %q: %w", in.Name, err)
	}
	var opts []pipeline.PortOption
	if in.Optional {
		opts = append(opts, pipeline.Optional())
	}
	if in.Doc != "" {
		opts = append(opts, pipeline.Doc(in.Doc))
	}
	if isExprDefined(ctx, in.Default, "default") {
		v, diags := in.Default.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("invalid default value for input %q: %w", in.Name, diags)
		}
		if !v.IsNull() {
			opts = append(opts, pipeline.Default(v))
		}
	}
	return b.AddInput(in.Name, t, opts...)
}

func (l *Loader) addStep(ctx context.Context, b *pipeline.Builder, s *stepBlock, tools map[string]*toolBlock) error {
	spec := pipeline.StepSpec{ID: s.ID, Doc: s.Doc, Scatter: s.Scatter}

	switch {
	case s.Tool != "" && s.Transform != "":
		return fmt.Errorf("step %q: set either tool or transform, not both", s.ID)
	case s.Tool != "":
		tb, ok := tools[s.Tool]
		if !ok {
			return fmt.Errorf("step %q: no tool named %q", s.ID, s.Tool)
		}
		if err := l.toolSpec(ctx, tb, &spec); err != nil {
			return fmt.Errorf("step %q: %w", s.ID, err)
		}
	default:
		spec.Kind = pipeline.Computed
		spec.Transform = s.Transform
	}

	if isExprDefined(ctx, s.In, "in") {
		pairs, diags := hcl.ExprMap(s.In)
		if diags.HasErrors() {
			return fmt.Errorf("step %q: in must be an object of port = value: %w", s.ID, diags)
		}
		for _, pair := range pairs {
			port := hcl.ExprAsKeyword(pair.Key)
			if port == "" {
				v, diags := pair.Key.Value(nil)
				if diags.HasErrors() || !v.Type().Equals(cty.String) || v.IsNull() {
					return fmt.Errorf("step %q: binding keys must be port names (%s)", s.ID, pair.Key.Range())
				}
				port = v.AsString()
			}
			src, err := sourceFromExpr(pair.Value)
			if err != nil {
				return fmt.Errorf("step %q port %q: %w", s.ID, port, err)
			}
			spec.Bindings = append(spec.Bindings, pipeline.Bind(port, src))
		}
	}
	return b.AddStep(spec)
}

func (l *Loader) toolSpec(ctx context.Context, tb *toolBlock, spec *pipeline.StepSpec) error {
	spec.Kind = pipeline.External
	spec.Tool = &pipeline.Tool{
		Name:        tb.Name,
		Version:     tb.Version,
		Container:   tb.Container,
		BaseCommand: tb.Command,
	}
	for _, p := range tb.Inputs {
		port, err := l.port(ctx, p)
		if err != nil {
			return fmt.Errorf("tool %q input %q: %w", tb.Name, p.Name, err)
		}
		spec.Inputs = append(spec.Inputs, port)
		if p.Prefix != "" || p.Position != 0 || p.PrefixAll {
			spec.Tool.Arguments = append(spec.Tool.Arguments, pipeline.Argument{
				Port:              p.Name,
				Prefix:            p.Prefix,
				Position:          p.Position,
				PrefixAllElements: p.PrefixAll,
			})
		}
	}
	for _, p := range tb.Outputs {
		port, err := l.port(ctx, p)
		if err != nil {
			return fmt.Errorf("tool %q output %q: %w", tb.Name, p.Name, err)
		}
		spec.Outputs = append(spec.Outputs, port)
	}
	return nil
}

func (l *Loader) port(ctx context.Context, p *portBlock) (pipeline.Port, error) {
	t, err := typeFromExpr(l.reg, p.Type)
	if err != nil {
		return pipeline.Port{}, err
	}
	port := pipeline.Port{Name: p.Name, Type: t, Optional: p.Optional, Doc: p.Doc}
	if isExprDefined(ctx, p.Default, "default") {
		v, diags := p.Default.Value(nil)
		if diags.HasErrors() {
			return pipeline.Port{}, fmt.Errorf("invalid default value: %w", diags)
		}
		if !v.IsNull() {
			port.Default = &v
		}
	}
	return port, nil
}

func (l *Loader) addOutput(ctx context.Context, b *pipeline.Builder, o *outputBlock) error {
	src, err := sourceFromExpr(o.Source)
	if err != nil {
		return fmt.Errorf("output %q: %w", o.Name, err)
	}
	var opts []pipeline.OutputOption
	if o.Doc != "" {
		opts = append(opts, pipeline.OutputDoc(o.Doc))
	}
	if isExprDefined(ctx, o.Type, "type") {
		t, err := typeFromExpr(l.reg, o.Type)
		if err != nil {
			return fmt.Errorf("output %q: %w", o.Name, err)
		}
		opts = append(opts, pipeline.OutputType(t))
	}
	return b.AddOutput(o.Name, src, opts...)
}
