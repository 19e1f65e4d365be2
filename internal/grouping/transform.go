package grouping

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/pipeline"
	"github.com/specialistvlad/pipegraph/internal/transform"
	"github.com/specialistvlad/pipegraph/internal/types"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Port and transform names of CreateSequenceGroupings.
const (
	TransformName      = "CreateSequenceGroupings"
	InputRefFasta      = "ref_fasta"
	OutputGroupings    = "sequence_groupings"
	OutputWithUnmapped = "sequence_groupings_with_unmapped"

	createGroupingsVersion = "v0.1.0"
)

var groupsType = cty.List(cty.List(cty.String))

// CreateSequenceGroupings reads the dictionary of a FASTA reference and
// groups its sequences.
type CreateSequenceGroupings struct {
	reg  *types.Registry
	open func(name string) (io.ReadCloser, error)
}

// NewCreateSequenceGroupings returns the transform. Port types are looked up
// in reg.
func NewCreateSequenceGroupings(reg *types.Registry) *CreateSequenceGroupings {
	return &CreateSequenceGroupings{
		reg:  reg,
		open: func(name string) (io.ReadCloser, error) { return os.Open(name) },
	}
}

func (t *CreateSequenceGroupings) Name() string    { return TransformName }
func (t *CreateSequenceGroupings) Version() string { return createGroupingsVersion }

func (t *CreateSequenceGroupings) Inputs() []pipeline.Port {
	return []pipeline.Port{{
		Name: InputRefFasta,
		Type: t.reg.MustLookup(types.NameFastaDict),
		Doc:  "FASTA reference; its .dict must sit next to it",
	}}
}

func (t *CreateSequenceGroupings) Outputs() []pipeline.Port {
	groups := types.ArrayOf(types.ArrayOf(t.reg.MustLookup(types.NameString)))
	return []pipeline.Port{
		{Name: OutputGroupings, Type: groups},
		{Name: OutputWithUnmapped, Type: groups},
	}
}

// Invoke reads the dictionary next to ref_fasta and returns both groupings.
func (t *CreateSequenceGroupings) Invoke(ctx context.Context, in map[string]cty.Value) (map[string]cty.Value, error) {
	fasta := in[InputRefFasta]
	if fasta.IsNull() || !fasta.IsKnown() || !fasta.Type().Equals(cty.String) {
		return nil, fmt.Errorf("%s must be a known path", InputRefFasta)
	}
	path := DictPath(fasta.AsString())
	ctxlog.FromContext(ctx).Debug("CreateSequenceGroupings: reading dictionary.", "path", path)

	f, err := t.open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening sequence dictionary: %w", err)
	}
	defer f.Close()

	records, err := ReadDict(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, &EmptyInputError{Source: path}
	}
	g, err := Group(records)
	if err != nil {
		return nil, err
	}
	return GroupingsValues(g)
}

// GroupingsValues converts g to the output values of the transform.
func GroupingsValues(g Groupings) (map[string]cty.Value, error) {
	groups, err := gocty.ToCtyValue(g.Groups, groupsType)
	if err != nil {
		return nil, err
	}
	withUnmapped, err := gocty.ToCtyValue(g.WithUnmapped, groupsType)
	if err != nil {
		return nil, err
	}
	return map[string]cty.Value{
		OutputGroupings:    groups,
		OutputWithUnmapped: withUnmapped,
	}, nil
}

// Module registers the transforms of this package.
type Module struct {
	Types *types.Registry
}

// Register adds CreateSequenceGroupings to r.
func (m Module) Register(r *transform.Registry) {
	r.Register(NewCreateSequenceGroupings(m.Types))
}
