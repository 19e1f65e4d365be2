package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/pipegraph/internal/emit"
	"github.com/specialistvlad/pipegraph/internal/grouping"
	"github.com/specialistvlad/pipegraph/internal/transform"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	"gopkg.in/yaml.v3"
)

// GroupingsResult holds both outputs of the sequence grouping transform.
type GroupingsResult struct {
	SequenceGroupings             [][]string `json:"sequence_groupings" yaml:"sequence_groupings"`
	SequenceGroupingsWithUnmapped [][]string `json:"sequence_groupings_with_unmapped" yaml:"sequence_groupings_with_unmapped"`
}

// Groupings runs the sequence grouping transform for a reference. path may
// name the FASTA or its .dict directly.
func (a *App) Groupings(ctx context.Context, path string) (*GroupingsResult, error) {
	ctx = a.context(ctx)
	t, ok := a.transforms.Lookup(grouping.TransformName)
	if !ok {
		return nil, fmt.Errorf("transform %q is not registered", grouping.TransformName)
	}

	out, err := transform.Call(ctx, t, a.types, map[string]cty.Value{
		grouping.InputRefFasta: cty.StringVal(path),
	})
	if err != nil {
		return nil, err
	}

	var res GroupingsResult
	if err := gocty.FromCtyValue(out[grouping.OutputGroupings], &res.SequenceGroupings); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", grouping.OutputGroupings, err)
	}
	if err := gocty.FromCtyValue(out[grouping.OutputWithUnmapped], &res.SequenceGroupingsWithUnmapped); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", grouping.OutputWithUnmapped, err)
	}
	a.logger.Debug("Sequence groupings computed.", "path", path, "groups", len(res.SequenceGroupings))
	return &res, nil
}

// WriteGroupings writes res to the app output in the configured format.
func (a *App) WriteGroupings(res *GroupingsResult) error {
	return a.WriteValue(res)
}

// WriteValue writes v to the app output in the configured format. HCL is not
// meaningful for bare values and falls back to JSON.
func (a *App) WriteValue(v any) error {
	if a.config.Format == emit.FormatYAML {
		enc := yaml.NewEncoder(a.outW)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("error encoding yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
