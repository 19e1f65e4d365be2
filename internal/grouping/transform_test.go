package grouping

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/pipegraph/internal/transform"
	"github.com/specialistvlad/pipegraph/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

func writeReference(t *testing.T, dict string) string {
	t.Helper()
	dir := t.TempDir()
	fasta := filepath.Join(dir, "Homo_sapiens_assembly38.fasta")
	require.NoError(t, os.WriteFile(fasta, []byte(">chr1\nACGT\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Homo_sapiens_assembly38.dict"), []byte(dict), 0o644))
	return fasta
}

func decodeGroups(t *testing.T, v cty.Value) [][]string {
	t.Helper()
	var out [][]string
	require.NoError(t, gocty.FromCtyValue(v, &out))
	return out
}

func TestCreateSequenceGroupings(t *testing.T) {
	reg := types.NewRegistry()
	fasta := writeReference(t, "@HD\tVN:1.5\n"+
		"@SQ\tSN:chr1\tLN:100\n"+
		"@SQ\tSN:chr2\tLN:90\n"+
		"@SQ\tSN:chr3\tLN:5\n")

	out, err := transform.Call(context.Background(), NewCreateSequenceGroupings(reg), reg, map[string]cty.Value{
		InputRefFasta: cty.StringVal(fasta),
	})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"chr1:1+"}, {"chr2:1+", "chr3:1+"}}, decodeGroups(t, out[OutputGroupings]))
	assert.Equal(t, [][]string{{"chr1:1+"}, {"chr2:1+", "chr3:1+"}, {"unmapped"}}, decodeGroups(t, out[OutputWithUnmapped]))
}

func TestCreateSequenceGroupings_Errors(t *testing.T) {
	reg := types.NewRegistry()
	ctx := context.Background()
	tr := NewCreateSequenceGroupings(reg)

	t.Run("dictionary without records", func(t *testing.T) {
		fasta := writeReference(t, "@HD\tVN:1.5\n")
		_, err := transform.Call(ctx, tr, reg, map[string]cty.Value{InputRefFasta: cty.StringVal(fasta)})
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.ErrorContains(t, err, "Homo_sapiens_assembly38.dict")
	})

	t.Run("malformed dictionary", func(t *testing.T) {
		fasta := writeReference(t, "@SQ\tSN:chr1\n")
		_, err := transform.Call(ctx, tr, reg, map[string]cty.Value{InputRefFasta: cty.StringVal(fasta)})
		assert.ErrorIs(t, err, ErrDictFormat)
	})

	t.Run("missing dictionary", func(t *testing.T) {
		_, err := transform.Call(ctx, tr, reg, map[string]cty.Value{
			InputRefFasta: cty.StringVal(filepath.Join(t.TempDir(), "nope.fasta")),
		})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := transform.Call(ctx, tr, reg, map[string]cty.Value{})
		assert.ErrorIs(t, err, transform.ErrContract)
	})
}

func TestModule(t *testing.T) {
	reg := types.NewRegistry()
	r := transform.NewRegistry()
	Module{Types: reg}.Register(r)

	in, out, ok := r.Contract(TransformName)
	require.True(t, ok)
	require.Len(t, in, 1)
	assert.Equal(t, "FastaDict", in[0].Type.String())
	assert.True(t, reg.Compatible(reg.MustLookup(types.NameFastaWithIndexes), in[0].Type))
	require.Len(t, out, 2)
	assert.Equal(t, "Array(Array(String))", out[1].Type.String())
}
