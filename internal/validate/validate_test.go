package validate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/specialistvlad/pipegraph/internal/dag"
	"github.com/specialistvlad/pipegraph/internal/pipeline"
	"github.com/specialistvlad/pipegraph/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

var reg = types.NewRegistry()

func typ(name string) types.Type { return reg.MustLookup(name) }

func sortSpec(id string, bindings ...pipeline.BindingSpec) pipeline.StepSpec {
	return pipeline.StepSpec{
		ID:   id,
		Kind: pipeline.External,
		Tool: &pipeline.Tool{Name: "SortSam"},
		Inputs: []pipeline.Port{
			{Name: "bam", Type: typ(types.NameBam)},
			{Name: "sort_order", Type: typ(types.NameString), Optional: true},
			{Name: "level", Type: typ(types.NameInt), Default: ptr(cty.NumberIntVal(5))},
		},
		Outputs:  []pipeline.Port{{Name: "out", Type: typ(types.NameBamBai)}},
		Bindings: bindings,
	}
}

func ptr(v cty.Value) *cty.Value { return &v }

func errorsOf[T error](r *Report) []T {
	var out []T
	for _, err := range r.Errors() {
		var target T
		if errors.As(err, &target) {
			out = append(out, target)
		}
	}
	return out
}

func TestValidate_ValidGraph(t *testing.T) {
	b := pipeline.NewBuilder("g", reg)
	require.NoError(t, b.AddInput("bams", types.ArrayOf(typ(types.NameBamBai))))
	spec := sortSpec("sort",
		pipeline.Bind("bam", pipeline.FromInput("bams")),
		pipeline.Bind("sort_order", pipeline.Literal(cty.StringVal("coordinate"))),
	)
	spec.Scatter = []string{"bam"}
	require.NoError(t, b.AddStep(spec))
	require.NoError(t, b.AddStep(pipeline.StepSpec{
		ID:       "merge",
		Kind:     pipeline.External,
		Tool:     &pipeline.Tool{Name: "MergeSamFiles"},
		Inputs:   []pipeline.Port{{Name: "bams", Type: types.ArrayOf(typ(types.NameBam))}},
		Outputs:  []pipeline.Port{{Name: "out", Type: typ(types.NameBamBai)}},
		Bindings: []pipeline.BindingSpec{pipeline.Bind("bams", pipeline.FromStep("sort", "out"))},
	}))
	require.NoError(t, b.AddOutput("merged", pipeline.FromStep("merge", "out"), pipeline.OutputType(typ(types.NameBam))))
	g, err := b.Build()
	require.NoError(t, err)

	r := Validate(context.Background(), g, reg)
	assert.True(t, r.Valid(), r.Err())
	assert.NoError(t, r.Err())
	assert.Equal(t, "valid", r.Summary())
	assert.Same(t, g, r.Graph())
	require.NotNil(t, r.Resolution())
}

func TestValidate_Cycle(t *testing.T) {
	b := pipeline.NewBuilder("g", reg, pipeline.WithDeferredReferences())
	require.NoError(t, b.AddStep(sortSpec("a", pipeline.Bind("bam", pipeline.FromStep("c", "out")))))
	require.NoError(t, b.AddStep(sortSpec("b", pipeline.Bind("bam", pipeline.FromStep("a", "out")))))
	require.NoError(t, b.AddStep(sortSpec("c", pipeline.Bind("bam", pipeline.FromStep("b", "out")))))
	g, err := b.Build()
	require.NoError(t, err)

	r := Validate(context.Background(), g, reg)
	require.False(t, r.Valid())
	cycles := errorsOf[*CycleError](r)
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, cycles[0].Steps())
	assert.ErrorIs(t, r.Err(), ErrCycle)
	var dagCycle *dag.CycleError
	require.ErrorAs(t, r.Err(), &dagCycle)
	assert.Equal(t, cycles[0].Path, dagCycle.Path)
	assert.Contains(t, r.Summary(), "cycle=1")
}

func TestValidate_SelfReference(t *testing.T) {
	b := pipeline.NewBuilder("g", reg, pipeline.WithDeferredReferences())
	require.NoError(t, b.AddStep(sortSpec("loop", pipeline.Bind("bam", pipeline.FromStep("loop", "out")))))
	g, err := b.Build()
	require.NoError(t, err)

	cycles := errorsOf[*CycleError](Validate(context.Background(), g, reg))
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"loop"}, cycles[0].Steps())
}

func TestValidate_TypeMismatch(t *testing.T) {
	testCases := []struct {
		name      string
		input     types.Type
		scatter   bool
		binding   pipeline.BindingSpec
		scattered bool
	}{
		{
			name:    "unrelated file kinds",
			input:   typ(types.NameVcf),
			binding: pipeline.Bind("bam", pipeline.FromInput("in")),
		},
		{
			name:    "array into scalar without scatter",
			input:   types.ArrayOf(typ(types.NameBam)),
			binding: pipeline.Bind("bam", pipeline.FromInput("in")),
		},
		{
			name:      "scattered element mismatch",
			input:     types.ArrayOf(typ(types.NameVcf)),
			scatter:   true,
			binding:   pipeline.Bind("bam", pipeline.FromInput("in")),
			scattered: true,
		},
		{
			name:    "literal that does not convert",
			input:   typ(types.NameBam),
			binding: pipeline.Bind("level", pipeline.Literal(cty.StringVal("five"))),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := pipeline.NewBuilder("g", reg)
			require.NoError(t, b.AddInput("in", tc.input))
			bindings := []pipeline.BindingSpec{tc.binding}
			if tc.binding.Port != "bam" {
				bindings = append(bindings, pipeline.Bind("bam", pipeline.FromInput("in")))
			}
			spec := sortSpec("sort", bindings...)
			if tc.scatter {
				spec.Scatter = []string{"bam"}
			}
			require.NoError(t, b.AddStep(spec))
			g, err := b.Build()
			require.NoError(t, err)

			r := Validate(context.Background(), g, reg)
			mismatches := errorsOf[*TypeMismatchError](r)
			require.Len(t, mismatches, 1, r.Err())
			assert.Equal(t, tc.scattered, mismatches[0].Scattered)
			assert.ErrorIs(t, r.Err(), ErrTypeMismatch)
		})
	}
}

func TestValidate_LiteralBindings(t *testing.T) {
	ports := []pipeline.Port{
		{Name: "bam", Type: typ(types.NameBam), Optional: true},
		{Name: "bams", Type: types.ArrayOf(typ(types.NameBam)), Optional: true},
		{Name: "dir", Type: typ(types.NameDirectory), Optional: true},
		{Name: "name", Type: typ(types.NameString), Optional: true},
		{Name: "ratio", Type: typ(types.NameFloat), Optional: true},
		{Name: "level", Type: typ(types.NameInt), Optional: true},
		{Name: "create_index", Type: typ(types.NameBoolean), Optional: true},
		{Name: "names", Type: types.ArrayOf(typ(types.NameString)), Optional: true},
	}

	testCases := []struct {
		name     string
		port     string
		value    cty.Value
		expected bool
	}{
		{"string", "name", cty.StringVal("sample"), true},
		{"path into a file kind", "bam", cty.StringVal("x.bam"), true},
		{"paths into an array of files", "bams", cty.TupleVal([]cty.Value{cty.StringVal("a.bam"), cty.StringVal("b.bam")}), true},
		{"path into a directory", "dir", cty.StringVal("out/"), true},
		{"whole number into float", "ratio", cty.NumberIntVal(2), true},
		{"boolean", "create_index", cty.True, true},
		{"empty list into any array", "names", cty.EmptyTupleVal, true},
		{"null", "level", cty.NullVal(cty.DynamicPseudoType), true},
		{"number into string", "name", cty.NumberIntVal(3), false},
		{"string into boolean", "create_index", cty.StringVal("true"), false},
		{"string into int", "level", cty.StringVal("5"), false},
		{"fraction into int", "level", cty.NumberFloatVal(0.5), false},
		{"number into file kind", "bam", cty.NumberIntVal(1), false},
		{"boolean into string", "name", cty.False, false},
		{"list into scalar", "name", cty.TupleVal([]cty.Value{cty.StringVal("a")}), false},
		{"scalar into array", "names", cty.StringVal("a"), false},
		{"numbers into array of strings", "names", cty.TupleVal([]cty.Value{cty.NumberIntVal(1)}), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := pipeline.NewBuilder("g", reg)
			require.NoError(t, b.AddStep(pipeline.StepSpec{
				ID:       "call",
				Kind:     pipeline.External,
				Tool:     &pipeline.Tool{Name: "Call"},
				Inputs:   ports,
				Outputs:  []pipeline.Port{{Name: "out", Type: typ(types.NameVcf)}},
				Bindings: []pipeline.BindingSpec{pipeline.Bind(tc.port, pipeline.Literal(tc.value))},
			}))
			g, err := b.Build()
			require.NoError(t, err)

			r := Validate(context.Background(), g, reg)
			if tc.expected {
				assert.True(t, r.Valid(), r.Err())
				return
			}
			mismatches := errorsOf[*TypeMismatchError](r)
			require.Len(t, mismatches, 1, r.Err())
			assert.Equal(t, fmt.Sprintf("step %q port %q", "call", tc.port), mismatches[0].Target)
		})
	}
}

func TestValidate_GraphOutputType(t *testing.T) {
	b := pipeline.NewBuilder("g", reg)
	require.NoError(t, b.AddInput("vcf", typ(types.NameVcf)))
	require.NoError(t, b.AddOutput("out", pipeline.FromInput("vcf"), pipeline.OutputType(typ(types.NameBam))))
	g, err := b.Build()
	require.NoError(t, err)

	mismatches := errorsOf[*TypeMismatchError](Validate(context.Background(), g, reg))
	require.Len(t, mismatches, 1)
	assert.Equal(t, `output "out"`, mismatches[0].Target)
}

func TestValidate_DuplicateBinding(t *testing.T) {
	b := pipeline.NewBuilder("g", reg)
	require.NoError(t, b.AddInput("a", typ(types.NameBam)))
	require.NoError(t, b.AddInput("b", typ(types.NameBam)))
	require.NoError(t, b.AddStep(sortSpec("sort",
		pipeline.Bind("bam", pipeline.FromInput("a")),
		pipeline.Bind("bam", pipeline.FromInput("b")),
	)))
	g, err := b.Build()
	require.NoError(t, err)

	r := Validate(context.Background(), g, reg)
	dups := errorsOf[*DuplicateBindingError](r)
	require.Len(t, dups, 1, "rejected even though both sources are compatible")
	assert.Equal(t, "bam", dups[0].Port)
	assert.Equal(t, []string{"a", "b"}, dups[0].Sources)
	assert.Empty(t, errorsOf[*TypeMismatchError](r))
}

func TestValidate_UnboundRequiredInput(t *testing.T) {
	b := pipeline.NewBuilder("g", reg)
	require.NoError(t, b.AddStep(sortSpec("sort")))
	g, err := b.Build()
	require.NoError(t, err)

	unbound := errorsOf[*UnboundRequiredInputError](Validate(context.Background(), g, reg))
	require.Len(t, unbound, 1, "optional and defaulted ports are not required")
	assert.Equal(t, "bam", unbound[0].Port)
}

func TestValidate_CollectsEverything(t *testing.T) {
	b := pipeline.NewBuilder("g", reg, pipeline.WithDeferredReferences())
	require.NoError(t, b.AddInput("vcf", typ(types.NameVcf)))
	require.NoError(t, b.AddStep(sortSpec("a",
		pipeline.Bind("bam", pipeline.FromStep("b", "out")),
		pipeline.Bind("sort_order", pipeline.Literal(cty.StringVal("x"))),
		pipeline.Bind("sort_order", pipeline.Literal(cty.StringVal("y"))),
	)))
	require.NoError(t, b.AddStep(sortSpec("b", pipeline.Bind("bam", pipeline.FromStep("a", "out")))))
	require.NoError(t, b.AddStep(sortSpec("c", pipeline.Bind("bam", pipeline.FromInput("vcf")))))
	scattered := sortSpec("d", pipeline.Bind("bam", pipeline.FromInput("vcf")))
	scattered.Scatter = []string{"bam"}
	require.NoError(t, b.AddStep(scattered))
	require.NoError(t, b.AddStep(sortSpec("e")))
	g, err := b.Build()
	require.NoError(t, err)

	r := Validate(context.Background(), g, reg)
	assert.Len(t, errorsOf[*CycleError](r), 1)
	assert.Len(t, errorsOf[*DuplicateBindingError](r), 1)
	assert.Len(t, errorsOf[*TypeMismatchError](r), 1)
	assert.Len(t, errorsOf[*UnboundRequiredInputError](r), 1)
	assert.Len(t, errorsOf[*pipeline.ScatterTypeError](r), 1)
	assert.Len(t, r.Errors(), 5)
	assert.Equal(t, "5 errors: cycle=1 duplicate_binding=1 scatter=1 type_mismatch=1 unbound_input=1", r.Summary())
}

func TestValidate_IsPure(t *testing.T) {
	b := pipeline.NewBuilder("g", reg)
	require.NoError(t, b.AddStep(sortSpec("sort")))
	g, err := b.Build()
	require.NoError(t, err)

	first := Validate(context.Background(), g, reg)
	second := Validate(context.Background(), g, reg)
	assert.Equal(t, first.Err().Error(), second.Err().Error())
	assert.Len(t, g.Bindings(), 0)
}
