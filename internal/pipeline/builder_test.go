// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package pipeline

import (
	"errors"
	"testing"

	"github.com/specialistvlad/pipegraph/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

var reg = types.NewRegistry()

func typ(name string) types.Type { return reg.MustLookup(name) }

func sortStep(id string, src Source) StepSpec {
	return StepSpec{
		ID:       id,
		Kind:     External,
		Tool:     &Tool{Name: "SortSam", BaseCommand: []string{"gatk", "SortSam"}, Arguments: []Argument{{Port: "bam", Prefix: "-I"}}},
		Inputs:   []Port{{Name: "bam", Type: typ(types.NameBam)}},
		Outputs:  []Port{{Name: "out", Type: typ(types.NameBamBai)}},
		Bindings: []BindingSpec{Bind("bam", src)},
	}
}

func TestBuilder_HappyPath(t *testing.T) {
	b := NewBuilder("align", reg, WithVersion("1.0"), WithDoc("alignment"))
	require.NoError(t, b.AddInput("bam", typ(types.NameBam)))
	require.NoError(t, b.AddInput("level", typ(types.NameInt), Default(cty.StringVal("5")), Doc("compression")))
	require.NoError(t, b.AddStep(sortStep("sort", FromInput("bam"))))
	require.NoError(t, b.AddOutput("sorted", FromStep("sort", "out"), OutputDoc("sorted bam")))

	g, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "align", g.Name())
	assert.Equal(t, "1.0", g.Version())
	assert.Equal(t, "alignment", g.Doc())

	level, ok := g.Input("level")
	require.True(t, ok)
	require.NotNil(t, level.Default)
	assert.True(t, level.Default.Equals(cty.NumberIntVal(5)).True(), "default is converted to the declared type")
	assert.False(t, level.Required())
	assert.Equal(t, "compression", level.Doc)

	s, ok := g.Step("sort")
	require.True(t, ok)
	assert.Equal(t, External, s.Kind())
	assert.Equal(t, "SortSam", s.Tool().Name)
	_, scattered := s.Scatter()
	assert.False(t, scattered)

	out, ok := g.Output("sorted")
	require.True(t, ok)
	assert.Equal(t, "sort.out", out.Source.String())
	assert.Equal(t, "sorted bam", out.Doc)
}

func TestBuilder_DuplicateName(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(b *Builder) error
		kind  string
	}{
		{
			name: "input collides with input",
			setup: func(b *Builder) error {
				_ = b.AddInput("x", typ(types.NameString))
				return b.AddInput("x", typ(types.NameString))
			},
			kind: "input",
		},
		{
			name: "step collides with input",
			setup: func(b *Builder) error {
				_ = b.AddInput("sort", typ(types.NameBam))
				return b.AddStep(sortStep("sort", FromInput("sort")))
			},
			kind: "step",
		},
		{
			name: "input collides with step",
			setup: func(b *Builder) error {
				_ = b.AddInput("bam", typ(types.NameBam))
				_ = b.AddStep(sortStep("sort", FromInput("bam")))
				return b.AddInput("sort", typ(types.NameString))
			},
			kind: "input",
		},
		{
			name: "port declared twice",
			setup: func(b *Builder) error {
				spec := sortStep("sort", Literal(cty.StringVal("a.bam")))
				spec.Outputs = append(spec.Outputs, spec.Outputs[0])
				return b.AddStep(spec)
			},
			kind: "port",
		},
		{
			name: "output declared twice",
			setup: func(b *Builder) error {
				_ = b.AddInput("bam", typ(types.NameBam))
				_ = b.AddOutput("o", FromInput("bam"))
				return b.AddOutput("o", FromInput("bam"))
			},
			kind: "output",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.setup(NewBuilder("g", reg))
			var dup *DuplicateNameError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tc.kind, dup.Kind)
			assert.ErrorIs(t, err, ErrDuplicateName)
		})
	}
}

func TestBuilder_UnknownReference(t *testing.T) {
	t.Run("forward reference is rejected at the call", func(t *testing.T) {
		b := NewBuilder("g", reg)
		err := b.AddStep(sortStep("sort", FromStep("align", "out")))
		var unk *UnknownReferenceError
		require.ErrorAs(t, err, &unk)
		assert.Equal(t, "align.out", unk.Ref)
		assert.Equal(t, `step "sort"`, unk.Referrer)
		_, exists := b.stepIndex["sort"]
		assert.False(t, exists, "a rejected step is not recorded")
	})

	t.Run("undeclared output port of a known step", func(t *testing.T) {
		b := NewBuilder("g", reg)
		require.NoError(t, b.AddStep(sortStep("a", Literal(cty.StringVal("x.bam")))))
		err := b.AddStep(sortStep("b", FromStep("a", "nope")))
		assert.ErrorIs(t, err, ErrUnknownReference)
	})

	t.Run("binding an undeclared port", func(t *testing.T) {
		spec := sortStep("sort", Literal(cty.StringVal("x.bam")))
		spec.Bindings = append(spec.Bindings, Bind("ghost", Literal(cty.True)))
		err := NewBuilder("g", reg).AddStep(spec)
		var unk *UnknownReferenceError
		require.ErrorAs(t, err, &unk)
		assert.Equal(t, "ghost", unk.Ref)
	})

	t.Run("scattering an undeclared port", func(t *testing.T) {
		spec := sortStep("sort", Literal(cty.StringVal("x.bam")))
		spec.Scatter = []string{"ghost"}
		assert.ErrorIs(t, NewBuilder("g", reg).AddStep(spec), ErrUnknownReference)
	})

	t.Run("tool argument naming an undeclared port", func(t *testing.T) {
		spec := sortStep("sort", Literal(cty.StringVal("x.bam")))
		spec.Tool.Arguments = append(spec.Tool.Arguments, Argument{Port: "ghost"})
		assert.ErrorIs(t, NewBuilder("g", reg).AddStep(spec), ErrUnknownReference)
	})

	t.Run("output from undeclared input", func(t *testing.T) {
		assert.ErrorIs(t, NewBuilder("g", reg).AddOutput("o", FromInput("nope")), ErrUnknownReference)
	})

	t.Run("literal output", func(t *testing.T) {
		assert.ErrorIs(t, NewBuilder("g", reg).AddOutput("o", Literal(cty.True)), ErrUnknownReference)
	})
}

func TestBuilder_DeferredReferences(t *testing.T) {
	t.Run("any declaration order", func(t *testing.T) {
		b := NewBuilder("g", reg, WithDeferredReferences())
		require.NoError(t, b.AddOutput("o", FromStep("sort", "out")))
		require.NoError(t, b.AddStep(sortStep("sort", FromInput("bam"))))
		require.NoError(t, b.AddInput("bam", typ(types.NameBam)))
		g, err := b.Build()
		require.NoError(t, err)
		assert.Len(t, g.Steps(), 1)
	})

	t.Run("unknown references are all reported by Build", func(t *testing.T) {
		b := NewBuilder("g", reg, WithDeferredReferences())
		require.NoError(t, b.AddStep(sortStep("sort", FromInput("missing"))))
		require.NoError(t, b.AddOutput("o", FromStep("ghost", "out")))
		g, err := b.Build()
		assert.Nil(t, g)
		assert.ErrorIs(t, err, ErrUnknownReference)
		assert.ErrorContains(t, err, `"missing"`)
		assert.ErrorContains(t, err, `"ghost.out"`)

		require.NoError(t, b.AddInput("missing", typ(types.NameBam)), "a failed build leaves the builder open")
	})
}

func TestBuilder_Frozen(t *testing.T) {
	b := NewBuilder("g", reg)
	_, err := b.Build()
	require.NoError(t, err)

	calls := map[string]func() error{
		"AddInput":  func() error { return b.AddInput("x", typ(types.NameString)) },
		"AddStep":   func() error { return b.AddStep(sortStep("s", Literal(cty.StringVal("a")))) },
		"AddOutput": func() error { return b.AddOutput("o", FromInput("x")) },
		"Build":     func() error { _, err := b.Build(); return err },
	}
	for op, call := range calls {
		t.Run(op, func(t *testing.T) {
			err := call()
			var frozen *FrozenGraphError
			require.ErrorAs(t, err, &frozen)
			assert.Equal(t, op, frozen.Op)
			assert.True(t, errors.Is(err, ErrFrozenGraph))
		})
	}
}

func TestBuilder_Scatter(t *testing.T) {
	t.Run("empty scatter list", func(t *testing.T) {
		spec := sortStep("sort", Literal(cty.StringVal("x.bam")))
		spec.Scatter = []string{}
		assert.ErrorIs(t, NewBuilder("g", reg).AddStep(spec), ErrScatterType)
	})

	t.Run("port named twice", func(t *testing.T) {
		spec := sortStep("sort", Literal(cty.StringVal("x.bam")))
		spec.Scatter = []string{"bam", "bam"}
		var st *ScatterTypeError
		require.ErrorAs(t, NewBuilder("g", reg).AddStep(spec), &st)
		assert.Equal(t, "bam", st.Port)
	})

	t.Run("scatter is kept", func(t *testing.T) {
		b := NewBuilder("g", reg)
		spec := sortStep("sort", Literal(cty.StringVal("x.bam")))
		spec.Scatter = []string{"bam"}
		require.NoError(t, b.AddStep(spec))
		g, err := b.Build()
		require.NoError(t, err)
		s, _ := g.Step("sort")
		sc, ok := s.Scatter()
		require.True(t, ok)
		assert.True(t, sc.Has("bam"))
		assert.Equal(t, "dotproduct", sc.Method())
	})
}

func TestBuilder_Defaults(t *testing.T) {
	t.Run("inconvertible input default", func(t *testing.T) {
		err := NewBuilder("g", reg).AddInput("level", typ(types.NameInt), Default(cty.StringVal("five")))
		var tm *TypeMismatchError
		require.ErrorAs(t, err, &tm)
		assert.Equal(t, "input level", tm.Target)
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("inconvertible port default", func(t *testing.T) {
		spec := sortStep("sort", Literal(cty.StringVal("x.bam")))
		spec.Inputs = append(spec.Inputs, Port{Name: "verbose", Type: typ(types.NameBoolean), Default: ptr(cty.StringVal("loud"))})
		assert.ErrorIs(t, NewBuilder("g", reg).AddStep(spec), ErrTypeMismatch)
	})
}

func TestBuilder_StepKinds(t *testing.T) {
	t.Run("external without tool", func(t *testing.T) {
		err := NewBuilder("g", reg).AddStep(StepSpec{ID: "s", Kind: External})
		assert.ErrorIs(t, err, ErrInvalidStep)
	})

	t.Run("computed without transform", func(t *testing.T) {
		err := NewBuilder("g", reg).AddStep(StepSpec{ID: "s", Kind: Computed})
		assert.ErrorIs(t, err, ErrInvalidStep)
	})

	t.Run("computed takes its contract from the catalogue", func(t *testing.T) {
		b := NewBuilder("g", reg, WithContracts(fakeContracts{}))
		require.NoError(t, b.AddInput("ref", typ(types.NameFastaWithIndexes)))
		require.NoError(t, b.AddStep(StepSpec{
			ID: "groups", Kind: Computed, Transform: "split",
			Bindings: []BindingSpec{Bind("ref_fasta", FromInput("ref"))},
		}))
		g, err := b.Build()
		require.NoError(t, err)
		s, _ := g.Step("groups")
		_, ok := s.Output("groups")
		assert.True(t, ok)
		assert.Equal(t, "split", s.Transform())
	})

	t.Run("unregistered transform", func(t *testing.T) {
		b := NewBuilder("g", reg, WithContracts(fakeContracts{}))
		err := b.AddStep(StepSpec{ID: "s", Kind: Computed, Transform: "nope"})
		assert.ErrorIs(t, err, ErrUnknownReference)
	})

	t.Run("invalid names", func(t *testing.T) {
		assert.ErrorIs(t, NewBuilder("g", reg).AddInput("1bad", typ(types.NameString)), ErrInvalidName)
		assert.ErrorIs(t, NewBuilder("g", reg).AddStep(sortStep("a.b", Literal(cty.True))), ErrInvalidName)
	})
}

type fakeContracts struct{}

func (fakeContracts) Contract(name string) ([]Port, []Port, bool) {
	if name != "split" {
		return nil, nil, false
	}
	return []Port{{Name: "ref_fasta", Type: typ(types.NameFastaWithIndexes)}},
		[]Port{{Name: "groups", Type: types.ArrayOf(types.ArrayOf(typ(types.NameString)))}},
		true
}

func ptr(v cty.Value) *cty.Value { return &v }
