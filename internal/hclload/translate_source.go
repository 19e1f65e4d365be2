package hclload

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/pipegraph/internal/pipeline"
)

// ErrReference is returned for binding expressions that look like
// references but are not input.NAME or step.ID.PORT.
var ErrReference = errors.New("invalid reference")

const (
	rootInput = "input"
	rootStep  = "step"
)

// sourceFromExpr turns a binding expression into a Source. The keywords
// true, false and null also read as traversals, so literal expressions are
// taken as values before any traversal is tried.
func sourceFromExpr(expr hcl.Expression) (pipeline.Source, error) {
	if _, literal := expr.(*hclsyntax.LiteralValueExpr); !literal {
		if trav, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() {
			return sourceFromTraversal(trav)
		}
	}

	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return pipeline.Source{}, diags
	}
	return pipeline.Literal(v), nil
}

func sourceFromTraversal(trav hcl.Traversal) (pipeline.Source, error) {
	names := []string{trav.RootName()}
	for _, step := range trav[1:] {
		attr, ok := step.(hcl.TraverseAttr)
		if !ok {
			return pipeline.Source{}, fmt.Errorf("%w %s at %s: indexing is not supported", ErrReference, traversalKey(trav), trav.SourceRange())
		}
		names = append(names, attr.Name)
	}

	switch {
	case names[0] == rootInput && len(names) == 2:
		return pipeline.FromInput(names[1]), nil
	case names[0] == rootStep && len(names) == 3:
		return pipeline.FromStep(names[1], names[2]), nil
	}
	return pipeline.Source{}, fmt.Errorf("%w %s at %s: expected input.NAME or step.ID.PORT", ErrReference, traversalKey(trav), trav.SourceRange())
}
