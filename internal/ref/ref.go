// internal/ref/ref.go
package ref

import (
	"fmt"
	"regexp"
	"strings"
)

// nameRegex matches a single identifier, e.g. `bwa_mem` or `ref-fasta`.
var nameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// Ref identifies a value inside a graph: a graph input when Step is empty,
// otherwise the output Port of Step.
type Ref struct {
	Step string
	Port string
}

// Input returns a reference to the graph input called name.
func Input(name string) Ref { return Ref{Port: name} }

// Output returns a reference to the output port of a step.
func Output(step, port string) Ref { return Ref{Step: step, Port: port} }

// IsInput reports whether r names a graph input.
func (r Ref) IsInput() bool { return r.Step == "" }

// String serializes the reference into its canonical form.
func (r Ref) String() string {
	if r.IsInput() {
		return r.Port
	}
	return r.Step + "." + r.Port
}

// ValidName reports whether name may be used for an input, step, port or
// output.
func ValidName(name string) bool {
	return nameRegex.MatchString(name)
}

// Parse reads the canonical form produced by String.
func Parse(raw string) (Ref, error) {
	if raw == "" {
		return Ref{}, fmt.Errorf("reference cannot be empty")
	}

	parts := strings.Split(raw, ".")
	if len(parts) > 2 {
		return Ref{}, fmt.Errorf("reference %q has too many segments", raw)
	}
	for _, p := range parts {
		if p == "" {
			return Ref{}, fmt.Errorf("reference %q contains an empty segment", raw)
		}
		if !ValidName(p) {
			return Ref{}, fmt.Errorf("invalid name %q in reference %q", p, raw)
		}
	}

	if len(parts) == 1 {
		return Input(parts[0]), nil
	}
	return Output(parts[0], parts[1]), nil
}
