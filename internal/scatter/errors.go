package scatter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrScatterLength is matched by ScatterLengthError through errors.Is.
var ErrScatterLength = errors.New("scatter length mismatch")

// ScatterLengthError reports literal lists of different lengths bound to the
// ports of one lock-step scatter.
type ScatterLengthError struct {
	Step    string
	Lengths map[string]int
}

func (e *ScatterLengthError) Error() string {
	ports := make([]string, 0, len(e.Lengths))
	for p := range e.Lengths {
		ports = append(ports, p)
	}
	sort.Strings(ports)
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = fmt.Sprintf("%s=%d", p, e.Lengths[p])
	}
	return fmt.Sprintf("step %q: scattered literal lists differ in length (%s)", e.Step, strings.Join(parts, ", "))
}

func (e *ScatterLengthError) Is(target error) bool { return target == ErrScatterLength }
