package grouping

import (
	"errors"
)

const (
	// ProtectionSuffix is appended to every sequence name.
	ProtectionSuffix = ":1+"
	// Unmapped names the extra group that collects unmapped reads.
	Unmapped = "unmapped"
)

// ErrEmptyInput is returned by Group when there is nothing to group.
var ErrEmptyInput = errors.New("no sequence records to group")

// EmptyInputError reports an empty record list. The bound of the grouping
// is undefined without at least one record.
type EmptyInputError struct {
	// Source names where the records came from, if known.
	Source string
}

func (e *EmptyInputError) Error() string {
	if e.Source != "" {
		return "no sequence records in " + e.Source
	}
	return ErrEmptyInput.Error()
}

func (e *EmptyInputError) Is(target error) bool { return target == ErrEmptyInput }

// SequenceRecord is one reference sequence.
type SequenceRecord struct {
	Name   string
	Length int64
}

// Groupings is the result of Group.
type Groupings struct {
	// Groups holds the protected sequence names, group by group.
	Groups [][]string
	// WithUnmapped is Groups followed by a final group holding only Unmapped.
	WithUnmapped [][]string
}

// Group accumulates records into groups in input order. A record joins the
// current group while the group total stays at or below the longest record
// length; otherwise it starts a new group.
func Group(records []SequenceRecord) (Groupings, error) {
	if len(records) == 0 {
		return Groupings{}, &EmptyInputError{}
	}

	var longest int64
	for _, r := range records {
		if r.Length > longest {
			longest = r.Length
		}
	}

	groups := [][]string{{records[0].Name + ProtectionSuffix}}
	total := records[0].Length
	for _, r := range records[1:] {
		if total+r.Length <= longest {
			last := len(groups) - 1
			groups[last] = append(groups[last], r.Name+ProtectionSuffix)
			total += r.Length
			continue
		}
		groups = append(groups, []string{r.Name + ProtectionSuffix})
		total = r.Length
	}

	withUnmapped := make([][]string, 0, len(groups)+1)
	for _, g := range groups {
		withUnmapped = append(withUnmapped, append([]string(nil), g...))
	}
	withUnmapped = append(withUnmapped, []string{Unmapped})

	return Groupings{Groups: groups, WithUnmapped: withUnmapped}, nil
}
