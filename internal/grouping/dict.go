package grouping

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/exascience/elprep/v5/sam"
	"github.com/exascience/elprep/v5/utils"
)

// ErrDictFormat is matched by DictFormatError through errors.Is.
var ErrDictFormat = errors.New("malformed sequence dictionary")

// DictFormatError reports a malformed @SQ line.
type DictFormatError struct {
	Line   int
	Reason string
}

func (e *DictFormatError) Error() string {
	return fmt.Sprintf("sequence dictionary line %d: %s", e.Line, e.Reason)
}

func (e *DictFormatError) Is(target error) bool { return target == ErrDictFormat }

const sqTag = "@SQ"

// DictPath returns the sequence dictionary path of a FASTA reference: the
// last extension is replaced by ".dict".
func DictPath(fasta string) string {
	return strings.TrimSuffix(fasta, filepath.Ext(fasta)) + ".dict"
}

// ReadDict reads the @SQ lines of a sequence dictionary in file order.
// All other lines are ignored.
func ReadDict(r io.Reader) ([]SequenceRecord, error) {
	var records []SequenceRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, sqTag) {
			continue
		}
		rec, err := parseSQ(line[len(sqTag):], lineNo)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading sequence dictionary: %w", err)
	}
	return records, nil
}

// parseSQ parses the fields of an @SQ line after the tag. The fields are
// checked up front because the header parser panics on malformed input.
func parseSQ(fields string, lineNo int) (rec SequenceRecord, err error) {
	seen := make(map[string]bool)
	for _, f := range strings.Fields(fields) {
		if len(f) < 3 || f[2] != ':' {
			return rec, &DictFormatError{Line: lineNo, Reason: fmt.Sprintf("field %q is not TAG:VALUE", f)}
		}
		if seen[f[:2]] {
			return rec, &DictFormatError{Line: lineNo, Reason: fmt.Sprintf("duplicate tag %s", f[:2])}
		}
		seen[f[:2]] = true
	}

	var header utils.StringMap
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = &DictFormatError{Line: lineNo, Reason: fmt.Sprint(p)}
			}
		}()
		header = sam.ParseHeaderLineFromString(fields)
	}()
	if err != nil {
		return rec, err
	}

	name, ok := header["SN"]
	if !ok || name == "" {
		return rec, &DictFormatError{Line: lineNo, Reason: "missing SN"}
	}
	ln, ok := header["LN"]
	if !ok {
		return rec, &DictFormatError{Line: lineNo, Reason: "missing LN"}
	}
	if n, perr := strconv.ParseInt(ln, 10, 32); perr != nil || n < 1 {
		return rec, &DictFormatError{Line: lineNo, Reason: fmt.Sprintf("invalid LN %q", ln)}
	}

	return SequenceRecord{Name: name, Length: int64(sam.SQLN(header))}, nil
}
