package emit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/pipegraph/internal/pipeline"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// Format is an output syntax for descriptions.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
)

// Formats lists the supported formats, default first.
var Formats = []Format{FormatYAML, FormatJSON, FormatHCL}

// ParseFormat validates a format name. The empty string means YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "hcl":
		return FormatHCL, nil
	}
	return "", fmt.Errorf("unsupported format %q (want yaml, json or hcl)", s)
}

// Encode writes d to w in the given format.
func Encode(w io.Writer, d *Description, format Format) error {
	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("error encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("error encoding json: %w", err)
		}
		return nil
	case FormatHCL:
		b, err := encodeHCL(d)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	return fmt.Errorf("unsupported format %q", format)
}

func encodeHCL(d *Description) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	p := root.AppendNewBlock("pipeline", []string{d.Name}).Body()
	p.SetAttributeValue("id", cty.StringVal(d.ID))
	setString(p, "version", d.Version)
	setString(p, "doc", d.Doc)

	for _, in := range d.Inputs {
		root.AppendNewline()
		b := root.AppendNewBlock("input", []string{in.Name}).Body()
		b.SetAttributeValue("type", cty.StringVal(in.Type))
		if in.Optional {
			b.SetAttributeValue("optional", cty.True)
		}
		if err := setAny(b, "default", in.Default); err != nil {
			return nil, fmt.Errorf("input %q: %w", in.Name, err)
		}
		setString(b, "doc", in.Doc)
	}

	for _, t := range d.Tasks {
		root.AppendNewline()
		b := root.AppendNewBlock("task", []string{t.ID}).Body()
		b.SetAttributeValue("kind", cty.StringVal(t.Kind))
		setString(b, "doc", t.Doc)
		setString(b, "tool", t.Invocation.Tool)
		setString(b, "version", t.Invocation.Version)
		setString(b, "container", t.Invocation.Container)
		setStrings(b, "command", t.Invocation.Command)
		setString(b, "transform", t.Invocation.Transform)
		setStrings(b, "depends_on", t.DependsOn)

		if t.Scatter != nil {
			sb := b.AppendNewBlock("scatter", nil).Body()
			setStrings(sb, "inputs", t.Scatter.Inputs)
			sb.SetAttributeValue("method", cty.StringVal(t.Scatter.Method))
		}
		for _, a := range t.Invocation.Arguments {
			ab := b.AppendNewBlock("argument", []string{a.Input}).Body()
			setString(ab, "prefix", a.Prefix)
			if a.Position != 0 {
				ab.SetAttributeValue("position", cty.NumberIntVal(int64(a.Position)))
			}
			if a.PrefixAll {
				ab.SetAttributeValue("prefix_all", cty.True)
			}
		}
		for _, in := range t.Inputs {
			ib := b.AppendNewBlock("in", []string{in.Name}).Body()
			ib.SetAttributeValue("type", cty.StringVal(in.Type))
			setString(ib, "source", in.Source)
			if err := setAny(ib, "value", in.Value); err != nil {
				return nil, fmt.Errorf("task %q input %q: %w", t.ID, in.Name, err)
			}
			if err := setAny(ib, "default", in.Default); err != nil {
				return nil, fmt.Errorf("task %q input %q: %w", t.ID, in.Name, err)
			}
			if in.Optional {
				ib.SetAttributeValue("optional", cty.True)
			}
			if in.Scattered {
				ib.SetAttributeValue("scattered", cty.True)
			}
		}
		for _, out := range t.Outputs {
			ob := b.AppendNewBlock("out", []string{out.Name}).Body()
			ob.SetAttributeValue("type", cty.StringVal(out.Type))
		}
	}

	for _, o := range d.Outputs {
		root.AppendNewline()
		b := root.AppendNewBlock("output", []string{o.Name}).Body()
		b.SetAttributeValue("type", cty.StringVal(o.Type))
		b.SetAttributeValue("source", cty.StringVal(o.Source))
		setString(b, "doc", o.Doc)
	}

	return f.Bytes(), nil
}

func setString(b *hclwrite.Body, name, v string) {
	if v != "" {
		b.SetAttributeValue(name, cty.StringVal(v))
	}
}

func setStrings(b *hclwrite.Body, name string, vs []string) {
	if len(vs) == 0 {
		return
	}
	vals := make([]cty.Value, len(vs))
	for i, v := range vs {
		vals[i] = cty.StringVal(v)
	}
	b.SetAttributeValue(name, cty.ListVal(vals))
}

// setAny writes plain Go data decoded from JSON or YAML as an HCL value.
func setAny(b *hclwrite.Body, name string, v any) error {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return err
	}
	val, err := ctyjson.Unmarshal(raw, ty)
	if err != nil {
		return err
	}
	b.SetAttributeValue(name, val)
	return nil
}

// ErrInvalidDescription is returned by Decode for inconsistent task lists.
var ErrInvalidDescription = errors.New("invalid description")

// Decode reads a description written as YAML or JSON and checks that its
// task list is a dependency order: ids are unique, kinds are known and every
// dependency is listed before its dependent.
func Decode(r io.Reader) (*Description, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading description: %w", err)
	}

	var d Description
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &d); err != nil {
			return nil, fmt.Errorf("error decoding json description: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("error decoding yaml description: %w", err)
	}

	seen := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: task without id", ErrInvalidDescription)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: duplicate task %q", ErrInvalidDescription, t.ID)
		}
		if _, err := pipeline.ParseStepKind(t.Kind); err != nil {
			return nil, fmt.Errorf("%w: task %q: %v", ErrInvalidDescription, t.ID, err)
		}
		for _, dep := range t.DependsOn {
			if !seen[dep] {
				return nil, fmt.Errorf("%w: task %q depends on %q which is not listed before it", ErrInvalidDescription, t.ID, dep)
			}
		}
		seen[t.ID] = true
	}
	return &d, nil
}
