package app

import "github.com/specialistvlad/pipegraph/internal/pipeline"

// KindInfo describes one declared kind for listings.
type KindInfo struct {
	Name        string
	Kind        string
	Base        string
	Secondaries []string
	Doc         string
}

// TransformInfo describes one registered transform for listings.
type TransformInfo struct {
	Name    string
	Version string
	Inputs  []string
	Outputs []string
}

// Kinds lists the declared kinds in declaration order.
func (a *App) Kinds() []KindInfo {
	var out []KindInfo
	for _, name := range a.types.Names() {
		t := a.types.MustLookup(name)
		out = append(out, KindInfo{
			Name:        name,
			Kind:        t.Kind().String(),
			Base:        t.Base(),
			Secondaries: t.Secondaries(),
			Doc:         a.types.Doc(name),
		})
	}
	return out
}

// TransformsInfo lists the registered transforms by name.
func (a *App) TransformsInfo() []TransformInfo {
	var out []TransformInfo
	for _, name := range a.transforms.Names() {
		t, _ := a.transforms.Lookup(name)
		info := TransformInfo{Name: name}
		if v, ok := t.(interface{ Version() string }); ok {
			info.Version = v.Version()
		}
		info.Inputs = portList(t.Inputs())
		info.Outputs = portList(t.Outputs())
		out = append(out, info)
	}
	return out
}

func portList(ports []pipeline.Port) []string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.Name + ": " + p.Type.String()
	}
	return out
}
