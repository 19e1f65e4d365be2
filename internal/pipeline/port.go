// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package pipeline

import (
	"github.com/specialistvlad/pipegraph/internal/types"
	"github.com/zclconf/go-cty/cty"
)

// Port is a named, typed slot on a step or on the graph boundary.
type Port struct {
	Name     string
	Type     types.Type
	Optional bool
	// Default is nil when the port has no default value.
	Default *cty.Value
	Doc     string
}

// Required reports whether the port must receive a binding.
func (p Port) Required() bool {
	return !p.Optional && p.Default == nil
}

// Output is a named graph output fed by a source.
type Output struct {
	Name   string
	Source Source
	// Type is the declared type, zero when the output takes its source's type.
	Type types.Type
	Doc  string
}

func findPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

func clonePorts(ports []Port) []Port {
	if ports == nil {
		return nil
	}
	out := make([]Port, len(ports))
	copy(out, ports)
	return out
}
