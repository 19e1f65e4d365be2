package app

import (
	"github.com/specialistvlad/pipegraph/internal/grouping"
	"github.com/specialistvlad/pipegraph/internal/transform"
	"github.com/specialistvlad/pipegraph/internal/types"
)

// coreModules is the definitive list of transform modules compiled into the
// pipegraph binary.
func coreModules(reg *types.Registry) []transform.Module {
	return []transform.Module{
		grouping.Module{Types: reg},
	}
}
