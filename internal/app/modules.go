package app

import (
	"github.com/vk/stepflow/internal/registry"
	"github.com/vk/stepflow/kinds/env_vars"
	"github.com/vk/stepflow/kinds/math"
	"github.com/vk/stepflow/kinds/print"
	"github.com/vk/stepflow/kinds/script"
	"github.com/vk/stepflow/kinds/strings"
)

// coreModules is the definitive list of all kind modules that are compiled
// into the stepflow binary.
var coreModules = []registry.Module{
	&math.Module{},
	&strings.Module{},
	&env_vars.Module{},
	&script.Module{},
	&print.Module{},
}
