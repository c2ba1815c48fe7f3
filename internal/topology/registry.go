package topology

import (
	"fmt"
	"sort"

	"github.com/san-kum/softbody/internal/dynamo"
)

// Builder derives the bond list for a mesh described by p.
type Builder func(p dynamo.Params) []dynamo.Bond

var builders = map[string]Builder{
	"grid": func(p dynamo.Params) []dynamo.Bond {
		return Grid(p.Rows, p.Cols, p.RestLength, p.Stiffness)
	},
	"complete": func(p dynamo.Params) []dynamo.Bond {
		return Complete(p.NumParticles(), p.RestLength, p.Stiffness)
	},
}

func Get(name string) (Builder, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown topology: %s", name)
	}
	return b, nil
}

func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
