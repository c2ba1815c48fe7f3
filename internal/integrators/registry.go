package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/softbody/internal/dynamo"
)

const Default = "semi-implicit"

var constructors = map[string]func() dynamo.Integrator{
	"semi-implicit": func() dynamo.Integrator { return NewSemiImplicitEuler() },
	"explicit":      func() dynamo.Integrator { return NewExplicitEuler() },
}

func Get(name string) (dynamo.Integrator, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
