// Package problems holds ready-made implicit components for the
// command line demos and integration tests.
package problems

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gomdao/gomdao/internal/component"
	"github.com/gomdao/gomdao/internal/linearize"
)

// Builder constructs a problem with its variables declared, partials
// registered, Setup done, and a starting point loaded.
type Builder func(opts linearize.Options, log *zap.Logger) (*component.Implicit, error)

var registry = map[string]Builder{
	"circuit": Circuit,
	"heat":    Heat,
}

// Names returns the registered problem names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs a named problem.
func Build(name string, opts linearize.Options, log *zap.Logger) (*component.Implicit, error) {
	builder, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("problems: unknown problem %q (have %v)", name, Names())
	}
	return builder(opts, log)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
