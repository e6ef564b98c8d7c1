package decl

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Engine runs the declaration pipeline over a set of modules.
type Engine struct {
	registry *Registry
	jobs     int
}

// NewEngine returns an Engine that declares types into reg.
func NewEngine(reg *Registry) *Engine {
	return &Engine{registry: reg, jobs: 1}
}

// WithJobs bounds how many modules are parsed and validated at once.
func (e *Engine) WithJobs(n int) *Engine {
	if n > 0 {
		e.jobs = n
	}
	return e
}

// Registry returns the registry the engine populates.
func (e *Engine) Registry() *Registry { return e.registry }

// Build declares the types of every module in order, then parses and
// validates the modules concurrently. Results keep the input order.
func (e *Engine) Build(ctx context.Context, raws []RawModule) ([]*ValidatedModule, error) {
	modules := map[string]string{}
	for _, raw := range raws {
		if prev, ok := modules[raw.Name]; ok && raw.Name != "" {
			return nil, duplicate(raw.Name, "module (also in "+orPlaceholder(prev)+")", raw.Name)
		}
		modules[raw.Name] = raw.Source
		if err := Declare(raw, e.registry); err != nil {
			return nil, err
		}
		slog.Debug("module types declared", "module", raw.Name, "types", len(raw.Types), "enums", len(raw.Enums))
	}

	out := make([]*ValidatedModule, len(raws))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)
	for i, raw := range raws {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			spec, err := Parse(raw, e.registry)
			if err != nil {
				return err
			}
			vm, err := ValidateModule(spec, e.registry)
			if err != nil {
				return err
			}
			slog.Debug("module validated", "module", spec.Name, "functions", len(vm.Functions))
			out[i] = vm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
