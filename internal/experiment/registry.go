package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/vesselsim/internal/config"
	"github.com/san-kum/vesselsim/internal/dynamo"
	"github.com/san-kum/vesselsim/internal/integrators"
	"github.com/san-kum/vesselsim/internal/metrics"
	"github.com/san-kum/vesselsim/internal/physics"
)

type Registry struct {
	solvers map[string]func(config.IntegratorConfig) dynamo.Solver
}

func NewRegistry() *Registry {
	r := &Registry{
		solvers: make(map[string]func(config.IntegratorConfig) dynamo.Solver),
	}

	r.solvers["euler"] = func(c config.IntegratorConfig) dynamo.Solver {
		return integrators.NewFixed(integrators.NewEuler(), substeps(c))
	}
	r.solvers["rk4"] = func(c config.IntegratorConfig) dynamo.Solver {
		return integrators.NewFixed(integrators.NewRK4(), substeps(c))
	}
	r.solvers["rk45"] = func(c config.IntegratorConfig) dynamo.Solver {
		rtol, atol := c.RelTol, c.AbsTol
		if rtol <= 0 {
			rtol = config.DefaultRelTol
		}
		if atol <= 0 {
			atol = config.DefaultAbsTol
		}
		d := integrators.NewDopri(rtol, atol)
		if c.MaxSteps > 0 {
			d.MaxSteps = c.MaxSteps
		}
		return d
	}

	return r
}

func substeps(c config.IntegratorConfig) int {
	if c.Substeps > 0 {
		return c.Substeps
	}
	return config.DefaultSubsteps
}

// GetSolver returns a fresh solver for cfg.Method. Solvers are not shared
// between calls.
func (r *Registry) GetSolver(cfg config.IntegratorConfig) (dynamo.Solver, error) {
	fn, ok := r.solvers[cfg.Method]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", cfg.Method, r.ListSolvers())
	}
	return fn(cfg), nil
}

func (r *Registry) ListSolvers() []string {
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(vessel *physics.Vessel) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewMinVolume(),
		metrics.NewHoldup(vessel),
		metrics.NewSteadiness(vessel, 1e-6),
	}
}
