package experiment

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/vesselsim/internal/config"
	"github.com/san-kum/vesselsim/internal/physics"
	"github.com/san-kum/vesselsim/internal/sim"
)

// Experiment composes a scenario into a runnable simulation.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	vessel   *physics.Vessel
	logger   *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		vessel:   physics.NewVessel(),
		logger:   logger.With(slog.String("scenario", cfg.Name)),
	}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Vessel() *physics.Vessel { return e.vessel }

// SimConfig builds the grid, schedule and solver of the scenario.
func (e *Experiment) SimConfig() (sim.Config, error) {
	if err := e.cfg.Validate(); err != nil {
		return sim.Config{}, fmt.Errorf("invalid scenario %q: %w", e.cfg.Name, err)
	}

	sched, err := e.cfg.GetSchedule()
	if err != nil {
		return sim.Config{}, err
	}

	solver, err := e.registry.GetSolver(e.cfg.Integrator)
	if err != nil {
		return sim.Config{}, err
	}

	return sim.Config{
		InitialState: e.cfg.GetInitState(),
		Grid:         e.cfg.GetGrid(),
		Schedule:     sched,
		Solver:       solver,
	}, nil
}

// Simulator returns a simulator for the vessel with the default metrics.
func (e *Experiment) Simulator() *sim.Simulator {
	s := sim.New(e.vessel, e.logger)
	for _, m := range e.registry.DefaultMetrics(e.vessel) {
		s.AddMetric(m)
	}
	return s
}

func (e *Experiment) Run() (*sim.Result, error) {
	simCfg, err := e.SimConfig()
	if err != nil {
		return nil, err
	}
	return e.Simulator().Run(simCfg)
}
