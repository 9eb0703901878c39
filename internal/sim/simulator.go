package sim

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/vesselsim/internal/dynamo"
)

// Simulator drives a system across a fixed time grid. Each interval is
// handed to the configured solver with the inputs sampled at its left end,
// and the solver's final state seeds the next interval.
type Simulator struct {
	sys     dynamo.System
	metrics []dynamo.Metric
	logger  *slog.Logger
}

// New returns a Simulator for sys. A nil logger falls back to slog.Default().
func New(sys dynamo.System, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		sys:     sys,
		metrics: make([]dynamo.Metric, 0),
		logger:  logger,
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric) { s.metrics = append(s.metrics, m) }

// Run produces one state per grid point. Any solver failure aborts the run
// and no partial trajectory is returned.
func (s *Simulator) Run(cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	n := len(cfg.Grid)
	result := &Result{
		Times:    append([]float64(nil), cfg.Grid...),
		States:   make([]dynamo.State, 0, n),
		Schedule: cfg.Schedule.Clone(),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	s.logger.Info("simulation started",
		slog.Int("points", n),
		slog.Float64("t_start", cfg.Grid[0]),
		slog.Float64("t_end", cfg.Grid[n-1]),
		slog.String("solver", fmt.Sprintf("%T", cfg.Solver)),
	)

	x := cfg.InitialState.Clone()
	result.States = append(result.States, x)

	for i := 0; i < n-1; i++ {
		t := cfg.Grid[i]
		u := cfg.Schedule.At(i)
		s.observe(x, u, t)

		sub, err := cfg.Solver.Integrate(s.sys, x, [2]float64{t, cfg.Grid[i+1]}, u)
		if err != nil {
			s.logger.Error("integration failed", slog.Int("step", i), slog.Float64("t", t), slog.Any("error", err))
			return nil, &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
		}
		if len(sub) == 0 || !sub[len(sub)-1].IsValid() {
			return nil, &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: dynamo.ErrInvalidState}
		}
		if v, ok := s.sys.(dynamo.StateValidator); ok {
			if err := v.ValidateState(sub[len(sub)-1]); err != nil {
				s.logger.Error("state left the model domain", slog.Int("step", i), slog.Float64("t", cfg.Grid[i+1]), slog.Any("error", err))
				return nil, &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
			}
		}

		x = sub[len(sub)-1].Clone()
		result.States = append(result.States, x)
		result.StepsTaken++

		s.logger.Debug("step",
			slog.Int("step", i),
			slog.Float64("t", cfg.Grid[i+1]),
			slog.Int("points", len(sub)),
			slog.Any("state", []float64(x)),
		)
	}
	s.observe(x, cfg.Schedule.At(n-1), cfg.Grid[n-1])

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Info("simulation finished",
		slog.Int("steps", result.StepsTaken),
		slog.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

func (s *Simulator) observe(x dynamo.State, u dynamo.Control, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, u, t)
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Solver == nil {
		return dynamo.ErrNoSolver
	}
	if len(cfg.Grid) == 0 {
		return fmt.Errorf("%w: empty grid", dynamo.ErrInvalidGrid)
	}
	for i, t := range cfg.Grid {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: grid[%d] = %v", dynamo.ErrInvalidGrid, i, t)
		}
		if i > 0 && !(t > cfg.Grid[i-1]) {
			return fmt.Errorf("%w: grid[%d] = %v after %v", dynamo.ErrInvalidGrid, i, t, cfg.Grid[i-1])
		}
	}
	if cfg.Schedule == nil {
		return fmt.Errorf("%w: no input schedule", dynamo.ErrDimensionMismatch)
	}
	if err := cfg.Schedule.Validate(len(cfg.Grid)); err != nil {
		return err
	}
	if got := len(cfg.Schedule.At(0)); got != s.sys.ControlDim() {
		return fmt.Errorf("%w: schedule has %d inputs, system takes %d", dynamo.ErrDimensionMismatch, got, s.sys.ControlDim())
	}
	if len(cfg.InitialState) != s.sys.StateDim() {
		return fmt.Errorf("%w: initial state has %d components, system has %d",
			dynamo.ErrDimensionMismatch, len(cfg.InitialState), s.sys.StateDim())
	}
	if !cfg.InitialState.IsValid() {
		return dynamo.ErrInvalidState
	}
	if v, ok := s.sys.(dynamo.StateValidator); ok {
		if err := v.ValidateState(cfg.InitialState); err != nil {
			return err
		}
	}
	return nil
}
