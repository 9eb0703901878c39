package config

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/vesselsim/internal/dynamo"
	"github.com/san-kum/vesselsim/internal/physics"
	"github.com/san-kum/vesselsim/internal/schedule"
)

const (
	DefaultStart       = 0.0
	DefaultEnd         = 10.0
	DefaultPoints      = 100
	DefaultVolume      = 1.0
	DefaultConc        = 0.0
	DefaultTemperature = 350.0
	DefaultIntegrator  = "rk45"
	// odeint's default tolerances
	DefaultRelTol   = 1.49012e-8
	DefaultAbsTol   = 1.49012e-8
	DefaultSubsteps = 20
)

type Config struct {
	Name       string           `yaml:"name"`
	Grid       GridConfig       `yaml:"grid"`
	InitState  InitStateConfig  `yaml:"init_state"`
	Inputs     InputsConfig     `yaml:"inputs"`
	Integrator IntegratorConfig `yaml:"integrator"`
}

type GridConfig struct {
	Start  float64 `yaml:"start"`
	End    float64 `yaml:"end"`
	Points int     `yaml:"points"`
}

type InitStateConfig struct {
	Volume        float64 `yaml:"volume"`
	Concentration float64 `yaml:"concentration"`
	Temperature   float64 `yaml:"temperature"`
}

type InputsConfig struct {
	OutletFlow        SignalConfig `yaml:"outlet_flow"`
	InletFlow         SignalConfig `yaml:"inlet_flow"`
	FeedConcentration SignalConfig `yaml:"feed_concentration"`
	FeedTemperature   SignalConfig `yaml:"feed_temperature"`
}

// SignalConfig is a baseline value with step changes applied in order.
type SignalConfig struct {
	Base  float64      `yaml:"base"`
	Steps []StepConfig `yaml:"steps,omitempty"`
}

type StepConfig struct {
	At    int     `yaml:"at"`
	Value float64 `yaml:"value"`
}

type IntegratorConfig struct {
	Method   string  `yaml:"method"`
	RelTol   float64 `yaml:"rtol,omitempty"`
	AbsTol   float64 `yaml:"atol,omitempty"`
	Substeps int     `yaml:"substeps,omitempty"`
	MaxSteps int     `yaml:"max_steps,omitempty"`
}

// DefaultConfig is the baseline scenario: a 1 L vessel at 350 K fed slightly
// faster than it drains, with one step change in each feed signal.
func DefaultConfig() *Config {
	return &Config{
		Name: "baseline",
		Grid: GridConfig{Start: DefaultStart, End: DefaultEnd, Points: DefaultPoints},
		InitState: InitStateConfig{
			Volume:        DefaultVolume,
			Concentration: DefaultConc,
			Temperature:   DefaultTemperature,
		},
		Inputs: InputsConfig{
			OutletFlow:        SignalConfig{Base: 5.0},
			InletFlow:         SignalConfig{Base: 5.2, Steps: []StepConfig{{At: 50, Value: 5.1}}},
			FeedConcentration: SignalConfig{Base: 1.0, Steps: []StepConfig{{At: 30, Value: 0.5}}},
			FeedTemperature:   SignalConfig{Base: 300.0, Steps: []StepConfig{{At: 70, Value: 325.0}}},
		},
		Integrator: IntegratorConfig{
			Method:   DefaultIntegrator,
			RelTol:   DefaultRelTol,
			AbsTol:   DefaultAbsTol,
			Substeps: DefaultSubsteps,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	// Step changes come only from the file; yaml.v3 keeps existing slices
	// for keys the file omits.
	for _, sig := range []*SignalConfig{
		&cfg.Inputs.OutletFlow, &cfg.Inputs.InletFlow,
		&cfg.Inputs.FeedConcentration, &cfg.Inputs.FeedTemperature,
	} {
		sig.Steps = nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Grid.Points < 1 {
		errs = append(errs, fmt.Errorf("grid.points must be at least 1, got %d", c.Grid.Points))
	}
	if c.Grid.Points > 1 && !(c.Grid.End > c.Grid.Start) {
		errs = append(errs, fmt.Errorf("grid.end (%g) must be after grid.start (%g)", c.Grid.End, c.Grid.Start))
	}
	if err := physics.NewVessel().ValidateState(c.GetInitState()); err != nil {
		errs = append(errs, fmt.Errorf("init_state: %w", err))
	}
	for _, sig := range schedule.Signals {
		for _, st := range c.signal(sig).Steps {
			if st.At < 0 || st.At >= c.Grid.Points {
				errs = append(errs, fmt.Errorf("inputs.%s: step at %d outside grid of %d points", sig, st.At, c.Grid.Points))
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Config) GetInitState() dynamo.State {
	return physics.NewState(c.InitState.Volume, c.InitState.Concentration, c.InitState.Temperature)
}

// GetGrid returns Points evenly spaced times from Start to End inclusive.
func (c *Config) GetGrid() []float64 {
	switch {
	case c.Grid.Points < 1:
		return nil
	case c.Grid.Points == 1:
		return []float64{c.Grid.Start}
	}
	return floats.Span(make([]float64, c.Grid.Points), c.Grid.Start, c.Grid.End)
}

// GetSchedule builds the input schedule on the configured grid.
func (c *Config) GetSchedule() (*schedule.Schedule, error) {
	base := physics.NewInputs(
		c.Inputs.OutletFlow.Base,
		c.Inputs.InletFlow.Base,
		c.Inputs.FeedConcentration.Base,
		c.Inputs.FeedTemperature.Base,
	)
	s, err := schedule.NewConstant(c.Grid.Points, base)
	if err != nil {
		return nil, err
	}
	for _, sig := range schedule.Signals {
		for _, st := range c.signal(sig).Steps {
			if err := s.StepAt(sig, st.At, st.Value); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (c *Config) signal(sig schedule.Signal) SignalConfig {
	switch sig {
	case schedule.OutletFlow:
		return c.Inputs.OutletFlow
	case schedule.InletFlow:
		return c.Inputs.InletFlow
	case schedule.FeedConcentration:
		return c.Inputs.FeedConcentration
	default:
		return c.Inputs.FeedTemperature
	}
}
