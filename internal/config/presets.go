package config

import "sort"

var Presets = map[string]*Config{
	"baseline": DefaultConfig(),
	"steady": {
		Name:      "steady",
		Grid:      GridConfig{Start: 0, End: 10, Points: 100},
		InitState: InitStateConfig{Volume: 1.0, Concentration: 1.0, Temperature: 300.0},
		Inputs: InputsConfig{
			OutletFlow:        SignalConfig{Base: 5.0},
			InletFlow:         SignalConfig{Base: 5.0},
			FeedConcentration: SignalConfig{Base: 1.0},
			FeedTemperature:   SignalConfig{Base: 300.0},
		},
		Integrator: IntegratorConfig{Method: "rk45", RelTol: DefaultRelTol, AbsTol: DefaultAbsTol},
	},
	"filling": {
		Name:      "filling",
		Grid:      GridConfig{Start: 0, End: 10, Points: 100},
		InitState: InitStateConfig{Volume: 1.0, Concentration: 0.0, Temperature: 350.0},
		Inputs: InputsConfig{
			OutletFlow:        SignalConfig{Base: 5.0},
			InletFlow:         SignalConfig{Base: 5.5},
			FeedConcentration: SignalConfig{Base: 1.0, Steps: []StepConfig{{At: 40, Value: 2.0}}},
			FeedTemperature:   SignalConfig{Base: 300.0},
		},
		Integrator: IntegratorConfig{Method: "rk45", RelTol: DefaultRelTol, AbsTol: DefaultAbsTol},
	},
	"draining": {
		Name:      "draining",
		Grid:      GridConfig{Start: 0, End: 10, Points: 100},
		InitState: InitStateConfig{Volume: 1.0, Concentration: 0.5, Temperature: 330.0},
		Inputs: InputsConfig{
			OutletFlow:        SignalConfig{Base: 5.0},
			InletFlow:         SignalConfig{Base: 4.95},
			FeedConcentration: SignalConfig{Base: 1.0},
			FeedTemperature:   SignalConfig{Base: 330.0, Steps: []StepConfig{{At: 60, Value: 290.0}}},
		},
		Integrator: IntegratorConfig{Method: "rk4", Substeps: DefaultSubsteps},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Inputs = InputsConfig{
		OutletFlow:        p.Inputs.OutletFlow.clone(),
		InletFlow:         p.Inputs.InletFlow.clone(),
		FeedConcentration: p.Inputs.FeedConcentration.clone(),
		FeedTemperature:   p.Inputs.FeedTemperature.clone(),
	}
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s SignalConfig) clone() SignalConfig {
	s.Steps = append([]StepConfig(nil), s.Steps...)
	return s
}
