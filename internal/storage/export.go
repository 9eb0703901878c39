package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/vesselsim/internal/schedule"
	"github.com/san-kum/vesselsim/internal/sim"
)

type ExportData struct {
	ID         string               `json:"id"`
	Scenario   string               `json:"scenario"`
	Integrator string               `json:"integrator"`
	Points     int                  `json:"points"`
	Times      []float64            `json:"times"`
	States     [][]float64          `json:"states"`
	Inputs     map[string][]float64 `json:"inputs"`
	Metrics    map[string]float64   `json:"metrics"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, result *sim.Result) error {
	data := ExportData{
		ID:         meta.ID,
		Scenario:   meta.Scenario,
		Integrator: meta.Integrator,
		Points:     result.Len(),
		Times:      result.Times,
		States:     make([][]float64, len(result.States)),
		Inputs:     make(map[string][]float64, len(schedule.Signals)),
		Metrics:    result.Metrics,
	}

	for i, s := range result.States {
		data.States[i] = s
	}
	if result.Schedule != nil {
		for _, sig := range schedule.Signals {
			data.Inputs[sig.String()] = result.Schedule.Series(sig)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
