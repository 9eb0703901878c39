package sim

import (
	"github.com/san-kum/vesselsim/internal/dynamo"
	"github.com/san-kum/vesselsim/internal/schedule"
)

// Config describes one run. Grid and Schedule are read, never written.
type Config struct {
	InitialState dynamo.State
	Grid         []float64
	Schedule     *schedule.Schedule
	Solver       dynamo.Solver
}

// Result is the trajectory of a run, aligned index for index with Times and
// Schedule.
type Result struct {
	Times      []float64
	States     []dynamo.State
	Schedule   *schedule.Schedule
	Metrics    map[string]float64
	StepsTaken int
}

func (r *Result) Len() int {
	return len(r.States)
}

// Series returns component idx of every state.
func (r *Result) Series(idx int) []float64 {
	out := make([]float64, len(r.States))
	for i, x := range r.States {
		out[i] = x[idx]
	}
	return out
}

func (r *Result) Final() dynamo.State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}
