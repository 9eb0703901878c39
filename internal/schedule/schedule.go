// Package schedule holds the boundary inputs of a vessel run: one value per
// grid point for each of outlet flow, inlet flow, feed concentration and feed
// temperature.
package schedule

import (
	"fmt"

	"github.com/san-kum/vesselsim/internal/dynamo"
	"github.com/san-kum/vesselsim/internal/physics"
)

// Signal names one input sequence. Its value is the index of the input in
// the Control returned by At.
type Signal int

const (
	OutletFlow        Signal = physics.OutletFlow
	InletFlow         Signal = physics.InletFlow
	FeedConcentration Signal = physics.FeedConcentration
	FeedTemperature   Signal = physics.FeedTemperature
)

var Signals = []Signal{OutletFlow, InletFlow, FeedConcentration, FeedTemperature}

func (s Signal) String() string {
	switch s {
	case OutletFlow:
		return "outlet_flow"
	case InletFlow:
		return "inlet_flow"
	case FeedConcentration:
		return "feed_concentration"
	case FeedTemperature:
		return "feed_temperature"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

type Schedule struct {
	series [physics.InputDim][]float64
}

// NewConstant returns a schedule of n points holding base at every index.
// base is ordered like Control (outlet flow, inlet flow, feed concentration,
// feed temperature).
func NewConstant(n int, base dynamo.Control) (*Schedule, error) {
	if len(base) != physics.InputDim {
		return nil, fmt.Errorf("%w: expected %d inputs, got %d", dynamo.ErrDimensionMismatch, physics.InputDim, len(base))
	}
	if n < 0 {
		return nil, fmt.Errorf("schedule length must be non-negative, got %d", n)
	}
	s := &Schedule{}
	for k := range s.series {
		s.series[k] = make([]float64, n)
		for i := range s.series[k] {
			s.series[k][i] = base[k]
		}
	}
	return s, nil
}

// FromSeries builds a schedule from explicit sequences. The slices are copied.
func FromSeries(outletFlow, inletFlow, feedConc, feedTemp []float64) (*Schedule, error) {
	n := len(outletFlow)
	if len(inletFlow) != n || len(feedConc) != n || len(feedTemp) != n {
		return nil, fmt.Errorf("%w: input sequences have lengths %d, %d, %d, %d",
			dynamo.ErrDimensionMismatch, len(outletFlow), len(inletFlow), len(feedConc), len(feedTemp))
	}
	s := &Schedule{}
	for k, src := range [][]float64{outletFlow, inletFlow, feedConc, feedTemp} {
		s.series[k] = append([]float64(nil), src...)
	}
	return s, nil
}

// StepAt overwrites sig from index onward with value.
func (s *Schedule) StepAt(sig Signal, index int, value float64) error {
	if sig < 0 || int(sig) >= physics.InputDim {
		return fmt.Errorf("unknown signal %d", int(sig))
	}
	if index < 0 || index >= s.Len() {
		return fmt.Errorf("step index %d out of range [0, %d) for %s", index, s.Len(), sig)
	}
	seq := s.series[sig]
	for i := index; i < len(seq); i++ {
		seq[i] = value
	}
	return nil
}

// Clone returns an independent copy.
func (s *Schedule) Clone() *Schedule {
	c := &Schedule{}
	for k, seq := range s.series {
		c.series[k] = append([]float64(nil), seq...)
	}
	return c
}

func (s *Schedule) Len() int {
	return len(s.series[0])
}

// At returns the inputs for the step starting at grid index i.
func (s *Schedule) At(i int) dynamo.Control {
	u := make(dynamo.Control, physics.InputDim)
	for k := range s.series {
		u[k] = s.series[k][i]
	}
	return u
}

// Series returns a copy of one input sequence.
func (s *Schedule) Series(sig Signal) []float64 {
	return append([]float64(nil), s.series[sig]...)
}

// Validate reports whether every sequence has gridLen points.
func (s *Schedule) Validate(gridLen int) error {
	for k, seq := range s.series {
		if len(seq) != gridLen {
			return fmt.Errorf("%w: %s has %d points, grid has %d",
				dynamo.ErrDimensionMismatch, Signal(k), len(seq), gridLen)
		}
	}
	return nil
}
