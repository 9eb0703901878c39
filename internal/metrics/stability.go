package metrics

import (
	"github.com/san-kum/vesselsim/internal/dynamo"
)

// Steadiness is the fraction of observed steps whose derivative norm is
// below a threshold.
type Steadiness struct {
	name      string
	sys       dynamo.System
	threshold float64
	steady    int
	samples   int
}

func NewSteadiness(sys dynamo.System, threshold float64) *Steadiness {
	return &Steadiness{
		name:      "steadiness",
		sys:       sys,
		threshold: threshold,
	}
}

func (s *Steadiness) Name() string {
	return s.name
}

func (s *Steadiness) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	if s.sys.Derive(x, u, t).Norm() < s.threshold {
		s.steady++
	}
}

func (s *Steadiness) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return float64(s.steady) / float64(s.samples)
}

func (s *Steadiness) Reset() {
	s.steady = 0
	s.samples = 0
}
