package metrics

import (
	"math"

	"github.com/san-kum/vesselsim/internal/dynamo"
	"github.com/san-kum/vesselsim/internal/physics"
)

// MinVolume tracks the smallest vessel volume seen during a run.
type MinVolume struct {
	name string
	min  float64
}

func NewMinVolume() *MinVolume {
	return &MinVolume{name: "min_volume", min: math.Inf(1)}
}

func (m *MinVolume) Name() string { return m.name }

func (m *MinVolume) Observe(x dynamo.State, u dynamo.Control, t float64) {
	m.min = math.Min(m.min, x[physics.Volume])
}

func (m *MinVolume) Value() float64 {
	if math.IsInf(m.min, 1) {
		return 0
	}
	return m.min
}

func (m *MinVolume) Reset() {
	m.min = math.Inf(1)
}

// Holdup is the mean species inventory (V*Ca, mol) over a run.
type Holdup struct {
	name    string
	vessel  *physics.Vessel
	total   float64
	samples int
}

func NewHoldup(vessel *physics.Vessel) *Holdup {
	return &Holdup{name: "mean_holdup", vessel: vessel}
}

func (h *Holdup) Name() string { return h.name }

func (h *Holdup) Observe(x dynamo.State, u dynamo.Control, t float64) {
	h.total += h.vessel.Holdup(x)
	h.samples++
}

func (h *Holdup) Value() float64 {
	if h.samples == 0 {
		return 0
	}
	return h.total / float64(h.samples)
}

func (h *Holdup) Reset() {
	h.total = 0
	h.samples = 0
}
