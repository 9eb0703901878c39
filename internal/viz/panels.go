package viz

import (
	"github.com/san-kum/vesselsim/internal/physics"
	"github.com/san-kum/vesselsim/internal/schedule"
	"github.com/san-kum/vesselsim/internal/sim"
)

type LineStyle int

const (
	Solid LineStyle = iota
	Dashed
	Dotted
)

type Series struct {
	Label  string
	Values []float64
	Style  LineStyle
}

type Panel struct {
	Title  string
	YLabel string
	Series []Series
}

// Rows and Cols of the panel grid returned by Panels.
const (
	Rows = 3
	Cols = 2
)

// Panels returns the six panels of a run in row-major order.
func Panels(res *sim.Result) []Panel {
	var q, qf, caf, tf []float64
	if res.Schedule != nil {
		q = res.Schedule.Series(schedule.OutletFlow)
		qf = res.Schedule.Series(schedule.InletFlow)
		caf = res.Schedule.Series(schedule.FeedConcentration)
		tf = res.Schedule.Series(schedule.FeedTemperature)
	}

	return []Panel{
		{
			Title:  "flow rates",
			YLabel: "flow (L/min)",
			Series: []Series{
				{Label: "inlet", Values: qf, Style: Dashed},
				{Label: "outlet", Values: q, Style: Dotted},
			},
		},
		{
			Title:  "volume",
			YLabel: "V (L)",
			Series: []Series{{Label: "volume", Values: res.Series(physics.Volume)}},
		},
		{
			Title:  "feed concentration",
			YLabel: "caf (mol/L)",
			Series: []Series{{Label: "feed", Values: caf}},
		},
		{
			Title:  "concentration",
			YLabel: "Ca (mol/L)",
			Series: []Series{{Label: "concentration", Values: res.Series(physics.Concentration)}},
		},
		{
			Title:  "feed temperature",
			YLabel: "tf (K)",
			Series: []Series{{Label: "feed", Values: tf}},
		},
		{
			Title:  "temperature",
			YLabel: "T (K)",
			Series: []Series{{Label: "temperature", Values: res.Series(physics.Temperature)}},
		},
	}
}
