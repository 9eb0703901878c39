// Package optim sweeps scenario parameters over a grid and ranks the runs by
// one of their metrics.
package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/vesselsim/internal/config"
	"github.com/san-kum/vesselsim/internal/experiment"
)

var ErrNoFeasiblePoint = errors.New("optim: every grid point failed")

// Params lists the scenario fields a sweep may vary.
var Params = []string{
	"outlet_flow", "inlet_flow", "feed_concentration", "feed_temperature",
	"volume", "concentration", "temperature",
}

type Range struct {
	Name   string
	Values []float64
}

// ParseRange reads "name=start:end:points" or "name=v1,v2,...".
func ParseRange(s string) (Range, error) {
	name, expr, ok := strings.Cut(s, "=")
	if !ok || name == "" || expr == "" {
		return Range{}, fmt.Errorf("range %q: expected name=start:end:points or name=v1,v2", s)
	}
	if !isParam(name) {
		return Range{}, fmt.Errorf("range %q: unknown parameter (available: %v)", s, Params)
	}

	if parts := strings.Split(expr, ":"); len(parts) == 3 {
		start, err1 := strconv.ParseFloat(parts[0], 64)
		end, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return Range{}, fmt.Errorf("range %q: %w", s, err)
		}
		if n < 2 {
			return Range{}, fmt.Errorf("range %q: need at least 2 points", s)
		}
		return Range{Name: name, Values: floats.Span(make([]float64, n), start, end)}, nil
	}

	var values []float64
	for _, f := range strings.Split(expr, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Range{}, fmt.Errorf("range %q: %w", s, err)
		}
		values = append(values, v)
	}
	return Range{Name: name, Values: values}, nil
}

func isParam(name string) bool {
	for _, p := range Params {
		if p == name {
			return true
		}
	}
	return false
}

// Apply sets one sweep parameter on cfg. Signal parameters replace the base
// value and keep the configured steps.
func Apply(cfg *config.Config, name string, value float64) error {
	switch name {
	case "outlet_flow":
		cfg.Inputs.OutletFlow.Base = value
	case "inlet_flow":
		cfg.Inputs.InletFlow.Base = value
	case "feed_concentration":
		cfg.Inputs.FeedConcentration.Base = value
	case "feed_temperature":
		cfg.Inputs.FeedTemperature.Base = value
	case "volume":
		cfg.InitState.Volume = value
	case "concentration":
		cfg.InitState.Concentration = value
	case "temperature":
		cfg.InitState.Temperature = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}

type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	ranges   []Range
	metric   string
	maximize bool
	limit    int
	logger   *slog.Logger
}

func NewGridSearch(ranges []Range, metric string, maximize bool, logger *slog.Logger) *GridSearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &GridSearch{ranges: ranges, metric: metric, maximize: maximize, logger: logger}
}

// SetLimit caps the number of concurrent runs. Non-positive means no cap.
func (g *GridSearch) SetLimit(n int) { g.limit = n }

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r.Values)
	}
	return n
}

// Search runs base at every grid point and returns the best point together
// with all points in grid order. Runs that fail are kept with Err set and
// never win.
func (g *GridSearch) Search(ctx context.Context, base *config.Config) (Point, []Point, error) {
	combos := g.combinations()
	points := make([]Point, len(combos))

	eg, ctx := errgroup.WithContext(ctx)
	if g.limit > 0 {
		eg.SetLimit(g.limit)
	}

	for i, params := range combos {
		i, params := i, params
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			points[i] = g.evaluate(base, params)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Point{}, nil, err
	}

	best := -1
	for i, p := range points {
		if p.Err != nil {
			continue
		}
		if best < 0 || g.better(p.Value, points[best].Value) {
			best = i
		}
	}
	if best < 0 {
		return Point{}, points, ErrNoFeasiblePoint
	}
	return points[best], points, nil
}

func (g *GridSearch) better(a, b float64) bool {
	if g.maximize {
		return a > b
	}
	return a < b
}

func (g *GridSearch) evaluate(base *config.Config, params map[string]float64) Point {
	p := Point{Params: params, Value: math.NaN()}

	cfg := *base
	for name, v := range params {
		if err := Apply(&cfg, name, v); err != nil {
			p.Err = err
			return p
		}
	}

	res, err := experiment.New(&cfg, g.logger).Run()
	if err != nil {
		g.logger.Debug("sweep point failed", slog.Any("params", params), slog.Any("error", err))
		p.Err = err
		return p
	}

	v, ok := res.Metrics[g.metric]
	if !ok {
		p.Err = fmt.Errorf("metric %q not recorded", g.metric)
		return p
	}
	p.Value = v
	return p
}

// combinations enumerates the cartesian product of the ranges, last range
// varying fastest.
func (g *GridSearch) combinations() []map[string]float64 {
	out := []map[string]float64{{}}
	for _, r := range g.ranges {
		next := make([]map[string]float64, 0, len(out)*len(r.Values))
		for _, prev := range out {
			for _, v := range r.Values {
				m := make(map[string]float64, len(prev)+1)
				for k, pv := range prev {
					m[k] = pv
				}
				m[r.Name] = v
				next = append(next, m)
			}
		}
		out = next
	}
	return out
}

// Names returns the swept parameter names in a stable order.
func Names(p Point) []string {
	names := make([]string, 0, len(p.Params))
	for k := range p.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
