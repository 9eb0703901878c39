package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/vesselsim/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent configurations of one system concurrently. Each
// run gets its own Simulator; configurations must not share a Solver that
// keeps scratch state.
type Ensemble struct {
	sys    dynamo.System
	logger *slog.Logger
	limit  int
}

// NewEnsemble returns an Ensemble running at most limit runs at once. A
// non-positive limit means no limit.
func NewEnsemble(sys dynamo.System, logger *slog.Logger, limit int) *Ensemble {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ensemble{sys: sys, logger: logger, limit: limit}
}

// Run returns results in the order of cfgs. The first failing run cancels
// the runs that have not started yet.
func (e *Ensemble) Run(ctx context.Context, cfgs []Config) ([]*Result, error) {
	results := make([]*Result, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := New(e.sys, e.logger.With(slog.Int("run", i))).Run(cfg)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
