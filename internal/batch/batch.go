// Package batch evaluates many parsed expressions concurrently.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zephyrtronium/calc"
)

// Result is the outcome of evaluating one expression.
type Result struct {
	Value float64
	Err   error
}

// Eval evaluates each expression with at most jobs evaluations in flight.
// Results are in the same order as exprs. Evaluation errors are reported in
// the corresponding Result; the returned error is non-nil only if ctx ends
// before every expression is evaluated.
func Eval(ctx context.Context, exprs []*calc.Expr, jobs int) ([]Result, error) {
	if jobs < 1 {
		jobs = 1
	}
	r := make([]Result, len(exprs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	stopped := false
	for i, a := range exprs {
		if gctx.Err() != nil {
			stopped = true
			break
		}
		i, a := i, a
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := a.Eval()
			r[i] = Result{Value: v, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Only a cancelled caller context stops the loop, and it can do so without
	// any goroutine noticing.
	if stopped {
		return nil, ctx.Err()
	}
	return r, nil
}
