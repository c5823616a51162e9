// Package workpool runs a function over a slice of items on a fixed-size pool
// of goroutines and collects the outcomes through a completion queue.
package workpool

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Options configures a pool run.
type Options struct {
	// Workers caps the number of items in flight. Default: 5.
	Workers int

	// RateLimitRPS is a global start rate across all workers. <=0 disables it.
	RateLimitRPS float64

	// OnResult is called from the collecting goroutine as each item completes,
	// in completion order.
	OnResult func(index int, err error)
}

// Result holds the outcome for one input item. Index is the item's position
// in the input slice.
type Result[In any, Out any] struct {
	Index  int
	Input  In
	Output Out
	Err    error
}

const defaultWorkers = 5

// Run applies fn to every item with at most opts.Workers calls in flight and
// returns one Result per item, indexed by input position. A failing or
// panicking item never stops its siblings. Run returns once every dispatched
// item has completed; items not yet started when ctx is cancelled get ctx's
// error.
func Run[In any, Out any](ctx context.Context, items []In, fn func(context.Context, In) (Out, error), opts Options) []Result[In, Out] {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	done := make(chan Result[In, Out], len(items))

	var g errgroup.Group
	g.SetLimit(workers)

	go func() {
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				done <- Result[In, Out]{Index: i, Input: item, Err: eris.Wrap(err, "workpool: not started")}
				continue
			}
			g.Go(func() error {
				done <- runOne(ctx, i, item, fn, limiter)
				return nil
			})
		}
		_ = g.Wait()
		close(done)
	}()

	out := make([]Result[In, Out], len(items))
	for res := range done {
		out[res.Index] = res
		if opts.OnResult != nil {
			opts.OnResult(res.Index, res.Err)
		}
	}
	return out
}

func runOne[In any, Out any](ctx context.Context, idx int, item In, fn func(context.Context, In) (Out, error), limiter *rate.Limiter) (res Result[In, Out]) {
	res.Index = idx
	res.Input = item

	defer func() {
		if r := recover(); r != nil {
			res.Err = eris.New(fmt.Sprintf("workpool: panic: %v", r))
		}
	}()

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			res.Err = eris.Wrap(err, "workpool: rate limit wait")
			return res
		}
	}

	res.Output, res.Err = fn(ctx, item)
	return res
}
