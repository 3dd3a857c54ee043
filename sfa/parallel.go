package sfa

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// parallelMap runs fn for every index in [0, n) on at most jobs goroutines.
// fn must only write to the output slot of its own index. The first error
// wins and no new indices are scheduled after it.
func parallelMap(n, jobs int, fn func(i int) error) error {
	if jobs <= 1 || n <= 1 {
		for i := range n {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(jobs)
	for i := range n {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}
