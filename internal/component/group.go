package component

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// LinearizeAll linearizes components concurrently, one goroutine per
// component. The first failure cancels the rest; components whose turn
// has not started by then are skipped.
func LinearizeAll(ctx context.Context, comps ...*Implicit) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range comps {
		c := c // per-iteration copy; required while go.mod targets Go < 1.22
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return c.Linearize()
		})
	}
	return g.Wait()
}

// ApplyNonlinearAll evaluates residuals of components concurrently.
func ApplyNonlinearAll(ctx context.Context, comps ...*Implicit) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range comps {
		c := c // per-iteration copy; required while go.mod targets Go < 1.22
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return c.ApplyNonlinear()
		})
	}
	return g.Wait()
}
