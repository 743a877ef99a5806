// Package workerpool bounds the I/O concurrency an adapter may use
// internally while fetching a source (§5: "each adapter may launch bounded
// I/O concurrency internally").
package workerpool

import (
	"context"

	"github.com/go-pkgz/pool"
)

// item wraps a unit of work so it can flow through go-pkgz/pool, which
// operates over a single typed channel rather than arbitrary closures.
type item struct {
	run func(ctx context.Context) error
}

type worker struct{}

func (worker) Do(ctx context.Context, it item) error {
	return it.run(ctx)
}

// Run executes fns with at most `concurrency` running at once, returning the
// first non-nil error encountered (remaining work still drains). A
// concurrency of 0 or 1 runs everything sequentially without spinning up
// the pool machinery.
func Run(ctx context.Context, concurrency int, fns []func(ctx context.Context) error) error {
	if concurrency < 1 {
		concurrency = 1
	}
	if len(fns) == 0 {
		return nil
	}
	if concurrency == 1 {
		var firstErr error
		for _, fn := range fns {
			if err := fn(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	p := pool.New[item](concurrency, worker{}).WithContinueOnError()
	if err := p.Go(ctx); err != nil {
		return err
	}
	for _, fn := range fns {
		p.Submit(item{run: fn})
	}
	return p.Close(ctx)
}
