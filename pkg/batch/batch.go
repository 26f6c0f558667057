// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"
)

// Run calls action for every item, keeping at most the configured number of
// actions unresolved. Items are admitted in input order.
//
// Progress callbacks are serialized. The first one is update(0) and the last
// one is update(100), emitted after the final refresh. A failed action counts
// as settled and does not stop the batch; its error is collected and
// returned once every admitted action has settled. Canceling ctx stops
// admission of new items.
func Run[T any](ctx context.Context, items []T, action func(ctx context.Context, item T) error, opts ...Option) error {
	cfg := newConfig(opts...)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		errs    *multierror.Error
		settled int
	)
	total := len(items)
	sem := semaphore.NewWeighted(int64(cfg.concurrency))

	cfg.update(0)

	var ctxErr error
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		if i%cfg.refreshEvery == 0 {
			mu.Lock()
			cfg.refresh()
			mu.Unlock()
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			ctxErr = err
			break
		}

		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			defer sem.Release(1)

			err := action(ctx, item)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, err)
			}
			settled++
			if settled < total {
				cfg.update(float64(settled) / float64(total) * 100)
			}
		}(item)
	}

	wg.Wait()

	cfg.refresh()
	cfg.update(100)

	if ctxErr != nil {
		errs = multierror.Append(&multierror.Error{Errors: []error{ctxErr}}, errs)
	}

	return errs.ErrorOrNil()
}
