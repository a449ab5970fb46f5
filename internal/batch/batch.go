// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package batch runs work in fixed-size concurrent batches with a pause
// between batches, collecting every outcome rather than stopping at the
// first failure.
package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Options controls batching.
type Options struct {
	// Size is the number of items run concurrently. Values below 1 mean 1.
	Size int

	// Delay is waited between consecutive batches, never after the last.
	Delay time.Duration
}

// Outcome is the settled result of one item.
type Outcome[T any] struct {
	Index int
	Value T
	Err   error
}

// OK reports whether the item succeeded.
func (o Outcome[T]) OK() bool { return o.Err == nil }

// Run calls fn for every item and returns the outcomes in input order.
//
// One item failing never cancels its siblings. When ctx is done, items that
// have not started are settled with ctx.Err() without running; items already
// running receive the cancelled ctx. A panic in fn settles that item with an
// error.
func Run[I, O any](ctx context.Context, items []I, opts Options, fn func(ctx context.Context, item I) (O, error)) []Outcome[O] {
	outcomes := make([]Outcome[O], len(items))
	for i := range outcomes {
		outcomes[i].Index = i
	}

	size := max(opts.Size, 1)
	for start := 0; start < len(items); start += size {
		if start > 0 && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				settle(outcomes[start:], err)
				return outcomes
			}
		}
		if err := ctx.Err(); err != nil {
			settle(outcomes[start:], err)
			return outcomes
		}

		end := min(start+size, len(items))
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				outcomes[i].Value, outcomes[i].Err = call(ctx, items[i], fn)
				return nil
			})
		}
		_ = g.Wait()
	}
	return outcomes
}

// Values returns the values of the successful outcomes, in order.
func Values[T any](outcomes []Outcome[T]) []T {
	out := make([]T, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err == nil {
			out = append(out, o.Value)
		}
	}
	return out
}

// Failed returns the failed outcomes.
func Failed[T any](outcomes []Outcome[T]) []Outcome[T] {
	var out []Outcome[T]
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

func call[I, O any](ctx context.Context, item I, fn func(context.Context, I) (O, error)) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch item panicked: %v", r)
		}
	}()
	return fn(ctx, item)
}

func settle[T any](outcomes []Outcome[T], err error) {
	for i := range outcomes {
		outcomes[i].Err = err
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
