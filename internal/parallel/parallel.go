// Package parallel runs data-parallel loops over index ranges.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers resolves a requested worker count. Zero or negative means GOMAXPROCS.
func Workers(requested int) int {
	if requested <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return requested
}

// ForEach calls fn for every index in [0,n), splitting the range into one
// contiguous chunk per worker, and returns once every call has finished.
//
// fn must only touch state owned by its index. Small ranges run inline.
func ForEach(n, workers int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers = Workers(workers)
	if workers > n {
		workers = n
	}
	if workers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				fn(i)
			}
			return nil
		})
	}
	// The group only bounds concurrency; no worker returns an error.
	_ = g.Wait()
}
