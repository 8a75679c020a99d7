// Package ltbsrunner is a reference ltbs.TaskRunner built on a fixed-size
// worker pool. It is not part of the core store — the rectangle engine
// (package ltbs) only ever calls a TaskRunner supplied by the caller, never
// schedules goroutines on its own, so any particular pooling/concurrency
// policy is deliberately an outside concern.
//
// Grounded on pmtiles/extract.go's and pmtiles/sync.go's worker-pool
// pattern: a fixed number of goroutines launched under
// golang.org/x/sync/errgroup.Group, each draining a shared unit of work
// until exhausted.
package ltbsrunner

import (
	"runtime"

	"github.com/ltbstore/ltbs/ltbs"
	"golang.org/x/sync/errgroup"
)

// Pool partitions a range [0, n) into contiguous chunks, one per worker,
// and runs them concurrently. It implements ltbs.TaskRunner.
type Pool struct {
	workers int
}

// New returns a Pool with the given worker count. A count <= 0 uses
// runtime.GOMAXPROCS(0).
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// poolWait adapts errgroup.Group's Wait to ltbs.Wait's zero-argument,
// no-error Wait() — a failing fn in a pooled TaskRunner has nowhere to
// report an error (the interface is fire-and-forget), so task functions
// that can fail are expected to capture their own errors out-of-band, the
// same way the teacher's extract/sync worker loops accumulate errors in a
// shared variable under a mutex rather than returning them from the pool.
type poolWait struct {
	eg *errgroup.Group
}

func (w poolWait) Wait() { _ = w.eg.Wait() }

// Run splits [0, n) into up to p.workers contiguous chunks and runs fn
// once per chunk concurrently, returning immediately with a wait handle.
func (p *Pool) Run(n int, fn func(start, end int)) ltbs.Wait {
	workers := p.workers
	if workers > n {
		workers = n
	}
	if workers <= 0 {
		workers = 1
	}

	var eg errgroup.Group
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		start, end := start, end
		eg.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	return poolWait{eg: &eg}
}
