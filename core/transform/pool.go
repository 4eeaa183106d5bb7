// Package transform implements the twelve ordered BookIR transforms and
// the collect/process/apply worker pool they share for parallelizing
// over independent manifest items.
package transform

import (
	"runtime"
	"sync"
)

// Pool runs a data-parallel job across independent work items and
// returns their results in the same order as the input, regardless of
// completion order — callers must never rely on goroutine scheduling
// order, only on this ordering guarantee. This is the collect/process/
// apply pattern: collect work items up front, process them in parallel
// with read-only context, then apply results back to the IR
// sequentially in the caller.
type Pool[Job any, Result any] struct {
	workers int
}

// NewPool returns a Pool sized to at most the logical CPU count (and at
// most len(jobs), when known, to avoid spinning up idle workers).
func NewPool[Job any, Result any](maxJobs int) *Pool[Job, Result] {
	w := runtime.GOMAXPROCS(0)
	if maxJobs > 0 && maxJobs < w {
		w = maxJobs
	}
	if w < 1 {
		w = 1
	}
	return &Pool[Job, Result]{workers: w}
}

// Run processes jobs with fn and returns one Result per job, in input
// order. fn must not mutate shared state; any mutation of the BookIR
// must happen after Run returns, in the caller, not inside fn.
func (p *Pool[Job, Result]) Run(jobs []Job, fn func(Job) Result) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	type indexed struct {
		i   int
		job Job
	}
	in := make(chan indexed, len(jobs))
	for i, j := range jobs {
		in <- indexed{i: i, job: j}
	}
	close(in)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range in {
				results[item.i] = fn(item.job)
			}
		}()
	}
	wg.Wait()
	return results
}
