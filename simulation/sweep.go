package simulation

import (
	"context"
	"runtime"
	"sync"
)

// SweepCase is one named parameter set of a batch
type SweepCase struct {
	Name   string `json:"name" yaml:"name"`
	Params `yaml:",inline"`
}

// SweepOutcome pairs a case with its result or error
type SweepOutcome struct {
	Case   SweepCase
	Result *Result
	Err    error
}

// Sweep runs every case as an independent model run, at most parallel at a time
// (parallel <= 0 uses one per CPU). Outcomes are returned in case order; one
// failing case does not stop the others.
func Sweep(ctx context.Context, cases []SweepCase, parallel int, opts ...Option) []SweepOutcome {
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}
	if parallel > len(cases) {
		parallel = len(cases)
	}

	out := make([]SweepOutcome, len(cases))
	work := make(chan int, len(cases))
	for i := range cases {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	wg.Add(parallel)
	for w := 0; w < parallel; w++ {
		go func() {
			defer wg.Done()
			for i := range work {
				c := cases[i]
				res, err := RunParams(ctx, c.Params, opts...)
				out[i] = SweepOutcome{Case: c, Result: res, Err: err}
			}
		}()
	}
	wg.Wait()

	return out
}
