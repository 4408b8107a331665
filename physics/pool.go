package physics

import (
	"runtime"
	"sync"
)

// Pool fans work for one step out across rows of the grid.
// A Pool holds no simulation state and may be shared by concurrent runs.
type Pool struct {
	numWorkers int
}

// NewPool creates a pool with the given worker count; n <= 0 uses one worker per CPU
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return &Pool{numWorkers: n}
}

// Workers returns the configured worker count
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.numWorkers
}

// ForEachRow executes fn for each row in [0, rows) and returns when all calls finished.
// Rows are handed out through a queue, so fn must only write state owned by its row.
func (p *Pool) ForEachRow(rows int, fn func(row int)) {
	workers := p.Workers()
	if workers > rows {
		workers = rows
	}
	if workers <= 1 {
		for i := 0; i < rows; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup

	// Create work queue
	work := make(chan int, rows)
	for i := 0; i < rows; i++ {
		work <- i
	}
	close(work)

	// Spawn workers
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for row := range work {
				fn(row)
			}
		}()
	}

	wg.Wait()
}
