// concurrency.go provides the bounded row-parallel fan-out used by
// threshold computation and similarity-matrix construction.
// Grounded on noisefs's pkg/infrastructure/workers/simple_pool.go
// ("SimpleWorkerPool... trusts Go's scheduler", sync.WaitGroup with one
// goroutine per unit of work), adapted to cap concurrency at GOMAXPROCS
// since a similarity matrix can have far more rows than cores.
package pprl

import (
	"runtime"
	"sync"
)

// parallelFor calls fn(i) for every i in [0, n), distributing the calls
// across min(n, GOMAXPROCS) goroutines. Each i is independent, so fn must
// not share mutable state across indices beyond disjoint writes into a
// pre-sized output slice.
func parallelFor(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
