// Package parallel splits index ranges across goroutines. Training uses it
// for per-feature split search and prediction uses it for per-row scoring.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

// Workers resolves a requested worker count: values <= 0 mean one worker
// per available CPU core.
func Workers(requested int) int {
	if requested <= 0 {
		return runtime.NumCPU()
	}
	return requested
}

// Parallelize divides items into contiguous ranges, one per CPU core, and
// runs fn on each range (start, end) concurrently.
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeWorkers(items, 0, fn)
}

// ParallelizeWorkers is Parallelize with an explicit worker cap.
// Ranges never overlap, so fn may write to disjoint slots of a shared slice
// without synchronization.
func ParallelizeWorkers(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := Workers(workers)
	if numWorkers > items {
		numWorkers = items // No need for more workers than items
	}
	if numWorkers == 1 {
		fn(0, items)
		return
	}

	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold.
// If below threshold, normal sequential processing is performed.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	ParallelizeWorkersWithThreshold(items, 0, threshold, fn)
}

// ParallelizeWorkersWithThreshold combines a worker cap with a sequential
// fallback for small inputs.
func ParallelizeWorkersWithThreshold(items, workers, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}
	ParallelizeWorkers(items, workers, fn)
}

// For runs fn(i) for every i in [0, items) using at most workers goroutines.
func For(items, workers int, fn func(i int)) {
	ParallelizeWorkers(items, workers, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// SafeParallelizeWorkersWithThreshold is ParallelizeWorkersWithThreshold with
// every range run under errors.SafeExecute, so a panic in a worker goroutine
// comes back as a *errors.PanicError instead of terminating the process.
// When several ranges fail, the error of the lowest range is returned.
func SafeParallelizeWorkersWithThreshold(op string, items, workers, threshold int, fn func(start, end int)) error {
	var (
		mu         sync.Mutex
		first      error
		firstStart = items
	)
	ParallelizeWorkersWithThreshold(items, workers, threshold, func(s, e int) {
		err := errors.SafeExecute(op, func() error {
			fn(s, e)
			return nil
		})
		if err == nil {
			return
		}
		mu.Lock()
		if s < firstStart {
			first, firstStart = err, s
		}
		mu.Unlock()
	})
	return first
}

// SafeFor is For with panic recovery in every worker.
func SafeFor(op string, items, workers int, fn func(i int)) error {
	return SafeParallelizeWorkersWithThreshold(op, items, workers, 0, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
