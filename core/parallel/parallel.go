// Package parallel splits row ranges across CPU cores. Callers must write only to
// indices inside the range they are handed, so results do not depend on scheduling.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize runs fn once per contiguous chunk of [0, items), one chunk per CPU
// core at most, and returns when every chunk is done.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	workers := min(runtime.NumCPU(), items)
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunk {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, min(start+chunk, items))
	}
	wg.Wait()
}

// ParallelizeWithThreshold is Parallelize for items > threshold and a single
// sequential fn(0, items) otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	switch {
	case items <= 0:
	case items <= threshold:
		fn(0, items)
	default:
		Parallelize(items, fn)
	}
}

// Rows calls fn for every row index in [0, n). Rows are spread over cores once n
// exceeds threshold.
func Rows(n, threshold int, fn func(i int)) {
	ParallelizeWithThreshold(n, threshold, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
