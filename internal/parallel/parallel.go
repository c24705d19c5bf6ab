// Package parallel fans convolution work out across output channels.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how ForChannels splits work across goroutines.
type Config struct {
	Enabled      bool // Whether to use goroutines at all.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum channels per goroutine before splitting is worthwhile.
}

// DefaultConfig returns defaults sized for CPU convolution kernels: one
// worker per core, with a chunk size large enough that per-goroutine
// overhead doesn't dominate a single tile's worth of output channels.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4,
	}
}

// ForChannels calls f(oc) once for every output channel oc in [0, numChannels),
// each channel's weight slice and destination plane being independent of
// every other's. Falls back to a plain sequential loop when cfg disables
// parallelism or numChannels is too small to be worth splitting.
func ForChannels(numChannels int, f func(oc int), cfg Config) {
	if !cfg.Enabled || numChannels < cfg.MinChunkSize {
		for oc := 0; oc < numChannels; oc++ {
			f(oc)
		}
		return
	}

	chunk := max((numChannels+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	var wg sync.WaitGroup
	for start := 0; start < numChannels; start += chunk {
		end := min(start+chunk, numChannels)
		wg.Add(1)
		go func(first, last int) {
			defer wg.Done()
			for oc := first; oc < last; oc++ {
				f(oc)
			}
		}(start, end)
	}
	wg.Wait()
}
