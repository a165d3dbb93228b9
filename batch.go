package lark2html

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Worker sizing constants.
const (
	// MinWorkers ensures at least one extraction runs.
	MinWorkers = 1

	// MaxWorkers caps concurrent extractions to stay within API rate limits.
	MaxWorkers = 8

	// cpuDivisor leaves headroom for rendering and the caller's own work.
	cpuDivisor = 2
)

// BatchResult is the outcome of one URL in ExtractAll. Exactly one of
// Document and Err is set.
type BatchResult struct {
	URL      string
	Document *ExtractedDocument
	Err      error
}

// ResolveWorkers determines the optimal number of concurrent extractions.
// Priority: explicit workers value > GOMAXPROCS-based calculation.
func ResolveWorkers(workers int) int {
	// Explicit value takes priority
	if workers > 0 {
		return workers
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// ExtractAll extracts every URL with at most ResolveWorkers(workers)
// extractions in flight. Results are returned in input order. A failed
// URL records its error and does not cancel the others; a canceled ctx
// fails the URLs that have not started.
func (e *Extractor) ExtractAll(ctx context.Context, urls []string, workers int) []BatchResult {
	results := make([]BatchResult, len(urls))

	var g errgroup.Group
	g.SetLimit(ResolveWorkers(workers))
	for i, u := range urls {
		results[i].URL = u
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			doc, err := e.Extract(ctx, u)
			results[i].Document, results[i].Err = doc, err
			return nil
		})
	}
	_ = g.Wait()
	return results
}
