package preview

import (
	"context"
	"sync"
)

// BatchResult pairs one source path with its extraction outcome
type BatchResult struct {
	Path   string
	Result *Result
	Err    error
}

// ExtractBatch generates previews for many files with bounded parallelism.
// Results come back in input order; a failing file does not abort the batch.
func (p *Pipeline) ExtractBatch(ctx context.Context, paths []string, opts Options, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]BatchResult, len(paths))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := p.Extract(ctx, path, opts)
			results[i] = BatchResult{Path: path, Result: res, Err: err}
		}(i, path)
	}

	wg.Wait()
	return results
}
