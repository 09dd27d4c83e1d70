package usecase

import (
	"context"
	"sync"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
)

// BatchItem names one symbol to analyze in a batch run.
type BatchItem struct {
	Symbol string
	TF     domrepo.Timeframe
	N      int
	Fresh  bool
}

// BatchResult pairs a batch item with its outcome.
type BatchResult struct {
	Symbol   string
	Analysis *models.Analysis
	Err      error
}

// AnalyzeBatch fans AnalyzeStored out over items with at most workers
// concurrent runs. Results keep item order; one failed symbol never stops
// the rest.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, items []BatchItem, workers int) []BatchResult {
	if workers <= 0 {
		workers = 4
	}

	results := make([]BatchResult, len(items))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, it := range items {
		wg.Add(1)
		go func(i int, it BatchItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			an, err := a.AnalyzeStored(ctx, it.Symbol, it.TF, it.N, it.Fresh)
			results[i] = BatchResult{Symbol: it.Symbol, Analysis: an, Err: err}
		}(i, it)
	}
	wg.Wait()
	return results
}
