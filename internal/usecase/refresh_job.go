package usecase

import (
	"context"
	"fmt"

	domrepo "CandleScope/internal/domain/repository"
	applogger "CandleScope/pkg/logger"
	pkgqueue "CandleScope/pkg/queue"
)

// TypeAnalysisRefresh is the queue message type for background re-analysis.
const TypeAnalysisRefresh = "analysis.refresh"

// RefreshPayload asks a worker to re-run the pipeline for stored history,
// bypassing the cache.
type RefreshPayload struct {
	JobID  string `json:"job_id,omitempty"`
	Symbol string `json:"symbol"`
	TF     string `json:"tf"`
	N      int    `json:"n"`
}

// RefreshJob processes analysis.refresh messages.
type RefreshJob struct {
	analyzer *Analyzer
	log      *applogger.Logger
}

func NewRefreshJob(analyzer *Analyzer) *RefreshJob {
	return &RefreshJob{analyzer: analyzer, log: applogger.Nop()}
}

// SetLogger attaches the logger job runs report through.
func (j *RefreshJob) SetLogger(l *applogger.Logger) { j.log = l }

func (j *RefreshJob) Name() string { return "analysis_refresh" }

func (j *RefreshJob) Type() string { return TypeAnalysisRefresh }

func (j *RefreshJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := pkgqueue.ParsePayload[RefreshPayload](payload)
	if err != nil {
		return fmt.Errorf("parse refresh payload: %w", err)
	}
	if p.Symbol == "" {
		return fmt.Errorf("refresh payload missing symbol")
	}

	tf := domrepo.NormalizeTimeframe(p.TF)
	an, err := j.analyzer.AnalyzeStored(ctx, p.Symbol, tf, p.N, true)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", p.Symbol, err)
	}
	j.log.Info("refresh complete",
		applogger.String("job_id", p.JobID),
		applogger.String("symbol", p.Symbol),
		applogger.String("tf", string(tf)),
		applogger.Float64("probability", an.Summary.ProbabilityNextBullish),
	)
	return nil
}

// Refresher enqueues refresh requests when a queue is attached and falls
// back to running them inline when not.
type Refresher struct {
	analyzer *Analyzer
	queue    pkgqueue.QueueService
}

func NewRefresher(analyzer *Analyzer, queue pkgqueue.QueueService) *Refresher {
	return &Refresher{analyzer: analyzer, queue: queue}
}

// Request schedules a fresh analysis. The returned flag reports whether the
// work was queued (true) or completed inline (false).
func (r *Refresher) Request(ctx context.Context, jobID, symbol string, tf domrepo.Timeframe, n int) (bool, error) {
	if r.queue != nil {
		err := r.queue.PublishMessage(ctx, TypeAnalysisRefresh, RefreshPayload{
			JobID:  jobID,
			Symbol: symbol,
			TF:     string(tf),
			N:      n,
		})
		if err != nil {
			return false, fmt.Errorf("enqueue refresh: %w", err)
		}
		return true, nil
	}
	if _, err := r.analyzer.AnalyzeStored(ctx, symbol, tf, n, true); err != nil {
		return false, err
	}
	return false, nil
}
