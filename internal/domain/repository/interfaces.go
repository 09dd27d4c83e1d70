package repository

import (
	"context"
	"time"

	"CandleScope/internal/domain/models"
)

// BarStore persists and serves historical bars together with their
// externally supplied trend labels.
type BarStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreBars(ctx context.Context, symbol string, tf Timeframe, bars []models.Bar, trends []models.Trend) error
	GetBars(ctx context.Context, symbol string, tf Timeframe, from, to time.Time) ([]models.Bar, []models.Trend, error)
	GetLatestBars(ctx context.Context, symbol string, tf Timeframe, n int) ([]models.Bar, []models.Trend, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// SummaryStore keeps an audit trail of analysis runs.
type SummaryStore interface {
	Init(ctx context.Context) error
	StoreSummary(ctx context.Context, s models.Summary) error
	LatestSummary(ctx context.Context, symbol string, tf Timeframe) (*models.Summary, error)
}

// SummaryPublisher hands finished summaries to downstream consumers.
type SummaryPublisher interface {
	Publish(ctx context.Context, s models.Summary) error
	Close() error
}

type Metrics interface {
	RecordAnalysis(symbol, tf string)
	RecordError(kind string)
	RecordProbability(symbol, tf string, probability float64)
	RecordStageDuration(stage string, seconds float64)
}
