package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	pkgch "CandleScope/pkg/clickhouse"
	applogger "CandleScope/pkg/logger"
)

// CHSummaryStore keeps the audit trail of analysis runs in ClickHouse.
type CHSummaryStore struct {
	ch       *pkgch.Client
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHSummaryStore(ch *pkgch.Client, database string) *CHSummaryStore {
	if database == "" {
		database = "candlescope"
	}
	return &CHSummaryStore{ch: ch, db: ch.DB(), database: database}
}

// SetLogger attaches the logger query outcomes report through.
func (s *CHSummaryStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSummaryStore) table() string { return s.database + ".summaries" }

func (s *CHSummaryStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			run_id String,
			symbol String,
			tf String,
			generated_at DateTime,
			probability Float64,
			trend String,
			momentum String,
			volatility String,
			primary_pattern String,
			active_patterns String,
			matches Int32,
			bullish_matches Int32,
			rows_analyzed Int32
		) ENGINE = MergeTree ORDER BY (symbol, tf, generated_at)`, s.table()),
	}
	if err := s.ch.InitSchema(ctx, stmts); err != nil {
		return fmt.Errorf("init summaries schema: %w", err)
	}
	return nil
}

func (s *CHSummaryStore) StoreSummary(ctx context.Context, sum models.Summary) error {
	start := time.Now()
	q := fmt.Sprintf(`INSERT INTO %s
		(run_id, symbol, tf, generated_at, probability, trend, momentum, volatility,
		 primary_pattern, active_patterns, matches, bullish_matches, rows_analyzed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table())
	_, err := s.db.ExecContext(ctx, q,
		sum.RunID,
		sum.Symbol,
		sum.Timeframe,
		sum.GeneratedAt,
		sum.ProbabilityNextBullish,
		string(sum.LastTrend),
		string(sum.LastMomentum),
		string(sum.LastVolatility),
		sum.PrimaryPattern,
		strings.Join(sum.ActivePatterns, ","),
		int32(sum.Matches),
		int32(sum.BullishMatches),
		int32(sum.RowsAnalyzed),
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_summary insert error",
				applogger.String("symbol", sum.Symbol),
				applogger.String("tf", sum.Timeframe),
				applogger.String("run_id", sum.RunID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store summary: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse store_summary ok",
			applogger.String("symbol", sum.Symbol),
			applogger.String("tf", sum.Timeframe),
			applogger.String("run_id", sum.RunID),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHSummaryStore) LatestSummary(ctx context.Context, symbol string, tf domrepo.Timeframe) (*models.Summary, error) {
	const qtpl = `
        SELECT run_id, symbol, tf, generated_at, probability, trend, momentum, volatility,
               primary_pattern, active_patterns, matches, bullish_matches, rows_analyzed
        FROM %s
        WHERE symbol = ? AND tf = ?
        ORDER BY generated_at DESC
        LIMIT 1
    `
	q := fmt.Sprintf(qtpl, s.table())

	var (
		sum      models.Summary
		trend    string
		momentum string
		vol      string
		patterns string
	)
	err := s.db.QueryRowContext(ctx, q, symbol, string(tf)).Scan(
		&sum.RunID,
		&sum.Symbol,
		&sum.Timeframe,
		&sum.GeneratedAt,
		&sum.ProbabilityNextBullish,
		&trend,
		&momentum,
		&vol,
		&sum.PrimaryPattern,
		&patterns,
		&sum.Matches,
		&sum.BullishMatches,
		&sum.RowsAnalyzed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_summary query error",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest summary: %w", err)
	}
	sum.LastTrend = models.Trend(trend)
	sum.LastMomentum = models.Momentum(momentum)
	sum.LastVolatility = models.Volatility(vol)
	if patterns != "" {
		sum.ActivePatterns = strings.Split(patterns, ",")
	}
	return &sum, nil
}

var _ domrepo.SummaryStore = (*CHSummaryStore)(nil)
