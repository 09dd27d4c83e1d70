package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	pkgch "CandleScope/pkg/clickhouse"
	applogger "CandleScope/pkg/logger"
)

// CHBarStore implements BarStore backed by ClickHouse. Bars for every
// timeframe share one table keyed by (symbol, tf, ts); the trend column is
// empty when the source had no labels.
type CHBarStore struct {
	ch       *pkgch.Client
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client, database string) *CHBarStore {
	if database == "" {
		database = "candlescope"
	}
	return &CHBarStore{ch: ch, db: ch.DB(), database: database}
}

// SetLogger attaches the logger query outcomes report through.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBarStore) table() string { return s.database + ".bars" }

func (s *CHBarStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol String,
			tf String,
			ts DateTime,
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			volume Float64,
			trend String
		) ENGINE = ReplacingMergeTree ORDER BY (symbol, tf, ts)`, s.table()),
	}
	if err := s.ch.InitSchema(ctx, stmts); err != nil {
		return fmt.Errorf("init bars schema: %w", err)
	}
	return nil
}

func (s *CHBarStore) StoreBars(ctx context.Context, symbol string, tf domrepo.Timeframe, bars []models.Bar, trends []models.Trend) error {
	if len(bars) == 0 {
		return nil
	}
	start := time.Now()

	// One multi-row VALUES statement per chunk.
	const chunkSize = 2000
	for lo := 0; lo < len(bars); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(bars) {
			hi = len(bars)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*9)
		for i, b := range bars[lo:hi] {
			trend := ""
			if trends != nil {
				trend = string(trends[lo+i])
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, symbol, string(tf), b.Time, b.Open, b.High, b.Low, b.Close, b.Volume, trend)
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, tf, ts, open, high, low, close, volume, trend) VALUES %s",
			s.table(), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_bars insert error",
					applogger.String("symbol", symbol),
					applogger.String("tf", string(tf)),
					applogger.Int("rows", hi-lo),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store bars: %w", err)
		}
	}

	if s.l != nil {
		s.l.Info("clickhouse store_bars ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(bars)),
			applogger.Bool("trends", trends != nil),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHBarStore) GetBars(ctx context.Context, symbol string, tf domrepo.Timeframe, from, to time.Time) ([]models.Bar, []models.Trend, error) {
	start := time.Now()
	const qtpl = `
        SELECT ts, open, high, low, close, volume, trend
        FROM %s FINAL
        WHERE symbol = ? AND tf = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `
	q := fmt.Sprintf(qtpl, s.table())
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_bars query error",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	bars, trends, err := scanBars(rows, 1024)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_bars scan error",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, nil, err
	}
	if s.l != nil {
		s.l.Info("clickhouse get_bars ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return bars, trends, nil
}

func (s *CHBarStore) GetLatestBars(ctx context.Context, symbol string, tf domrepo.Timeframe, n int) ([]models.Bar, []models.Trend, error) {
	start := time.Now()
	const qtpl = `
        SELECT ts, open, high, low, close, volume, trend
        FROM %s FINAL
        WHERE symbol = ? AND tf = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, s.table())
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_bars query error",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	bars, trends, err := scanBars(rows, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_bars scan error",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, nil, err
	}

	// reverse to ASC
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	if trends != nil {
		for i, j := 0, len(trends)-1; i < j; i, j = i+1, j-1 {
			trends[i], trends[j] = trends[j], trends[i]
		}
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_bars ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("limit", n),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return bars, trends, nil
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHBarStore) Close() error {
	return nil // Managed by pkg
}

// scanBars reads bar rows plus their trend labels. Trends come back nil when
// no row carried one, so callers can tell unlabeled history apart from a
// sideways market.
func scanBars(rows *sql.Rows, sizeHint int) ([]models.Bar, []models.Trend, error) {
	bars := make([]models.Bar, 0, sizeHint)
	raw := make([]string, 0, sizeHint)
	hasTrend := false
	for rows.Next() {
		var b models.Bar
		var trend string
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &trend); err != nil {
			return nil, nil, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, b)
		raw = append(raw, trend)
		if trend != "" {
			hasTrend = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows: %w", err)
	}
	if !hasTrend {
		return bars, nil, nil
	}
	trends := make([]models.Trend, len(raw))
	for i, t := range raw {
		trends[i] = models.NormalizeTrend(t)
	}
	return bars, trends, nil
}

var _ domrepo.BarStore = (*CHBarStore)(nil)
