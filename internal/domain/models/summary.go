package models

import "time"

// Estimate is the raw output of the analog probability model: the matched
// historical sample and the resulting next-bar probability.
type Estimate struct {
	Probability    float64    `json:"probability_next_bullish"`
	PrimaryPattern string     `json:"primary_pattern"`
	Matches        int        `json:"matches"`
	BullishMatches int        `json:"bullish_matches"`
	Trend          Trend      `json:"trend"`
	Momentum       Momentum   `json:"momentum"`
	Volatility     Volatility `json:"volatility"`
}

// Summary is the headline record of one analysis run.
type Summary struct {
	Symbol                 string     `json:"symbol,omitempty"`
	Timeframe              string     `json:"timeframe,omitempty"`
	ProbabilityNextBullish float64    `json:"probability_next_bullish"`
	LastTrend              Trend      `json:"last_trend"`
	LastMomentum           Momentum   `json:"last_momentum"`
	LastVolatility         Volatility `json:"last_volatility"`
	PrimaryPattern         string     `json:"primary_pattern"`
	ActivePatterns         []string   `json:"active_patterns"`
	Matches                int        `json:"matches"`
	BullishMatches         int        `json:"bullish_matches"`
	RowsAnalyzed           int        `json:"rows_analyzed"`
	RunID                  string     `json:"run_id"`
	GeneratedAt            time.Time  `json:"generated_at"`
}

// Analysis bundles the fully annotated table with its summary.
type Analysis struct {
	Frame   *Frame  `json:"-"`
	Summary Summary `json:"summary"`
}

// ImportResult reports what a CSV import stored.
type ImportResult struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Rows      int    `json:"rows"`
	Skipped   int    `json:"skipped"`
	HasTrend  bool   `json:"has_trend"`
	Stored    bool   `json:"stored"`
}
