package models

import (
	"strings"
	"time"
)

// Bar represents a single OHLCV record. Volume is 0 when the source had none.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Trend is the externally supplied market-structure label per bar. The
// analysis stages never derive it; an upstream tagger (CSV column, local EMA
// tagger, or remote service) provides it.
type Trend string

const (
	TrendUp       Trend = "uptrend"
	TrendDown     Trend = "downtrend"
	TrendSideways Trend = "sideways"
)

// NormalizeTrend maps free-form labels to the canonical enum, ignoring case
// and surrounding space. Unknown values fall back to sideways rather than
// failing the run.
func NormalizeTrend(s string) Trend {
	s = strings.ToLower(strings.TrimSpace(s))
	switch Trend(s) {
	case TrendUp, TrendDown, TrendSideways:
		return Trend(s)
	}
	switch s {
	case "up", "bull", "bullish":
		return TrendUp
	case "down", "bear", "bearish":
		return TrendDown
	}
	return TrendSideways
}

// Momentum is the per-row momentum state derived from RSI and MACD histogram.
type Momentum string

const (
	MomentumBullish Momentum = "bullish"
	MomentumBearish Momentum = "bearish"
	MomentumNeutral Momentum = "neutral"
)

// Volatility is the per-row volatility state derived from ATR vs its
// expanding median.
type Volatility string

const (
	VolatilityHigh   Volatility = "high"
	VolatilityLow    Volatility = "low"
	VolatilityNormal Volatility = "normal"
)
