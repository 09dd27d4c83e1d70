package repository

import "time"

// Timeframe is the bar resolution label carried on requests, cache keys
// and persisted rows.
type Timeframe string

const (
	TF1m      Timeframe = "1m"
	TF5m      Timeframe = "5m"
	TF15m     Timeframe = "15m"
	TF30m     Timeframe = "30m"
	TF1h      Timeframe = "1h"
	TF2h      Timeframe = "2h"
	TF4h      Timeframe = "4h"
	TF12h     Timeframe = "12h"
	TF1d      Timeframe = "1d"
	TF1w      Timeframe = "1w"
	TF1mo     Timeframe = "1mo"
	TFUnknown Timeframe = "unknown"
)

// IsValidTimeframe reports whether tf is one of the supported buckets.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1m, TF5m, TF15m, TF30m, TF1h, TF2h, TF4h, TF12h, TF1d, TF1w, TF1mo:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the daily bucket, the resolution most request
// paths assume when none is given.
func DefaultTimeframe() Timeframe { return TF1d }

// NormalizeTimeframe maps a raw string onto a supported timeframe,
// falling back to the default for empty or unrecognized input.
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// DetectTimeframe infers the bucket from the median gap between consecutive
// timestamps. Fewer than two timestamps give TFUnknown.
func DetectTimeframe(times []time.Time) Timeframe {
	if len(times) < 2 {
		return TFUnknown
	}
	gaps := make([]time.Duration, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		gaps = append(gaps, times[i].Sub(times[i-1]))
	}
	med := medianDuration(gaps)
	seconds := med.Seconds()

	switch {
	case seconds < 60*2:
		return TF1m
	case seconds < 60*10:
		return TF5m
	case seconds < 60*20:
		return TF15m
	case seconds < 60*40:
		return TF30m
	case seconds < 60*90:
		return TF1h
	case seconds < 60*60*3:
		return TF2h
	case seconds < 60*60*6:
		return TF4h
	case seconds < 60*60*12:
		return TF12h
	case seconds < 60*60*24*2:
		return TF1d
	case seconds < 60*60*24*10:
		return TF1w
	default:
		return TF1mo
	}
}

func medianDuration(ds []time.Duration) time.Duration {
	sorted := append([]time.Duration(nil), ds...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
