package features

import "math"

// Rolling-window kernels for the indicator engine. All of them take and
// return full-length series; NaN marks an undefined value. The smoothing
// recursions seed from the first defined observation and skip NaN inputs by
// carrying the previous state forward, which is what keeps warm-up lengths
// exact for series whose leading entries are undefined (deltas, directional
// movements).

// pctChange returns src[i]/src[i-k] - 1. Undefined for the first k rows and
// whenever the divisor is zero; never ±Inf.
func pctChange(src []float64, k int) []float64 {
	out := make([]float64, len(src))
	for i := range out {
		if i < k {
			out[i] = math.NaN()
			continue
		}
		out[i] = safeDiv(src[i]-src[i-k], src[i-k])
	}
	return out
}

// sma is a trailing mean over at most window rows, honoring partial windows
// at the start. NaN entries are excluded from the mean.
func sma(src []float64, window int) []float64 {
	out := make([]float64, len(src))
	sum, count := 0.0, 0
	for i := range src {
		if !math.IsNaN(src[i]) {
			sum += src[i]
			count++
		}
		if i >= window {
			if old := src[i-window]; !math.IsNaN(old) {
				sum -= old
				count--
			}
		}
		if count == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(count)
	}
	return out
}

// ema is an exponential moving average with alpha = 2/(span+1), seeded from
// the first defined observation.
func ema(src []float64, span int) []float64 {
	alpha := 2.0 / (float64(span) + 1.0)
	return ewm(src, alpha, 1)
}

// wilder is Wilder's smoothing: an EMA with alpha = 1/period that stays
// undefined until period observations have been seen.
func wilder(src []float64, period int) []float64 {
	return ewm(src, 1.0/float64(period), period)
}

// ewm runs the adjust-free exponential recursion. minObs is the number of
// defined inputs required before the output becomes defined.
func ewm(src []float64, alpha float64, minObs int) []float64 {
	out := make([]float64, len(src))
	var state float64
	seeded := false
	count := 0
	for i, v := range src {
		if math.IsNaN(v) {
			if seeded && count >= minObs {
				out[i] = state
			} else {
				out[i] = math.NaN()
			}
			continue
		}
		if !seeded {
			state = v
			seeded = true
		} else {
			state = alpha*v + (1-alpha)*state
		}
		count++
		if count >= minObs {
			out[i] = state
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// rollingStd is the sample standard deviation (n-1 divisor) over a full
// window; undefined until the window holds window defined values.
func rollingStd(src []float64, window int) []float64 {
	out := make([]float64, len(src))
	for i := range src {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		sum, sum2 := 0.0, 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			v := src[j]
			if math.IsNaN(v) {
				ok = false
				break
			}
			sum += v
			sum2 += v * v
		}
		if !ok {
			out[i] = math.NaN()
			continue
		}
		n := float64(window)
		mean := sum / n
		variance := (sum2 - n*mean*mean) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}

// percentileOfLast returns, per row, the fraction of defined values in the
// trailing window (inclusive) that are <= the current value. Undefined rows
// stay undefined and do not count against the denominator.
func percentileOfLast(src []float64, window int) []float64 {
	out := make([]float64, len(src))
	for i := range src {
		cur := src[i]
		if math.IsNaN(cur) {
			out[i] = math.NaN()
			continue
		}
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		le, total := 0, 0
		for j := lo; j <= i; j++ {
			if math.IsNaN(src[j]) {
				continue
			}
			total++
			if src[j] <= cur {
				le++
			}
		}
		out[i] = float64(le) / float64(total)
	}
	return out
}

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|); the first
// row has no previous close and uses high-low alone.
func trueRange(high, low, closes []float64) []float64 {
	out := make([]float64, len(high))
	for i := range out {
		hl := high[i] - low[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		hc := math.Abs(high[i] - closes[i-1])
		lc := math.Abs(low[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// safeDiv divides with a zero divisor mapped to undefined. Any infinity is
// scrubbed to undefined as well.
func safeDiv(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) || math.IsNaN(num) {
		return math.NaN()
	}
	v := num / den
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// scrubInf replaces ±Inf with NaN in place and returns the slice.
func scrubInf(src []float64) []float64 {
	for i, v := range src {
		if math.IsInf(v, 0) {
			src[i] = math.NaN()
		}
	}
	return src
}
