package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses s as an int, falling back to def when s is empty
// or malformed.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseFloatDefault parses string to float64 or returns default.
func ParseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// NormalizeHeader lowercases and trims a column header for alias lookup.
func NormalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Humanize turns a snake_case identifier into a title-cased phrase, e.g.
// "bullish_engulfing" -> "Bullish Engulfing".
func Humanize(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
