package report

import (
	"fmt"
	"strings"

	"CandleScope/internal/domain/models"
	"CandleScope/pkg/util"
)

// Builder renders an Analysis as a human-readable markdown report: a
// headline block with the latest states followed by narrative paragraphs.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Markdown assembles the full report document.
func (b *Builder) Markdown(a *models.Analysis) string {
	var sb strings.Builder
	sb.WriteString("# Technical Analysis Report\n\n")
	if a.Summary.Symbol != "" {
		sb.WriteString(fmt.Sprintf("**Symbol:** %s", a.Summary.Symbol))
		if a.Summary.Timeframe != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", a.Summary.Timeframe))
		}
		sb.WriteString("\n\n")
	}
	sb.WriteString(b.Summary(a))
	sb.WriteString("\n")
	sb.WriteString(b.Detailed(a))
	return sb.String()
}

// Summary renders the last-candle headline block.
func (b *Builder) Summary(a *models.Analysis) string {
	s := a.Summary
	var sb strings.Builder
	sb.WriteString("## Summary of Last Candle\n\n")
	sb.WriteString(fmt.Sprintf("- **Trend:** %s\n", s.LastTrend))
	sb.WriteString(fmt.Sprintf("- **Momentum:** %s\n", s.LastMomentum))
	sb.WriteString(fmt.Sprintf("- **Volatility:** %s\n", s.LastVolatility))
	sb.WriteString(fmt.Sprintf("- **Detected Patterns:** %s\n", patternsText(s.ActivePatterns)))
	sb.WriteString(fmt.Sprintf("- **Probability of Next Bullish Candle:** %v%%\n", s.ProbabilityNextBullish))
	return sb.String()
}

// Detailed renders the narrative paragraphs.
func (b *Builder) Detailed(a *models.Analysis) string {
	s := a.Summary
	var paragraphs []string

	switch s.LastTrend {
	case models.TrendUp:
		paragraphs = append(paragraphs,
			"The instrument is in an **uptrend**, with price trading above key moving averages. "+
				"This environment typically favors bullish continuation.")
	case models.TrendDown:
		paragraphs = append(paragraphs,
			"The instrument is in a **downtrend**, reflecting consistent selling pressure. "+
				"Bullish signals tend to have weaker follow-through here.")
	default:
		paragraphs = append(paragraphs,
			"The instrument is currently **sideways**, showing consolidation and indecision.")
	}

	switch s.LastMomentum {
	case models.MomentumBullish:
		paragraphs = append(paragraphs,
			"Momentum indicators reflect **bullish strength**, suggesting buyers are in control.")
	case models.MomentumBearish:
		paragraphs = append(paragraphs,
			"Momentum indicators show **bearish pressure**, indicating sellers dominate.")
	default:
		paragraphs = append(paragraphs,
			"Momentum is **neutral**, showing no strong directional force.")
	}

	switch s.LastVolatility {
	case models.VolatilityHigh:
		paragraphs = append(paragraphs,
			"Volatility is **high**, producing larger price swings. This increases opportunity but also risk.")
	case models.VolatilityLow:
		paragraphs = append(paragraphs,
			"Volatility is **low**, often preceding a breakout or expansion in price range.")
	default:
		paragraphs = append(paragraphs,
			"Volatility is at a **normal** level, indicating stable price movement.")
	}

	if len(s.ActivePatterns) > 0 {
		paragraphs = append(paragraphs, fmt.Sprintf(
			"The following candle pattern(s) were detected: **%s**. "+
				"These patterns, combined with trend and momentum, provide meaningful signals.",
			patternsText(s.ActivePatterns)))
	} else {
		paragraphs = append(paragraphs,
			"No major candle patterns were detected in the most recent candle.")
	}

	prob := s.ProbabilityNextBullish
	switch {
	case prob >= 60:
		paragraphs = append(paragraphs, fmt.Sprintf(
			"The model assigns a **%v%% probability** that the next candle will be bullish. "+
				"This indicates favorable bullish conditions.", prob))
	case prob <= 40:
		paragraphs = append(paragraphs, fmt.Sprintf(
			"The model estimates only **%v%% probability** of a bullish candle, "+
				"signaling stronger bearish conditions.", prob))
	default:
		paragraphs = append(paragraphs, fmt.Sprintf(
			"The model shows a **%v%% probability**, indicating neutral or mixed conditions.", prob))
	}

	paragraphs = append(paragraphs,
		"This analysis incorporates trend structure, momentum strength, volatility levels, and "+
			"candle patterns to estimate likely future price behavior.")

	return "## Detailed Analysis\n\n" + strings.Join(paragraphs, "\n\n") + "\n"
}

func patternsText(patterns []string) string {
	if len(patterns) == 0 {
		return "None"
	}
	human := make([]string, len(patterns))
	for i, p := range patterns {
		human[i] = util.Humanize(p)
	}
	return strings.Join(human, ", ")
}
