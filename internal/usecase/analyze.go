package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	domsvc "CandleScope/internal/domain/service"
	"CandleScope/internal/ingest"
	"CandleScope/internal/report"
	"CandleScope/internal/services/trend"
	"CandleScope/pkg/cache"
	applogger "CandleScope/pkg/logger"
)

const (
	// DefaultBars is the history depth used when a request does not name one.
	DefaultBars = 500
	// MaxBars caps the history depth a single run may load.
	MaxBars = 20000
)

// Analyzer drives the full pipeline over a bar sequence: trend labels,
// indicators, candle patterns, regime states, analog probability, summary.
// Storage, cache, publisher and metrics are optional; an Analyzer without
// them still serves ad-hoc runs.
type Analyzer struct {
	engine   domsvc.IndicatorEngine
	patterns domsvc.PatternDetector
	regimes  domsvc.RegimeClassifier
	model    domsvc.ProbabilityModel
	resolver *trend.Resolver
	loader   *ingest.Loader
	reports  *report.Builder

	bars      domrepo.BarStore
	summaries domrepo.SummaryStore
	publisher domrepo.SummaryPublisher
	cache     cache.Service
	metrics   domrepo.Metrics

	defaultBars int
	maxBars     int
	cacheTTL    time.Duration
	log         *applogger.Logger
}

// NewAnalyzer wires the pipeline stages. Optional infrastructure is attached
// afterwards through the With* setters.
func NewAnalyzer(
	engine domsvc.IndicatorEngine,
	patterns domsvc.PatternDetector,
	regimes domsvc.RegimeClassifier,
	model domsvc.ProbabilityModel,
	resolver *trend.Resolver,
	loader *ingest.Loader,
) *Analyzer {
	return &Analyzer{
		engine:      engine,
		patterns:    patterns,
		regimes:     regimes,
		model:       model,
		resolver:    resolver,
		loader:      loader,
		reports:     report.NewBuilder(),
		defaultBars: DefaultBars,
		maxBars:     MaxBars,
		log:         applogger.Nop(),
	}
}

// SetLogger attaches the logger run outcomes report through.
func (a *Analyzer) SetLogger(l *applogger.Logger) { a.log = l }

// WithStorage attaches the bar store, summary store and summary publisher.
// Any of them may be nil.
func (a *Analyzer) WithStorage(bars domrepo.BarStore, summaries domrepo.SummaryStore, publisher domrepo.SummaryPublisher) {
	a.bars = bars
	a.summaries = summaries
	a.publisher = publisher
}

// WithCache attaches a cache for finished summaries.
func (a *Analyzer) WithCache(c cache.Service, ttl time.Duration) {
	a.cache = c
	if ttl > 0 {
		a.cacheTTL = ttl
	} else {
		a.cacheTTL = 5 * time.Minute
	}
}

// WithMetrics attaches a metrics recorder.
func (a *Analyzer) WithMetrics(m domrepo.Metrics) { a.metrics = m }

// WithLimits overrides the default and maximum history depths.
func (a *Analyzer) WithLimits(defaultBars, maxBars int) {
	if defaultBars > 0 {
		a.defaultBars = defaultBars
	}
	if maxBars > 0 {
		a.maxBars = maxBars
	}
}

// Analyze runs the pipeline over the given bars. Provided trends are set on
// the frame before tagging so a column source can win; source overrides the
// configured trend source for this run when non-empty.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, tf domrepo.Timeframe, bars []models.Bar, trends []models.Trend, source trend.Source) (*models.Analysis, error) {
	runStart := time.Now()

	f := models.NewFrame(bars)
	if trends != nil {
		f.SetTrends(trends)
	}

	resolver := a.resolver
	if source != "" && source != resolver.Source() {
		resolver = resolver.WithSource(source)
	}

	// Trend labels attach to the full history so the tagger sees every bar;
	// the warm-up trim slices them together with the columns.
	stageStart := time.Now()
	labels, err := resolver.Tag(ctx, f)
	if err != nil {
		a.countError("trend")
		return nil, fmt.Errorf("tag trend: %w", err)
	}
	f.SetTrends(labels)
	a.observeStage("trend", stageStart)

	stageStart = time.Now()
	f, err = a.engine.Compute(f)
	if err != nil {
		a.countError("indicators")
		return nil, fmt.Errorf("compute indicators: %w", err)
	}
	a.observeStage("indicators", stageStart)

	stageStart = time.Now()
	f, err = a.patterns.Annotate(f)
	if err != nil {
		a.countError("patterns")
		return nil, fmt.Errorf("annotate patterns: %w", err)
	}
	a.observeStage("patterns", stageStart)

	stageStart = time.Now()
	f, err = a.regimes.Classify(f)
	if err != nil {
		a.countError("regimes")
		return nil, fmt.Errorf("classify regimes: %w", err)
	}
	a.observeStage("regimes", stageStart)

	stageStart = time.Now()
	est, err := a.model.Estimate(f)
	if err != nil {
		a.countError("analog")
		return nil, fmt.Errorf("estimate probability: %w", err)
	}
	a.observeStage("analog", stageStart)

	summary := models.Summary{
		Symbol:                 symbol,
		Timeframe:              string(tf),
		ProbabilityNextBullish: est.Probability,
		LastTrend:              est.Trend,
		LastMomentum:           est.Momentum,
		LastVolatility:         est.Volatility,
		PrimaryPattern:         est.PrimaryPattern,
		ActivePatterns:         a.patterns.Active(f),
		Matches:                est.Matches,
		BullishMatches:         est.BullishMatches,
		RowsAnalyzed:           f.Len(),
		RunID:                  uuid.NewString(),
		GeneratedAt:            time.Now().UTC(),
	}

	if a.metrics != nil {
		a.metrics.RecordAnalysis(symbol, string(tf))
		a.metrics.RecordProbability(symbol, string(tf), est.Probability)
	}

	// Persistence and publishing are best-effort: a full result beats a
	// failed run when the audit trail hiccups.
	if a.summaries != nil {
		if err := a.summaries.StoreSummary(ctx, summary); err != nil {
			a.countError("summary_store")
			a.log.Warn("store summary failed",
				applogger.String("symbol", symbol),
				applogger.String("run_id", summary.RunID),
				applogger.Error(err),
			)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, summary); err != nil {
			a.countError("summary_publish")
			a.log.Warn("publish summary failed",
				applogger.String("symbol", symbol),
				applogger.String("run_id", summary.RunID),
				applogger.Error(err),
			)
		}
	}

	a.log.Info("analysis complete",
		applogger.String("symbol", symbol),
		applogger.String("tf", string(tf)),
		applogger.Int("rows", summary.RowsAnalyzed),
		applogger.Float64("probability", summary.ProbabilityNextBullish),
		applogger.String("primary_pattern", summary.PrimaryPattern),
		applogger.Duration("took_ms", time.Since(runStart)),
	)
	return &models.Analysis{Frame: f, Summary: summary}, nil
}

// AnalyzeStored loads the latest n bars for a symbol and analyzes them. A
// cached summary short-circuits the run unless fresh is set; cache hits carry
// no frame.
func (a *Analyzer) AnalyzeStored(ctx context.Context, symbol string, tf domrepo.Timeframe, n int, fresh bool) (*models.Analysis, error) {
	if a.bars == nil {
		return nil, fmt.Errorf("no bar store configured")
	}
	n = a.clampBars(n)
	key := analysisKey(symbol, tf, n)

	if !fresh && a.cache != nil {
		var cached models.Summary
		if err := a.cache.Get(ctx, key, &cached); err == nil {
			a.log.Debug("analysis cache hit",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Int("n", n),
			)
			return &models.Analysis{Summary: cached}, nil
		}
	}

	bars, trends, err := a.bars.GetLatestBars(ctx, symbol, tf, n)
	if err != nil {
		a.countError("bar_store")
		return nil, fmt.Errorf("load bars: %w", err)
	}

	an, err := a.Analyze(ctx, symbol, tf, bars, trends, "")
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, an.Summary, a.cacheTTL); err != nil {
			a.log.Warn("cache analysis failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}
	return an, nil
}

// ImportCSV parses OHLCV rows from r and stores them under symbol. The
// timeframe is detected from the data unless tfOverride names a valid one.
func (a *Analyzer) ImportCSV(ctx context.Context, symbol, tfOverride string, r io.Reader) (models.ImportResult, error) {
	res, err := a.loader.Load(r)
	if err != nil {
		a.countError("import")
		return models.ImportResult{}, fmt.Errorf("load csv: %w", err)
	}

	tf := res.Timeframe
	if tfOverride != "" {
		if v := domrepo.Timeframe(tfOverride); domrepo.IsValidTimeframe(v) {
			tf = v
		}
	}
	if tf == domrepo.TFUnknown {
		tf = domrepo.DefaultTimeframe()
	}

	out := models.ImportResult{
		Symbol:    symbol,
		Timeframe: string(tf),
		Rows:      len(res.Bars),
		Skipped:   res.Skipped,
		HasTrend:  res.Trends != nil,
	}
	if a.bars == nil {
		return out, nil
	}

	if err := a.bars.StoreBars(ctx, symbol, tf, res.Bars, res.Trends); err != nil {
		a.countError("bar_store")
		return out, fmt.Errorf("store bars: %w", err)
	}
	out.Stored = true

	// New history invalidates any cached analyses of the symbol.
	if a.cache != nil {
		if err := a.cache.DeleteByPattern(ctx, cache.GenerateKey("summary", symbol)+":*"); err != nil {
			a.log.Warn("invalidate cache failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}
	return out, nil
}

// Report analyzes stored history and renders it as a markdown report.
func (a *Analyzer) Report(ctx context.Context, symbol string, tf domrepo.Timeframe, n int) (string, error) {
	an, err := a.AnalyzeStored(ctx, symbol, tf, n, false)
	if err != nil {
		return "", err
	}
	return a.reports.Markdown(an), nil
}

// LatestSummary returns the most recent stored summary, or nil when the
// symbol has never been analyzed.
func (a *Analyzer) LatestSummary(ctx context.Context, symbol string, tf domrepo.Timeframe) (*models.Summary, error) {
	if a.summaries == nil {
		return nil, fmt.Errorf("no summary store configured")
	}
	return a.summaries.LatestSummary(ctx, symbol, tf)
}

func (a *Analyzer) clampBars(n int) int {
	if n <= 0 {
		n = a.defaultBars
	}
	if a.maxBars > 0 && n > a.maxBars {
		n = a.maxBars
	}
	return n
}

func (a *Analyzer) countError(kind string) {
	if a.metrics != nil {
		a.metrics.RecordError(kind)
	}
}

func (a *Analyzer) observeStage(stage string, started time.Time) {
	if a.metrics != nil {
		a.metrics.RecordStageDuration(stage, time.Since(started).Seconds())
	}
}

func analysisKey(symbol string, tf domrepo.Timeframe, n int) string {
	return cache.GenerateKeyWithParams("summary", symbol, string(tf), n)
}
