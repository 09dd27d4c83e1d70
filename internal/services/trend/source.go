package trend

import (
	"context"
	"fmt"

	"CandleScope/internal/domain/models"
	"CandleScope/internal/domain/service"
	"CandleScope/pkg/logger"
)

// Source selects where trend labels come from.
type Source string

const (
	// SourceAuto uses labels shipped with the data when present, the local
	// tagger otherwise.
	SourceAuto   Source = "auto"
	SourceColumn Source = "column"
	SourceLocal  Source = "local"
	SourceHTTP   Source = "http"
)

func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceAuto, SourceColumn, SourceLocal, SourceHTTP:
		return Source(s), nil
	case "":
		return SourceAuto, nil
	}
	return "", fmt.Errorf("unknown trend source %q", s)
}

// Resolver routes tagging to the configured source. Labels already on the
// frame always win under auto, matching how imported data keeps its own
// annotations.
type Resolver struct {
	source Source
	local  service.TrendTagger
	remote service.TrendTagger
	log    *logger.Logger
}

func NewResolver(source Source, local, remote service.TrendTagger) *Resolver {
	if source == "" {
		source = SourceAuto
	}
	return &Resolver{source: source, local: local, remote: remote, log: logger.Nop()}
}

func (r *Resolver) SetLogger(l *logger.Logger) {
	if l != nil {
		r.log = l
	}
}

// WithSource returns a resolver identical to r except for the source. Used
// for per-request overrides.
func (r *Resolver) WithSource(source Source) *Resolver {
	if source == "" || source == r.source {
		return r
	}
	return &Resolver{source: source, local: r.local, remote: r.remote, log: r.log}
}

func (r *Resolver) Source() Source {
	return r.source
}

func (r *Resolver) Tag(ctx context.Context, f *models.Frame) ([]models.Trend, error) {
	switch r.source {
	case SourceColumn:
		if got := f.Trends(); got != nil {
			return normalize(got), nil
		}
		return nil, &models.MissingColumnError{Name: string(models.LabelTrend)}
	case SourceLocal:
		return r.local.Tag(ctx, f)
	case SourceHTTP:
		if r.remote == nil {
			return nil, fmt.Errorf("http trend source selected but no tagger configured")
		}
		return r.remote.Tag(ctx, f)
	default: // SourceAuto
		if got := f.Trends(); got != nil {
			r.log.Debug("using trend labels from data")
			return normalize(got), nil
		}
		return r.local.Tag(ctx, f)
	}
}

func normalize(trends []models.Trend) []models.Trend {
	out := make([]models.Trend, len(trends))
	for i, tr := range trends {
		out[i] = models.NormalizeTrend(string(tr))
	}
	return out
}

var (
	_ service.TrendTagger = (*Resolver)(nil)
	_ service.TrendTagger = (*LocalTagger)(nil)
	_ service.TrendTagger = (*HTTPTagger)(nil)
)
