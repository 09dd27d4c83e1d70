package trend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"CandleScope/internal/domain/models"
	"CandleScope/internal/service/ratelimit"
	xhttp "CandleScope/pkg/http"
	"CandleScope/pkg/logger"
)

// HTTPConfig parameterizes the remote tagger client.
type HTTPConfig struct {
	URL        string
	Timeout    time.Duration
	Attempts   int
	RatePerSec float64
	Burst      float64
}

// HTTPTagger posts the bar sequence to an external labeling service and
// expects one label back per bar. Calls are rate limited and retried with a
// linear backoff.
type HTTPTagger struct {
	cfg     HTTPConfig
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

func NewHTTPTagger(cfg HTTPConfig) *HTTPTagger {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RatePerSec
	}
	return &HTTPTagger{
		cfg:     cfg,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: ratelimit.New(),
		log:     logger.Nop(),
	}
}

func (t *HTTPTagger) SetLogger(l *logger.Logger) {
	if l != nil {
		t.log = l
	}
}

type tagBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

type tagRequest struct {
	Bars []tagBar `json:"bars"`
}

func (t *HTTPTagger) Tag(ctx context.Context, f *models.Frame) ([]models.Trend, error) {
	if t.cfg.URL == "" {
		return nil, fmt.Errorf("trend tagger url not configured")
	}
	if err := t.limiter.Wait(ctx, t.cfg.URL, t.cfg.Burst, t.cfg.RatePerSec); err != nil {
		return nil, fmt.Errorf("trend tagger rate limit: %w", err)
	}

	req := tagRequest{Bars: make([]tagBar, 0, f.Len())}
	for _, b := range f.Bars() {
		req.Bars = append(req.Bars, tagBar{
			Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		})
	}

	var labels []string
	if err := t.postJSONWithRetry(ctx, req, &labels); err != nil {
		return nil, err
	}
	if len(labels) != f.Len() {
		return nil, fmt.Errorf("trend tagger returned %d labels for %d bars", len(labels), f.Len())
	}

	out := make([]models.Trend, len(labels))
	for i, s := range labels {
		out[i] = models.NormalizeTrend(s)
	}
	return out, nil
}

func (t *HTTPTagger) postJSONWithRetry(ctx context.Context, payload interface{}, dest interface{}) error {
	var err error
	for i := 1; i <= t.cfg.Attempts; i++ {
		err = t.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: http.MethodPost,
			URL:    t.cfg.URL,
			Headers: map[string]string{
				"Content-Type": "application/json",
			},
			Body: payload,
		}, dest)
		if err == nil {
			return nil
		}
		t.log.Warn("trend tagger request failed",
			logger.Int("attempt", i),
			logger.Error(err),
		)
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("post trend labels: %w", err)
}
