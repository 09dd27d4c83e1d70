package trend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"CandleScope/internal/domain/models"
)

func TestHTTPTaggerLabelsBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tagRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		labels := make([]string, len(req.Bars))
		for i := range labels {
			labels[i] = "bullish" // free-form alias, must normalize to uptrend
		}
		json.NewEncoder(w).Encode(labels)
	}))
	defer srv.Close()

	tagger := NewHTTPTagger(HTTPConfig{URL: srv.URL})
	f := models.NewFrame(barsFromCloses([]float64{1, 2, 3}))
	got, err := tagger.Tag(context.Background(), f)
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d labels want 3", len(got))
	}
	for i, tr := range got {
		if tr != models.TrendUp {
			t.Fatalf("row %d: got %s want uptrend", i, tr)
		}
	}
}

func TestHTTPTaggerLengthMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]string{"uptrend"})
	}))
	defer srv.Close()

	tagger := NewHTTPTagger(HTTPConfig{URL: srv.URL})
	f := models.NewFrame(barsFromCloses([]float64{1, 2, 3}))
	if _, err := tagger.Tag(context.Background(), f); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestHTTPTaggerRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]string{"downtrend", "downtrend"})
	}))
	defer srv.Close()

	tagger := NewHTTPTagger(HTTPConfig{URL: srv.URL, Attempts: 3})
	f := models.NewFrame(barsFromCloses([]float64{5, 4}))
	got, err := tagger.Tag(context.Background(), f)
	if err != nil {
		t.Fatalf("tag after retry: %v", err)
	}
	if got[0] != models.TrendDown {
		t.Fatalf("got %s want downtrend", got[0])
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestHTTPTaggerRequiresURL(t *testing.T) {
	tagger := NewHTTPTagger(HTTPConfig{})
	f := models.NewFrame(barsFromCloses([]float64{1}))
	if _, err := tagger.Tag(context.Background(), f); err == nil {
		t.Fatal("expected configuration error")
	}
}
