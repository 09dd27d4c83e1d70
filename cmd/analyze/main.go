package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"CandleScope/internal/di"
	domrepo "CandleScope/internal/domain/repository"
	"CandleScope/internal/ingest"
	"CandleScope/internal/report"
	"CandleScope/internal/services/analog"
	"CandleScope/internal/services/features"
	"CandleScope/internal/services/patterns"
	"CandleScope/internal/services/regime"
	"CandleScope/internal/services/trend"
	"CandleScope/internal/usecase"
	"CandleScope/pkg/config"
)

// analyze runs the full pipeline once over a CSV file, without the server or
// the DI container.
func main() {
	var (
		filePath   = flag.String("file", "", "CSV file with OHLCV bars (required)")
		symbol     = flag.String("symbol", "UNKNOWN", "instrument symbol")
		tfFlag     = flag.String("tf", "", "timeframe override, detected from timestamps when empty")
		trendFlag  = flag.String("trend", "", "trend source: auto, column or local")
		reportPath = flag.String("report", "", "write a Markdown report to this path")
		jsonOut    = flag.Bool("json", false, "print the summary as JSON")
		store      = flag.Bool("store", false, "persist bars and summary to ClickHouse")
		configPath = flag.String("config", "config/config.yaml", "config file path, read with -store")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		flag.Usage()
		os.Exit(2)
	}

	var source trend.Source
	if *trendFlag != "" {
		var err error
		source, err = trend.ParseSource(*trendFlag)
		if err != nil {
			log.Fatalf("trend source: %v", err)
		}
	}

	loader := ingest.NewLoader()
	res, err := loader.LoadFile(*filePath)
	if err != nil {
		log.Fatalf("load csv: %v", err)
	}
	if res.Skipped > 0 {
		log.Printf("skipped %d malformed rows", res.Skipped)
	}

	tf := res.Timeframe
	if *tfFlag != "" {
		tf = domrepo.NormalizeTimeframe(*tfFlag)
	}
	if tf == domrepo.TFUnknown {
		tf = domrepo.DefaultTimeframe()
	}

	resolver := trend.NewResolver(trend.SourceAuto, trend.NewLocalTagger(), nil)
	analyzer := usecase.NewAnalyzer(
		features.NewEngine(),
		patterns.NewDetector(),
		regime.NewClassifier(),
		analog.NewModel(),
		resolver,
		loader,
	)

	ctx := context.Background()

	if *store {
		cfg, err := config.LoadWithEnv(*configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		chClient, err := di.ProvideClickHouseClient(cfg)
		if err != nil {
			log.Fatalf("clickhouse: %v", err)
		}
		if chClient == nil {
			log.Fatal("-store requires clickhouse enabled in config")
		}
		defer chClient.Close()

		l, err := di.ProvideLogger(cfg)
		if err != nil {
			log.Fatalf("logger: %v", err)
		}
		bars := di.ProvideBarStore(chClient, cfg, l)
		summaries := di.ProvideSummaryStore(chClient, cfg, l)
		if err := bars.Init(ctx); err != nil {
			log.Fatalf("init bar store: %v", err)
		}
		if err := summaries.Init(ctx); err != nil {
			log.Fatalf("init summary store: %v", err)
		}
		if err := bars.StoreBars(ctx, *symbol, tf, res.Bars, res.Trends); err != nil {
			log.Fatalf("store bars: %v", err)
		}
		analyzer.WithStorage(bars, summaries, nil)
	}

	an, err := analyzer.Analyze(ctx, *symbol, tf, res.Bars, res.Trends, source)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	if *reportPath != "" {
		md := report.NewBuilder().Markdown(an)
		if err := os.WriteFile(*reportPath, []byte(md), 0o644); err != nil {
			log.Fatalf("write report: %v", err)
		}
		fmt.Printf("Report saved as: %s\n", *reportPath)
	}

	if *jsonOut {
		out, err := json.MarshalIndent(an.Summary, "", "  ")
		if err != nil {
			log.Fatalf("marshal summary: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("Next Bullish Candle Probability: %g%%\n", an.Summary.ProbabilityNextBullish)
}
