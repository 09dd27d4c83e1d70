package main

import (
	"flag"
	"log"
	"os"

	"CandleScope/internal/di"
	"CandleScope/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("starting env=%s cache=%s clickhouse=%t kafka=%t queue=%t",
		cfg.Environment, cfg.Cache.Backend,
		cfg.ClickHouse.Enabled, cfg.Kafka.Enabled, cfg.Queue.Enabled)

	// Everything past this point logs through the injected logger.
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("initialize: %v", err)
	}

	// Run blocks until shutdown completes.
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
