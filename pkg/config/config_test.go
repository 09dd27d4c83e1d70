package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `environment: test

server:
  host: 127.0.0.1
  port: 8085
  read_timeout: 5s
  write_timeout: 10s
  shutdown_timeout: 15s

log:
  level: debug
  format: json
  output: stdout

analysis:
  default_bars: 500
  max_bars: 5000
  doji_threshold: 0.1
  vol_high_ratio: 1.5
  vol_low_ratio: 0.5
  cache_ttl: 10m

trend:
  source: local
  fast_span: 20
  slow_span: 50
  band: 0.0025

clickhouse:
  enabled: true
  host: localhost
  port: 9000
  database: candlescope
  user: default
  dial_timeout: 5s

cache:
  enabled: true
  backend: redis
  addr: localhost:6379
  prefix: candlescope
  ttl: 10m

kafka:
  enabled: true
  brokers:
    - localhost:9092
  topic: candlescope.summaries
  producer:
    linger: 100ms

queue:
  enabled: true
  workers: 4
  queue_size: 100
  retry_limit: 3
  retry_delay: 5s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Environment != "test" {
		t.Fatalf("environment %q", c.Environment)
	}
	if c.Server.Port != 8085 || c.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("server %+v", c.Server)
	}
	if c.Analysis.DefaultBars != 500 || c.Analysis.CacheTTL != 10*time.Minute {
		t.Fatalf("analysis %+v", c.Analysis)
	}
	if c.Trend.Source != "local" || c.Trend.SlowSpan != 50 {
		t.Fatalf("trend %+v", c.Trend)
	}
	if !c.ClickHouse.Enabled || c.ClickHouse.Database != "candlescope" {
		t.Fatalf("clickhouse %+v", c.ClickHouse)
	}
	if c.Cache.Backend != "redis" || c.Cache.Addr != "localhost:6379" {
		t.Fatalf("cache %+v", c.Cache)
	}
	if len(c.Kafka.Brokers) != 1 || c.Kafka.Producer.Linger != 100*time.Millisecond {
		t.Fatalf("kafka %+v", c.Kafka)
	}
	if c.Queue.Workers != 4 || c.Queue.RetryDelay != 5*time.Second {
		t.Fatalf("queue %+v", c.Queue)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "environment: [oops")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("CANDLESCOPE_LOG_LEVEL", "warn")
	t.Setenv("CANDLESCOPE_KAFKA_BROKERS", "b1:9092,b2:9092")
	t.Setenv("CANDLESCOPE_KAFKA_TOPIC", "override.topic")
	t.Setenv("CANDLESCOPE_CLICKHOUSE_HOST", "ch.internal")
	t.Setenv("CANDLESCOPE_CLICKHOUSE_PASSWORD", "hunter2")
	t.Setenv("CANDLESCOPE_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("CANDLESCOPE_TREND_URL", "http://tags.internal/v1")

	c, err := LoadWithEnv(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Log.Level != "warn" {
		t.Fatalf("log level %q", c.Log.Level)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "b2:9092" {
		t.Fatalf("brokers %v", c.Kafka.Brokers)
	}
	if c.Kafka.Topic != "override.topic" {
		t.Fatalf("topic %q", c.Kafka.Topic)
	}
	if c.ClickHouse.Host != "ch.internal" || c.ClickHouse.Password != "hunter2" {
		t.Fatalf("clickhouse %+v", c.ClickHouse)
	}
	if c.Cache.Addr != "redis.internal:6379" {
		t.Fatalf("cache addr %q", c.Cache.Addr)
	}
	if c.Trend.URL != "http://tags.internal/v1" {
		t.Fatalf("trend url %q", c.Trend.URL)
	}
}

func validConfig() Config {
	var c Config
	c.Environment = "test"
	c.Analysis.DefaultBars = 500
	c.Analysis.MaxBars = 5000
	c.Cache.Enabled = true
	c.Cache.Backend = "redis"
	c.Cache.Addr = "localhost:6379"
	return c
}

func TestValidate(t *testing.T) {
	base := validConfig()
	if err := base.Validate(); err != nil {
		t.Fatalf("base config must validate: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing environment", func(c *Config) { c.Environment = "" }, "environment is required"},
		{"bad trend source", func(c *Config) { c.Trend.Source = "astrology" }, "trend.source"},
		{"http source without url", func(c *Config) { c.Trend.Source = "http" }, "trend.url is required"},
		{"default bars above max", func(c *Config) { c.Analysis.DefaultBars = 6000 }, "cannot exceed"},
		{"clickhouse without host", func(c *Config) { c.ClickHouse.Enabled = true; c.ClickHouse.Database = "d" }, "clickhouse.host"},
		{"clickhouse without database", func(c *Config) { c.ClickHouse.Enabled = true; c.ClickHouse.Host = "h" }, "clickhouse.database"},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"remote cache without addr", func(c *Config) { c.Cache.Addr = "" }, "cache.addr"},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Topic = "t" }, "kafka.brokers"},
		{"kafka without topic", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = []string{"b"} }, "kafka.topic"},
		{"queue without cache", func(c *Config) { c.Queue.Enabled = true; c.Cache.Enabled = false }, "queue requires"},
		{"queue with memory cache", func(c *Config) { c.Queue.Enabled = true; c.Cache.Backend = "memory" }, "queue requires"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
