package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		Output     string `yaml:"output"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Analysis struct {
		DefaultBars      int           `yaml:"default_bars"`
		MaxBars          int           `yaml:"max_bars"`
		BroadcastRegimes bool          `yaml:"broadcast_regimes"`
		DojiThreshold    float64       `yaml:"doji_threshold"`
		VolHighRatio     float64       `yaml:"vol_high_ratio"`
		VolLowRatio      float64       `yaml:"vol_low_ratio"`
		CacheTTL         time.Duration `yaml:"cache_ttl"`
	} `yaml:"analysis"`
	Trend struct {
		Source     string        `yaml:"source"`
		FastSpan   int           `yaml:"fast_span"`
		SlowSpan   int           `yaml:"slow_span"`
		Band       float64       `yaml:"band"`
		URL        string        `yaml:"url"`
		Timeout    time.Duration `yaml:"timeout"`
		Attempts   int           `yaml:"attempts"`
		RatePerSec float64       `yaml:"rate_per_sec"`
		Burst      float64       `yaml:"burst"`
	} `yaml:"trend"`
	Ingest struct {
		MaxRows int `yaml:"max_rows"`
	} `yaml:"ingest"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Cache struct {
		Enabled  bool          `yaml:"enabled"`
		Backend  string        `yaml:"backend"` // memory, redis or layered
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix"`
		MaxSize  int           `yaml:"max_size"` // memory/layered L1 entries
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchSize    int           `yaml:"batch_size"`
			BatchBytes   int           `yaml:"batch_bytes"`
			Linger       time.Duration `yaml:"linger"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Workers    int           `yaml:"workers"`
		QueueSize  int           `yaml:"queue_size"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
}

// Load parses the YAML file at path and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithEnv is Load plus CANDLESCOPE_* environment overrides for the
// settings that differ per deployment. An env value wins over the file.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CANDLESCOPE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CANDLESCOPE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CANDLESCOPE_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("CANDLESCOPE_CLICKHOUSE_HOST"); v != "" {
		cfg.ClickHouse.Host = v
	}
	if v := os.Getenv("CANDLESCOPE_CLICKHOUSE_PASSWORD"); v != "" {
		cfg.ClickHouse.Password = v
	}
	if v := os.Getenv("CANDLESCOPE_REDIS_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("CANDLESCOPE_TREND_URL"); v != "" {
		cfg.Trend.URL = v
	}

	return cfg, nil
}

// Validate rejects configurations the app could not start cleanly with.
// Messages name the offending key.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Trend.Source {
	case "", "auto", "column", "local", "http":
	default:
		return fmt.Errorf("trend.source must be 'auto', 'column', 'local' or 'http', got '%s'", c.Trend.Source)
	}
	if c.Trend.Source == "http" && c.Trend.URL == "" {
		return fmt.Errorf("trend.url is required when trend.source is 'http'")
	}
	if c.Analysis.MaxBars > 0 && c.Analysis.DefaultBars > c.Analysis.MaxBars {
		return fmt.Errorf("analysis.default_bars cannot exceed analysis.max_bars")
	}
	if c.ClickHouse.Enabled {
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
		}
		if c.ClickHouse.Database == "" {
			return fmt.Errorf("clickhouse.database is required when clickhouse is enabled")
		}
	}
	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "", "memory", "redis", "layered":
		default:
			return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
		}
		if c.Cache.Backend != "memory" && c.Cache.Addr == "" {
			return fmt.Errorf("cache.addr is required unless cache.backend is 'memory'")
		}
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	if c.Queue.Enabled && (!c.Cache.Enabled || c.Cache.Backend == "memory") {
		return fmt.Errorf("queue requires a redis-backed cache")
	}
	return nil
}
