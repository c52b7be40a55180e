package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/narayanprabad/InvestWise/pkg/logger"
)

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendNone       = "none"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development"`
	Log         logger.Config `yaml:"log"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		RateLimit       struct {
			RPS   float64 `yaml:"rps" default:"10"`
			Burst int     `yaml:"burst" default:"20"`
		} `yaml:"rate_limit"`
		ResponseCacheTTL time.Duration `yaml:"response_cache_ttl" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Market struct {
		BenchmarkSymbol  string `yaml:"benchmark_symbol" default:"SPY"`
		VolatilitySymbol string `yaml:"volatility_symbol" default:"^VIX"`
		HorizonDays      int    `yaml:"horizon_days" default:"30"`
		Lookback         string `yaml:"lookback" default:"3mo"`
		// Used when neither the volatility quote nor the realized-volatility proxy is available.
		NeutralVolatility float64 `yaml:"neutral_volatility" default:"20"`
		ProxyWindow       int     `yaml:"proxy_window" default:"21"`
	} `yaml:"market"`
	MarketData struct {
		BaseURL        string        `yaml:"base_url" default:"http://localhost:9090"`
		APIKey         string        `yaml:"api_key"`
		Timeout        time.Duration `yaml:"timeout" default:"5s"`
		RetryBudget    time.Duration `yaml:"retry_budget" default:"4s"`
		RequestsPerSec float64       `yaml:"requests_per_sec" default:"5"`
		Burst          int           `yaml:"burst" default:"5"`
		QuoteCacheTTL  time.Duration `yaml:"quote_cache_ttl" default:"30s"`
	} `yaml:"market_data"`
	Analytics struct {
		ModelServiceURL string        `yaml:"model_service_url"`
		Timeout         time.Duration `yaml:"timeout" default:"3s"`
		RetryAttempts   int           `yaml:"retry_attempts" default:"2"`
		HeadlineCount   int           `yaml:"headline_count" default:"20"`
		TrendMove       float64       `yaml:"trend_move_threshold" default:"0.005"`
		Breaker         BreakerConfig `yaml:"breaker"`
	} `yaml:"analytics"`
	Classifier struct {
		VolatilityBullish   float64 `yaml:"volatility_bullish" default:"15"`
		VolatilityBearish   float64 `yaml:"volatility_bearish" default:"25"`
		TrendConfidence     float64 `yaml:"trend_confidence" default:"0.4"`
		SentimentScore      float64 `yaml:"sentiment_score" default:"1.5"`
		SentimentConfidence float64 `yaml:"sentiment_confidence" default:"0.4"`
		RecentChange        float64 `yaml:"recent_change" default:"1"`
		Weights             struct {
			Volatility   float64 `yaml:"volatility" default:"1.0"`
			Trend        float64 `yaml:"trend" default:"1.5"`
			Sentiment    float64 `yaml:"sentiment" default:"1.0"`
			RecentChange float64 `yaml:"recent_change" default:"1.2"`
		} `yaml:"weights"`
	} `yaml:"classifier"`
	Cache struct {
		Type          string `yaml:"type" default:"memory"` // memory, redis or layered
		MemoryMaxSize int    `yaml:"memory_max_size" default:"10000"`
		Prefix        string `yaml:"prefix" default:"investwise"`
		// How often the in-process cache drops expired entries.
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
	} `yaml:"cache"`
	Redis struct {
		Addr         string        `yaml:"addr" default:"localhost:6379"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		PoolSize     int           `yaml:"pool_size" default:"10"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
		PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
	} `yaml:"redis"`
	Backend struct {
		Type         string        `yaml:"type" default:"none"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"2s"`
		// Minimum gap between two recorded snapshots of the same symbol.
		Throttle time.Duration `yaml:"throttle" default:"30s"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"investwise.conditions"`
		LogTopic     string   `yaml:"log_topic" default:"investwise.logs"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"20ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"investwise-snapshots"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"investwise"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"condition_snapshots"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
		MaxOpenConns     int           `yaml:"max_open_conns" default:"10"`
		MaxIdleConns     int           `yaml:"max_idle_conns" default:"5"`
	} `yaml:"clickhouse"`
	Watcher struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval" default:"1m"`
		Symbols  []string      `yaml:"symbols"`
	} `yaml:"watcher"`
	LogCollector struct {
		Enabled       bool          `yaml:"enabled"`
		FlushInterval time.Duration `yaml:"flush_interval" default:"30s"`
		MaxEntries    int           `yaml:"max_entries" default:"100"`
	} `yaml:"log_collector"`
}

// BreakerConfig configures the circuit breakers around upstream sources.
type BreakerConfig struct {
	MaxRequests         uint32        `yaml:"max_requests" default:"1"`
	Interval            time.Duration `yaml:"interval" default:"60s"`
	Timeout             time.Duration `yaml:"timeout" default:"30s"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures" default:"5"`
}

// Default returns a config with every default tag applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML, overlays a .env file when present and applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	var c *Config
	if _, err := os.Stat(path); err == nil {
		if c, err = Load(path); err != nil {
			return nil, err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		c = Default()
	} else {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("MARKETDATA_BASE_URL"); v != "" {
		c.MarketData.BaseURL = v
	}
	if v := os.Getenv("MARKETDATA_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Analytics.ModelServiceURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("SNAPSHOT_BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("WATCH_SYMBOLS"); v != "" {
		c.Watcher.Symbols = strings.Split(v, ",")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Backend.Type {
	case BackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when backend.type is kafka")
		}
	case BackendClickHouse, BackendNone:
	default:
		return fmt.Errorf("backend.type must be 'kafka', 'clickhouse' or 'none', got '%s'", c.Backend.Type)
	}
	switch c.Cache.Type {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.type must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Type)
	}
	if strings.TrimSpace(c.Market.BenchmarkSymbol) == "" {
		return fmt.Errorf("market.benchmark_symbol is required")
	}
	if strings.TrimSpace(c.Market.VolatilitySymbol) == "" {
		return fmt.Errorf("market.volatility_symbol is required")
	}
	if c.Market.HorizonDays < 1 || c.Market.HorizonDays > 365 {
		return fmt.Errorf("market.horizon_days must be within 1..365, got %d", c.Market.HorizonDays)
	}
	if c.Classifier.VolatilityBullish >= c.Classifier.VolatilityBearish {
		return fmt.Errorf("classifier.volatility_bullish (%v) must be below volatility_bearish (%v)",
			c.Classifier.VolatilityBullish, c.Classifier.VolatilityBearish)
	}
	if c.MarketData.BaseURL == "" {
		return fmt.Errorf("market_data.base_url is required")
	}
	if c.Watcher.Enabled && c.Watcher.Interval <= 0 {
		return fmt.Errorf("watcher.interval must be positive")
	}
	return nil
}
