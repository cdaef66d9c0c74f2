package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	HTTPPort    string

	CoinGeckoBaseURL string
	NewsAPIBaseURL   string
	NewsAPIKey       string
	HTTPTimeoutSecs  int

	IngestIntervalMins       int
	IngestLockTTLSecs        int
	IngestTriggerTimeoutSecs int

	NewsThresholdHighPct float64
	NewsStalenessHours   int
	GlobalNewsBurst      int
	GlobalNewsCatchup    int
	CryptoNewsBurst      int
	CryptoNewsCatchup    int
	NewsMaxAttempts      int
	NewsMaxPageSize      int
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		NewsAPIKey:  os.Getenv("NEWS_API_KEY"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, run lock limited to this process")
	}
	if cfg.NewsAPIKey == "" {
		log.Println("Warning: NEWS_API_KEY not set, news requests will be rejected upstream")
	}

	cfg.HTTPPort = strings.TrimSpace(os.Getenv("HTTP_PORT"))
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}

	cfg.CoinGeckoBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("COINGECKO_BASE_URL")), "/")
	if cfg.CoinGeckoBaseURL == "" {
		cfg.CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	}

	cfg.NewsAPIBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("NEWS_API_BASE_URL")), "/")
	if cfg.NewsAPIBaseURL == "" {
		cfg.NewsAPIBaseURL = "https://newsapi.org/v2"
	}

	cfg.HTTPTimeoutSecs = 20
	if v := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeoutSecs = n
		}
	}

	cfg.IngestIntervalMins = 180
	if v := strings.TrimSpace(os.Getenv("INGEST_INTERVAL_MINS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.IngestIntervalMins = n
		}
	}

	cfg.IngestLockTTLSecs = 600
	if v := strings.TrimSpace(os.Getenv("INGEST_LOCK_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.IngestLockTTLSecs = n
		}
	}

	cfg.IngestTriggerTimeoutSecs = 300
	if v := strings.TrimSpace(os.Getenv("INGEST_TRIGGER_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.IngestTriggerTimeoutSecs = n
		}
	}

	cfg.NewsThresholdHighPct = 5
	if v := strings.TrimSpace(os.Getenv("NEWS_THRESHOLD_HIGH_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.NewsThresholdHighPct = n
		}
	}

	cfg.NewsStalenessHours = 48
	if v := strings.TrimSpace(os.Getenv("NEWS_STALENESS_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NewsStalenessHours = n
		}
	}

	cfg.GlobalNewsBurst = 3
	if v := strings.TrimSpace(os.Getenv("GLOBAL_NEWS_BURST")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.GlobalNewsBurst = n
		}
	}

	cfg.GlobalNewsCatchup = 1
	if v := strings.TrimSpace(os.Getenv("GLOBAL_NEWS_CATCHUP")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.GlobalNewsCatchup = n
		}
	}

	cfg.CryptoNewsBurst = 5
	if v := strings.TrimSpace(os.Getenv("CRYPTO_NEWS_BURST")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CryptoNewsBurst = n
		}
	}

	cfg.CryptoNewsCatchup = 2
	if v := strings.TrimSpace(os.Getenv("CRYPTO_NEWS_CATCHUP")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CryptoNewsCatchup = n
		}
	}

	cfg.NewsMaxAttempts = 6
	if v := strings.TrimSpace(os.Getenv("NEWS_MAX_ATTEMPTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NewsMaxAttempts = n
		}
	}

	cfg.NewsMaxPageSize = 100
	if v := strings.TrimSpace(os.Getenv("NEWS_MAX_PAGE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			cfg.NewsMaxPageSize = n
		}
	}

	return cfg
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSecs) * time.Second
}

func (c *Config) IngestInterval() time.Duration {
	return time.Duration(c.IngestIntervalMins) * time.Minute
}

func (c *Config) IngestLockTTL() time.Duration {
	return time.Duration(c.IngestLockTTLSecs) * time.Second
}

func (c *Config) IngestTriggerTimeout() time.Duration {
	return time.Duration(c.IngestTriggerTimeoutSecs) * time.Second
}

func (c *Config) NewsStaleness() time.Duration {
	return time.Duration(c.NewsStalenessHours) * time.Hour
}
