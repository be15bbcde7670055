package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	"todo-demo/pkg/logger"
)

// Backends selectable with STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config holds application configuration. Values come from defaults, then the
// optional YAML file named by CONFIG_FILE, then the environment.
type Config struct {
	HTTPPort string `yaml:"http_port"`

	StoreBackend  string `yaml:"store_backend"`
	StoreLatency  int    `yaml:"store_latency_ms"`
	StrictListRef bool   `yaml:"store_strict_list_ref"`

	DatabaseURL string `yaml:"database_url"`
	DBPoolSize  int    `yaml:"db_pool_size"`

	RedisURL      string `yaml:"redis_url"`
	RedisPoolSize int    `yaml:"redis_pool_size"`
	CacheTTL      int    `yaml:"cache_ttl_sec"`

	KafkaBrokers    []string `yaml:"kafka_brokers"`
	KafkaTopic      string   `yaml:"kafka_events_topic"`
	KafkaPartitions int      `yaml:"kafka_partitions"`

	JWTSecret string `yaml:"jwt_secret"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Theme      string `yaml:"theme"`
	DebugPanel bool   `yaml:"debug_panel"`
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once). A broken CONFIG_FILE is
// logged and ignored.
func Get() *Config {
	cfgOnce.Do(func() {
		c, err := Load()
		if err != nil {
			logger.Error(context.Background(), "Config file ignored", "error", err)
		}
		cfg = c
	})
	return cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPPort:        "8080",
		StoreBackend:    BackendMemory,
		StoreLatency:    500,
		DBPoolSize:      20,
		RedisPoolSize:   50,
		CacheTTL:        60,
		KafkaTopic:      "todo-events",
		KafkaPartitions: 4,
		LogLevel:        "info",
		LogFormat:       "json",
		Theme:           "classic",
	}
}

// Load builds a Config from defaults, CONFIG_FILE and the environment. On a file
// error the returned config still carries defaults and env values.
func Load() (*Config, error) {
	c := Default()
	var fileErr error
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fileErr = c.mergeFile(path)
	}
	c.mergeEnv()
	return c, fileErr
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() {
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.StoreLatency = getIntEnv("STORE_LATENCY_MS", c.StoreLatency)
	c.StrictListRef = getBoolEnv("STORE_STRICT_LIST_REF", c.StrictListRef)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.DBPoolSize = getIntEnv("DB_POOL_SIZE", c.DBPoolSize)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RedisPoolSize = getIntEnv("REDIS_POOL_SIZE", c.RedisPoolSize)
	c.CacheTTL = getIntEnv("CACHE_TTL_SEC", c.CacheTTL)
	c.KafkaBrokers = getSliceEnv("KAFKA_BROKERS", c.KafkaBrokers)
	c.KafkaTopic = getEnv("KAFKA_EVENTS_TOPIC", c.KafkaTopic)
	c.KafkaPartitions = getIntEnv("KAFKA_PARTITIONS", c.KafkaPartitions)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.Theme = getEnv("THEME", c.Theme)
	c.DebugPanel = getBoolEnv("DEBUG_PANEL", c.DebugPanel)
}

// Latency returns the simulated store latency.
func (c *Config) Latency() time.Duration {
	if c.StoreLatency < 0 {
		return 0
	}
	return time.Duration(c.StoreLatency) * time.Millisecond
}

// CacheTTLDuration returns the cache entry lifetime.
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getSliceEnv(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
