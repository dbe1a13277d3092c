// Package config reads the process configuration from the environment, optionally seeded
// from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/currency"
)

const (
	ServiceName    = "orderledger"
	ServiceVersion = "0.1.0"
)

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	DB DBConfig

	KafkaBrokers      []string
	OrderCreatedTopic string
	OrderUpdatedTopic string

	ElasticsearchNode string
	SearchIndex       string
	SearchMaxResults  int

	// RedisURL empty disables the product cache
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	ProductCacheTTL time.Duration

	Currency           currency.Unit
	PropagationTimeout time.Duration

	LogLevel zapcore.Level
	// OtelEndpoint empty keeps the no-op telemetry providers
	OtelEndpoint   string
	OtelAuthHeader string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

// DSN renders the pgx connection URL.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.Name,
	}

	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if c.MaxConns > 0 {
		q.Set("pool_max_conns", strconv.Itoa(c.MaxConns))
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Load reads envFiles (".env" when none given) into the environment without overriding
// variables already set, then parses the configuration. Missing files are skipped.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("godotenv.Load[%s]: %w", file, err)
		}
	}

	p := &parser{}

	cfg := Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":3000"),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "orders"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: p.int("DB_MAX_CONNS", 10),
		},
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		OrderCreatedTopic:  getEnv("ORDER_CREATED_TOPIC", "order_created"),
		OrderUpdatedTopic:  getEnv("ORDER_UPDATED_TOPIC", "order_updated"),
		ElasticsearchNode:  getEnv("ELASTICSEARCH_NODE", "http://localhost:9200"),
		SearchIndex:        getEnv("SEARCH_INDEX", "orders"),
		SearchMaxResults:   p.int("SEARCH_MAX_RESULTS", 100),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            p.int("REDIS_DB", 0),
		ProductCacheTTL:    p.duration("PRODUCT_CACHE_TTL", 5*time.Minute),
		Currency:           p.currency("CURRENCY", currency.USD),
		PropagationTimeout: p.duration("PROPAGATION_TIMEOUT", 5*time.Second),
		LogLevel:           p.level("LOG_LEVEL", zapcore.InfoLevel),
		OtelEndpoint:       getEnv("OTEL_ENDPOINT", ""),
		OtelAuthHeader:     getEnv("OTEL_AUTH_HEADER", ""),
	}

	if len(cfg.KafkaBrokers) == 0 {
		p.fail("KAFKA_BROKERS", errors.New("no brokers"))
	}

	if cfg.SearchMaxResults <= 0 {
		p.fail("SEARCH_MAX_RESULTS", fmt.Errorf("must be positive, got %d", cfg.SearchMaxResults))
	}

	if p.err != nil {
		return Config{}, p.err
	}

	return cfg, nil
}

// parser collects every invalid variable instead of stopping at the first one.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	p.err = errors.Join(p.err, fmt.Errorf("%s: %w", key, err))
}

func (p *parser) int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, err)
		return defaultValue
	}

	return n
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, err)
		return defaultValue
	}

	return d
}

func (p *parser) currency(key string, defaultValue currency.Unit) currency.Unit {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	unit, err := currency.ParseISO(value)
	if err != nil {
		p.fail(key, err)
		return defaultValue
	}

	return unit
}

func (p *parser) level(key string, defaultValue zapcore.Level) zapcore.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	level, err := zapcore.ParseLevel(value)
	if err != nil {
		p.fail(key, err)
		return defaultValue
	}

	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
