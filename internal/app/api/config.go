package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	accessdomain "github.com/Apurer/storefront-api/internal/domains/access/domain"
	platformkafka "github.com/Apurer/storefront-api/internal/platform/kafka"
)

const (
	defaultStatementTimeout  = 5 * time.Second
	defaultOrderCacheTTL     = 10 * time.Minute
	defaultDeliveryDelay     = time.Minute
	defaultLowStockThreshold = 5
	defaultKafkaTopic        = "storefront.sales.events"
)

// Config carries environment-driven settings for the storefront processes.
type Config struct {
	Port               string
	Environment        string
	PostgresDSN        string
	DBStatementTimeout time.Duration
	RedisAddr          string
	OrderCacheTTL      time.Duration
	KafkaBrokers       []string
	KafkaTopic         string
	TemporalAddress    string
	TemporalNamespace  string
	TemporalDisabled   bool
	JWTSecret          string
	AccessPolicy       accessdomain.Policy
	DeliveryDelay      time.Duration
	LowStockThreshold  int
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		Environment:       envDefault("ENVIRONMENT", "local"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KafkaBrokers:      platformkafka.SplitBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        envDefault("KAFKA_TOPIC", defaultKafkaTopic),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
	}

	var err error
	if cfg.DBStatementTimeout, err = durationEnv("DB_STATEMENT_TIMEOUT", defaultStatementTimeout); err != nil {
		return Config{}, err
	}
	if cfg.OrderCacheTTL, err = durationEnv("ORDER_CACHE_TTL", defaultOrderCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.DeliveryDelay, err = durationEnv("DELIVERY_DELAY", defaultDeliveryDelay); err != nil {
		return Config{}, err
	}
	cfg.LowStockThreshold = defaultLowStockThreshold
	if raw := strings.TrimSpace(os.Getenv("LOW_STOCK_THRESHOLD")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("LOW_STOCK_THRESHOLD must be a non-negative integer")
		}
		cfg.LowStockThreshold = n
	}
	if cfg.AccessPolicy, err = accessdomain.ParsePolicy(os.Getenv("ACCESS_POLICY")); err != nil {
		return Config{}, fmt.Errorf("ACCESS_POLICY: %w", err)
	}
	if cfg.JWTSecret == "" && cfg.Environment != "local" {
		return Config{}, fmt.Errorf("JWT_SECRET is required outside the local environment")
	}
	return cfg, nil
}

// KafkaEnabled reports whether sales events should be published.
func (c Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration such as 5s", key)
	}
	return d, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
