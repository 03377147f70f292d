package kafka_config

import (
	"fmt"
	"os"
	"staybook/pkg/logger"
	"strconv"
	"strings"
	"time"
)

// Config is shared by the booking events producer and the payment status
// consumer.
type Config struct {
	Brokers []string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 all replicas, 0 none, 1 leader
	ProducerCompression  string // none, gzip, snappy, lz4 or zstd

	ConsumerStartOffset       int64 // -1 newest, -2 oldest
	ConsumerMinBytes          int
	ConsumerMaxBytes          int
	ConsumerMaxWait           time.Duration
	ConsumerCommitInterval    time.Duration
	ConsumerHeartbeatInterval time.Duration
	ConsumerSessionTimeout    time.Duration
	ConsumerRebalanceTimeout  time.Duration
	// ConsumerMaxRetries is how many times a failing message is redelivered
	// to the handler before it goes to the dead letter topic.
	ConsumerMaxRetries int

	EnableMiddleware bool
}

func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config from getenv and validates it. Unset or unparsable
// values fall back to their defaults.
func LoadFrom(getenv func(string) string) (*Config, error) {
	e := env(getenv)

	cfg := &Config{
		Brokers: splitBrokers(e.str(EnvKafkaBrokers, DefaultBrokers)),

		ProducerMaxAttempts:  e.num(EnvProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: e.duration(EnvProducerBatchTimeout, DefaultProducerBatchTimeout),
		ProducerRequireAcks:  e.num(EnvProducerRequireAcks, DefaultProducerRequireAcks),
		ProducerCompression:  strings.ToLower(e.str(EnvProducerCompression, DefaultProducerCompression)),

		ConsumerStartOffset:       int64(e.num(EnvConsumerStartOffset, DefaultConsumerStartOffset)),
		ConsumerMinBytes:          e.num(EnvConsumerMinBytes, DefaultConsumerMinBytes),
		ConsumerMaxBytes:          e.num(EnvConsumerMaxBytes, DefaultConsumerMaxBytes),
		ConsumerMaxWait:           e.duration(EnvConsumerMaxWait, DefaultConsumerMaxWait),
		ConsumerCommitInterval:    e.duration(EnvConsumerCommitInterval, DefaultConsumerCommitInterval),
		ConsumerHeartbeatInterval: e.duration(EnvConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
		ConsumerSessionTimeout:    e.duration(EnvConsumerSessionTimeout, DefaultConsumerSessionTimeout),
		ConsumerRebalanceTimeout:  e.duration(EnvConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
		ConsumerMaxRetries:        e.num(EnvConsumerMaxRetries, DefaultConsumerMaxRetries),

		EnableMiddleware: e.flag(EnvEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var errs []string

	if len(cfg.Brokers) == 0 {
		errs = append(errs, "at least one broker is required")
	}

	counts := []struct {
		name  string
		value int
	}{
		{"ProducerMaxAttempts", cfg.ProducerMaxAttempts},
		{"ConsumerMinBytes", cfg.ConsumerMinBytes},
		{"ConsumerMaxBytes", cfg.ConsumerMaxBytes},
	}
	for _, c := range counts {
		if c.value <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %d", c.name, c.value))
		}
	}
	if cfg.ConsumerMinBytes > cfg.ConsumerMaxBytes {
		errs = append(errs, fmt.Sprintf("ConsumerMinBytes (%d) must not exceed ConsumerMaxBytes (%d)", cfg.ConsumerMinBytes, cfg.ConsumerMaxBytes))
	}
	if cfg.ConsumerMaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("ConsumerMaxRetries cannot be negative, got: %d", cfg.ConsumerMaxRetries))
	}

	intervals := []struct {
		name  string
		value time.Duration
	}{
		{"ProducerBatchTimeout", cfg.ProducerBatchTimeout},
		{"ConsumerMaxWait", cfg.ConsumerMaxWait},
		{"ConsumerCommitInterval", cfg.ConsumerCommitInterval},
		{"ConsumerHeartbeatInterval", cfg.ConsumerHeartbeatInterval},
		{"ConsumerSessionTimeout", cfg.ConsumerSessionTimeout},
		{"ConsumerRebalanceTimeout", cfg.ConsumerRebalanceTimeout},
	}
	for _, i := range intervals {
		if i.value <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", i.name, i.value))
		}
	}
	if cfg.ConsumerHeartbeatInterval >= cfg.ConsumerSessionTimeout {
		errs = append(errs, fmt.Sprintf("ConsumerHeartbeatInterval (%s) must be shorter than ConsumerSessionTimeout (%s)", cfg.ConsumerHeartbeatInterval, cfg.ConsumerSessionTimeout))
	}

	if !compressions[cfg.ProducerCompression] {
		errs = append(errs, fmt.Sprintf("ProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.ProducerCompression))
	}
	if !requireAcks[cfg.ProducerRequireAcks] {
		errs = append(errs, fmt.Sprintf("ProducerRequireAcks must be -1, 0 or 1, got: %d", cfg.ProducerRequireAcks))
	}
	if cfg.ConsumerStartOffset < -2 {
		errs = append(errs, fmt.Sprintf("ConsumerStartOffset must be -1, -2 or a non-negative offset, got: %d", cfg.ConsumerStartOffset))
	}

	if len(errs) > 0 {
		return fmt.Errorf("kafka configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"producer_max_attempts", cfg.ProducerMaxAttempts,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

type env func(string) string

func (e env) str(key, fallback string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return fallback
}

func (e env) num(key string, fallback int) int {
	if n, err := strconv.Atoi(e.str(key, "")); err == nil {
		return n
	}
	return fallback
}

func (e env) flag(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(e.str(key, "")); err == nil {
		return b
	}
	return fallback
}

func (e env) duration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key, "")); err == nil {
		return d
	}
	return fallback
}
