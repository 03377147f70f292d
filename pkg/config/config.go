package config

import (
	"fmt"
	"os"
	"regexp"
	"staybook/pkg/client"
	"staybook/pkg/logger"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port     string
	LogLevel string

	PaymentWebhookSecret string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	LockBackend        string
	LockWaitTimeout    time.Duration
	LockLeaseTTL       time.Duration
	LockReleaseTimeout time.Duration

	AvailabilityWorkers int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EventsBroker       string
	KafkaBookingsTopic string
	KafkaPaymentsTopic string
	KafkaConsumerGroup string
	RabbitMQURL        string
	RabbitMQQueue      string

	Log    *logger.Logger
	Client *client.Client
}

var (
	mongoURIRegex   = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex = regexp.MustCompile(`((?:mongodb(?:\+srv)?|amqps?)://)[^:@/]+:[^@]+@`)
)

// Load reads an optional .env file, then the process environment. Values
// already present in the environment win over the file.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from environment variables without validating it
// or creating clients.
func FromEnv() *Config {
	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: getEnvStr(EnvLogLevel, DefaultLogLevel),

		PaymentWebhookSecret: getEnvStr(EnvPaymentWebhookSecret, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		LockBackend:        strings.ToLower(getEnvStr(EnvLockBackend, DefaultLockBackend)),
		LockWaitTimeout:    getEnvDuration(EnvLockWaitTimeout, DefaultLockWaitTimeout),
		LockLeaseTTL:       getEnvDuration(EnvLockLeaseTTL, DefaultLockLeaseTTL),
		LockReleaseTimeout: getEnvDuration(EnvLockReleaseTimeout, DefaultLockReleaseTimeout),

		AvailabilityWorkers: getEnvNum(EnvAvailabilityWorkers, DefaultAvailabilityWorkers),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, 0),

		EventsBroker:       strings.ToLower(getEnvStr(EnvEventsBroker, DefaultEventsBroker)),
		KafkaBookingsTopic: getEnvStr(EnvKafkaBookingsTopic, DefaultKafkaBookingsTopic),
		KafkaPaymentsTopic: getEnvStr(EnvKafkaPaymentsTopic, ""),
		KafkaConsumerGroup: getEnvStr(EnvKafkaConsumerGroup, DefaultKafkaConsumerGroup),
		RabbitMQURL:        getEnvStr(EnvRabbitMQURL, DefaultRabbitMQURL),
		RabbitMQQueue:      getEnvStr(EnvRabbitMQQueue, DefaultRabbitMQQueue),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"LockWaitTimeout", cfg.LockWaitTimeout},
		{"LockLeaseTTL", cfg.LockLeaseTTL},
		{"LockReleaseTimeout", cfg.LockReleaseTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.AvailabilityWorkers <= 0 {
		errors = append(errors, fmt.Sprintf("AvailabilityWorkers must be positive, got: %d", cfg.AvailabilityWorkers))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	// A lease has to outlive the request holding it, or a waiter can reclaim
	// the room while the holder's insert is still in flight.
	if minLease := cfg.ReadTimeout + cfg.WriteTimeout + LockLeaseMargin; cfg.LockLeaseTTL > 0 && cfg.LockLeaseTTL < minLease {
		errors = append(errors, fmt.Sprintf("LockLeaseTTL (%s) must be >= ReadTimeout + WriteTimeout + %s (%s)", cfg.LockLeaseTTL, LockLeaseMargin, minLease))
	}
	if cfg.LockLeaseTTL > 0 && cfg.LockLeaseTTL < cfg.LockWaitTimeout {
		errors = append(errors, fmt.Sprintf("LockLeaseTTL (%s) must be >= LockWaitTimeout (%s)", cfg.LockLeaseTTL, cfg.LockWaitTimeout))
	}

	switch cfg.LockBackend {
	case LockBackendMongo:
	case LockBackendRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr cannot be empty when LockBackend is redis")
		}
	default:
		errors = append(errors, fmt.Sprintf("LockBackend must be one of [mongo, redis], got: %s", cfg.LockBackend))
	}

	switch cfg.EventsBroker {
	case EventsBrokerNone:
	case EventsBrokerKafka:
		if cfg.KafkaBookingsTopic == "" {
			errors = append(errors, "KafkaBookingsTopic cannot be empty when EventsBroker is kafka")
		}
	case EventsBrokerRabbitMQ:
		if cfg.RabbitMQURL == "" || cfg.RabbitMQQueue == "" {
			errors = append(errors, "RabbitMQURL and RabbitMQQueue are required when EventsBroker is rabbitmq")
		}
	default:
		errors = append(errors, fmt.Sprintf("EventsBroker must be one of [none, kafka, rabbitmq], got: %s", cfg.EventsBroker))
	}

	if cfg.KafkaPaymentsTopic != "" && cfg.KafkaConsumerGroup == "" {
		errors = append(errors, "KafkaConsumerGroup cannot be empty when KafkaPaymentsTopic is set")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"payment_webhook_secret_set", cfg.PaymentWebhookSecret != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"lock_backend", cfg.LockBackend,
		"lock_wait_timeout", cfg.LockWaitTimeout,
		"lock_lease_ttl", cfg.LockLeaseTTL,
		"lock_release_timeout", cfg.LockReleaseTimeout,
		"availability_workers", cfg.AvailabilityWorkers,
		"redis_addr", cfg.RedisAddr,
		"events_broker", cfg.EventsBroker,
		"kafka_bookings_topic", cfg.KafkaBookingsTopic,
		"kafka_payments_topic", cfg.KafkaPaymentsTopic,
		"rabbitmq_url", redactURI(cfg.RabbitMQURL),
		"rabbitmq_queue", cfg.RabbitMQQueue,
	)
}

func redactURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
