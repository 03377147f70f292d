package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvPaymentWebhookSecret = "PAYMENT_WEBHOOK_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvLockBackend        = "LOCK_BACKEND"
	EnvLockWaitTimeout    = "LOCK_WAIT_TIMEOUT"
	EnvLockLeaseTTL       = "LOCK_LEASE_TTL"
	EnvLockReleaseTimeout = "LOCK_RELEASE_TIMEOUT"

	EnvAvailabilityWorkers = "AVAILABILITY_WORKERS"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvEventsBroker       = "EVENTS_BROKER"
	EnvKafkaBookingsTopic = "KAFKA_BOOKINGS_TOPIC"
	EnvKafkaPaymentsTopic = "KAFKA_PAYMENTS_TOPIC"
	EnvKafkaConsumerGroup = "KAFKA_CONSUMER_GROUP"
	EnvRabbitMQURL        = "RABBITMQ_URL"
	EnvRabbitMQQueue      = "RABBITMQ_QUEUE"
)
