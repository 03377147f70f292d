package main

import (
	"context"
	"staybook/internal/bookings/events"
	"staybook/internal/bookings/handler"
	"staybook/internal/bookings/lock"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/service"
	"staybook/internal/bookings/validator"
	"staybook/pkg/app"
	"staybook/pkg/config"
	"staybook/pkg/contracts"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
	kafka_middleware "staybook/pkg/kafka/middleware"
	"staybook/pkg/middleware"
	"staybook/pkg/rabbitmq"
)

const (
	ServiceName = "bookings"
	EventSource = "staybook-bookings"
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	if cfg.LockBackend == config.LockBackendRedis {
		cfg.SetRedis()
	}

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)

	metrics := kafka_middleware.NewMetrics()
	publisher, kafkaCfg := initPublisher(cfg, metrics)
	serverApp.OnShutdown(publisher.Close)

	bookingService := initServices(cfg, publisher)
	if cfg.KafkaPaymentsTopic != "" {
		initPaymentConsumer(cfg, serverApp, kafkaCfg, bookingService, metrics)
	}

	bookingHandler := handler.NewBookingHandler(bookingService, cfg.Log)
	if cfg.PaymentWebhookSecret != "" {
		bookingHandler.WithStatusGuard(middleware.PaymentSignatureVerification(cfg.PaymentWebhookSecret, cfg.Log))
		cfg.Log.Info("Payment signature verification enabled on the status route")
	}

	var idempotencyStore middleware.IdempotencyStore
	if cfg.Client.Redis != nil {
		idempotencyStore = middleware.NewRedisIdempotencyStore(cfg.Client.Redis, cfg.IdempotencyTTL)
	}

	serverApp.SetApp(bookingHandler, handler.NewHealthHandler(dependencies(cfg), metrics, cfg.Log), idempotencyStore)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	roomCatalog := repository.NewMongoRoomCatalog(cfg)

	var lockStore lock.Store
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		lockStore = lock.NewRedisStore(cfg.Client.Redis)
	default:
		lockStore = repository.NewRoomLockRepository(cfg)
	}
	coordinator := lock.NewCoordinator(lockStore, lock.Options{
		WaitTimeout:    cfg.LockWaitTimeout,
		LeaseTTL:       cfg.LockLeaseTTL,
		ReleaseTimeout: cfg.LockReleaseTimeout,
	}, cfg.Log)

	bookingService := service.NewBookingService(
		bookingRepo,
		roomCatalog,
		coordinator,
		bookingValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized",
		"database", cfg.MongoDatabaseName,
		"lock_backend", cfg.LockBackend,
		"events_broker", cfg.EventsBroker,
	)
	return bookingService
}

// initPublisher returns the Kafka config as well when Kafka is in use so the
// payment consumer can share it.
func initPublisher(cfg *config.Config, metrics *kafka_middleware.Metrics) (events.Publisher, *kafka_config.Config) {
	var kafkaCfg *kafka_config.Config
	if cfg.EventsBroker == config.EventsBrokerKafka || cfg.KafkaPaymentsTopic != "" {
		var err error
		kafkaCfg, err = kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)
	}

	switch cfg.EventsBroker {
	case config.EventsBrokerKafka:
		producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaBookingsTopic, "", cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		if kafkaCfg.EnableMiddleware {
			producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		}
		producer.Use(metrics.ProducerMiddleware())
		cfg.Log.Info("Booking events published to Kafka", "topic", cfg.KafkaBookingsTopic)
		return events.NewKafkaPublisher(producer, EventSource), kafkaCfg

	case config.EventsBrokerRabbitMQ:
		cfg.Log.Info("Booking events published to RabbitMQ", "queue", cfg.RabbitMQQueue)
		return events.NewRabbitMQPublisher(rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.Log), metrics), kafkaCfg
	}

	cfg.Log.Info("Booking events disabled")
	return events.NopPublisher{}, kafkaCfg
}

func initPaymentConsumer(cfg *config.Config, serverApp *app.Application, kafkaCfg *kafka_config.Config, updater events.StatusUpdater, metrics *kafka_middleware.Metrics) {
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.KafkaPaymentsTopic,
		cfg.KafkaConsumerGroup,
		cfg.KafkaPaymentsTopic+".dlq",
		events.PaymentHandler(updater, cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create payment consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}
	consumer.Use(metrics.ConsumerMiddleware())

	serverApp.AddWorker("payments-consumer", consumer.Start)
	serverApp.OnShutdown(consumer.Close)
	cfg.Log.Info("Payment status consumer configured", "topic", cfg.KafkaPaymentsTopic, "group", cfg.KafkaConsumerGroup)
}

func dependencies(cfg *config.Config) []contracts.Dependency {
	deps := []contracts.Dependency{
		contracts.DependencyFunc{
			DependencyName: "mongo",
			PingFunc: func(ctx context.Context) error {
				return cfg.Client.Mongo.Ping(ctx, nil)
			},
		},
	}
	if cfg.Client.Redis != nil {
		deps = append(deps, contracts.DependencyFunc{
			DependencyName: "redis",
			PingFunc: func(ctx context.Context) error {
				return cfg.Client.Redis.Ping(ctx).Err()
			},
		})
	}
	return deps
}
