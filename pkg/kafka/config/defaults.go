package kafka_config

import "time"

const (
	DefaultBrokers = "localhost:9092"

	// Booking events are low volume but must not be lost, so every replica acks.
	DefaultProducerMaxAttempts  = 5
	DefaultProducerBatchTimeout = 5 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"

	// Payment confirmations are replayed from the oldest offset for a new group.
	DefaultConsumerStartOffset       = -2
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 1 << 20
	DefaultConsumerMaxWait           = 250 * time.Millisecond
	DefaultConsumerCommitInterval    = time.Second
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 15 * time.Second
	DefaultConsumerRebalanceTimeout  = 30 * time.Second
	DefaultConsumerMaxRetries        = 3

	DefaultEnableMiddleware = true
)

var (
	compressions = map[string]bool{"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true}
	requireAcks  = map[int]bool{-1: true, 0: true, 1: true}
)
