package kafka_config

import (
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	if err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != DefaultBrokers {
		t.Errorf("unexpected brokers %v", cfg.Brokers)
	}
	if cfg.ProducerRequireAcks != -1 || cfg.ConsumerStartOffset != -2 {
		t.Errorf("unexpected acks/offset %d/%d", cfg.ProducerRequireAcks, cfg.ConsumerStartOffset)
	}
	if !cfg.EnableMiddleware {
		t.Error("middleware should default to enabled")
	}
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		EnvKafkaBrokers:           " k1:9092, ,k2:9092 ",
		EnvProducerCompression:    "ZSTD",
		EnvConsumerMaxRetries:     "0",
		EnvConsumerMaxWait:        "1s",
		EnvEnableMiddleware:       "false",
		EnvProducerMaxAttempts:    "not-a-number",
		EnvConsumerSessionTimeout: "20s",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(cfg.Brokers, "|") != "k1:9092|k2:9092" {
		t.Errorf("brokers not trimmed: %v", cfg.Brokers)
	}
	if cfg.ProducerCompression != "zstd" {
		t.Errorf("compression = %q", cfg.ProducerCompression)
	}
	if cfg.ConsumerMaxRetries != 0 || cfg.ConsumerMaxWait != time.Second || cfg.EnableMiddleware {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.ProducerMaxAttempts != DefaultProducerMaxAttempts {
		t.Errorf("unparsable value should fall back, got %d", cfg.ProducerMaxAttempts)
	}
}

func TestLoadFromRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"blank brokers", map[string]string{EnvKafkaBrokers: " , "}, "broker"},
		{"compression", map[string]string{EnvProducerCompression: "brotli"}, "ProducerCompression"},
		{"acks", map[string]string{EnvProducerRequireAcks: "2"}, "ProducerRequireAcks"},
		{"offset", map[string]string{EnvConsumerStartOffset: "-3"}, "ConsumerStartOffset"},
		{"negative retries", map[string]string{EnvConsumerMaxRetries: "-1"}, "ConsumerMaxRetries"},
		{"bytes order", map[string]string{EnvConsumerMinBytes: "2048", EnvConsumerMaxBytes: "1024"}, "must not exceed"},
		{"heartbeat", map[string]string{EnvConsumerHeartbeatInterval: "20s"}, "shorter than"},
		{"zero wait", map[string]string{EnvConsumerMaxWait: "0s"}, "ConsumerMaxWait"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(envMap(tt.env))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
