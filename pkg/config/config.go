package config

import (
	"os"
	"strconv"
)

// Config carries everything the binaries inject into components.
// Nothing reads the environment after Load returns.
type Config struct {
	AppEnv   string
	LogLevel string
	HTTPPort int

	// StoreDriver selects the cart record store: memory, dynamo, redis.
	StoreDriver string
	// QueueDriver selects the cleanup queue: memory, sqs.
	QueueDriver string

	CartTable   string
	AWSRegion   string
	AWSEndpoint string
	QueueURL    string

	RedisAddr    string
	RedisChannel string

	// AuthSecret verifies bearer tokens for owner resolution; empty
	// disables token resolution.
	AuthSecret string

	MigrateMaxConcurrent int
	CleanupBatchSize     int
	ObserverFlushEvery   int
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		StoreDriver: getEnv("STORE_DRIVER", "memory"),
		QueueDriver: getEnv("QUEUE_DRIVER", "memory"),

		CartTable:   getEnv("CART_TABLE", "cart-table"),
		AWSRegion:   getEnv("AWS_REGION", ""),
		AWSEndpoint: getEnv("AWS_ENDPOINT", ""),
		QueueURL:    getEnv("CLEANUP_QUEUE_URL", ""),

		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisChannel: getEnv("REDIS_CHANGE_CHANNEL", "cart.changes"),

		AuthSecret: getEnv("AUTH_SECRET", ""),

		MigrateMaxConcurrent: getEnvInt("MIGRATE_MAX_CONCURRENT", 4),
		CleanupBatchSize:     getEnvInt("CLEANUP_BATCH_SIZE", 10),
		ObserverFlushEvery:   getEnvInt("OBSERVER_FLUSH_EVERY", 100),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
