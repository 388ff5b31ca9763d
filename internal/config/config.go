package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DBDriver     string // "sqlite", "postgres" or "mongo"
	SQLitePath   string
	PostgresDSN  string
	MongoURI     string
	MongoDB      string
	RedisAddr    string
	UseKafka     bool
	KafkaBrokers []string
	KafkaTopic   string
	CacheTTL     time.Duration
	DefaultLimit int
	HTTPPort     string
}

func LoadConfig() *Config {
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	useKafka, _ := strconv.ParseBool(getEnv("USE_KAFKA", "false"))
	defaultLimit, _ := strconv.Atoi(getEnv("DEFAULT_LIMIT", "0"))
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	return &Config{
		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		SQLitePath:   getEnv("SQLITE_PATH", "./crudlab.db"),
		PostgresDSN:  getEnv("POSTGRES_DSN", "postgres://localhost:5432/crudlab"),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("MONGO_DB", "crudlab"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		UseKafka:     useKafka,
		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   getEnv("KAFKA_TOPIC", "entity-events"),
		CacheTTL:     5 * time.Minute,
		DefaultLimit: defaultLimit,
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
	}
}
