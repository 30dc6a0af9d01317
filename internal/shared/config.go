package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	StoreDriver string
	MySQLDSN    string
	SQLitePath  string

	RedisAddr string
	RedisDB   int
	RedisPass string

	RatesBaseURL  string
	RatesRPS      int
	RatesAttempts int
	RateTTL       time.Duration

	CacheTTL      time.Duration
	ImportWorkers int
}

// Load reads an optional .env file, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		StoreDriver: env("STORE_DRIVER", "mysql"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/propfeed?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		SQLitePath:  env("SQLITE_PATH", "./propfeed.db"),

		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisDB:   atoi("REDIS_DB", 0),
		RedisPass: env("REDIS_PASSWORD", ""),

		RatesBaseURL:  env("EXCHANGE_RATE_BASE_URL", "https://open.er-api.com/v6/latest"),
		RatesRPS:      atoi("EXCHANGE_RATE_RPS", 2),
		RatesAttempts: atoi("EXCHANGE_RATE_ATTEMPTS", 1),
		RateTTL:       time.Duration(atoi("RATE_CACHE_HOURS", 24)) * time.Hour,

		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		ImportWorkers: atoi("IMPORT_WORKERS", 4),
	}
	if c.StoreDriver != "mysql" && c.StoreDriver != "sqlite" {
		log.Warn().Str("driver", c.StoreDriver).Msg("unknown STORE_DRIVER")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
