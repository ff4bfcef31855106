package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from environment variables.
// The watchlist itself lives in a separate YAML document (see watchlist.go);
// everything here tunes how checks are executed and where results go.
type Config struct {
	MaxConcurrency int
	MaxRetries     int
	RetryBaseDelay time.Duration

	FetchMode      string // "http" or "browser"
	FetchTimeout   time.Duration
	RequestsPerSec float64
	ChromeBin      string

	ZScoreThreshold float64
	PriceCeiling    float64 // 0 disables the unit-error guard
	DedupThreshold  float64

	HistoryBackend string // "csv" or "postgres"
	HistoryCSVPath string
	AlertLogPath   string
	AlertDBPath    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		RetryBaseDelay: getEnvDuration("RETRY_BASE_DELAY", 2*time.Second),

		FetchMode:      getEnv("FETCH_MODE", "http"),
		FetchTimeout:   getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		RequestsPerSec: getEnvFloat("REQUESTS_PER_SEC", 1),
		ChromeBin:      getEnv("CHROME_BIN", ""),

		ZScoreThreshold: getEnvFloat("ZSCORE_THRESHOLD", 2.0),
		PriceCeiling:    getEnvFloat("PRICE_CEILING", 0),
		DedupThreshold:  getEnvFloat("DEDUP_THRESHOLD", 1.0),

		HistoryBackend: getEnv("HISTORY_BACKEND", "csv"),
		HistoryCSVPath: getEnv("HISTORY_CSV_PATH", "prices.csv"),
		AlertLogPath:   getEnv("ALERT_LOG_PATH", "alerts.log"),
		AlertDBPath:    getEnv("ALERT_DB_PATH", "alerts.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "tracker"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "tracker_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
