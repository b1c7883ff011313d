package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Infrastructure
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	MetricsAddr   string

	// Scan universe (comma-separated symbols, e.g. "AAPL,MSFT,NVDA").
	// Empty means scan every symbol in the bar store.
	Universe string

	ScanWorkers int
	LogLevel    string

	// Alerting (all optional)
	WebhookURL       string
	TelegramBotToken string
	TelegramChatID   string
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is applied first.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		SQLitePath:    getEnv("SQLITE_PATH", "data/bars.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		Universe: getEnv("SCAN_UNIVERSE", ""),

		ScanWorkers: getEnvInt("SCAN_WORKERS", 4),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
	}
}

// ParseUniverse splits the Universe string into clean symbol names.
func (c *Config) ParseUniverse() []string {
	parts := strings.Split(c.Universe, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		symbols = append(symbols, strings.ToUpper(p))
	}
	return symbols
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] ignoring invalid %s value: %q", key, v)
		return fallback
	}
	return n
}
