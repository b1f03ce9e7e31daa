package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Content Content
	Server  Server
	Storage Storage
	Notify  Notify
	Payment Payment
}

type Content struct {
	BaseURL string
	Timeout time.Duration
}

type Server struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Storage struct {
	Dir      string
	RedisURL string
}

type Notify struct {
	PollInterval time.Duration
}

type Payment struct {
	Delay time.Duration
}

func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Content: Content{
			BaseURL: normalizeBaseURL(getEnv("CONTENT_BASE_URL", "http://localhost:1337")),
			Timeout: getEnvDuration("CONTENT_TIMEOUT", 15*time.Second),
		},
		Server: Server{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Storage: Storage{
			Dir:      getEnv("STORAGE_DIR", ".boutique"),
			RedisURL: getEnv("STORAGE_REDIS_URL", ""),
		},
		Notify: Notify{
			PollInterval: getEnvDuration("NOTIFY_POLL_INTERVAL", 10*time.Second),
		},
		Payment: Payment{
			Delay: getEnvDuration("PAYMENT_DELAY", 1500*time.Millisecond),
		},
	}

	return cfg, nil
}

// normalizeBaseURL strips a trailing /admin segment; operators sometimes paste
// the content store's admin panel URL instead of the API root.
func normalizeBaseURL(raw string) string {
	trimmed := strings.TrimRight(raw, "/")
	trimmed = strings.TrimSuffix(trimmed, "/admin")
	return strings.TrimRight(trimmed, "/")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		fmt.Printf("Warning: invalid duration for %s, using default\n", key)
	}
	return defaultValue
}
