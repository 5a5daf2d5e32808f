package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL      string
	APITimeout      time.Duration
	Environment     string
	LogLevel        string
	LogFile         string
	RedisURL        string
	FeedCacheTTL    time.Duration
	ExportDir       string
	DefaultLanguage string
	Events          EventConfig
}

// LoadConfig reads .env (when present) and the process environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

// LoadConfigFrom is LoadConfig with an explicit dotenv path. A non-empty
// process variable wins over the file; an empty one does not hide it.
func LoadConfigFrom(envFile string) (*Config, error) {
	file, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	env := dotenv(file)

	return &Config{
		APIBaseURL:      strings.TrimRight(env.get("API_BASE_URL", "http://127.0.0.1:8080"), "/"),
		APITimeout:      env.duration("API_TIMEOUT", 10*time.Second),
		Environment:     env.get("ENVIRONMENT", "development"),
		LogLevel:        env.get("LOG_LEVEL", "info"),
		LogFile:         env.get("LOG_FILE", "codesamurai.log"),
		RedisURL:        env.get("REDIS_URL", ""),
		FeedCacheTTL:    env.duration("FEED_CACHE_TTL", 30*24*time.Hour),
		ExportDir:       env.get("EXPORT_DIR", "."),
		DefaultLanguage: env.get("DEFAULT_LANGUAGE", "C"),
		Events: EventConfig{
			Enabled:      env.boolean("EVENTS_ENABLED", true),
			Publisher:    env.get("EVENTS_PUBLISHER", "gochannel"),
			KafkaBrokers: env.get("KAFKA_BROKERS", "localhost:9092"),
			LessonTopic:  env.get("LESSON_TOPIC", "lesson-events"),
		},
	}, nil
}

// IsDevelopment reports whether the client runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// dotenv holds the values read from the env file
type dotenv map[string]string

func (d dotenv) lookup(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return d[key]
}

func (d dotenv) get(key, defaultValue string) string {
	value := d.lookup(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (d dotenv) duration(key string, defaultValue time.Duration) time.Duration {
	value := d.lookup(key)
	if value == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(value)
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func (d dotenv) boolean(key string, defaultValue bool) bool {
	value := d.lookup(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
