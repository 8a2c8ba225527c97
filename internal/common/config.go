package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable through STORE_BACKEND.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	OCR       OCRConfig
	LLM       LLMConfig
	Queue     QueueConfig
	Ingest    IngestConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr          string
	GRPCHealthAddr    string // empty disables the gRPC health endpoint
	MaxUploadBytes    int64
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// StorageConfig selects where contract records and uploaded files live.
type StorageConfig struct {
	Backend    string
	UploadDir  string
	SQLitePath string
}

// DatabaseConfig holds postgres-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// RedisConfig is shared by the redis store and the upload rate limiter.
type RedisConfig struct {
	URL       string
	KeyPrefix string
}

// RateLimitConfig configures the per-client upload token bucket. Capacity 0 disables it.
type RateLimitConfig struct {
	Capacity        int
	RefillPerSecond float64
	TTL             time.Duration
}

// OCRConfig holds text-extraction configuration
type OCRConfig struct {
	Pdftotext   string
	Pdftoppm    string
	Tesseract   string
	TessdataDir string
	Fallback    bool // OCR scanned PDFs that have no text layer
	MaxPages    int
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
	JSONMode    bool
}

// QueueConfig sizes the background processing pool.
type QueueConfig struct {
	Workers    int
	Size       int
	JobTimeout time.Duration
}

// IngestConfig enables the watched inbox directory. An empty InboxDir disables it.
type IngestConfig struct {
	InboxDir    string
	InitialScan bool
	Debounce    time.Duration
}

type LogConfig struct {
	Level  string
	Format string // "json" | "text"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:          getEnv("HTTP_ADDR", ":8000"),
			GRPCHealthAddr:    getEnv("GRPC_HEALTH_ADDR", ""),
			MaxUploadBytes:    int64(getEnvAsInt("MAX_UPLOAD_BYTES", 50<<20)),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 10*time.Second),
			ShutdownTimeout:   getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
			UploadDir:  getEnv("UPLOAD_DIR", "uploaded_contracts"),
			SQLitePath: getEnv("SQLITE_PATH", "contracts.db"),
		},
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", ""),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "contracts"),
		},
		RateLimit: RateLimitConfig{
			Capacity:        getEnvAsInt("RATE_LIMIT_CAPACITY", 0),
			RefillPerSecond: float64(getEnvAsFloat32("RATE_LIMIT_REFILL_PER_SEC", 1)),
			TTL:             getEnvAsDuration("RATE_LIMIT_TTL", 10*time.Minute),
		},
		OCR: OCRConfig{
			Pdftotext:   getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Fallback:    getEnvAsBool("OCR_FALLBACK", true),
			MaxPages:    getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getEnv("LLM_MODEL", "llama-3.1-8b-instant"),
			APIKey:      getEnv("GROQ_API_KEY", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			JSONMode:    getEnvAsBool("LLM_JSON_MODE", false),
		},
		Queue: QueueConfig{
			Workers:    getEnvAsInt("QUEUE_WORKERS", 4),
			Size:       getEnvAsInt("QUEUE_SIZE", 256),
			JobTimeout: getEnvAsDuration("JOB_TIMEOUT", 3*time.Minute),
		},
		Ingest: IngestConfig{
			InboxDir:    getEnv("INBOX_DIR", ""),
			InitialScan: getEnvAsBool("INBOX_INITIAL_SCAN", true),
			Debounce:    getEnvAsDuration("INBOX_DEBOUNCE", 500*time.Millisecond),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. A missing LLM key is not an
// error here: jobs fail individually until it is configured.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StoreMemory:
	case StoreSQLite:
		if c.Storage.SQLitePath == "" {
			return NewAppError("CONFIG_ERROR", "SQLITE_PATH is required for the sqlite store", ErrConfig)
		}
	case StorePostgres:
		if c.Database.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres store", ErrConfig)
		}
	case StoreRedis:
		if c.Redis.URL == "" {
			return NewAppError("CONFIG_ERROR", "REDIS_URL is required for the redis store", ErrConfig)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown STORE_BACKEND %q", c.Storage.Backend), ErrConfig)
	}
	if c.RateLimit.Capacity > 0 && c.Redis.URL == "" {
		return NewAppError("CONFIG_ERROR", "REDIS_URL is required when RATE_LIMIT_CAPACITY is set", ErrConfig)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrConfig)
	}
	if c.Storage.UploadDir == "" {
		return NewAppError("CONFIG_ERROR", "UPLOAD_DIR is required", ErrConfig)
	}
	if c.Queue.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "QUEUE_WORKERS must be positive", ErrConfig)
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL / LOG_FORMAT.
func (c LogConfig) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
