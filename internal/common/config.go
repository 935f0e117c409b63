package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	Auth        AuthConfig
	OCR         OCRConfig
	LLM         LLMConfig
	ObjectStore ObjectStoreConfig
	Import      ImportConfig
	Log         LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	GRPCAddr        string
	ShutdownTimeout time.Duration
	GinMode         string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

// OCRConfig holds external text-extraction tool configuration
type OCRConfig struct {
	Pdftotext      string
	Pdftoppm       string
	Tesseract      string
	TesseractLang  string
	TessdataDir    string
	MaxPages       int
	MaxImageDim    int
	CommandTimeout time.Duration
	MaxPromptChars int
}

// LLMConfig holds AI extraction configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

type ObjectStoreConfig struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	KeyPrefix string
	Timeout   time.Duration
}

type ImportConfig struct {
	MaxUploadBytes int64
	StaleJobAfter  time.Duration
	ReapInterval   time.Duration
}

type LogConfig struct {
	Level  string
	Format string // "text" | "json"
}

// LoadConfig loads configuration from environment variables. A .env file in the
// working directory is honoured for local development.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:        normalizeAddr(getEnv("HTTP_ADDR", ":8080")),
			GRPCAddr:        normalizeAddr(getEnv("GRPC_ADDR", ":8081")),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			GinMode:         getEnv("GIN_MODE", "release"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "hr-ingest"),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 12*time.Hour),
		},
		OCR: OCRConfig{
			Pdftotext:      getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:       getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:      getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang:  getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:    getEnv("TESSDATA_PREFIX", ""),
			MaxPages:       getEnvAsInt("OCR_MAX_PAGES", 10),
			MaxImageDim:    getEnvAsInt("OCR_MAX_IMAGE_DIMENSION", 2500),
			CommandTimeout: getEnvAsDuration("OCR_COMMAND_TIMEOUT", 90*time.Second),
			MaxPromptChars: getEnvAsInt("AI_MAX_INPUT_CHARS", 12000),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("AI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("AI_API_KEY", ""),
			Temperature: getEnvAsFloat32("AI_TEMPERATURE", 0.1),
			MaxTokens:   getEnvAsInt("AI_MAX_TOKENS", 2000),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		},
		ObjectStore: ObjectStoreConfig{
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", "ap-south-1"),
			AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			KeyPrefix: getEnv("S3_KEY_PREFIX", "imports"),
			Timeout:   getEnvAsDuration("S3_TIMEOUT", 60*time.Second),
		},
		Import: ImportConfig{
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
			StaleJobAfter:  getEnvAsDuration("STALE_JOB_AFTER", 15*time.Minute),
			ReapInterval:   getEnvAsDuration("STALE_JOB_REAP_INTERVAL", time.Minute),
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
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

func normalizeAddr(addr string) string {
	if addr != "" && !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("DB_URL", c.Database.DSN, Required("is required")).
		Field("JWT_SECRET", c.Auth.JWTSecret, Required("is required")).
		Field("AI_API_KEY", c.LLM.APIKey, Required("is required")).
		Field("S3_BUCKET", c.ObjectStore.Bucket, Required("is required")).
		Field("AWS_ACCESS_KEY_ID", c.ObjectStore.AccessKey, Required("is required")).
		Field("AWS_SECRET_ACCESS_KEY", c.ObjectStore.SecretKey, Required("is required")).
		Field("HTTP_ADDR", c.Server.HTTPAddr, Required("is required")).
		Field("GIN_MODE", c.Server.GinMode, OneOf("must be debug, release or test", "debug", "release", "test")).
		Field("LOG_FORMAT", strings.ToLower(c.Log.Format), OneOf("must be text or json", "text", "json"))
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrValidation)
	}
	return nil
}
