package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	// Driver selects the database/sql driver: "pgx" (default) or "postgres" (lib/pq).
	Driver             string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Config holds object storage settings for AWS S3 (or any endpoint speaking the S3 API).
type S3Config struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UsePathStyle bool
}

// StorageConfig selects and configures the object storage backend.
type StorageConfig struct {
	// Driver is one of "minio", "s3" or "memory".
	Driver string
	MinIO  MinIOConfig
	S3     S3Config
}

// LockerConfig holds the document locker settings.
type LockerConfig struct {
	// Backend is "postgres" (metadata in PostgreSQL) or "memory".
	Backend string
	// Bucket is the name the public file URLs are namespaced by.
	Bucket string
	// PublicBaseURL is the prefix every file_url starts with; the object key follows it.
	PublicBaseURL     string
	MaxBatchSize      int
	MaxFileBytes      int
	GatewayTimeoutSec int
	SignedURLTTLSec   int
}

func (l LockerConfig) GatewayTimeout() time.Duration {
	return time.Duration(l.GatewayTimeoutSec) * time.Second
}

func (l LockerConfig) SignedURLTTL() time.Duration {
	return time.Duration(l.SignedURLTTLSec) * time.Second
}

// RedisConfig holds the redis connection used for per-device identity slots.
// An empty Addr keeps the slots in memory.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// AuthConfig holds the sign-in settings.
type AuthConfig struct {
	JWTSecret   string
	TokenTTLSec int
}

func (a AuthConfig) TokenTTL() time.Duration { return time.Duration(a.TokenTTLSec) * time.Second }

// LogConfig holds logger settings.
type LogConfig struct {
	Level    string
	TimeZone string
}

// IdentityConfig holds the terminal client's local identity store settings.
type IdentityConfig struct {
	DBPath string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	Storage  StorageConfig
	Locker   LockerConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Log      LogConfig
	Identity IdentityConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	port := getEnv("PORT", "8080")
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    port,
		Database: DatabaseConfig{
			Driver:             getEnv("DB_DRIVER", "pgx"),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "minio"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "reports"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			S3: S3Config{
				Region:       getEnv("S3_REGION", "us-east-1"),
				Endpoint:     getEnv("S3_ENDPOINT", ""),
				AccessKey:    getEnv("S3_ACCESS_KEY", ""),
				SecretKey:    getEnv("S3_SECRET_KEY", ""),
				Bucket:       getEnv("S3_BUCKET", "reports"),
				UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", true),
			},
		},
		Locker: LockerConfig{
			Backend:           getEnv("LOCKER_BACKEND", "postgres"),
			Bucket:            getEnv("LOCKER_BUCKET", "reports"),
			PublicBaseURL:     getEnv("LOCKER_PUBLIC_BASE_URL", "http://localhost:"+port+"/files"),
			MaxBatchSize:      getEnvInt("LOCKER_MAX_BATCH_SIZE", 5),
			MaxFileBytes:      getEnvInt("LOCKER_MAX_FILE_BYTES", 10<<20),
			GatewayTimeoutSec: getEnvInt("LOCKER_GATEWAY_TIMEOUT_SEC", 30),
			SignedURLTTLSec:   getEnvInt("LOCKER_SIGNED_URL_TTL_SEC", 900),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Username: getEnv("REDIS_USERNAME", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("AUTH_JWT_SECRET", ""),
			TokenTTLSec: getEnvInt("AUTH_TOKEN_TTL_SEC", 3600),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			TimeZone: getEnv("LOG_TIMEZONE", "UTC"),
		},
		Identity: IdentityConfig{
			DBPath: getEnv("IDENTITY_DB_PATH", ""),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
