package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	// ConnectAttempts bounds startup pings while the database comes up.
	ConnectAttempts    int
	// Timeout bounds every individual Record Store call.
	Timeout            time.Duration
}

// MinIOConfig holds settings for the S3-compatible object host.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base used to build stored object URLs. Defaults to scheme://endpoint/bucket.
	PublicURL string
	// Namespace prefixes every owner folder: <namespace>/<ownerId>/...
	Namespace string

	Timeout       time.Duration
	UploadTimeout time.Duration
	VideoPartSize uint64
	ListLimit     int
}

// StorageConfig holds the quota and upload rules shared by every owner.
type StorageConfig struct {
	QuotaBytes        int64
	MaxUploadBytes    int64
	DownloadURLTTL    time.Duration
	UploadConcurrency int
}

// RetryConfig bounds retries of idempotent reads.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

// ReconcileConfig controls the orphaned upload sweeper.
type ReconcileConfig struct {
	Enabled  bool
	Interval time.Duration
	Grace    time.Duration
	Batch    int
}

// AuthConfig configures verification of identity provider tokens.
type AuthConfig struct {
	Enabled  bool
	JWKSURL  string
	Issuer   string
	Audience string
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level     string
	SentryDSN string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables once at startup and injected into components.
type AppConfig struct {
	AppHost   string
	Port      string
	Env       string
	BodyLimit int
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Storage   StorageConfig
	Retry     RetryConfig
	Reconcile ReconcileConfig
	Auth      AuthConfig
	Log       LogConfig
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	cfg := &AppConfig{
		AppHost:   getEnv("APP_HOST", "localhost:8080"),
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("APP_ENV", "production"),
		BodyLimit: getEnvInt("HTTP_BODY_LIMIT", 512<<20),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ConnectAttempts:    getEnvInt("DB_CONNECT_ATTEMPTS", 5),
			Timeout:            getEnvDuration("RECORD_STORE_TIMEOUT", 5*time.Second),
		},
		MinIO: MinIOConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			Bucket:        getEnv("MINIO_BUCKET", ""),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			PublicURL:     getEnv("MINIO_PUBLIC_URL", ""),
			Namespace:     getEnv("OBJECT_HOST_NAMESPACE", "user_uploads"),
			Timeout:       getEnvDuration("OBJECT_HOST_TIMEOUT", 10*time.Second),
			UploadTimeout: getEnvDuration("OBJECT_HOST_UPLOAD_TIMEOUT", 5*time.Minute),
			VideoPartSize: uint64(getEnvInt64("OBJECT_HOST_VIDEO_PART_SIZE", 6000000)),
			ListLimit:     getEnvInt("OBJECT_HOST_LIST_LIMIT", 500),
		},
		Storage: StorageConfig{
			QuotaBytes:        getEnvInt64("STORAGE_QUOTA_BYTES", 1<<30),
			MaxUploadBytes:    getEnvInt64("STORAGE_MAX_UPLOAD_BYTES", 100<<20),
			DownloadURLTTL:    getEnvDuration("DOWNLOAD_URL_TTL", time.Hour),
			UploadConcurrency: getEnvInt("UPLOAD_CONCURRENCY", 4),
		},
		Retry: RetryConfig{
			MaxAttempts:     getEnvInt("RETRY_MAX_ATTEMPTS", 3),
			InitialInterval: getEnvDuration("RETRY_INITIAL_INTERVAL", 100*time.Millisecond),
		},
		Reconcile: ReconcileConfig{
			Enabled:  getEnvBool("RECONCILE_ENABLED", true),
			Interval: getEnvDuration("RECONCILE_INTERVAL", 15*time.Minute),
			Grace:    getEnvDuration("RECONCILE_GRACE", time.Hour),
			Batch:    getEnvInt("RECONCILE_BATCH", 100),
		},
		Auth: AuthConfig{
			Enabled:  getEnvBool("AUTH_ENABLED", false),
			JWKSURL:  getEnv("AUTH_JWKS_URL", ""),
			Issuer:   getEnv("AUTH_ISSUER", ""),
			Audience: getEnv("AUTH_AUDIENCE", ""),
		},
		Log: LogConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			SentryDSN: getEnv("SENTRY_DSN", ""),
		},
	}
	cfg.Reconcile.Grace = max(cfg.Reconcile.Grace, cfg.minReconcileGrace())
	return cfg
}

// minReconcileGrace is the shortest grace that cannot overlap a running upload:
// the object put plus the intent insert and the commit.
func (c *AppConfig) minReconcileGrace() time.Duration {
	return c.MinIO.UploadTimeout + 2*c.Database.Timeout
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

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s", "1h").
func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
