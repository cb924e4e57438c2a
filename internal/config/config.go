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
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicEndpoint replaces Endpoint in presigned URLs handed to external
	// actors (the classifier worker, browsers) when the store is reached
	// through a different hostname than the service uses internally.
	PublicEndpoint string
}

// ClassifierConfig holds settings for the external classifier/OCR worker.
type ClassifierConfig struct {
	WebhookURL     string
	RequestTimeout time.Duration
	ReadURLTTL     time.Duration
}

// NATSConfig holds settings for the notification task queue.
type NATSConfig struct {
	URL     string
	Subject string
}

// SMTPConfig holds outbound mail transport settings. Mail is disabled when
// Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost string
	Port    string

	// UploadURLTTL bounds the write capability minted at upload intent;
	// ViewURLTTL bounds read capabilities for viewers.
	UploadURLTTL time.Duration
	ViewURLTTL   time.Duration

	// MigrateTimeout bounds a single object-store copy+delete cycle.
	MigrateTimeout time.Duration

	// ReconcileOnStart enables the startup sweep that repairs registry rows
	// whose storage key no longer matches an object in the store.
	ReconcileOnStart bool

	Database   DatabaseConfig
	MinIO      MinIOConfig
	Classifier ClassifierConfig
	NATS       NATSConfig
	SMTP       SMTPConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:          getEnv("APP_HOST", "localhost:8080"),
		Port:             getEnv("PORT", "8080"), // default only for non-sensitive value
		UploadURLTTL:     getEnvDuration("UPLOAD_URL_TTL_SEC", 5*time.Minute),
		ViewURLTTL:       getEnvDuration("VIEW_URL_TTL_SEC", 5*time.Minute),
		MigrateTimeout:   getEnvDuration("MIGRATE_TIMEOUT_SEC", 30*time.Second),
		ReconcileOnStart: getEnvBool("RECONCILE_ON_START", true),
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
		},
		MinIO: MinIOConfig{
			Endpoint:       getEnv("MINIO_ENDPOINT", ""),
			AccessKey:      getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:      getEnv("MINIO_SECRET_KEY", ""),
			Bucket:         getEnv("MINIO_BUCKET", ""),
			UseSSL:         getEnvBool("MINIO_USE_SSL", false),
			PublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", ""),
		},
		Classifier: ClassifierConfig{
			WebhookURL:     getEnv("CLASSIFIER_WEBHOOK_URL", ""),
			RequestTimeout: getEnvDuration("CLASSIFIER_TIMEOUT_SEC", 10*time.Second),
			ReadURLTTL:     getEnvDuration("CLASSIFIER_READ_URL_TTL_SEC", 15*time.Minute),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "docflow.document.routed"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
			From:     getEnv("FROM_EMAIL", getEnv("SMTP_USER", "")),
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

// getEnvDuration reads a duration configured in whole seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil && i > 0 {
			return time.Duration(i) * time.Second
		}
	}
	return def
}
