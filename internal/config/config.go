package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string // QUBE_DATABASE_URL (required)
	GRPCAddr    string // QUBE_GRPC_ADDR (default ":9090")
	HTTPAddr    string // QUBE_HTTP_ADDR (default ":9000")
	NATSURL     string // QUBE_NATS_URL (optional, empty = no events, no index feed)

	DefaultOrganization string        // QUBE_DEFAULT_ORGANIZATION (default "default-organization")
	SessionCacheTTL     time.Duration // QUBE_SESSION_CACHE_TTL (default 1m; 0 = no caching)

	// Authorization snapshot export
	ExportInterval   time.Duration // QUBE_EXPORT_INTERVAL (default 10m; 0 = disabled)
	ExportS3Bucket   string        // QUBE_EXPORT_S3_BUCKET (enables export when set)
	ExportS3Endpoint string        // QUBE_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        // QUBE_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string        // QUBE_EXPORT_S3_KEY (default "qube/authorizations.jsonl")
	ExportFile       string        // QUBE_EXPORT_FILE (local snapshot path, optional)
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		DatabaseURL:         os.Getenv("QUBE_DATABASE_URL"),
		GRPCAddr:            envOrDefault("QUBE_GRPC_ADDR", ":9090"),
		HTTPAddr:            envOrDefault("QUBE_HTTP_ADDR", ":9000"),
		NATSURL:             os.Getenv("QUBE_NATS_URL"),
		DefaultOrganization: envOrDefault("QUBE_DEFAULT_ORGANIZATION", "default-organization"),
		ExportS3Bucket:      os.Getenv("QUBE_EXPORT_S3_BUCKET"),
		ExportS3Endpoint:    os.Getenv("QUBE_EXPORT_S3_ENDPOINT"),
		ExportS3Region:      envOrDefault("QUBE_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Key:         envOrDefault("QUBE_EXPORT_S3_KEY", "qube/authorizations.jsonl"),
		ExportFile:          os.Getenv("QUBE_EXPORT_FILE"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("QUBE_DATABASE_URL is required")
	}

	var err error
	if c.SessionCacheTTL, err = durationOrDefault("QUBE_SESSION_CACHE_TTL", "1m"); err != nil {
		return nil, err
	}
	if c.ExportInterval, err = durationOrDefault("QUBE_EXPORT_INTERVAL", "10m"); err != nil {
		return nil, err
	}

	return c, nil
}

func durationOrDefault(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
