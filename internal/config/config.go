package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Artifacts
	ArtifactBackend       string
	ExportDir             string
	GCSBucket             string
	GCSPrefix             string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Reports and exports
	ReportFontPath    string
	DefaultCurrency   string
	ExportConcurrency int

	LogLevel string
}

var (
	validDataBackends     = []string{"memory", "sqlite"}
	validArtifactBackends = []string{"gcs", "local"}
)

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expenses.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expenses"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_requests"),

		ArtifactBackend:       getEnv("ARTIFACT_BACKEND", "local"),
		ExportDir:             getEnv("EXPORT_DIR", "./data/exports"),
		GCSBucket:             getEnv("GCS_BUCKET", ""),
		GCSPrefix:             getEnv("GCS_PREFIX", "exports"),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		ReportFontPath:    getEnv("REPORT_FONT_PATH", ""),
		DefaultCurrency:   getEnv("DEFAULT_CURRENCY", "₹"),
		ExportConcurrency: getEnvInt("EXPORT_CONCURRENCY", 2),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if !slices.Contains(validDataBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validDataBackends))
	}
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(filepath.Dir(c.SQLiteDBPath)); msg != "" {
			errors = append(errors, "cannot create SQLite database directory "+msg)
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains(validArtifactBackends, c.ArtifactBackend) {
		errors = append(errors, fmt.Sprintf("invalid artifact backend '%s': must be one of %v", c.ArtifactBackend, validArtifactBackends))
	}
	switch c.ArtifactBackend {
	case "local":
		if c.ExportDir == "" {
			errors = append(errors, "export directory cannot be empty when using local artifacts")
		} else if msg := ensureDir(c.ExportDir); msg != "" {
			errors = append(errors, "cannot create export directory "+msg)
		}
	case "gcs":
		if c.GCSBucket == "" {
			errors = append(errors, "GCS bucket is required when using gcs artifacts")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if c.ReportFontPath != "" {
		if _, err := os.Stat(c.ReportFontPath); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("report font file does not exist: %s", c.ReportFontPath))
		}
	}
	if c.DefaultCurrency == "" {
		errors = append(errors, "default currency symbol cannot be empty")
	} else if utf8.RuneCountInString(c.DefaultCurrency) > 5 {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s': at most 5 characters", c.DefaultCurrency))
	}

	if c.ExportConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid export concurrency %d: must be at least 1", c.ExportConcurrency))
	} else if c.ExportConcurrency > 32 {
		errors = append(errors, fmt.Sprintf("invalid export concurrency %d: must be at most 32", c.ExportConcurrency))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ensureDir creates dir if missing and returns a description of any failure.
func ensureDir(dir string) string {
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("'%s': %v", dir, err)
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
