// Package config loads application settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gemini   GeminiConfig
	BigQuery BigQueryConfig
	Notion   NotionConfig
	Backup   BackupConfig

	LogLevel  string
	LogFormat string

	// ChatHistoryLimit is how many past chat turns are sent with each reply prompt.
	ChatHistoryLimit int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// DatabaseConfig holds the SQLite location.
type DatabaseConfig struct {
	Path string
}

// GeminiConfig holds text generation settings. An empty APIKey disables generation.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// BigQueryConfig enables mirroring of prompt logs when ProjectID is set.
type BigQueryConfig struct {
	ProjectID string
	DatasetID string
}

// NotionConfig enables mirroring of transactions when both fields are set.
type NotionConfig struct {
	Token      string
	DatabaseID string
}

// BackupConfig names the GCS bucket used for database backups.
type BackupConfig struct {
	Bucket string
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read when present; a custom
// path may be given instead, in which case it must exist.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	historyLimit, err := parseIntEnv("CHAT_HISTORY_LIMIT", 20)
	if err != nil {
		return nil, err
	}
	if historyLimit < 0 {
		return nil, fmt.Errorf("invalid CHAT_HISTORY_LIMIT: must not be negative")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvOrDefault("PORT", "8080"),
			CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("DATABASE_PATH", "data/diane.db"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		BigQuery: BigQueryConfig{
			ProjectID: os.Getenv("BIGQUERY_PROJECT"),
			DatasetID: getEnvOrDefault("BIGQUERY_DATASET", "finance"),
		},
		Notion: NotionConfig{
			Token:      os.Getenv("NOTION_TOKEN"),
			DatabaseID: os.Getenv("NOTION_DATABASE_ID"),
		},
		Backup: BackupConfig{
			Bucket: os.Getenv("BACKUP_BUCKET"),
		},
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        getEnvOrDefault("LOG_FORMAT", "console"),
		ChatHistoryLimit: historyLimit,
	}

	return cfg, nil
}

// Validate checks that every named setting is present.
// Names are the environment variable keys, e.g. "GEMINI_API_KEY".
func (c *Config) Validate(required ...string) error {
	var missing []string
	for _, key := range required {
		if c.lookup(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// GenerationEnabled reports whether a Gemini API key is configured.
func (c *Config) GenerationEnabled() bool {
	return c.Gemini.APIKey != ""
}

// BigQueryEnabled reports whether prompt logs should be mirrored to BigQuery.
func (c *Config) BigQueryEnabled() bool {
	return c.BigQuery.ProjectID != ""
}

// NotionEnabled reports whether transactions should be mirrored to Notion.
func (c *Config) NotionEnabled() bool {
	return c.Notion.Token != "" && c.Notion.DatabaseID != ""
}

func (c *Config) lookup(key string) string {
	switch key {
	case "PORT":
		return c.Server.Port
	case "DATABASE_PATH":
		return c.Database.Path
	case "GEMINI_API_KEY":
		return c.Gemini.APIKey
	case "GEMINI_MODEL":
		return c.Gemini.Model
	case "BIGQUERY_PROJECT":
		return c.BigQuery.ProjectID
	case "BIGQUERY_DATASET":
		return c.BigQuery.DatasetID
	case "NOTION_TOKEN":
		return c.Notion.Token
	case "NOTION_DATABASE_ID":
		return c.Notion.DatabaseID
	case "BACKUP_BUCKET":
		return c.Backup.Bucket
	case "LOG_LEVEL":
		return c.LogLevel
	case "LOG_FORMAT":
		return c.LogFormat
	}
	return ""
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
