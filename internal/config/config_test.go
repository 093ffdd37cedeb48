package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_PATH", "GEMINI_API_KEY", "GEMINI_MODEL", "LOG_LEVEL",
		"CORS_ORIGINS", "BIGQUERY_PROJECT", "BIGQUERY_DATASET", "NOTION_TOKEN",
		"NOTION_DATABASE_ID", "BACKUP_BUCKET", "CHAT_HISTORY_LIMIT", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Path != "data/diane.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("Gemini.Model = %q", cfg.Gemini.Model)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Errorf("LogLevel = %q, LogFormat = %q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ChatHistoryLimit != 20 {
		t.Errorf("ChatHistoryLimit = %d, want 20", cfg.ChatHistoryLimit)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.GenerationEnabled() || cfg.BigQueryEnabled() || cfg.NotionEnabled() {
		t.Error("expected optional integrations to be disabled")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	for _, key := range []string{"GEMINI_API_KEY", "CHAT_HISTORY_LIMIT", "CORS_ORIGINS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	content := "GEMINI_API_KEY=secret\nCHAT_HISTORY_LIMIT=5\nCORS_ORIGINS=http://a, http://b\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.GenerationEnabled() {
		t.Error("expected generation to be enabled")
	}
	if cfg.ChatHistoryLimit != 5 {
		t.Errorf("ChatHistoryLimit = %d, want 5", cfg.ChatHistoryLimit)
	}
	if got := strings.Join(cfg.Server.CORSOrigins, "|"); got != "http://a|http://b" {
		t.Errorf("CORSOrigins = %q", got)
	}
}

func TestLoad_InvalidHistoryLimit(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHAT_HISTORY_LIMIT", "many")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric CHAT_HISTORY_LIMIT")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Gemini: GeminiConfig{Model: "m"}}

	err := cfg.Validate("GEMINI_API_KEY", "GEMINI_MODEL", "BACKUP_BUCKET")
	if err == nil {
		t.Fatal("expected missing configuration error")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") || !strings.Contains(err.Error(), "BACKUP_BUCKET") {
		t.Errorf("error should name missing keys, got: %v", err)
	}
	if strings.Contains(err.Error(), "GEMINI_MODEL") {
		t.Errorf("error should not name present keys, got: %v", err)
	}

	if err := cfg.Validate("GEMINI_MODEL"); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}
