package config

import (
	"os"
	"path/filepath"
	"testing"
)

var keys = []string{
	"APP_ENV", "ADDR", "DB_PATH", "MIRROR_DIR", "HISTORY_DEPTH",
	"EXPORT_INCLUDE_QUOTES", "CURRENCY", "METRICS_ENABLED", "LOG_LEVEL",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != "127.0.0.1:8080" {
		t.Fatalf("Addr=%q, want loopback default", cfg.Addr)
	}
	if cfg.DBPath != "./quotecalc.db" {
		t.Fatalf("DBPath=%q", cfg.DBPath)
	}
	if cfg.HistoryDepth != 20 {
		t.Fatalf("HistoryDepth=%d, want 20", cfg.HistoryDepth)
	}
	if cfg.ExportIncludeQuotes {
		t.Fatalf("ExportIncludeQuotes should default to false")
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("MetricsEnabled should default to true")
	}
	if cfg.Currency != "KRW" {
		t.Fatalf("Currency=%q, want KRW", cfg.Currency)
	}
	if !cfg.IsDev() {
		t.Fatalf("default env should be dev")
	}
}

func TestLoad_ReadsEnvFileAndIgnoresNoise(t *testing.T) {
	clearEnv(t)

	path := writeEnvFile(t, `
# comment

APP_ENV=production
export ADDR=0.0.0.0:9000
MIRROR_DIR="/srv/quotes"
HISTORY_DEPTH=50
EXPORT_INCLUDE_QUOTES=true
CURRENCY='USD'
LOG_LEVEL=warn
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.IsDev() {
		t.Fatalf("production env reported as dev")
	}
	if cfg.Addr != "0.0.0.0:9000" {
		t.Fatalf("Addr=%q", cfg.Addr)
	}
	if cfg.MirrorDir != "/srv/quotes" {
		t.Fatalf("MirrorDir=%q", cfg.MirrorDir)
	}
	if cfg.HistoryDepth != 50 {
		t.Fatalf("HistoryDepth=%d", cfg.HistoryDepth)
	}
	if !cfg.ExportIncludeQuotes {
		t.Fatalf("ExportIncludeQuotes not read")
	}
	if cfg.Currency != "USD" {
		t.Fatalf("Currency=%q", cfg.Currency)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel=%q", cfg.LogLevel)
	}
}

func TestLoad_DoesNotOverwriteExistingEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "/already/set.db")

	path := writeEnvFile(t, "DB_PATH=/from/file.db\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/already/set.db" {
		t.Fatalf("DBPath=%q, want %q", cfg.DBPath, "/already/set.db")
	}
}

func TestLoad_RejectsHistoryDepthOutOfRange(t *testing.T) {
	for _, depth := range []string{"0", "19", "51"} {
		clearEnv(t)
		t.Setenv("HISTORY_DEPTH", depth)

		if _, err := Load(""); err == nil {
			t.Fatalf("expected error for HISTORY_DEPTH=%s", depth)
		}
	}
}
