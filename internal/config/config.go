package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultEnv          = "dev"
	defaultAddr         = "127.0.0.1:8080"
	defaultDBPath       = "./quotecalc.db"
	defaultHistoryDepth = 20
	maxHistoryDepth     = 50
	defaultCurrency     = "KRW"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env                 string
	LogLevel            string
	Addr                string
	DBPath              string
	MirrorDir           string
	HistoryDepth        int
	ExportIncludeQuotes bool
	Currency            string
	MetricsEnabled      bool
}

// IsDev reports whether the app runs in development mode.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "", "dev", "development":
		return true
	}
	return false
}

// Load reads envFile (if present) into the process environment and then
// resolves every key from the environment with defaults. Variables that are
// already set win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("ADDR", defaultAddr)
	v.SetDefault("DB_PATH", defaultDBPath)
	v.SetDefault("MIRROR_DIR", "")
	v.SetDefault("HISTORY_DEPTH", defaultHistoryDepth)
	v.SetDefault("EXPORT_INCLUDE_QUOTES", false)
	v.SetDefault("CURRENCY", defaultCurrency)
	v.SetDefault("METRICS_ENABLED", true)

	cfg := Config{
		Env:                 v.GetString("APP_ENV"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		Addr:                v.GetString("ADDR"),
		DBPath:              v.GetString("DB_PATH"),
		MirrorDir:           v.GetString("MIRROR_DIR"),
		HistoryDepth:        v.GetInt("HISTORY_DEPTH"),
		ExportIncludeQuotes: v.GetBool("EXPORT_INCLUDE_QUOTES"),
		Currency:            v.GetString("CURRENCY"),
		MetricsEnabled:      v.GetBool("METRICS_ENABLED"),
	}

	if cfg.HistoryDepth < defaultHistoryDepth || cfg.HistoryDepth > maxHistoryDepth {
		return Config{}, fmt.Errorf("HISTORY_DEPTH must be between %d and %d, got %d",
			defaultHistoryDepth, maxHistoryDepth, cfg.HistoryDepth)
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	return cfg, nil
}
