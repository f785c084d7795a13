// Package cli holds the initialization steps shared by cmd/tahseel and
// cmd/tahseel-worker.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"tahseel/internal/catalog"
	"tahseel/internal/config"
	"tahseel/internal/log"
	"tahseel/internal/storage"
)

// LoadEnvFile loads the .env file for local development. Errors are ignored
// silently as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging and installs it as the process
// default.
func SetupLogger() *log.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := log.New(log.ComponentApp, level)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it, exiting the
// process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the SQLite repository and runs migrations, exiting the
// process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// InitCatalog loads the payment-method/grade catalog, falling back to the
// built-in defaults when no file is configured or the file is unreadable.
func InitCatalog(logger *log.Logger, path string) *catalog.Catalog {
	cat, err := catalog.LoadOrDefault(path)
	if err != nil {
		logger.Warn("Failed to load catalog file, using defaults",
			log.FieldError, err, "path", path)
		return catalog.Default()
	}
	return cat
}
