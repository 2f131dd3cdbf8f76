package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"worklens/internal/config"
	"worklens/internal/core"
	"worklens/internal/ingest"
	applog "worklens/internal/log"
	"worklens/internal/storage"
)

// worklens-import pulls billing rows into the local database, either
// from a Google Sheets spreadsheet or from an Excel workbook on disk.
// The import replaces every existing record.
func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentIngest})
	applog.SetDefault(logger)

	var (
		filePath = flag.String("file", "", "path to an .xlsx workbook (default: fetch from Google Sheets)")
		timeout  = flag.Duration("timeout", 5*time.Minute, "overall import timeout")
	)
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	records, err := fetchRecords(ctx, cfg, *filePath)
	if err != nil {
		logger.Error("Failed to read work records", "error", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.Error("No work records found in source")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	count, err := repo.ReplaceAllRecords(ctx, records)
	if err != nil {
		logger.Error("Failed to import work records", "error", err)
		os.Exit(1)
	}

	logger.Info("Import complete", "records", count, "db", cfg.SQLiteDBPath)
}

func fetchRecords(ctx context.Context, cfg *config.Config, filePath string) ([]core.WorkRecord, error) {
	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		return ingest.ReadWorkbook(ctx, f)
	}

	if cfg.GoogleSpreadsheetID == "" {
		return nil, fmt.Errorf("no source: pass -file or set GOOGLE_SPREADSHEET_ID")
	}
	src, err := ingest.NewSheetsSourceFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("init sheets source: %w", err)
	}
	return src.Fetch(ctx)
}
