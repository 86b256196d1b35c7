// Package backend selects and constructs the transaction export backend
// from application configuration, so the worker binary stays free of
// per-backend wiring.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"moneta/internal/config"
	"moneta/internal/export"
	exportgoogle "moneta/internal/export/google"
	exportmemory "moneta/internal/export/memory"
)

// Type identifies an export backend implementation.
type Type string

const (
	// TypeMemory keeps the export mirror in process memory. Used in
	// development and tests.
	TypeMemory Type = "memory"
	// TypeGoogle mirrors transactions to a Google Sheets spreadsheet.
	TypeGoogle Type = "google"
)

// IsValid reports whether t names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case TypeMemory, TypeGoogle:
		return true
	}
	return false
}

// Result bundles the constructed backend's ports.
type Result struct {
	Writer  export.TransactionWriter
	Remover export.TransactionRemover
}

// New builds the export backend named by cfg.ExportBackend.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.ExportBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid export backend: %q", cfg.ExportBackend)
	}

	switch t {
	case TypeGoogle:
		cli, err := exportgoogle.New(ctx, exportgoogle.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			OAuthClientJSON: cfg.GoogleOAuthClientJSON,
			OAuthClientFile: cfg.GoogleOAuthClientFile,
			OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
			OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize google sheets export: %w", err)
		}
		logger.Info("Initialized Google Sheets export",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
		return &Result{Writer: cli, Remover: cli}, nil

	default:
		store := exportmemory.New()
		logger.Info("Initialized in-memory export backend")
		return &Result{Writer: store, Remover: store}, nil
	}
}
